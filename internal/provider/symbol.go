package provider

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/jump/internal/candidate"
	jerrors "github.com/Aman-CERP/jump/internal/errors"
	"github.com/Aman-CERP/jump/internal/scanner"
	"github.com/Aman-CERP/jump/internal/symbols"
)

// DefaultSymbolCacheSize is the number of parsed files kept between loads.
const DefaultSymbolCacheSize = 4096

// SymbolCache holds parsed symbols keyed by file identity. It is safe for
// concurrent use and meant to be shared by the sessions of one process.
type SymbolCache struct {
	lru *lru.Cache[symbolKey, []symbols.Symbol]
}

type symbolKey struct {
	path    string
	modTime int64
	size    int64
}

// NewSymbolCache creates a cache holding up to size files.
func NewSymbolCache(size int) (*SymbolCache, error) {
	if size <= 0 {
		size = DefaultSymbolCacheSize
	}
	c, err := lru.New[symbolKey, []symbols.Symbol](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create symbol cache: %w", err)
	}
	return &SymbolCache{lru: c}, nil
}

// Len returns the number of cached files.
func (c *SymbolCache) Len() int {
	return c.lru.Len()
}

// SymbolOptions configures a SymbolProvider.
type SymbolOptions struct {
	// Scan selects the files of a whole-root load. Scan.Root is the scope
	// root.
	Scan scanner.Options

	// Document limits the load to one file when set.
	Document string

	// Languages restricts extraction. Empty means every supported language.
	Languages []string

	// MarkdownHeadings includes markdown headings.
	MarkdownHeadings bool

	// Workers caps concurrent parsing. Zero means GOMAXPROCS.
	Workers int
}

// SymbolProvider lists the declarations of the scope document or of every
// supported file under the root.
type SymbolProvider struct {
	scanner *scanner.Scanner
	cache   *SymbolCache
	opts    SymbolOptions
	opener  Opener
	enabled map[string]bool
}

// NewSymbolProvider creates a SymbolProvider. cache may be nil.
func NewSymbolProvider(s *scanner.Scanner, cache *SymbolCache, opts SymbolOptions, opener Opener) *SymbolProvider {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	langs := opts.Languages
	if len(langs) == 0 {
		langs = symbols.Languages()
	}
	enabled := make(map[string]bool, len(langs))
	for _, l := range langs {
		enabled[l] = symbols.Supported(l)
	}
	enabled["markdown"] = opts.MarkdownHeadings && (len(opts.Languages) == 0 || enabled["markdown"])

	return &SymbolProvider{scanner: s, cache: cache, opts: opts, opener: opener, enabled: enabled}
}

func (p *SymbolProvider) Kind() candidate.Kind { return candidate.KindSymbol }

// Load extracts symbols. Files that cannot be read or parsed are skipped;
// only a failed walk or an unreadable scope document fails the load.
func (p *SymbolProvider) Load(ctx context.Context) ([]*candidate.Candidate, error) {
	start := time.Now()

	files, err := p.files(ctx)
	if err != nil {
		return nil, err
	}

	perFile := make([][]symbols.Symbol, len(files))
	jobs := make(chan int)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range files {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < min(p.opts.Workers, max(len(files), 1)); w++ {
		g.Go(func() error {
			ex := symbols.NewExtractor()
			defer ex.Close()
			for i := range jobs {
				perFile[i] = p.extract(gctx, ex, files[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var cands []*candidate.Candidate
	for i, syms := range perFile {
		f := files[i]
		for _, s := range syms {
			cands = append(cands, candidate.NewSymbol(s.Name, candidate.SymbolData{
				Type:      string(s.Type),
				Container: s.Container,
				File:      f.Path,
				AbsPath:   f.AbsPath,
				Line:      s.Line,
				EndLine:   s.EndLine,
				Signature: s.Signature,
				Language:  f.Language,
			}))
		}
	}

	slog.Debug("symbols_loaded",
		slog.Int("files", len(files)),
		slog.Int("count", len(cands)),
		slog.Duration("duration", time.Since(start)))
	return cands, nil
}

// files returns the files to parse: the scope document alone, or every
// file of an enabled language under the root.
func (p *SymbolProvider) files(ctx context.Context) ([]*scanner.FileInfo, error) {
	if p.opts.Document != "" {
		doc := p.opts.Document
		info, err := os.Stat(doc)
		if err != nil {
			return nil, jerrors.New(jerrors.ErrCodeFileNotFound, "scope document not found: "+doc, err)
		}
		rel := filepath.Base(doc)
		if p.opts.Scan.Root != "" {
			if r, err := filepath.Rel(p.opts.Scan.Root, doc); err == nil {
				rel = filepath.ToSlash(r)
			}
		}
		return []*scanner.FileInfo{{
			Path:     rel,
			AbsPath:  doc,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
			Language: scanner.DetectLanguage(doc),
		}}, nil
	}

	all, err := p.scanner.Collect(ctx, p.opts.Scan)
	if err != nil {
		return nil, err
	}
	files := all[:0]
	for _, f := range all {
		if p.enabled[f.Language] {
			files = append(files, f)
		}
	}
	return files, nil
}

func (p *SymbolProvider) extract(ctx context.Context, ex *symbols.Extractor, f *scanner.FileInfo) []symbols.Symbol {
	key := symbolKey{path: f.AbsPath, modTime: f.ModTime.UnixNano(), size: f.Size}
	if p.cache != nil {
		if syms, ok := p.cache.lru.Get(key); ok {
			return syms
		}
	}

	src, err := os.ReadFile(f.AbsPath)
	if err != nil {
		slog.Debug("symbols_skip_unreadable", slog.String("path", f.Path), slog.String("error", err.Error()))
		return nil
	}
	syms, err := ex.Extract(ctx, src, f.Language)
	if err != nil {
		slog.Debug("symbols_skip_unparsable", slog.String("path", f.Path), slog.String("error", err.Error()))
		return nil
	}

	if p.cache != nil {
		p.cache.lru.Add(key, syms)
	}
	return syms
}

// Activate opens the file at the symbol's line on commit.
func (p *SymbolProvider) Activate(ctx context.Context, c *candidate.Candidate, commit bool) error {
	if err := checkKind(p, c); err != nil {
		return err
	}
	if !commit || p.opener == nil {
		return nil
	}
	return p.opener.Open(ctx, c.Symbol.AbsPath, c.Symbol.Line)
}
