package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
	"github.com/Aman-CERP/jump/internal/gitignore"
)

// ignoreCacheSize bounds the number of parsed .gitignore files kept between
// scans.
const ignoreCacheSize = 1000

// Scanner discovers files in a project directory. A Scanner may run several
// scans concurrently; parsed .gitignore files are shared between them.
type Scanner struct {
	// ignoreCache maps an absolute directory to its parsed .gitignore, or to
	// nil when the directory has none.
	ignoreCache *lru.Cache[string, *gitignore.Matcher]
}

// New creates a Scanner.
func New() (*Scanner, error) {
	cache, err := lru.New[string, *gitignore.Matcher](ignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitignore cache: %w", err)
	}
	return &Scanner{ignoreCache: cache}, nil
}

// Scan walks opts.Root and streams every file that survives the filters.
// The channel is closed when the walk ends or ctx is cancelled.
func (s *Scanner) Scan(ctx context.Context, opts Options) (<-chan Result, error) {
	absRoot, err := resolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}

	results := make(chan Result, 64)
	go func() {
		defer close(results)
		w := &walk{
			s:        s,
			ctx:      ctx,
			opts:     opts,
			root:     absRoot,
			excludes: gitignore.Compile(append(append([]string{}, DefaultExcludes...), opts.Exclude...)),
			out:      results,
		}
		w.run()
	}()

	return results, nil
}

// Collect runs Scan and gathers the files. A walk error is returned together
// with the files found before it.
func (s *Scanner) Collect(ctx context.Context, opts Options) ([]*FileInfo, error) {
	ch, err := s.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}

	var files []*FileInfo
	var walkErr error
	for r := range ch {
		if r.Err != nil {
			walkErr = r.Err
			continue
		}
		files = append(files, r.File)
	}
	if walkErr == nil {
		walkErr = ctx.Err()
	}
	return files, walkErr
}

// InvalidateGitignoreCache drops every cached .gitignore. Call it when
// ignore files change.
func (s *Scanner) InvalidateGitignoreCache() {
	s.ignoreCache.Purge()
}

func resolveRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", jerrors.New(jerrors.ErrCodeInvalidPath, "cannot resolve root "+root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", jerrors.New(jerrors.ErrCodeRootNotFound, fmt.Sprintf("project root %s not found", abs), err).
			WithSuggestion("Pass --root with an existing directory")
	}
	if !info.IsDir() {
		return "", jerrors.New(jerrors.ErrCodeInvalidPath, fmt.Sprintf("project root %s is not a directory", abs), nil)
	}
	return abs, nil
}

// walk is the state of one Scan.
type walk struct {
	s        *Scanner
	ctx      context.Context
	opts     Options
	root     string
	excludes *gitignore.Matcher
	layers   []gitignore.Layer
	count    int
	out      chan<- Result
}

func (w *walk) run() {
	if w.opts.RespectGitignore {
		w.pushLayer(w.root, "")
	}

	err := filepath.WalkDir(w.root, w.visit)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		w.send(Result{Err: jerrors.New(jerrors.ErrCodeScanFailed, "scan failed", err)})
	}
}

func (w *walk) visit(path string, d fs.DirEntry, err error) error {
	if ctxErr := w.ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		if path == w.root {
			return err
		}
		slog.Debug("scan_skip_unreadable", slog.String("path", path), slog.String("error", err.Error()))
		if d != nil && d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return nil
	}
	rel = filepath.ToSlash(rel)
	w.popLayers(rel)

	if d.IsDir() {
		if w.ignored(rel, true) {
			return filepath.SkipDir
		}
		if w.opts.RespectGitignore {
			w.pushLayer(path, rel)
		}
		return nil
	}

	if w.ignored(rel, false) {
		return nil
	}

	info, ok := w.fileInfo(path, d)
	if !ok {
		return nil
	}

	if !w.send(Result{File: &FileInfo{
		Path:     rel,
		AbsPath:  path,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		Language: DetectLanguage(rel),
	}}) {
		return w.ctx.Err()
	}

	w.count++
	if w.opts.MaxFiles > 0 && w.count >= w.opts.MaxFiles {
		slog.Debug("scan_max_files_reached", slog.Int("max_files", w.opts.MaxFiles))
		return filepath.SkipAll
	}
	return nil
}

// fileInfo applies the symlink, size and binary filters.
func (w *walk) fileInfo(path string, d fs.DirEntry) (fs.FileInfo, bool) {
	var info fs.FileInfo
	var err error
	if d.Type()&fs.ModeSymlink != 0 {
		if !w.opts.FollowSymlinks {
			return nil, false
		}
		info, err = os.Stat(path)
		if err != nil || info.IsDir() {
			return nil, false
		}
	} else {
		info, err = d.Info()
		if err != nil || !info.Mode().IsRegular() {
			return nil, false
		}
	}

	if info.Size() > w.opts.MaxFileSize {
		return nil, false
	}
	if w.opts.SkipBinary && isBinaryFile(path) {
		return nil, false
	}
	return info, true
}

func (w *walk) ignored(rel string, isDir bool) bool {
	if w.excludes.Match(rel, isDir) {
		return true
	}
	return w.opts.RespectGitignore && gitignore.MatchLayers(w.layers, rel, isDir)
}

// pushLayer adds the .gitignore of dir, if any. rel is dir relative to the
// root.
func (w *walk) pushLayer(dir, rel string) {
	m := w.s.matcherFor(dir)
	if m.Len() > 0 {
		w.layers = append(w.layers, gitignore.Layer{Dir: rel, Matcher: m})
	}
}

// popLayers drops layers of directories the walk has left. WalkDir visits
// in lexical order, so the layers always form a path from the root.
func (w *walk) popLayers(rel string) {
	for len(w.layers) > 0 {
		top := w.layers[len(w.layers)-1].Dir
		if top == "" || strings.HasPrefix(rel, top+"/") {
			return
		}
		w.layers = w.layers[:len(w.layers)-1]
	}
}

func (w *walk) send(r Result) bool {
	select {
	case w.out <- r:
		return true
	case <-w.ctx.Done():
		return false
	}
}

// matcherFor returns the parsed .gitignore of dir, caching misses too.
func (s *Scanner) matcherFor(dir string) *gitignore.Matcher {
	if m, ok := s.ignoreCache.Get(dir); ok {
		return m
	}
	m, err := gitignore.Load(filepath.Join(dir, ".gitignore"))
	if err != nil {
		slog.Debug("gitignore_unreadable", slog.String("dir", dir), slog.String("error", err.Error()))
		m = nil
	}
	s.ignoreCache.Add(dir, m)
	return m
}

// isBinaryFile checks the first 512 bytes for a NUL byte.
func isBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}
