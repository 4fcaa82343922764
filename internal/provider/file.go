package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/Aman-CERP/jump/internal/candidate"
	"github.com/Aman-CERP/jump/internal/scanner"
)

// FileProvider lists the files under the scope root.
type FileProvider struct {
	scanner *scanner.Scanner
	opts    scanner.Options
	opener  Opener
}

// NewFileProvider creates a FileProvider. opts.Root is the scope root.
func NewFileProvider(s *scanner.Scanner, opts scanner.Options, opener Opener) *FileProvider {
	return &FileProvider{scanner: s, opts: opts, opener: opener}
}

func (p *FileProvider) Kind() candidate.Kind { return candidate.KindFile }

// Load walks the root. Files found before a walk error are discarded
// together with the error.
func (p *FileProvider) Load(ctx context.Context) ([]*candidate.Candidate, error) {
	start := time.Now()
	files, err := p.scanner.Collect(ctx, p.opts)
	if err != nil {
		return nil, err
	}

	cands := make([]*candidate.Candidate, 0, len(files))
	for _, f := range files {
		cands = append(cands, candidate.NewFile(candidate.FileData{
			Path:     f.Path,
			AbsPath:  f.AbsPath,
			Size:     f.Size,
			Language: f.Language,
		}))
	}

	slog.Debug("files_loaded",
		slog.String("root", p.opts.Root),
		slog.Int("count", len(cands)),
		slog.Duration("duration", time.Since(start)))
	return cands, nil
}

// Activate opens the file in the editor on commit.
func (p *FileProvider) Activate(ctx context.Context, c *candidate.Candidate, commit bool) error {
	if err := checkKind(p, c); err != nil {
		return err
	}
	if !commit || p.opener == nil {
		return nil
	}
	return p.opener.Open(ctx, c.File.AbsPath, 0)
}
