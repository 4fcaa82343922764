package watcher

import (
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Aman-CERP/jump/internal/gitignore"
	"github.com/Aman-CERP/jump/internal/scanner"
)

// filter decides which paths are worth an event, using the scanner's rules
// so that the watcher never reports a file the scanner would skip.
type filter struct {
	root     string
	excludes *gitignore.Matcher
	respect  bool

	mu     sync.RWMutex
	layers []gitignore.Layer
}

func newFilter(root string, opts Options) *filter {
	patterns := append(append([]string{}, scanner.DefaultExcludes...), opts.IgnorePatterns...)
	f := &filter{
		root:     root,
		excludes: gitignore.Compile(patterns),
		respect:  opts.RespectGitignore,
	}
	f.reload()
	return f
}

// ignored reports whether rel, or any directory above it, is ignored.
func (f *filter) ignored(rel string, isDir bool) bool {
	if rel == "" || rel == "." {
		return true
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	parts := strings.Split(rel, "/")
	for i := range parts {
		sub := strings.Join(parts[:i+1], "/")
		dir := i < len(parts)-1 || isDir
		if f.excludes.Match(sub, dir) {
			return true
		}
		if f.respect && gitignore.MatchLayers(f.layers, sub, dir) {
			return true
		}
	}
	return false
}

// reload re-reads every .gitignore below the root.
func (f *filter) reload() {
	if !f.respect {
		return
	}

	var layers []gitignore.Layer
	_ = filepath.WalkDir(f.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Debug("watch_skip_unreadable", slog.String("path", p), slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		rel := relPath(f.root, p)
		if rel != "" && (f.excludes.Match(rel, true) || gitignore.MatchLayers(layers, rel, true)) {
			return filepath.SkipDir
		}

		m, err := gitignore.Load(filepath.Join(p, ".gitignore"))
		if err != nil {
			slog.Warn("gitignore_unreadable", slog.String("dir", p), slog.String("error", err.Error()))
			return nil
		}
		if m.Len() > 0 {
			layers = append(layers, gitignore.Layer{Dir: rel, Matcher: m})
		}
		return nil
	})

	f.mu.Lock()
	f.layers = layers
	f.mu.Unlock()
}

// relPath returns p relative to root, slash separated; "" for root itself.
func relPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// special maps ignore and config files to their dedicated operations.
func special(rel string) (Operation, bool) {
	switch path.Base(rel) {
	case ".gitignore":
		return OpIgnoreChange, true
	case ".jump.yaml", ".jump.yml":
		return OpConfigChange, true
	}
	return 0, false
}
