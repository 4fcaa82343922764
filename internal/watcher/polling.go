package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

// PollingWatcher detects changes by rescanning the tree on an interval.
type PollingWatcher struct {
	interval time.Duration
	// skip filters paths; nil keeps everything.
	skip func(rel string, isDir bool) bool

	mu        sync.Mutex
	fileState map[string]fileSnapshot
	events    chan FileEvent
	errors    chan error
	stopCh    chan struct{}
	stopped   bool
	rootPath  string
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
	isDir   bool
}

// NewPollingWatcher creates a polling watcher. skip may be nil.
func NewPollingWatcher(interval time.Duration, skip func(rel string, isDir bool) bool) *PollingWatcher {
	return &PollingWatcher{
		interval:  interval,
		skip:      skip,
		fileState: make(map[string]fileSnapshot),
		events:    make(chan FileEvent, 256),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}
}

// Start records a baseline and then polls until ctx is done or Stop is
// called.
func (p *PollingWatcher) Start(ctx context.Context, root string) error {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return jerrors.New(jerrors.ErrCodeInvalidPath, "resolve watch root", err)
	}

	p.mu.Lock()
	p.rootPath = absPath
	p.fileState = p.snapshot()
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			p.detectChanges()
		}
	}
}

// Stop stops polling and closes the channels. Safe to call multiple times.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}
	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}

// Events returns the channel of file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

// Errors returns the channel of non-fatal errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}

// snapshot walks the tree. Must be called with p.mu held.
func (p *PollingWatcher) snapshot() map[string]fileSnapshot {
	state := make(map[string]fileSnapshot, len(p.fileState))
	err := filepath.WalkDir(p.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel := relPath(p.rootPath, path)
		if rel == "" {
			return nil
		}
		if p.skip != nil && p.skip(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		state[rel] = fileSnapshot{modTime: info.ModTime(), size: info.Size(), isDir: d.IsDir()}
		return nil
	})
	if err != nil {
		p.emitError(jerrors.New(jerrors.ErrCodeScanFailed, "poll walk failed", err))
	}
	return state
}

func (p *PollingWatcher) detectChanges() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}

	current := p.snapshot()
	now := time.Now()

	for rel, snap := range current {
		prev, existed := p.fileState[rel]
		switch {
		case !existed:
			p.emitEvent(FileEvent{Path: rel, Operation: OpCreate, IsDir: snap.isDir, Timestamp: now})
		case !snap.isDir && (!prev.modTime.Equal(snap.modTime) || prev.size != snap.size):
			p.emitEvent(FileEvent{Path: rel, Operation: OpModify, Timestamp: now})
		}
	}
	for rel, snap := range p.fileState {
		if _, ok := current[rel]; !ok {
			p.emitEvent(FileEvent{Path: rel, Operation: OpDelete, IsDir: snap.isDir, Timestamp: now})
		}
	}

	p.fileState = current
}

// emitEvent must be called with p.mu held.
func (p *PollingWatcher) emitEvent(event FileEvent) {
	if p.stopped {
		return
	}
	select {
	case p.events <- event:
	default:
		slog.Warn("poll_buffer_full", slog.String("path", event.Path), slog.String("op", event.Operation.String()))
	}
}

// emitError must be called with p.mu held.
func (p *PollingWatcher) emitError(err error) {
	if p.stopped {
		return
	}
	select {
	case p.errors <- err:
	default:
	}
}
