package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

// HybridWatcher watches a tree with fsnotify, falling back to polling when
// fsnotify cannot be created.
type HybridWatcher struct {
	opts        Options
	fsWatcher   *fsnotify.Watcher
	pollWatcher *PollingWatcher
	debouncer   *Debouncer
	filter      *filter

	events chan []FileEvent
	errors chan error
	stopCh chan struct{}

	mu             sync.RWMutex
	rootPath       string
	stopped        bool
	droppedBatches atomic.Uint64
}

// NewHybridWatcher creates a watcher. Nothing is watched until Start.
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()

	h := &HybridWatcher{
		opts:      opts,
		debouncer: NewDebouncer(opts.DebounceWindow),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			h.fsWatcher = fsw
		} else {
			slog.Warn("fsnotify_unavailable", slog.String("error", err.Error()))
		}
	}
	return h, nil
}

// Start watches root until ctx is cancelled or Stop is called. It blocks.
func (h *HybridWatcher) Start(ctx context.Context, root string) error {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return jerrors.New(jerrors.ErrCodeInvalidPath, "resolve watch root", err)
	}
	if info, err := os.Stat(absPath); err != nil || !info.IsDir() {
		return jerrors.New(jerrors.ErrCodeRootNotFound, "watch root not found: "+absPath, err)
	}

	h.mu.Lock()
	h.rootPath = absPath
	h.filter = newFilter(absPath, h.opts)
	if h.fsWatcher == nil {
		h.pollWatcher = NewPollingWatcher(h.opts.PollInterval, h.filter.ignored)
	}
	h.mu.Unlock()

	go h.forwardDebouncedEvents(ctx)

	slog.Debug("watch_start", slog.String("root", absPath), slog.String("type", h.WatcherType()))
	if h.fsWatcher != nil {
		return h.runFsnotify(ctx)
	}
	return h.runPolling(ctx)
}

func (h *HybridWatcher) runFsnotify(ctx context.Context) error {
	if err := h.addRecursive(h.rootPath); err != nil {
		return jerrors.New(jerrors.ErrCodeScanFailed, "add directories to watcher", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-h.fsWatcher.Events:
			if !ok {
				return nil
			}
			h.handleFsnotifyEvent(event)
		case err, ok := <-h.fsWatcher.Errors:
			if !ok {
				return nil
			}
			h.emitError(err)
		}
	}
}

func (h *HybridWatcher) runPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-h.stopCh:
				return
			case event, ok := <-h.pollWatcher.Events():
				if !ok {
					return
				}
				h.add(event)
			case err, ok := <-h.pollWatcher.Errors():
				if !ok {
					return
				}
				h.emitError(err)
			}
		}
	}()

	err := h.pollWatcher.Start(ctx, h.rootPath)
	if ctx.Err() != nil {
		_ = h.Stop()
	}
	return err
}

func (h *HybridWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	rel := relPath(h.rootPath, event.Name)

	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		// Chmod only.
		return
	}

	if op == OpCreate && isDir && !h.filter.ignored(rel, true) {
		// Directories created after Start are not watched yet.
		if err := h.addRecursive(event.Name); err != nil {
			h.emitError(err)
		}
	}

	h.add(FileEvent{Path: rel, Operation: op, IsDir: isDir, Timestamp: time.Now()})
}

// add filters an event and hands it to the debouncer.
func (h *HybridWatcher) add(event FileEvent) {
	if op, ok := special(event.Path); ok {
		if dir := path.Dir(event.Path); dir != "." && h.filter.ignored(dir, true) {
			return
		}
		if op == OpIgnoreChange {
			h.filter.reload()
		}
		event.Operation = op
		h.debouncer.Add(event)
		return
	}
	if h.filter.ignored(event.Path, event.IsDir) {
		return
	}
	h.debouncer.Add(event)
}

func (h *HybridWatcher) forwardDebouncedEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case batch, ok := <-h.debouncer.Output():
			if !ok {
				return
			}
			h.emitEvents(batch)
		}
	}
}

// addRecursive watches dir and every non-ignored directory below it.
func (h *HybridWatcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel := relPath(h.rootPath, p)
		if rel != "" && h.filter.ignored(rel, true) {
			return filepath.SkipDir
		}
		return h.fsWatcher.Add(p)
	})
}

func (h *HybridWatcher) emitEvents(events []FileEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.stopped {
		return
	}

	select {
	case h.events <- events:
	default:
		count := h.droppedBatches.Add(1)
		slog.Warn("watch_buffer_full",
			slog.Int("batch_size", len(events)),
			slog.Uint64("total_dropped_batches", count))
	}
}

// DroppedBatches returns the number of batches dropped because the consumer
// fell behind.
func (h *HybridWatcher) DroppedBatches() uint64 {
	return h.droppedBatches.Load()
}

func (h *HybridWatcher) emitError(err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.stopped {
		return
	}
	select {
	case h.errors <- err:
	default:
	}
}

// Stop stops watching and closes the channels. Safe to call multiple times.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}
	h.stopped = true
	close(h.stopCh)
	h.debouncer.Stop()

	if h.fsWatcher != nil {
		_ = h.fsWatcher.Close()
	}
	if h.pollWatcher != nil {
		_ = h.pollWatcher.Stop()
	}

	close(h.events)
	close(h.errors)
	return nil
}

// Events returns the channel of debounced batches.
func (h *HybridWatcher) Events() <-chan []FileEvent {
	return h.events
}

// Errors returns the channel of non-fatal errors.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// WatcherType returns "fsnotify" or "polling".
func (h *HybridWatcher) WatcherType() string {
	if h.fsWatcher != nil {
		return "fsnotify"
	}
	return "polling"
}

// RootPath returns the root being watched.
func (h *HybridWatcher) RootPath() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rootPath
}
