package watcher

import (
	"context"
	"log/slog"
	"time"
)

// ReloadFunc rebuilds whatever depends on the watched tree, typically
// session.Controller.Reload.
type ReloadFunc func(ctx context.Context) error

// Reload describes one reload triggered by a batch.
type Reload struct {
	Events   []FileEvent
	Duration time.Duration
	Err      error
}

// Reloader turns event batches into reloads. Batches arriving while a
// reload runs are merged into the next one.
type Reloader struct {
	// Reload is required.
	Reload ReloadFunc
	// InvalidateIgnores drops cached ignore rules, e.g.
	// scanner.Scanner.InvalidateGitignoreCache. Optional.
	InvalidateIgnores func()
	// OnReload is called after every reload. Optional.
	OnReload func(Reload)
}

// Run consumes batches until ctx is done or events is closed.
func (r *Reloader) Run(ctx context.Context, events <-chan []FileEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-events:
			if !ok {
				return nil
			}
			batch = append(batch, drain(events)...)
			r.handle(ctx, batch)
		}
	}
}

// drain takes whatever batches are already queued.
func drain(events <-chan []FileEvent) []FileEvent {
	var out []FileEvent
	for {
		select {
		case batch, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, batch...)
		default:
			return out
		}
	}
}

func (r *Reloader) handle(ctx context.Context, batch []FileEvent) {
	if !Relevant(batch) {
		return
	}
	if r.InvalidateIgnores != nil && hasOp(batch, OpIgnoreChange, OpConfigChange) {
		r.InvalidateIgnores()
	}

	start := time.Now()
	err := r.Reload(ctx)
	res := Reload{Events: batch, Duration: time.Since(start), Err: err}

	if err != nil {
		slog.Warn("watch_reload_failed", slog.Int("events", len(batch)), slog.String("error", err.Error()))
	} else {
		slog.Debug("watch_reload", slog.Int("events", len(batch)), slog.Duration("duration", res.Duration))
	}
	if r.OnReload != nil {
		r.OnReload(res)
	}
}

// Relevant reports whether batch can change any candidate. Directory
// modifications alone (mtime bumps from editors) cannot.
func Relevant(batch []FileEvent) bool {
	for _, e := range batch {
		if !(e.IsDir && e.Operation == OpModify) {
			return true
		}
	}
	return false
}

func hasOp(batch []FileEvent, ops ...Operation) bool {
	for _, e := range batch {
		for _, op := range ops {
			if e.Operation == op {
				return true
			}
		}
	}
	return false
}

// Watch runs a HybridWatcher on root and feeds it to r until ctx is done.
func Watch(ctx context.Context, root string, opts Options, r *Reloader) error {
	w, err := NewHybridWatcher(opts)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	errCh := make(chan error, 1)
	go func() {
		err := w.Start(ctx, root)
		if err != nil {
			// Closes Events so Run returns.
			_ = w.Stop()
		}
		errCh <- err
	}()

	go func() {
		for err := range w.Errors() {
			slog.Warn("watch_error", slog.String("error", err.Error()))
		}
	}()

	runErr := r.Run(ctx, w.Events())
	_ = w.Stop()
	if err := <-errCh; err != nil && ctx.Err() == nil {
		return err
	}
	return runErr
}
