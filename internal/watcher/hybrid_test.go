package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

func testOptions(forcePolling bool) Options {
	return Options{
		DebounceWindow:   30 * time.Millisecond,
		PollInterval:     40 * time.Millisecond,
		EventBufferSize:  16,
		RespectGitignore: true,
		ForcePolling:     forcePolling,
	}
}

// startHybrid runs a watcher on root until the test ends.
func startHybrid(t *testing.T, root string, opts Options) *HybridWatcher {
	t.Helper()
	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx, root)
	}()
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
		<-done
	})

	// Let the baseline scan or directory registration finish.
	time.Sleep(150 * time.Millisecond)
	return w
}

// collectUntil gathers batches until want reports true or timeout.
func collectUntil(w *HybridWatcher, timeout time.Duration, want func([]FileEvent) bool) []FileEvent {
	var all []FileEvent
	deadline := time.After(timeout)
	for {
		select {
		case batch, ok := <-w.Events():
			if !ok {
				return all
			}
			all = append(all, batch...)
			if want(all) {
				return all
			}
		case <-deadline:
			return all
		}
	}
}

func hasEvent(events []FileEvent, path string, op Operation) bool {
	return slices.ContainsFunc(events, func(e FileEvent) bool {
		return e.Path == path && e.Operation == op
	})
}

func eventPaths(events []FileEvent) []string {
	paths := make([]string, 0, len(events))
	for _, e := range events {
		paths = append(paths, e.Path)
	}
	return paths
}

func TestHybridWatcher_Modes(t *testing.T) {
	for _, tt := range []struct {
		name     string
		polling  bool
		wantType string
	}{
		{"fsnotify", false, "fsnotify"},
		{"polling", true, "polling"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a watched project with an ignored dependency tree
			root := t.TempDir()
			require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "lib"), 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\n"), 0o644))

			w := startHybrid(t, root, testOptions(tt.polling))
			if !tt.polling && w.WatcherType() != "fsnotify" {
				t.Skip("fsnotify unavailable")
			}
			assert.Equal(t, tt.wantType, w.WatcherType())

			// When: ignored and real files are written
			require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "lib", "index.js"), []byte("x"), 0o644))
			require.NoError(t, os.WriteFile(filepath.Join(root, "debug.log"), []byte("x"), 0o644))
			require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main"), 0o644))

			// Then: only the real file arrives, with a slash relative path
			events := collectUntil(w, 2*time.Second, func(all []FileEvent) bool {
				return hasEvent(all, "main.go", OpCreate) || hasEvent(all, "main.go", OpModify)
			})
			paths := eventPaths(events)
			assert.Contains(t, paths, "main.go")
			assert.NotContains(t, paths, "debug.log")
			assert.NotContains(t, paths, "node_modules/lib/index.js")
		})
	}
}

func TestHybridWatcher_GitignoreChange(t *testing.T) {
	// Given: a watched project where tmp.txt is not yet ignored
	root := t.TempDir()
	w := startHybrid(t, root, testOptions(true))

	// When: a .gitignore appears that ignores *.txt
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.txt\n"), 0o644))

	// Then: it is reported as an ignore change
	events := collectUntil(w, 2*time.Second, func(all []FileEvent) bool {
		return hasEvent(all, ".gitignore", OpIgnoreChange)
	})
	require.True(t, hasEvent(events, ".gitignore", OpIgnoreChange), "got %v", events)

	// And: the new rule applies to later files
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main"), 0o644))
	events = collectUntil(w, 2*time.Second, func(all []FileEvent) bool {
		return hasEvent(all, "main.go", OpCreate)
	})
	assert.Contains(t, eventPaths(events), "main.go")
	assert.NotContains(t, eventPaths(events), "notes.txt")
}

func TestHybridWatcher_ConfigChange(t *testing.T) {
	root := t.TempDir()
	w := startHybrid(t, root, testOptions(true))

	require.NoError(t, os.WriteFile(filepath.Join(root, ".jump.yaml"), []byte("version: 1\n"), 0o644))

	events := collectUntil(w, 2*time.Second, func(all []FileEvent) bool {
		return hasEvent(all, ".jump.yaml", OpConfigChange)
	})
	assert.True(t, hasEvent(events, ".jump.yaml", OpConfigChange), "got %v", events)
}

func TestHybridWatcher_IgnorePatterns(t *testing.T) {
	root := t.TempDir()
	opts := testOptions(true)
	opts.IgnorePatterns = []string{"*.snap"}
	w := startHybrid(t, root, opts)

	require.NoError(t, os.WriteFile(filepath.Join(root, "ui.snap"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ui.go"), []byte("package ui"), 0o644))

	events := collectUntil(w, 2*time.Second, func(all []FileEvent) bool {
		return hasEvent(all, "ui.go", OpCreate)
	})
	assert.Contains(t, eventPaths(events), "ui.go")
	assert.NotContains(t, eventPaths(events), "ui.snap")
}

func TestHybridWatcher_MissingRoot(t *testing.T) {
	w, err := NewHybridWatcher(testOptions(true))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	err = w.Start(context.Background(), filepath.Join(t.TempDir(), "missing"))

	require.Error(t, err)
	assert.True(t, jerrors.HasCode(err, jerrors.ErrCodeRootNotFound))
}

func TestHybridWatcher_StopClosesChannels(t *testing.T) {
	root := t.TempDir()
	w := startHybrid(t, root, testOptions(true))

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, ok := <-w.Events()
	assert.False(t, ok)
	_, ok = <-w.Errors()
	assert.False(t, ok)
	assert.Equal(t, uint64(0), w.DroppedBatches())
}

func TestFilter_Ignored(t *testing.T) {
	// Given: a tree with nested .gitignore files
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "web", "gen"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\n/out/\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "web", ".gitignore"), []byte("gen/\n"), 0o644))

	f := newFilter(root, Options{RespectGitignore: true, IgnorePatterns: []string{"*.tmp"}})

	tests := []struct {
		rel   string
		isDir bool
		want  bool
	}{
		{"main.go", false, false},
		{"web/app.ts", false, false},
		{"server.log", false, true},
		{"web/debug.log", false, true},
		{"out", true, true},
		{"out/bin", false, true},
		{"web/gen/api.ts", false, true},
		{"gen/api.ts", false, false},
		{"scratch.tmp", false, true},
		{"node_modules/x/index.js", false, true},
		{".git/HEAD", false, true},
		{"", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, f.ignored(tt.rel, tt.isDir))
		})
	}
}

func TestFilter_WithoutGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\n"), 0o644))

	f := newFilter(root, Options{RespectGitignore: false})

	assert.False(t, f.ignored("server.log", false))
	assert.True(t, f.ignored("vendor/lib.go", false))
}
