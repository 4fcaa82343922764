package logging

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// RotatingWriter is an io.Writer that rotates its file by size:
// jump.log -> jump.log.1 -> jump.log.2 ... The oldest file beyond maxFiles
// is deleted.
type RotatingWriter struct {
	path     string
	maxSize  int64
	maxFiles int
	// lock serialises rotation between processes sharing the file.
	lock *flock.Flock

	mu            sync.Mutex
	file          *os.File
	written       int64
	immediateSync bool
}

// NewRotatingWriter opens path for appending, creating its directory.
// Immediate sync is on so 'jump logs -f' sees lines as they are written.
func NewRotatingWriter(path string, maxSizeMB, maxFiles int) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &RotatingWriter{
		path:          path,
		maxSize:       int64(maxSizeMB) * 1024 * 1024,
		maxFiles:      maxFiles,
		lock:          flock.New(path + ".lock"),
		immediateSync: true,
	}
	if err := w.openFile(); err != nil {
		return nil, err
	}
	return w, nil
}

// SetImmediateSync enables or disables a sync after each write.
func (w *RotatingWriter) SetImmediateSync(enabled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.immediateSync = enabled
}

// Write implements io.Writer, rotating first when p would overflow the file.
func (w *RotatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}

	if w.written+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			// Keep writing to whatever file is open.
			_, _ = fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
		}
	}

	n, err = w.file.Write(p)
	w.written += int64(n)

	if w.immediateSync && err == nil {
		_ = w.file.Sync()
	}
	return n, err
}

// Close closes the underlying file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Sync flushes the file to disk.
func (w *RotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return w.file.Sync()
	}
	return nil
}

func (w *RotatingWriter) openFile() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	w.file = f
	w.written = info.Size()
	return nil
}

// rotate must be called with w.mu held.
func (w *RotatingWriter) rotate() error {
	if err := w.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock log for rotation: %w", err)
	}
	defer func() { _ = w.lock.Unlock() }()

	// Another process may have rotated while we waited for the lock. Then
	// w.path is a fresh file and ours is already jump.log.1.
	if w.rotatedElsewhere() {
		_ = w.file.Close()
		w.file = nil
		if err := w.openFile(); err != nil {
			return err
		}
		if w.written < w.maxSize {
			return nil
		}
	}

	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		w.file = nil
	}

	for _, f := range w.rotatedFiles() {
		if f.num >= w.maxFiles {
			_ = os.Remove(f.path)
			continue
		}
		_ = os.Rename(f.path, fmt.Sprintf("%s.%d", w.path, f.num+1))
	}

	if _, err := os.Stat(w.path); err == nil {
		if err := os.Rename(w.path, w.path+".1"); err != nil {
			// Reopen so writes can continue.
			_ = w.openFile()
			return fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	w.written = 0
	return w.openFile()
}

func (w *RotatingWriter) rotatedElsewhere() bool {
	if w.file == nil {
		return false
	}
	mine, err := w.file.Stat()
	if err != nil {
		return false
	}
	current, err := os.Stat(w.path)
	if err != nil {
		return true
	}
	return !os.SameFile(mine, current)
}

type rotatedFile struct {
	path string
	num  int
}

// rotatedFiles lists jump.log.N files, highest N first so renames never
// overwrite.
func (w *RotatingWriter) rotatedFiles() []rotatedFile {
	base := filepath.Base(w.path)
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(w.path), base+".*"))

	var files []rotatedFile
	for _, m := range matches {
		num, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(m), base+"."))
		if err != nil {
			continue
		}
		files = append(files, rotatedFile{path: m, num: num})
	}
	slices.SortFunc(files, func(a, b rotatedFile) int { return cmp.Compare(b.num, a.num) })
	return files
}
