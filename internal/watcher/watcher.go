package watcher

import (
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted.
	OpDelete
	// OpRename indicates a file or directory was renamed away.
	OpRename
	// OpIgnoreChange indicates a .gitignore file changed. Cached ignore
	// rules must be dropped before the next scan.
	OpIgnoreChange
	// OpConfigChange indicates the project's .jump.yaml changed.
	OpConfigChange
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	case OpIgnoreChange:
		return "IGNORE_CHANGE"
	case OpConfigChange:
		return "CONFIG_CHANGE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a file system event.
type FileEvent struct {
	// Path is relative to the watched root and slash separated.
	Path string

	// OldPath is the previous path for rename events.
	OldPath string

	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the quiet period before a batch is emitted.
	// Default: 200ms
	DebounceWindow time.Duration

	// PollInterval is the interval for polling mode.
	// Default: 2s
	PollInterval time.Duration

	// EventBufferSize is the number of batches buffered for the consumer.
	// Default: 16
	EventBufferSize int

	// IgnorePatterns are gitignore-syntax patterns ignored in addition to
	// the scanner's built-in excludes.
	IgnorePatterns []string

	// RespectGitignore applies .gitignore files found below the root.
	RespectGitignore bool

	// ForcePolling skips fsnotify.
	ForcePolling bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:   200 * time.Millisecond,
		PollInterval:     2 * time.Second,
		EventBufferSize:  16,
		RespectGitignore: true,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}
