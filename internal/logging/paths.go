package logging

import (
	"os"
	"path/filepath"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

// LogFileName is the name of the shared log file.
const LogFileName = "jump.log"

// DefaultLogDir returns ~/.jump/logs, or a temp directory fallback.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".jump", "logs")
	}
	return filepath.Join(home, ".jump", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), LogFileName)
}

// PathIn returns the log file path inside dir, or the default path when dir
// is empty.
func PathIn(dir string) string {
	if dir == "" {
		return DefaultLogPath()
	}
	return filepath.Join(dir, LogFileName)
}

// FindLogFile resolves the log file to view. An explicit path must exist;
// otherwise the file in dir is used.
func FindLogFile(explicit, dir string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", jerrors.New(jerrors.ErrCodeFileNotFound, "log file not found: "+explicit, err)
		}
		return explicit, nil
	}

	path := PathIn(dir)
	if _, err := os.Stat(path); err != nil {
		return "", jerrors.New(jerrors.ErrCodeFileNotFound, "no log file found at "+path, err).
			WithSuggestion("Run any jump command once to create it, e.g. 'jump --debug query main'")
	}
	return path, nil
}
