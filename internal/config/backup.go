package config

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

const (
	// MaxBackups is the maximum number of config backups to keep
	MaxBackups = 3

	// BackupSuffix is the file extension for backup files
	BackupSuffix = ".bak"

	backupTimeFormat = "20060102-150405.000000"
)

// BackupUserConfig copies the user config to a timestamped backup next to
// it and returns the backup path. Without a user config it returns "".
func BackupUserConfig() (string, error) {
	configPath := GetUserConfigPath()
	if !UserConfigExists() {
		return "", nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", jerrors.New(jerrors.ErrCodeConfigNotFound, "failed to read config for backup", err)
	}

	backupPath := configPath + BackupSuffix + "." + time.Now().Format(backupTimeFormat)
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", jerrors.New(jerrors.ErrCodeInvalidPath, "failed to write backup", err)
	}

	// Best effort; the backup itself succeeded.
	_ = cleanupOldBackups()

	return backupPath, nil
}

// ListUserConfigBackups returns the user config backups, newest first.
func ListUserConfigBackups() ([]string, error) {
	configPath := GetUserConfigPath()
	entries, err := os.ReadDir(filepath.Dir(configPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, jerrors.New(jerrors.ErrCodeInvalidPath, "failed to list config directory", err)
	}

	type backup struct {
		path string
		mod  time.Time
	}
	prefix := filepath.Base(configPath) + BackupSuffix + "."
	var found []backup
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, backup{filepath.Join(filepath.Dir(configPath), entry.Name()), info.ModTime()})
	}

	// Newest first; the timestamped names break ties.
	slices.SortFunc(found, func(a, b backup) int {
		if c := b.mod.Compare(a.mod); c != 0 {
			return c
		}
		return cmp.Compare(b.path, a.path)
	})

	paths := make([]string, len(found))
	for i, b := range found {
		paths[i] = b.path
	}
	return paths, nil
}

func cleanupOldBackups() error {
	backups, err := ListUserConfigBackups()
	if err != nil {
		return err
	}
	if len(backups) <= MaxBackups {
		return nil
	}
	for _, b := range backups[MaxBackups:] {
		_ = os.Remove(b)
	}
	return nil
}

// RestoreUserConfig replaces the user config with backupPath. The current
// config is backed up first.
func RestoreUserConfig(backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return jerrors.New(jerrors.ErrCodeConfigNotFound, "backup file not found: "+backupPath, err)
	}

	if _, err := BackupUserConfig(); err != nil {
		return err
	}

	if err := os.MkdirAll(GetUserConfigDir(), 0o755); err != nil {
		return jerrors.New(jerrors.ErrCodeInvalidPath, "failed to create config directory", err)
	}
	if err := os.WriteFile(GetUserConfigPath(), data, 0o644); err != nil {
		return jerrors.New(jerrors.ErrCodeInvalidPath, "failed to write restored config", err)
	}
	return nil
}
