package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/jump/internal/candidate"
	jerrors "github.com/Aman-CERP/jump/internal/errors"
	"github.com/Aman-CERP/jump/internal/rank"
	"github.com/Aman-CERP/jump/internal/symbols"
)

// Project config file names, in order of precedence.
const (
	ProjectConfigFile    = ".jump.yaml"
	ProjectConfigFileAlt = ".jump.yml"
)

// Config represents the complete jump configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Paths     PathsConfig     `yaml:"paths" json:"paths"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Scanner   ScannerConfig   `yaml:"scanner" json:"scanner"`
	Symbols   SymbolsConfig   `yaml:"symbols" json:"symbols"`
	Editor    EditorConfig    `yaml:"editor" json:"editor"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

// PathsConfig locates jump's own data.
type PathsConfig struct {
	// DataDir holds the telemetry database and logs. Default ~/.jump.
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// LogDir defaults to <data_dir>/logs.
	LogDir string `yaml:"log_dir" json:"log_dir"`
}

// SearchConfig configures ranking and the tie-break order of each kind.
type SearchConfig struct {
	// FileSort, SymbolSort and CommandSort name the tie-break of a single
	// kind: name, key or weight, optionally suffixed with -desc.
	FileSort    string `yaml:"file_sort" json:"file_sort"`
	SymbolSort  string `yaml:"symbol_sort" json:"symbol_sort"`
	CommandSort string `yaml:"command_sort" json:"command_sort"`
	// MixedSort orders the union of several kinds.
	MixedSort string `yaml:"mixed_sort" json:"mixed_sort"`

	// AllKinds are the kinds loaded by the "all" mode.
	AllKinds []string `yaml:"all_kinds" json:"all_kinds"`

	MaxResults         int  `yaml:"max_results" json:"max_results"`
	AllowNonContiguous bool `yaml:"allow_non_contiguous" json:"allow_non_contiguous"`
	ParallelThreshold  int  `yaml:"parallel_threshold" json:"parallel_threshold"`
	Workers            int  `yaml:"workers" json:"workers"`
}

// ScannerConfig configures file discovery.
type ScannerConfig struct {
	// Exclude patterns use gitignore syntax and are added to the built-in
	// excludes. Patterns from every config layer accumulate.
	Exclude          []string `yaml:"exclude" json:"exclude"`
	RespectGitignore bool     `yaml:"respect_gitignore" json:"respect_gitignore"`
	MaxFileSize      int64    `yaml:"max_file_size" json:"max_file_size"`
	MaxFiles         int      `yaml:"max_files" json:"max_files"`
	SkipBinary       bool     `yaml:"skip_binary" json:"skip_binary"`
	FollowSymlinks   bool     `yaml:"follow_symlinks" json:"follow_symlinks"`
	// WatchDebounce is the quiet period before a watched session reloads.
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`
}

// SymbolsConfig configures symbol extraction.
type SymbolsConfig struct {
	// Languages restricts extraction. Empty means every supported language.
	Languages        []string `yaml:"languages" json:"languages"`
	MarkdownHeadings bool     `yaml:"markdown_headings" json:"markdown_headings"`
	// CacheSize is the number of parsed files kept between loads.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
	// Workers caps parallel parsing. Zero means GOMAXPROCS.
	Workers int `yaml:"workers" json:"workers"`
}

// EditorConfig configures how files are opened.
type EditorConfig struct {
	// Command defaults to $VISUAL, then $EDITOR, then vi.
	Command string `yaml:"command" json:"command"`
	// LineFlag is expanded with {line} and {file}. Empty disables line jumps.
	LineFlag string `yaml:"line_flag" json:"line_flag"`
}

// ServerConfig configures the MCP server and logging.
type ServerConfig struct {
	Transport    string `yaml:"transport" json:"transport"`
	LogLevel     string `yaml:"log_level" json:"log_level"`
	LogMaxSizeMB int    `yaml:"log_max_size_mb" json:"log_max_size_mb"`
	LogMaxFiles  int    `yaml:"log_max_files" json:"log_max_files"`
}

// TelemetryConfig configures query telemetry.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	DBPath        string `yaml:"db_path" json:"db_path"`
	FlushInterval string `yaml:"flush_interval" json:"flush_interval"`
}

// NewConfig returns a configuration with default values.
func NewConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir: dataDir,
			LogDir:  filepath.Join(dataDir, "logs"),
		},
		Search: SearchConfig{
			FileSort:           rank.SecondaryKey.String(),
			SymbolSort:         rank.SecondaryKey.String(),
			CommandSort:        rank.Alphabetical.String(),
			MixedSort:          rank.Alphabetical.String(),
			AllKinds:           []string{"file", "symbol", "command"},
			MaxResults:         50,
			AllowNonContiguous: true,
			ParallelThreshold:  rank.DefaultParallelThreshold,
			Workers:            runtime.GOMAXPROCS(0),
		},
		Scanner: ScannerConfig{
			RespectGitignore: true,
			MaxFileSize:      10 * 1024 * 1024,
			MaxFiles:         200000,
			SkipBinary:       true,
			WatchDebounce:    "200ms",
		},
		Symbols: SymbolsConfig{
			MarkdownHeadings: true,
			CacheSize:        4096,
		},
		Editor: EditorConfig{
			LineFlag: "+{line}",
		},
		Server: ServerConfig{
			Transport:    "stdio",
			LogLevel:     "info",
			LogMaxSizeMB: 10,
			LogMaxFiles:  5,
		},
		Telemetry: TelemetryConfig{
			Enabled:       true,
			DBPath:        filepath.Join(dataDir, "telemetry.db"),
			FlushInterval: "1m",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".jump")
	}
	return filepath.Join(home, ".jump")
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/jump/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/jump/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "jump", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "jump", "config.yaml")
	}
	return filepath.Join(home, ".config", "jump", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// ProjectConfigPath returns the project config file in dir, or "" if there
// is none. The .yaml spelling wins over .yml.
func ProjectConfigPath(dir string) string {
	for _, name := range []string{ProjectConfigFile, ProjectConfigFileAlt} {
		if p := filepath.Join(dir, name); fileExists(p) {
			return p
		}
	}
	return ""
}

// Load loads configuration for the project in dir. Later sources win:
//  1. Hardcoded defaults
//  2. User config ($XDG_CONFIG_HOME/jump/config.yaml)
//  3. Project config (.jump.yaml in dir)
//  4. Environment variables (JUMP_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if path := ProjectConfigPath(dir); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUserConfig loads only the user configuration file on top of the
// defaults. Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML decodes path onto c. Keys missing from the file keep their
// current values, so an explicit false or 0 still overrides a default.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return jerrors.New(jerrors.ErrCodeConfigNotFound, "failed to read config file "+path, err)
	}

	excludes := c.Scanner.Exclude
	c.Scanner.Exclude = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		c.Scanner.Exclude = excludes
		return jerrors.New(jerrors.ErrCodeConfigInvalid, "failed to parse config file "+path, err).
			WithDetail("path", path).
			WithSuggestion("Check the YAML syntax, or regenerate with 'jump config init --force'")
	}
	c.Scanner.Exclude = append(excludes, c.Scanner.Exclude...)
	return nil
}

// applyEnvOverrides applies JUMP_* variables. Empty variables are ignored.
func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"JUMP_FILE_SORT":      &c.Search.FileSort,
		"JUMP_SYMBOL_SORT":    &c.Search.SymbolSort,
		"JUMP_COMMAND_SORT":   &c.Search.CommandSort,
		"JUMP_MIXED_SORT":     &c.Search.MixedSort,
		"JUMP_EDITOR":         &c.Editor.Command,
		"JUMP_LINE_FLAG":      &c.Editor.LineFlag,
		"JUMP_LOG_LEVEL":      &c.Server.LogLevel,
		"JUMP_TRANSPORT":      &c.Server.Transport,
		"JUMP_TELEMETRY_DB":   &c.Telemetry.DBPath,
		"JUMP_WATCH_DEBOUNCE": &c.Scanner.WatchDebounce,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"JUMP_MAX_RESULTS":        &c.Search.MaxResults,
		"JUMP_WORKERS":            &c.Search.Workers,
		"JUMP_PARALLEL_THRESHOLD": &c.Search.ParallelThreshold,
		"JUMP_MAX_FILES":          &c.Scanner.MaxFiles,
	}
	for name, dst := range ints {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return envError(name, v, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"JUMP_TELEMETRY":            &c.Telemetry.Enabled,
		"JUMP_RESPECT_GITIGNORE":    &c.Scanner.RespectGitignore,
		"JUMP_ALLOW_NON_CONTIGUOUS": &c.Search.AllowNonContiguous,
	}
	for name, dst := range bools {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return envError(name, v, err)
		}
		*dst = b
	}

	if v := os.Getenv("JUMP_ALL_KINDS"); v != "" {
		c.Search.AllKinds = splitList(v)
	}
	if v := os.Getenv("JUMP_EXCLUDE"); v != "" {
		c.Scanner.Exclude = append(c.Scanner.Exclude, splitList(v)...)
	}
	return nil
}

func envError(name, value string, err error) error {
	return jerrors.New(jerrors.ErrCodeConfigInvalid, fmt.Sprintf("invalid value %q for %s", value, name), err)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FindProjectRoot walks up from startDir looking for a .git directory or a
// project config file. It returns startDir itself when neither is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", jerrors.New(jerrors.ErrCodeInvalidPath, "failed to get absolute path", err)
	}
	if !dirExists(absDir) {
		return "", jerrors.New(jerrors.ErrCodeRootNotFound, "directory not found: "+absDir, nil)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) || ProjectConfigPath(currentDir) != "" {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	sorts := []struct{ key, value string }{
		{"search.file_sort", c.Search.FileSort},
		{"search.symbol_sort", c.Search.SymbolSort},
		{"search.command_sort", c.Search.CommandSort},
		{"search.mixed_sort", c.Search.MixedSort},
	}
	for _, s := range sorts {
		if _, err := rank.ParseCriterion(s.value); err != nil {
			return jerrors.New(jerrors.ErrCodeInvalidSortOrder, fmt.Sprintf("%s: invalid sort order %q", s.key, s.value), err).
				WithSuggestion("Use name, key or weight, optionally suffixed with -desc")
		}
	}

	if len(c.Search.AllKinds) == 0 {
		return jerrors.ConfigError("search.all_kinds must name at least one kind", nil)
	}
	if _, err := candidate.ParseKinds(c.Search.AllKinds); err != nil {
		return jerrors.New(jerrors.ErrCodeUnknownKind, "search.all_kinds: "+strings.Join(c.Search.AllKinds, ", "), err).
			WithSuggestion("Use one of: file, symbol, command")
	}

	nonNegative := []struct {
		key   string
		value int64
	}{
		{"search.max_results", int64(c.Search.MaxResults)},
		{"search.workers", int64(c.Search.Workers)},
		{"scanner.max_file_size", c.Scanner.MaxFileSize},
		{"scanner.max_files", int64(c.Scanner.MaxFiles)},
		{"symbols.cache_size", int64(c.Symbols.CacheSize)},
		{"symbols.workers", int64(c.Symbols.Workers)},
		{"server.log_max_size_mb", int64(c.Server.LogMaxSizeMB)},
		{"server.log_max_files", int64(c.Server.LogMaxFiles)},
	}
	for _, n := range nonNegative {
		if n.value < 0 {
			return jerrors.ConfigError(fmt.Sprintf("%s must be non-negative, got %d", n.key, n.value), nil)
		}
	}

	for _, lang := range c.Symbols.Languages {
		if !symbols.Supported(strings.ToLower(lang)) {
			return jerrors.ConfigError(fmt.Sprintf("symbols.languages: unsupported language %q", lang), nil).
				WithSuggestion("Use one of: " + strings.Join(slices.Sorted(slices.Values(symbols.Languages())), ", "))
		}
	}

	if !strings.EqualFold(c.Server.Transport, "stdio") {
		return jerrors.ConfigError("server.transport must be 'stdio', got "+c.Server.Transport, nil)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return jerrors.ConfigError("server.log_level must be debug, info, warn or error, got "+c.Server.LogLevel, nil)
	}

	for _, d := range []struct{ key, value string }{
		{"scanner.watch_debounce", c.Scanner.WatchDebounce},
		{"telemetry.flush_interval", c.Telemetry.FlushInterval},
	} {
		if d.value == "" {
			continue
		}
		if v, err := time.ParseDuration(d.value); err != nil || v < 0 {
			return jerrors.ConfigError(fmt.Sprintf("%s must be a duration like 200ms, got %q", d.key, d.value), err)
		}
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file, creating parent
// directories as needed.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return jerrors.InternalError("failed to marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return jerrors.New(jerrors.ErrCodeInvalidPath, "failed to create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return jerrors.New(jerrors.ErrCodeInvalidPath, "failed to write config file "+path, err)
	}
	return nil
}

// JSON renders the configuration for 'jump config show --json'.
func (c *Config) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// MergeNewDefaults fills settings added after the config file was written.
// It returns the keys that were filled.
func (c *Config) MergeNewDefaults() []string {
	defaults := NewConfig()
	var added []string

	fill := func(key string, dst *string, def string) {
		if *dst == "" {
			*dst = def
			added = append(added, key)
		}
	}
	fill("search.file_sort", &c.Search.FileSort, defaults.Search.FileSort)
	fill("search.symbol_sort", &c.Search.SymbolSort, defaults.Search.SymbolSort)
	fill("search.command_sort", &c.Search.CommandSort, defaults.Search.CommandSort)
	fill("search.mixed_sort", &c.Search.MixedSort, defaults.Search.MixedSort)
	fill("scanner.watch_debounce", &c.Scanner.WatchDebounce, defaults.Scanner.WatchDebounce)
	fill("telemetry.db_path", &c.Telemetry.DBPath, defaults.Telemetry.DBPath)
	fill("telemetry.flush_interval", &c.Telemetry.FlushInterval, defaults.Telemetry.FlushInterval)
	fill("paths.data_dir", &c.Paths.DataDir, defaults.Paths.DataDir)
	fill("paths.log_dir", &c.Paths.LogDir, defaults.Paths.LogDir)

	if len(c.Search.AllKinds) == 0 {
		c.Search.AllKinds = defaults.Search.AllKinds
		added = append(added, "search.all_kinds")
	}
	if c.Symbols.CacheSize == 0 {
		c.Symbols.CacheSize = defaults.Symbols.CacheSize
		added = append(added, "symbols.cache_size")
	}
	// Booleans are left alone: false may be deliberate.

	return added
}
