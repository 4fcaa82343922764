package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/jump/internal/candidate"
	jerrors "github.com/Aman-CERP/jump/internal/errors"
	"github.com/Aman-CERP/jump/internal/rank"
)

// isolate points the user config at an empty directory and returns it.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// =============================================================================
// Defaults
// =============================================================================

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: the documented defaults apply
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "key", cfg.Search.FileSort)
	assert.Equal(t, "key", cfg.Search.SymbolSort)
	assert.Equal(t, "name", cfg.Search.CommandSort)
	assert.Equal(t, "name", cfg.Search.MixedSort)
	assert.Equal(t, []string{"file", "symbol", "command"}, cfg.Search.AllKinds)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.True(t, cfg.Search.AllowNonContiguous)
	assert.Equal(t, 4096, cfg.Search.ParallelThreshold)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Search.Workers)

	assert.True(t, cfg.Scanner.RespectGitignore)
	assert.True(t, cfg.Symbols.MarkdownHeadings)
	assert.Equal(t, 4096, cfg.Symbols.CacheSize)
	assert.Equal(t, "+{line}", cfg.Editor.LineFlag)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "telemetry.db", filepath.Base(cfg.Telemetry.DBPath))
	assert.Equal(t, filepath.Join(cfg.Paths.DataDir, "logs"), cfg.Paths.LogDir)

	require.NoError(t, cfg.Validate())
}

func TestNewConfig_DataDirUnderHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	assert.Equal(t, filepath.Join(home, ".jump"), NewConfig().Paths.DataDir)
}

// =============================================================================
// Layered loading
// =============================================================================

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search, cfg.Search)
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	// Given: a project config with a few settings
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".jump.yaml"), `
search:
  file_sort: name-desc
  max_results: 10
  allow_non_contiguous: false
scanner:
  respect_gitignore: false
  exclude: ["*.gen.go"]
symbols:
  languages: [go]
`)

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: the file wins, explicit false included, and untouched keys keep defaults
	require.NoError(t, err)
	assert.Equal(t, "name-desc", cfg.Search.FileSort)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.False(t, cfg.Search.AllowNonContiguous)
	assert.False(t, cfg.Scanner.RespectGitignore)
	assert.Equal(t, []string{"*.gen.go"}, cfg.Scanner.Exclude)
	assert.Equal(t, []string{"go"}, cfg.Symbols.Languages)
	assert.Equal(t, "key", cfg.Search.SymbolSort)
	assert.True(t, cfg.Scanner.SkipBinary)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".jump.yml"), "search:\n  mixed_sort: weight\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "weight", cfg.Search.MixedSort)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".jump.yaml"), "search:\n  max_results: 7\n")
	writeFile(t, filepath.Join(dir, ".jump.yml"), "search:\n  max_results: 9\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.MaxResults)
}

func TestLoad_UserThenProjectThenEnv(t *testing.T) {
	// Given: all three sources set overlapping keys
	xdg := isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(xdg, "jump", "config.yaml"), `
search:
  file_sort: weight
  command_sort: key
scanner:
  exclude: ["tmp/"]
editor:
  command: nano
`)
	writeFile(t, filepath.Join(dir, ".jump.yaml"), `
search:
  file_sort: name
scanner:
  exclude: ["dist/"]
`)
	t.Setenv("JUMP_EDITOR", "code --wait")
	t.Setenv("JUMP_EXCLUDE", "*.snap, build/")

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: later sources win and excludes accumulate
	require.NoError(t, err)
	assert.Equal(t, "name", cfg.Search.FileSort)
	assert.Equal(t, "key", cfg.Search.CommandSort)
	assert.Equal(t, "code --wait", cfg.Editor.Command)
	assert.Equal(t, []string{"tmp/", "dist/", "*.snap", "build/"}, cfg.Scanner.Exclude)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("JUMP_FILE_SORT", "name")
	t.Setenv("JUMP_MIXED_SORT", "weight-desc")
	t.Setenv("JUMP_MAX_RESULTS", "5")
	t.Setenv("JUMP_TELEMETRY", "false")
	t.Setenv("JUMP_ALL_KINDS", "file, command")
	t.Setenv("JUMP_LOG_LEVEL", "debug")
	t.Setenv("JUMP_SYMBOL_SORT", "")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "name", cfg.Search.FileSort)
	assert.Equal(t, "weight-desc", cfg.Search.MixedSort)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, []string{"file", "command"}, cfg.Search.AllKinds)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	// Empty variables do not override
	assert.Equal(t, "key", cfg.Search.SymbolSort)
}

func TestLoad_EnvInvalidNumber_ReturnsConfigError(t *testing.T) {
	isolate(t)
	t.Setenv("JUMP_MAX_RESULTS", "many")

	_, err := Load(t.TempDir())

	require.Error(t, err)
	assert.True(t, jerrors.HasCode(err, jerrors.ErrCodeConfigInvalid))
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".jump.yaml"), "search: [unclosed\n")

	_, err := Load(dir)

	require.Error(t, err)
	assert.True(t, jerrors.HasCode(err, jerrors.ErrCodeConfigInvalid))
}

func TestLoad_InvalidFieldType_ReturnsError(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".jump.yaml"), "search:\n  max_results: lots\n")

	_, err := Load(dir)

	require.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantCode string
	}{
		{"unknown sort", "search:\n  file_sort: size\n", jerrors.ErrCodeInvalidSortOrder},
		{"unknown mixed sort", "search:\n  mixed_sort: random\n", jerrors.ErrCodeInvalidSortOrder},
		{"unknown kind", "search:\n  all_kinds: [file, folder]\n", jerrors.ErrCodeUnknownKind},
		{"no kinds", "search:\n  all_kinds: []\n", jerrors.ErrCodeConfigInvalid},
		{"negative results", "search:\n  max_results: -1\n", jerrors.ErrCodeConfigInvalid},
		{"negative cache", "symbols:\n  cache_size: -5\n", jerrors.ErrCodeConfigInvalid},
		{"unknown language", "symbols:\n  languages: [cobol]\n", jerrors.ErrCodeConfigInvalid},
		{"bad transport", "server:\n  transport: sse\n", jerrors.ErrCodeConfigInvalid},
		{"bad log level", "server:\n  log_level: loud\n", jerrors.ErrCodeConfigInvalid},
		{"bad debounce", "scanner:\n  watch_debounce: soon\n", jerrors.ErrCodeConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, ".jump.yaml"), tt.yaml)

			_, err := Load(dir)

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, jerrors.GetCode(err))
		})
	}
}

// =============================================================================
// Paths
// =============================================================================

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	xdg := isolate(t)

	assert.Equal(t, filepath.Join(xdg, "jump", "config.yaml"), GetUserConfigPath())
	assert.Equal(t, filepath.Join(xdg, "jump"), GetUserConfigDir())
	assert.False(t, UserConfigExists())

	writeFile(t, GetUserConfigPath(), "version: 1\n")
	assert.True(t, UserConfigExists())
}

func TestGetUserConfigPath_DefaultsToHomeConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	assert.Equal(t, filepath.Join(home, ".config", "jump", "config.yaml"), GetUserConfigPath())
}

func TestLoadUserConfig(t *testing.T) {
	isolate(t)

	cfg, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg)

	writeFile(t, GetUserConfigPath(), "editor:\n  command: hx\n")
	cfg, err = LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "hx", cfg.Editor.Command)
}

func TestFindProjectRoot(t *testing.T) {
	tests := []struct {
		name   string
		marker string
	}{
		{"git directory", ".git/HEAD"},
		{"yaml config", ".jump.yaml"},
		{"yml config", ".jump.yml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a marker at the root and a deep working directory
			root := t.TempDir()
			writeFile(t, filepath.Join(root, tt.marker), "x")
			deep := filepath.Join(root, "a", "b", "c")
			require.NoError(t, os.MkdirAll(deep, 0o755))

			// When: searching upward
			got, err := FindProjectRoot(deep)

			// Then: the marked directory is returned
			require.NoError(t, err)
			assert.Equal(t, root, got)
		})
	}
}

func TestFindProjectRoot_NoMarkers_ReturnsStartDir(t *testing.T) {
	dir := t.TempDir()

	got, err := FindProjectRoot(dir)

	require.NoError(t, err)
	// A marker above the temp dir is also a valid answer.
	assert.Contains(t, dir, got)
}

func TestFindProjectRoot_MissingDir_ReturnsError(t *testing.T) {
	_, err := FindProjectRoot(filepath.Join(t.TempDir(), "missing"))

	require.Error(t, err)
	assert.True(t, jerrors.HasCode(err, jerrors.ErrCodeRootNotFound))
}

// =============================================================================
// Conversions
// =============================================================================

func TestConfig_RankOptions(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.Workers = 3
	cfg.Search.AllowNonContiguous = false

	opts := cfg.RankOptions(0)
	assert.Equal(t, rank.Options{AllowNonContiguous: false, Workers: 3, ParallelThreshold: 4096, Limit: 50}, opts)

	assert.Equal(t, 5, cfg.RankOptions(5).Limit)
}

func TestConfig_SortCriteria(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.SymbolSort = "line-desc"

	perKind, mixed := cfg.SortCriteria()

	assert.Equal(t, rank.SecondaryKey, perKind[candidate.KindFile])
	assert.Equal(t, rank.SecondaryKeyDesc, perKind[candidate.KindSymbol])
	assert.Equal(t, rank.Alphabetical, perKind[candidate.KindCommand])
	assert.Equal(t, rank.Alphabetical, mixed)
}

func TestConfig_AllKindsAndDurations(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, candidate.Kinds(), cfg.AllKinds())

	cfg.Search.AllKinds = []string{"commands", "files"}
	assert.Equal(t, []candidate.Kind{candidate.KindCommand, candidate.KindFile}, cfg.AllKinds())

	assert.Equal(t, 200*time.Millisecond, cfg.WatchDebounce())
	cfg.Scanner.WatchDebounce = "1s"
	assert.Equal(t, time.Second, cfg.WatchDebounce())
	cfg.Scanner.WatchDebounce = ""
	assert.Equal(t, 200*time.Millisecond, cfg.WatchDebounce())

	assert.Equal(t, time.Minute, cfg.TelemetryFlushInterval())
}

// =============================================================================
// Writing and upgrading
// =============================================================================

func TestWriteYAML_RoundTrips(t *testing.T) {
	// Given: a customised config
	isolate(t)
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.Search.FileSort = "weight-desc"
	cfg.Scanner.Exclude = []string{"out/"}
	cfg.Telemetry.Enabled = false

	// When: writing it as the project config and loading it back
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ".jump.yaml")))
	loaded, err := Load(dir)

	// Then: the values survive
	require.NoError(t, err)
	assert.Equal(t, "weight-desc", loaded.Search.FileSort)
	assert.Equal(t, []string{"out/"}, loaded.Scanner.Exclude)
	assert.False(t, loaded.Telemetry.Enabled)
}

func TestWriteYAML_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	require.NoError(t, NewConfig().WriteYAML(path))

	assert.FileExists(t, path)
}

func TestConfig_JSON(t *testing.T) {
	data, err := NewConfig().JSON()

	require.NoError(t, err)
	assert.Contains(t, string(data), `"file_sort": "key"`)
	assert.Contains(t, string(data), `"all_kinds": [`)
}

func TestMergeNewDefaults(t *testing.T) {
	// Given: a config written before sort settings existed
	cfg := &Config{Version: 1, Search: SearchConfig{FileSort: "name"}}

	// When: merging new defaults
	added := cfg.MergeNewDefaults()

	// Then: missing keys are filled and existing ones kept
	assert.Equal(t, "name", cfg.Search.FileSort)
	assert.Equal(t, "key", cfg.Search.SymbolSort)
	assert.Equal(t, 4096, cfg.Symbols.CacheSize)
	assert.Contains(t, added, "search.symbol_sort")
	assert.Contains(t, added, "search.all_kinds")
	assert.NotContains(t, added, "search.file_sort")

	// And: a second merge adds nothing
	assert.Empty(t, cfg.MergeNewDefaults())
}
