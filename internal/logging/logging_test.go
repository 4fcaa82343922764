package logging

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

// ============================================================================
// Paths and configuration
// ============================================================================

func TestDefaultLogPaths(t *testing.T) {
	dir := DefaultLogDir()
	assert.True(t, strings.HasSuffix(dir, filepath.Join(".jump", "logs")))
	assert.Equal(t, filepath.Join(dir, "jump.log"), DefaultLogPath())
	assert.Equal(t, DefaultLogPath(), PathIn(""))
	assert.Equal(t, filepath.Join("/tmp/x", "jump.log"), PathIn("/tmp/x"))
}

func TestConfigs(t *testing.T) {
	def := DefaultConfig()
	assert.Equal(t, "info", def.Level)
	assert.False(t, def.WriteToStderr)
	assert.Equal(t, 10, def.MaxSizeMB)
	assert.Equal(t, 5, def.MaxFiles)

	dbg := DebugConfig()
	assert.Equal(t, "debug", dbg.Level)
	assert.True(t, dbg.WriteToStderr)

	srv := ServerConfig("warn")
	assert.Equal(t, "warn", srv.Level)
	assert.False(t, srv.WriteToStderr)
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFromString(tt.in))
		})
	}
}

func TestSetup_WritesJSONAtLevel(t *testing.T) {
	// Given: a logger at warn level writing to a temp file
	path := filepath.Join(t.TempDir(), "logs", "jump.log")
	logger, cleanup, err := Setup(Config{Level: "warn", FilePath: path})
	require.NoError(t, err)

	// When: logging below and at the level
	logger.Info("hidden")
	logger.Warn("session_load_failed", slog.String("kind", "symbol"))
	cleanup()

	// Then: only the warning is written, as JSON
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "hidden")
	assert.Contains(t, string(content), `"msg":"session_load_failed"`)
	assert.Contains(t, string(content), `"kind":"symbol"`)
}

func TestSetupDefault_InstallsLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "jump.log")
	cleanup, err := SetupDefault(Config{Level: "debug", FilePath: path})
	require.NoError(t, err)

	slog.Debug("files_loaded", slog.Int("count", 3))
	cleanup()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"count":3`)
}

func TestFindLogFile(t *testing.T) {
	dir := t.TempDir()

	_, err := FindLogFile("", dir)
	require.Error(t, err)
	assert.True(t, jerrors.HasCode(err, jerrors.ErrCodeFileNotFound))

	_, err = FindLogFile(filepath.Join(dir, "other.log"), dir)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "jump.log"), []byte("{}\n"), 0o644))
	got, err := FindLogFile("", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "jump.log"), got)

	got, err = FindLogFile(filepath.Join(dir, "jump.log"), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "jump.log"), got)
}

// ============================================================================
// Viewer
// ============================================================================

const sampleLog = `{"time":"2026-01-02T10:00:00.000Z","level":"DEBUG","msg":"scan_start","root":"/p"}
{"time":"2026-01-02T10:00:01.000Z","level":"INFO","msg":"files_loaded","count":12}
not json at all
{"time":"2026-01-02T10:00:02.000Z","level":"WARN","msg":"session_load_failed","kind":"symbol"}
{"time":"2026-01-02T10:00:03.000Z","level":"ERROR","msg":"editor_failed","code":"ERR_205"}
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jump.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestViewer_Tail(t *testing.T) {
	path := writeLog(t, sampleLog)

	tests := []struct {
		name   string
		cfg    ViewerConfig
		n      int
		wantMs []string
	}{
		{"all lines", ViewerConfig{}, 0, []string{"scan_start", "files_loaded", "", "session_load_failed", "editor_failed"}},
		{"last two", ViewerConfig{}, 2, []string{"session_load_failed", "editor_failed"}},
		{"warn and above", ViewerConfig{Level: "warn"}, 0, []string{"session_load_failed", "editor_failed"}},
		{"pattern", ViewerConfig{Pattern: regexp.MustCompile(`kind`)}, 0, []string{"session_load_failed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := NewViewer(tt.cfg, &bytes.Buffer{}).Tail(path, tt.n)
			require.NoError(t, err)

			var msgs []string
			for _, e := range entries {
				msgs = append(msgs, e.Msg)
			}
			assert.Equal(t, tt.wantMs, msgs)
		})
	}
}

func TestViewer_Tail_NonexistentFile(t *testing.T) {
	_, err := NewViewer(ViewerConfig{}, &bytes.Buffer{}).Tail(filepath.Join(t.TempDir(), "nope.log"), 10)
	assert.Error(t, err)
}

func TestViewer_ParseLine(t *testing.T) {
	v := NewViewer(ViewerConfig{}, &bytes.Buffer{})

	e := v.parseLine(`{"time":"2026-01-02T10:00:01.5Z","level":"INFO","msg":"files_loaded","count":12}`)
	assert.True(t, e.IsValid)
	assert.Equal(t, "INFO", e.Level)
	assert.Equal(t, "files_loaded", e.Msg)
	assert.Equal(t, map[string]any{"count": float64(12)}, e.Attrs)
	assert.Equal(t, 500*time.Millisecond, time.Duration(e.Time.Nanosecond()))

	raw := v.parseLine("plain text")
	assert.False(t, raw.IsValid)
	assert.Equal(t, "plain text", raw.Raw)
}

func TestViewer_FormatEntry(t *testing.T) {
	v := NewViewer(ViewerConfig{NoColor: true}, &bytes.Buffer{})
	e := v.parseLine(`{"time":"2026-01-02T10:00:01.000Z","level":"warning","msg":"slow_query","ms":20,"kind":"file"}`)

	assert.Equal(t, "10:00:01.000 WARNI slow_query kind=file ms=20", v.FormatEntry(e))
	assert.Equal(t, "garbage", v.FormatEntry(v.parseLine("garbage")))
}

func TestViewer_FormatLevel_NoColor(t *testing.T) {
	v := NewViewer(ViewerConfig{NoColor: true}, &bytes.Buffer{})

	assert.Equal(t, "DEBUG", v.formatLevel("debug"))
	assert.Equal(t, "INFO ", v.formatLevel("info"))
	assert.Equal(t, "ERROR", v.formatLevel("ERROR"))
}

func TestViewer_Print(t *testing.T) {
	var out bytes.Buffer
	v := NewViewer(ViewerConfig{NoColor: true, Level: "error"}, &out)

	entries, err := v.Tail(writeLog(t, sampleLog), 0)
	require.NoError(t, err)
	v.Print(entries)

	assert.Equal(t, "10:00:03.000 ERROR editor_failed code=ERR_205\n", out.String())
}

func TestViewer_Follow(t *testing.T) {
	// Given: an existing log being followed
	path := writeLog(t, sampleLog)
	v := NewViewer(ViewerConfig{Level: "info"}, &bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries := make(chan LogEntry, 4)
	done := make(chan error, 1)
	go func() { done <- v.Follow(ctx, path, entries) }()
	time.Sleep(150 * time.Millisecond)

	// When: new lines are appended
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"time":"2026-01-02T11:00:00Z","level":"DEBUG","msg":"filtered"}` + "\n" +
		`{"time":"2026-01-02T11:00:01Z","level":"INFO","msg":"query","n":1}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Then: only the new entry passing the filter arrives
	select {
	case e := <-entries:
		assert.Equal(t, "query", e.Msg)
	case <-time.After(3 * time.Second):
		t.Fatal("no entry followed")
	}

	cancel()
	assert.NoError(t, <-done)
}

// ============================================================================
// Rotating writer
// ============================================================================

func TestRotatingWriter_Rotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "jump.log")

	// 0 MB rotates before every write
	w, err := NewRotatingWriter(logPath, 0, 3)
	require.NoError(t, err)
	defer w.Close()

	data := bytes.Repeat([]byte("x"), 2048)
	_, err = w.Write(data)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)

	assert.FileExists(t, logPath)
	assert.FileExists(t, logPath+".1")
	assert.FileExists(t, logPath+".2")
}

func TestRotatingWriter_MaxFilesLimit(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "jump.log")
	w, err := NewRotatingWriter(logPath, 0, 2)
	require.NoError(t, err)
	defer w.Close()

	for i := range 6 {
		_, err := fmt.Fprintf(w, "line %d\n", i)
		require.NoError(t, err)
	}

	assert.FileExists(t, logPath+".1")
	assert.FileExists(t, logPath+".2")
	assert.NoFileExists(t, logPath+".3")

	// The lock file is not mistaken for a rotated log
	assert.FileExists(t, logPath+".lock")
}

func TestRotatingWriter_SharedFileRotatesOnce(t *testing.T) {
	// Given: two writers on one file, as two jump processes would have
	logPath := filepath.Join(t.TempDir(), "jump.log")
	w1, err := NewRotatingWriter(logPath, 1, 5)
	require.NoError(t, err)
	defer w1.Close()
	w2, err := NewRotatingWriter(logPath, 1, 5)
	require.NoError(t, err)
	defer w2.Close()

	chunk := bytes.Repeat([]byte("a"), 600*1024)
	_, err = w1.Write(chunk)
	require.NoError(t, err)
	_, err = w2.Write(chunk)
	require.NoError(t, err)

	// When: the first writer rotates and the second later overflows too
	_, err = w1.Write(chunk)
	require.NoError(t, err)
	_, err = w2.Write(append(chunk, []byte("from-w2\n")...))
	require.NoError(t, err)

	// Then: the second writer follows the rotation instead of rotating again
	assert.NoFileExists(t, logPath+".2")
	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(content, []byte("from-w2\n")))
}

func TestRotatingWriter_CloseAndSync(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "jump.log")
	w, err := NewRotatingWriter(logPath, 1, 3)
	require.NoError(t, err)

	_, err = w.Write([]byte("test data to sync\n"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "test data to sync")

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "jump.log")
	w, err := NewRotatingWriter(logPath, 10, 3)
	require.NoError(t, err)
	defer w.Close()
	w.SetImmediateSync(false)

	var wg sync.WaitGroup
	for id := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				_, _ = fmt.Fprintf(w, `{"id":%d,"iter":%d}`+"\n", id, j)
			}
		}()
	}
	wg.Wait()
	require.NoError(t, w.Sync())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, 1000, bytes.Count(content, []byte("\n")))
}
