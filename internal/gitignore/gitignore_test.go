package gitignore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		path     string
		isDir    bool
		expected bool
	}{
		// Basenames
		{name: "exact filename", pattern: "foo.txt", path: "foo.txt", expected: true},
		{name: "filename in subdir", pattern: "foo.txt", path: "a/b/foo.txt", expected: true},
		{name: "other filename", pattern: "foo.txt", path: "bar.txt", expected: false},

		// Wildcards
		{name: "*.log", pattern: "*.log", path: "logs/error.log", expected: true},
		{name: "*.log vs txt", pattern: "*.log", path: "error.txt", expected: false},
		{name: "prefix star", pattern: "test*", path: "src/test_util.go", expected: true},
		{name: "question mark", pattern: "file?.txt", path: "file1.txt", expected: true},
		{name: "question mark one char only", pattern: "file?.txt", path: "file12.txt", expected: false},
		{name: "char class", pattern: "[ab].go", path: "a.go", expected: true},
		{name: "negated char class", pattern: "[!ab].go", path: "a.go", expected: false},
		{name: "unicode literal", pattern: "ünï.txt", path: "ünï.txt", expected: true},

		// Double star
		{name: "**/dir at root", pattern: "**/node_modules", path: "node_modules", isDir: true, expected: true},
		{name: "**/dir nested", pattern: "**/node_modules", path: "pkg/a/node_modules", isDir: true, expected: true},
		{name: "dir/** inside", pattern: "logs/**", path: "logs/2024/error.log", expected: true},
		{name: "dir/** elsewhere", pattern: "logs/**", path: "src/logs/error.log", expected: false},
		{name: "a/**/b direct", pattern: "a/**/b", path: "a/b", expected: true},
		{name: "a/**/b deep", pattern: "a/**/b", path: "a/x/y/b", expected: true},
		{name: "a/**/b wrong root", pattern: "a/**/b", path: "c/x/b", expected: false},

		// Anchoring
		{name: "rooted at root", pattern: "/build", path: "build", isDir: true, expected: true},
		{name: "rooted not nested", pattern: "/build", path: "src/build", isDir: true, expected: false},
		{name: "inner slash anchors", pattern: "doc/frotz", path: "doc/frotz", expected: true},
		{name: "inner slash not nested", pattern: "doc/frotz", path: "a/doc/frotz", expected: false},

		// Directory only
		{name: "dir only matches dir", pattern: "tmp/", path: "a/tmp", isDir: true, expected: true},
		{name: "dir only skips file", pattern: "tmp/", path: "a/tmp", isDir: false, expected: false},

		// Escapes
		{name: "escaped hash", pattern: `\#notes`, path: "#notes", expected: true},
		{name: "escaped bang", pattern: `\!wow`, path: "!wow", expected: true},
		{name: "escaped trailing space", pattern: `space\ `, path: "space ", expected: true},
		{name: "regexp metachars are literal", pattern: "a+b(c).txt", path: "a+b(c).txt", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compile([]string{tt.pattern})
			assert.Equal(t, tt.expected, m.Match(tt.path, tt.isDir))
		})
	}
}

func TestMatcher_NegationLastRuleWins(t *testing.T) {
	// Given: a broad ignore followed by an exception
	m := Compile([]string{"*.log", "!keep.log"})

	// Then: the exception is not ignored
	assert.True(t, m.Match("debug.log", false))
	assert.False(t, m.Match("keep.log", false))

	ignored, decided := m.Decide("keep.log", false)
	assert.False(t, ignored)
	assert.True(t, decided)

	_, decided = m.Decide("main.go", false)
	assert.False(t, decided)
}

func TestCompile_SkipsCommentsAndBlanks(t *testing.T) {
	m := Compile([]string{"", "   ", "# comment", "/", "*.tmp"})
	assert.Equal(t, 1, m.Len())

	var nilMatcher *Matcher
	assert.Equal(t, 0, nilMatcher.Len())
	assert.False(t, nilMatcher.Match("x", false))
}

func TestParseAndLoad(t *testing.T) {
	m, err := Parse(strings.NewReader("vendor/\n# c\n*.bak\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	dir := t.TempDir()
	missing, err := Load(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("dist/\n"), 0o644))
	loaded, err := Load(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.True(t, loaded.Match("dist", true))
}

func TestMatchLayers_DeeperOverrides(t *testing.T) {
	// Given: a root rule and a nested exception
	layers := []Layer{
		{Dir: "", Matcher: Compile([]string{"*.gen.go"})},
		{Dir: "api", Matcher: Compile([]string{"!types.gen.go", "/local"})},
	}

	// Then: the nested layer only applies below its directory
	assert.True(t, MatchLayers(layers, "cmd/main.gen.go", false))
	assert.False(t, MatchLayers(layers, "api/types.gen.go", false))
	assert.True(t, MatchLayers(layers, "api/other.gen.go", false))
	assert.True(t, MatchLayers(layers, "api/local", true))
	assert.False(t, MatchLayers(layers, "local", true))
	assert.False(t, MatchLayers(nil, "anything", false))
}
