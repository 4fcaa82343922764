package mcp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectProject(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		wantName string
		wantType string
	}{
		{
			name:     "go module",
			files:    map[string]string{"go.mod": "// comment\nmodule github.com/acme/widget\n\ngo 1.25\n"},
			wantName: "widget",
			wantType: "go",
		},
		{
			name:     "scoped npm package",
			files:    map[string]string{"package.json": `{"name": "@acme/web-ui", "version": "1.0.0"}`},
			wantName: "web-ui",
			wantType: "node",
		},
		{
			name:     "cargo crate",
			files:    map[string]string{"Cargo.toml": "[dependencies]\nname = \"nope\"\n\n[package]\nname = \"ripjump\"\n"},
			wantName: "ripjump",
			wantType: "rust",
		},
		{
			name:     "python project",
			files:    map[string]string{"pyproject.toml": "[tool.black]\nline-length = 88\n[project]\nname = 'pyjump'\n"},
			wantName: "pyjump",
			wantType: "python",
		},
		{
			name: "go wins over node",
			files: map[string]string{
				"go.mod":       "module example.com/both\n",
				"package.json": `{"name": "both-web"}`,
			},
			wantName: "both",
			wantType: "go",
		},
		{
			name:     "broken manifest falls through",
			files:    map[string]string{"package.json": "{not json"},
			wantType: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a project directory with the manifests
			root := t.TempDir()
			for name, content := range tt.files {
				require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
			}

			// When: detecting the project
			info := DetectProject(root)

			// Then: name and type come from the first usable manifest
			want := tt.wantName
			if want == "" {
				want = filepath.Base(root)
			}
			assert.Equal(t, want, info.Name)
			assert.Equal(t, tt.wantType, info.Type)
			assert.Equal(t, root, info.RootPath)
		})
	}
}
