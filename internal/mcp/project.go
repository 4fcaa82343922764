package mcp

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	goModuleRe = regexp.MustCompile(`(?m)^\s*module\s+"?([^"\s]+)"?`)
	tomlNameRe = regexp.MustCompile(`^\s*name\s*=\s*["']([^"']+)["']`)
)

// projectMarkers are tried in order; the first marker file that yields a
// name decides the project type.
var projectMarkers = []struct {
	file   string
	typ    string
	detect func(data []byte) string
}{
	{"go.mod", "go", goModuleName},
	{"package.json", "node", packageJSONName},
	{"Cargo.toml", "rust", tomlSectionName("[package]")},
	{"pyproject.toml", "python", tomlSectionName("[project]")},
}

// DetectProject names the project at root from its manifest, falling back
// to the directory name.
func DetectProject(root string) ProjectInfo {
	info := ProjectInfo{
		Name:     filepath.Base(root),
		RootPath: root,
		Type:     "unknown",
	}
	for _, m := range projectMarkers {
		data, err := os.ReadFile(filepath.Join(root, m.file))
		if err != nil {
			continue
		}
		if name := m.detect(data); name != "" {
			info.Name = name
			info.Type = m.typ
			break
		}
	}
	return info
}

// goModuleName returns the last element of the module path.
func goModuleName(data []byte) string {
	m := goModuleRe.FindSubmatch(data)
	if m == nil {
		return ""
	}
	return path.Base(string(m[1]))
}

// packageJSONName strips the scope of "@org/name".
func packageJSONName(data []byte) string {
	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	if i := strings.LastIndex(pkg.Name, "/"); i >= 0 && strings.HasPrefix(pkg.Name, "@") {
		return pkg.Name[i+1:]
	}
	return pkg.Name
}

func tomlSectionName(section string) func([]byte) string {
	return func(data []byte) string {
		in := false
		for line := range strings.Lines(string(data)) {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "[") {
				in = trimmed == section
				continue
			}
			if !in {
				continue
			}
			if m := tomlNameRe.FindStringSubmatch(line); m != nil {
				return m[1]
			}
		}
		return ""
	}
}
