// Package scanner enumerates the files of a project for the file and symbol
// providers. It honours .gitignore files, configured exclusions and size
// limits, and streams results while walking.
package scanner

import (
	"time"
)

// FileInfo describes one discovered file.
type FileInfo struct {
	Path     string // Slash separated, relative to the scan root
	AbsPath  string
	Size     int64
	ModTime  time.Time
	Language string // go, typescript, markdown, ... or "" when unknown
}

// Options configures a scan.
type Options struct {
	// Root is the directory to scan. Empty means the working directory.
	Root string

	// Exclude holds extra patterns in gitignore syntax.
	Exclude []string

	RespectGitignore bool

	// MaxFileSize skips larger files. Zero means DefaultMaxFileSize.
	MaxFileSize int64

	// MaxFiles stops the walk after this many files. Zero means no limit.
	MaxFiles int

	// SkipBinary drops files whose first bytes contain a NUL byte.
	SkipBinary bool

	FollowSymlinks bool
}

// Result is one item streamed by Scan. Exactly one field is set.
type Result struct {
	File *FileInfo
	Err  error
}

// DefaultMaxFileSize is the default maximum file size (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// DefaultExcludes are always applied, in gitignore syntax.
var DefaultExcludes = []string{
	".git/",
	".hg/",
	".svn/",
	"node_modules/",
	"vendor/",
	"__pycache__/",
	".venv/",
	"dist/",
	"build/",
	"*.min.js",
	"*.min.css",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	".DS_Store",
}

// languageMap maps file extensions and exact base names to languages.
var languageMap = map[string]string{
	".go":         "go",
	".js":         "javascript",
	".jsx":        "javascript",
	".mjs":        "javascript",
	".cjs":        "javascript",
	".ts":         "typescript",
	".mts":        "typescript",
	".tsx":        "tsx",
	".py":         "python",
	".pyi":        "python",
	".md":         "markdown",
	".mdx":        "markdown",
	".markdown":   "markdown",
	".rs":         "rust",
	".java":       "java",
	".kt":         "kotlin",
	".c":          "c",
	".h":          "c",
	".cpp":        "cpp",
	".hpp":        "cpp",
	".cc":         "cpp",
	".cs":         "csharp",
	".rb":         "ruby",
	".php":        "php",
	".swift":      "swift",
	".sh":         "shell",
	".bash":       "shell",
	".zsh":        "shell",
	".sql":        "sql",
	".proto":      "protobuf",
	".html":       "html",
	".css":        "css",
	".scss":       "scss",
	".json":       "json",
	".yaml":       "yaml",
	".yml":        "yaml",
	".toml":       "toml",
	".xml":        "xml",
	".txt":        "text",
	"Dockerfile":  "dockerfile",
	"Makefile":    "makefile",
	"makefile":    "makefile",
	"GNUmakefile": "makefile",
}

// DetectLanguage detects the language of a file from its path.
func DetectLanguage(path string) string {
	base := baseName(path)
	if lang, ok := languageMap[base]; ok {
		return lang
	}
	if lang, ok := languageMap[extension(base)]; ok {
		return lang
	}
	return ""
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

// extension returns the extension of a base name including the dot.
func extension(base string) string {
	for i := len(base) - 1; i > 0; i-- {
		if base[i] == '.' {
			return base[i:]
		}
	}
	return ""
}
