package mcp

import "github.com/Aman-CERP/jump/internal/scanner"

// mimeTypes maps the languages detected by the scanner to MIME types.
var mimeTypes = map[string]string{
	"go":         "text/x-go",
	"javascript": "text/javascript",
	"typescript": "text/typescript",
	"tsx":        "text/typescript",
	"python":     "text/x-python",
	"markdown":   "text/markdown",
	"rust":       "text/x-rust",
	"java":       "text/x-java",
	"kotlin":     "text/x-kotlin",
	"c":          "text/x-c",
	"cpp":        "text/x-c++",
	"csharp":     "text/x-csharp",
	"ruby":       "text/x-ruby",
	"php":        "text/x-php",
	"swift":      "text/x-swift",
	"shell":      "text/x-sh",
	"sql":        "text/x-sql",
	"protobuf":   "text/x-protobuf",
	"html":       "text/html",
	"css":        "text/css",
	"scss":       "text/x-scss",
	"json":       "application/json",
	"yaml":       "text/x-yaml",
	"toml":       "text/x-toml",
	"xml":        "text/xml",
	"dockerfile": "text/x-dockerfile",
	"makefile":   "text/x-makefile",
}

// MimeTypeForPath returns the MIME type for a file path, "text/plain" for
// unknown languages.
func MimeTypeForPath(path string) string {
	if mime, ok := mimeTypes[scanner.DetectLanguage(path)]; ok {
		return mime
	}
	return "text/plain"
}
