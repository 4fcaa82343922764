// Package symbols extracts navigable symbols from source files: functions,
// types and methods via tree-sitter, and headings from markdown.
package symbols

// Type is the category of a symbol.
type Type string

const (
	TypeFunction  Type = "function"
	TypeMethod    Type = "method"
	TypeClass     Type = "class"
	TypeInterface Type = "interface"
	TypeType      Type = "type"
	TypeEnum      Type = "enum"
	TypeConstant  Type = "constant"
	TypeVariable  Type = "variable"
	TypeHeading   Type = "heading"
)

// Symbol is one declaration found in a file.
type Symbol struct {
	Name string
	Type Type
	// Container is the enclosing type for methods and the parent heading path
	// for markdown headings.
	Container string
	// Line and EndLine are 1-based.
	Line      int
	EndLine   int
	Signature string
}
