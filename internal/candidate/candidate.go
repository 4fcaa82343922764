// Package candidate defines the searchable items shared by providers, the
// ranking pipeline and the presentation layers.
package candidate

import (
	"fmt"
	"strings"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

// Kind identifies which provider produced a candidate.
type Kind int

const (
	KindFile Kind = iota
	KindSymbol
	KindCommand
)

var kindNames = [...]string{
	KindFile:    "file",
	KindSymbol:  "symbol",
	KindCommand: "command",
}

// Kinds returns every kind in canonical order.
func Kinds() []Kind {
	return []Kind{KindFile, KindSymbol, KindCommand}
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses "file", "symbol" or "command" (plural forms accepted).
func ParseKind(s string) (Kind, error) {
	name := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, jerrors.New(jerrors.ErrCodeUnknownKind, fmt.Sprintf("unknown kind %q", s), nil).
		WithSuggestion("Use one of: file, symbol, command")
}

// ParseKinds parses a list of kind names, dropping duplicates.
func ParseKinds(names []string) ([]Kind, error) {
	seen := make(map[Kind]bool, len(names))
	kinds := make([]Kind, 0, len(names))
	for _, n := range names {
		k, err := ParseKind(n)
		if err != nil {
			return nil, err
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

// FileData is the payload of a KindFile candidate.
type FileData struct {
	// Path is relative to the scope root, slash separated.
	Path     string
	AbsPath  string
	Size     int64
	Language string
}

// SymbolData is the payload of a KindSymbol candidate.
type SymbolData struct {
	// Type is the symbol category, e.g. "function", "method", "heading".
	Type string
	// Container is the enclosing type or heading path, if any.
	Container string
	File      string
	AbsPath   string
	Line      int
	EndLine   int
	Signature string
	Language  string
}

// CommandData is the payload of a KindCommand candidate.
type CommandData struct {
	// Path is the command path below the root command.
	Path    []string
	Short   string
	Aliases []string
}

// Candidate is one searchable item. Exactly one of File, Symbol and Command
// is set, matching Kind.
//
// Weight and Matches are scratch fields owned by the ranking pipeline. They
// describe the last ranking pass only.
type Candidate struct {
	Name string
	Kind Kind
	// Key is the kind specific numeric tie-break: directory depth for files,
	// line number for symbols, nesting depth for commands.
	Key int

	Weight  int
	Matches []int

	File    *FileData
	Symbol  *SymbolData
	Command *CommandData
}

// NewFile builds a file candidate named by its relative path.
func NewFile(d FileData) *Candidate {
	return &Candidate{
		Name: d.Path,
		Kind: KindFile,
		Key:  strings.Count(d.Path, "/"),
		File: &d,
	}
}

// NewSymbol builds a symbol candidate keyed by its line.
func NewSymbol(name string, d SymbolData) *Candidate {
	return &Candidate{
		Name:   name,
		Kind:   KindSymbol,
		Key:    d.Line,
		Symbol: &d,
	}
}

// NewCommand builds a command candidate named by its space joined path.
func NewCommand(d CommandData) *Candidate {
	return &Candidate{
		Name:    strings.Join(d.Path, " "),
		Kind:    KindCommand,
		Key:     len(d.Path),
		Command: &d,
	}
}

// Detail is a one-line description shown next to the name.
func (c *Candidate) Detail() string {
	switch c.Kind {
	case KindFile:
		if c.File != nil && c.File.Language != "" {
			return c.File.Language
		}
	case KindSymbol:
		if c.Symbol != nil {
			return fmt.Sprintf("%s %s:%d", c.Symbol.Type, c.Symbol.File, c.Symbol.Line)
		}
	case KindCommand:
		if c.Command != nil {
			return c.Command.Short
		}
	}
	return ""
}

// Location returns the absolute file and line a candidate points at, if any.
func (c *Candidate) Location() (path string, line int, ok bool) {
	switch {
	case c.File != nil:
		return c.File.AbsPath, 1, c.File.AbsPath != ""
	case c.Symbol != nil:
		return c.Symbol.AbsPath, c.Symbol.Line, c.Symbol.AbsPath != ""
	}
	return "", 0, false
}

// Names returns the names of cands in order.
func Names(cands []*Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Name
	}
	return out
}
