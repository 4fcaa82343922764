// Package gitignore matches slash separated paths against gitignore rules.
//
// Matching is evaluated the way a directory walk sees paths: a directory
// that is ignored is expected to be skipped by the caller, so rules are only
// tested against the path itself and never against its parents.
package gitignore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strings"
)

// Matcher is the compiled rule set of one ignore file. It is immutable after
// construction and safe for concurrent use.
type Matcher struct {
	rules []rule
}

type rule struct {
	re       *regexp.Regexp
	negate   bool
	dirOnly  bool
	anchored bool
}

// Compile builds a Matcher from pattern lines. Blank lines and comments are
// skipped.
func Compile(lines []string) *Matcher {
	m := &Matcher{}
	for _, line := range lines {
		if r, ok := parseRule(line); ok {
			m.rules = append(m.rules, r)
		}
	}
	return m
}

// Parse reads an ignore file from r.
func Parse(r io.Reader) (*Matcher, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ignore rules: %w", err)
	}
	return Compile(lines), nil
}

// Load parses the ignore file at path. A missing file yields a nil Matcher
// and no error.
func Load(file string) (*Matcher, error) {
	f, err := os.Open(file)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Len returns the number of rules.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

// Decide evaluates rel, a slash separated path relative to the ignore file's
// directory. decided is false when no rule matched. The last matching rule
// wins.
func (m *Matcher) Decide(rel string, isDir bool) (ignored, decided bool) {
	if m == nil {
		return false, false
	}
	base := path.Base(rel)
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		subject := base
		if r.anchored {
			subject = rel
		}
		if r.re.MatchString(subject) {
			ignored, decided = !r.negate, true
		}
	}
	return ignored, decided
}

// Match reports whether rel is ignored.
func (m *Matcher) Match(rel string, isDir bool) bool {
	ignored, _ := m.Decide(rel, isDir)
	return ignored
}

// Layer is a Matcher scoped to the directory holding its ignore file.
type Layer struct {
	// Dir is slash separated and relative to the walk root; "" is the root.
	Dir     string
	Matcher *Matcher
}

// MatchLayers evaluates rel against layers ordered from the root down.
// Deeper layers override shallower ones.
func MatchLayers(layers []Layer, rel string, isDir bool) bool {
	ignored := false
	for _, l := range layers {
		sub := rel
		if l.Dir != "" {
			if !strings.HasPrefix(rel, l.Dir+"/") {
				continue
			}
			sub = rel[len(l.Dir)+1:]
		}
		if ig, ok := l.Matcher.Decide(sub, isDir); ok {
			ignored = ig
		}
	}
	return ignored
}

func parseRule(line string) (rule, bool) {
	// A trailing "\ " keeps its space; other trailing spaces are dropped.
	trimmed := strings.TrimRight(line, " \t")
	if strings.HasSuffix(trimmed, `\`) && len(trimmed) < len(line) {
		trimmed += " "
	}
	p := strings.TrimLeft(trimmed, " \t")
	if p == "" || strings.HasPrefix(p, "#") {
		return rule{}, false
	}

	var r rule
	switch {
	case strings.HasPrefix(p, `\#`), strings.HasPrefix(p, `\!`):
		p = p[1:]
	case strings.HasPrefix(p, "!"):
		r.negate = true
		p = p[1:]
	}

	if strings.HasSuffix(p, "/") {
		r.dirOnly = true
		p = strings.TrimRight(p, "/")
	}
	if strings.HasPrefix(p, "/") {
		r.anchored = true
		p = strings.TrimLeft(p, "/")
	}
	if strings.Contains(p, "/") {
		r.anchored = true
	}
	if p == "" {
		return rule{}, false
	}

	re, err := regexp.Compile("^" + toRegex(p) + "$")
	if err != nil {
		return rule{}, false
	}
	r.re = re
	return r, true
}

// toRegex translates glob syntax. "**/" spans zero or more directories, a
// trailing "/**" everything below, "*" and "?" stay within one segment.
func toRegex(glob string) string {
	var sb strings.Builder
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch {
		case strings.HasPrefix(glob[i:], "**/") && (i == 0 || glob[i-1] == '/'):
			sb.WriteString("(?:.*/)?")
			i += 2
		case strings.HasPrefix(glob[i:], "**") && (i == 0 || glob[i-1] == '/'):
			sb.WriteString(".*")
			i++
		case c == '*':
			sb.WriteString("[^/]*")
		case c == '?':
			sb.WriteString("[^/]")
		case c == '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				sb.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			sb.WriteString("[" + class + "]")
			i += end + 1
		case c == '\\' && i+1 < len(glob):
			i++
			writeLiteral(&sb, glob[i])
		default:
			writeLiteral(&sb, c)
		}
	}
	return sb.String()
}

// writeLiteral writes one byte of the glob, escaped when it is a regexp
// metacharacter. Bytes of multi-byte runes pass through unchanged.
func writeLiteral(sb *strings.Builder, c byte) {
	if strings.IndexByte(`\.+*?()|[]{}^$`, c) >= 0 {
		sb.WriteByte('\\')
	}
	sb.WriteByte(c)
}
