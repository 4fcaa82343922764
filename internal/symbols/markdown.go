package symbols

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)

// Headings returns the ATX headings of a markdown document. Container is the
// path of enclosing headings joined with " > ". Headings inside fenced code
// blocks are ignored.
func Headings(src []byte) []Symbol {
	var out []Symbol
	var stack [6]string
	fence := ""

	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		trimmed := strings.TrimSpace(text)

		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fence = trimmed[:3]
			continue
		}

		m := headingPattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		level := len(m[1])
		title := m[2]

		var parents []string
		for i := 0; i < level-1; i++ {
			if stack[i] != "" {
				parents = append(parents, stack[i])
			}
		}
		stack[level-1] = title
		for i := level; i < len(stack); i++ {
			stack[i] = ""
		}

		out = append(out, Symbol{
			Name:      title,
			Type:      TypeHeading,
			Container: strings.Join(parents, " > "),
			Line:      line,
			EndLine:   line,
			Signature: strings.TrimSpace(text),
		})
	}
	return out
}
