package output

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/Aman-CERP/jump/internal/candidate"
)

// Plain text match markers.
const (
	MarkOpen  = "["
	MarkClose = "]"
)

// Result is a ranked candidate detached from the ranking scratch fields,
// safe to keep after the next query.
type Result struct {
	Rank    int            `json:"rank"`
	Kind    candidate.Kind `json:"kind"`
	Name    string         `json:"name"`
	Score   int            `json:"score"`
	Matches []int          `json:"matches"`
	Detail  string         `json:"detail,omitempty"`
	Path    string         `json:"path,omitempty"`
	Line    int            `json:"line,omitempty"`
}

// Results is the JSON document written by WriteJSON.
type Results struct {
	Query   string   `json:"query"`
	Mode    string   `json:"mode"`
	Count   int      `json:"count"`
	Results []Result `json:"results"`
}

// FromCandidates snapshots ranked candidates.
func FromCandidates(cands []*candidate.Candidate) []Result {
	out := make([]Result, len(cands))
	for i, c := range cands {
		r := Result{
			Rank:    i + 1,
			Kind:    c.Kind,
			Name:    c.Name,
			Score:   c.Weight,
			Matches: slices.Clone(c.Matches),
			Detail:  c.Detail(),
		}
		if r.Matches == nil {
			r.Matches = []int{}
		}
		if path, line, ok := c.Location(); ok {
			r.Path = path
			r.Line = line
		}
		out[i] = r
	}
	return out
}

// Highlight wraps each run of matched characters of name with mark.
// matches are byte offsets of rune starts, as the scorer reports them.
// Offsets that do not start a rune in name are ignored.
func Highlight(name string, matches []int, mark func(string) string) string {
	if len(matches) == 0 {
		return name
	}
	matched := make(map[int]bool, len(matches))
	for _, m := range matches {
		matched[m] = true
	}

	var sb strings.Builder
	sb.Grow(len(name) + 2*len(matches))
	runStart := -1
	for i := 0; i < len(name); {
		_, size := utf8.DecodeRuneInString(name[i:])
		switch {
		case matched[i] && runStart < 0:
			runStart = i
		case !matched[i] && runStart >= 0:
			sb.WriteString(mark(name[runStart:i]))
			runStart = -1
		}
		if runStart < 0 {
			sb.WriteString(name[i : i+size])
		}
		i += size
	}
	if runStart >= 0 {
		sb.WriteString(mark(name[runStart:]))
	}
	return sb.String()
}

// Bracket marks s with the plain text markers.
func Bracket(s string) string {
	return MarkOpen + s + MarkClose
}

// Ranked prints one line per result: rank, kind, marked name and detail.
func (w *Writer) Ranked(results []Result) {
	mark := Bracket
	if w.useColor {
		mark = w.match.Render
	}
	for _, r := range results {
		line := fmt.Sprintf("%3d  %-7s %s", r.Rank, r.Kind, Highlight(r.Name, r.Matches, mark))
		if r.Detail != "" {
			detail := r.Detail
			if w.useColor {
				detail = w.dim.Render(detail)
			}
			line += "  " + detail
		}
		_, _ = fmt.Fprintln(w.out, line)
	}
}

// WriteJSON writes results as an indented JSON document.
func WriteJSON(out io.Writer, query, mode string, results []Result) error {
	if results == nil {
		results = []Result{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(Results{Query: query, Mode: mode, Count: len(results), Results: results})
}
