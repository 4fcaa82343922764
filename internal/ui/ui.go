// Package ui provides the terminal presentation of jump: the interactive
// picker and the telemetry report.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/jump/internal/candidate"
)

// Mode is one tab of the picker: a label and the kinds it searches.
type Mode struct {
	Label string
	Kinds []candidate.Kind
}

// DefaultModes returns one mode per kind followed by an "All" mode over
// all. all defaults to every kind.
func DefaultModes(all []candidate.Kind) []Mode {
	if len(all) == 0 {
		all = candidate.Kinds()
	}
	return []Mode{
		{Label: "Files", Kinds: []candidate.Kind{candidate.KindFile}},
		{Label: "Symbols", Kinds: []candidate.Kind{candidate.KindSymbol}},
		{Label: "Commands", Kinds: []candidate.Kind{candidate.KindCommand}},
		{Label: "All", Kinds: all},
	}
}

// ModeIndex returns the index of the mode searching exactly kinds, or 0.
func ModeIndex(modes []Mode, kinds []candidate.Kind) int {
	for i, m := range modes {
		if sameKinds(m.Kinds, kinds) {
			return i
		}
	}
	return 0
}

func sameKinds(a, b []candidate.Kind) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[candidate.Kind]bool, len(a))
	for _, k := range a {
		set[k] = true
	}
	for _, k := range b {
		if !set[k] {
			return false
		}
	}
	return true
}

// IsTTY checks if w is a terminal.
func IsTTY(w any) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// Interactive reports whether the picker can run on in and out.
func Interactive(in io.Reader, out io.Writer) bool {
	return IsTTY(in) && IsTTY(out) && !DetectCI()
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
