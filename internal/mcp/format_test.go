package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatResults(t *testing.T) {
	out := QueryOutput{
		Query: "main",
		Mode:  "mixed",
		Total: 12,
		Count: 3,
		Results: []ResultOutput{
			{Rank: 1, Kind: "file", Name: "cmd/main.go", Score: 60, Matches: []int{4, 5, 6, 7}, Detail: "go", Path: "/repo/cmd/main.go", Line: 1},
			{Rank: 2, Kind: "symbol", Name: "Main", Score: 55, Matches: []int{0, 1, 2, 3}, Detail: "function cmd/main.go:12", Path: "/repo/cmd/main.go", Line: 12},
		},
	}

	got := FormatResults(out)

	assert.Contains(t, got, "## Jump results for \"main\"")
	assert.Contains(t, got, "3 of 12 candidates matched, showing the best 2")
	assert.Contains(t, got, "1. file cmd/**main**.go (score 60) at `/repo/cmd/main.go` - go\n")
	assert.Contains(t, got, "2. symbol **Main** (score 55) at `/repo/cmd/main.go:12` - function cmd/main.go:12\n")
}

func TestFormatResults_CommandWithoutPath(t *testing.T) {
	out := QueryOutput{
		Query:   "cs",
		Mode:    "command",
		Total:   4,
		Count:   1,
		Results: []ResultOutput{{Rank: 1, Kind: "command", Name: "config show", Score: 20, Matches: []int{0, 7}, Detail: "Show config"}},
	}

	got := FormatResults(out)

	assert.Contains(t, got, "1 of 4 candidates matched\n")
	assert.NotContains(t, got, "showing")
	assert.Contains(t, got, "1. command **c**onfig **s**how (score 20) - Show config\n")
}

func TestFormatResults_Empty(t *testing.T) {
	tests := []struct {
		name string
		out  QueryOutput
		want string
	}{
		{"no match", QueryOutput{Query: "zz", Mode: "file", Total: 3}, "No file matches for \"zz\" among 3 candidates"},
		{"mixed no match", QueryOutput{Query: "zz", Mode: "mixed", Total: 9}, "No matches for \"zz\" among 9 candidates"},
		{"nothing loaded", QueryOutput{Mode: "symbol"}, "No symbol candidates loaded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatResults(tt.out))
		})
	}
}
