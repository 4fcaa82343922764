package mcp

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/jump/internal/output"
)

// FormatResults renders a tool answer as markdown, matched characters in
// bold.
func FormatResults(out QueryOutput) string {
	if len(out.Results) == 0 {
		if out.Query == "" {
			return fmt.Sprintf("No %scandidates loaded", modeNoun(out.Mode))
		}
		return fmt.Sprintf("No %smatches for \"%s\" among %d candidates", modeNoun(out.Mode), out.Query, out.Total)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Jump results for \"%s\"\n\n", out.Query)
	fmt.Fprintf(&sb, "%d of %d candidates matched", out.Count, out.Total)
	if len(out.Results) < out.Count {
		fmt.Fprintf(&sb, ", showing the best %d", len(out.Results))
	}
	sb.WriteString("\n\n")

	for _, r := range out.Results {
		formatResult(&sb, r)
	}
	return sb.String()
}

func formatResult(sb *strings.Builder, r ResultOutput) {
	name := output.Highlight(r.Name, r.Matches, bold)
	fmt.Fprintf(sb, "%d. %s %s (score %d)", r.Rank, r.Kind, name, r.Score)
	switch {
	case r.Path != "" && r.Line > 1:
		fmt.Fprintf(sb, " at `%s:%d`", r.Path, r.Line)
	case r.Path != "":
		fmt.Fprintf(sb, " at `%s`", r.Path)
	}
	if r.Detail != "" {
		fmt.Fprintf(sb, " - %s", r.Detail)
	}
	sb.WriteString("\n")
}

func bold(s string) string {
	return "**" + s + "**"
}

func modeNoun(mode string) string {
	if mode == "mixed" {
		return ""
	}
	return mode + " "
}
