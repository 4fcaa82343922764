package ui

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/Aman-CERP/jump/internal/telemetry"
)

// StatsRenderer displays the telemetry report of `jump stats`.
type StatsRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatsRenderer creates a stats renderer.
func NewStatsRenderer(out io.Writer, noColor bool) *StatsRenderer {
	return &StatsRenderer{out: out, styles: GetStyles(noColor)}
}

// Render displays r.
func (s *StatsRenderer) Render(r *telemetry.Report) error {
	_, _ = fmt.Fprintf(s.out, "%s\n\n", s.styles.Header.Render(fmt.Sprintf("Query stats (last %d days)", r.Days)))

	_, _ = fmt.Fprintf(s.out, "  Queries: %d\n", r.TotalQueries)
	if r.TotalQueries == 0 {
		_, _ = fmt.Fprintln(s.out, s.styles.Dim.Render("  No queries recorded yet."))
		return nil
	}

	modes := slices.SortedFunc(maps.Keys(r.ModeCounts), func(a, b string) int {
		if c := cmp.Compare(r.ModeCounts[b], r.ModeCounts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	for _, mode := range modes {
		_, _ = fmt.Fprintf(s.out, "    %-8s %d\n", mode, r.ModeCounts[mode])
	}
	_, _ = fmt.Fprintln(s.out)

	buckets := telemetry.Buckets()
	counts := make([]float64, len(buckets))
	for i, b := range buckets {
		counts[i] = float64(r.LatencyDistribution[b])
	}
	_, _ = fmt.Fprintf(s.out, "  Latency:  %s  %s\n",
		s.styles.Sparkline.Render(Bars(counts)),
		s.styles.Label.Render("<1ms <5ms <16ms <50ms slower"))
	for _, b := range buckets {
		n := r.LatencyDistribution[b]
		_, _ = fmt.Fprintf(s.out, "    %-8s %d (%.0f%%)\n", b, n, percent(n, r.TotalQueries))
	}

	if len(r.TopQueries) > 0 {
		_, _ = fmt.Fprintln(s.out)
		_, _ = fmt.Fprintln(s.out, "  Top queries:")
		for _, q := range r.TopQueries {
			_, _ = fmt.Fprintf(s.out, "    %4d  %s\n", q.Count, q.Query)
		}
	}

	if len(r.ZeroResultQueries) > 0 {
		_, _ = fmt.Fprintln(s.out)
		_, _ = fmt.Fprintln(s.out, "  "+s.styles.Warning.Render("Queries without results:"))
		for _, z := range r.ZeroResultQueries {
			_, _ = fmt.Fprintf(s.out, "    %-20s %s\n", z.Query, s.styles.Dim.Render(formatTime(z.Timestamp)))
		}
	}
	return nil
}

// RenderJSON outputs r as JSON.
func (s *StatsRenderer) RenderJSON(r *telemetry.Report) error {
	encoder := json.NewEncoder(s.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

func percent(n, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// formatTime formats a time relative to now.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day") + " ago"
	default:
		return t.Format("2006-01-02 15:04")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
