package ui

import (
	"strings"
)

// SparklineChars are the block characters used for sparklines, from empty
// to full.
var SparklineChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline keeps the most recent samples in a ring buffer, e.g. the
// latency of the last queries typed in the picker.
type Sparkline struct {
	samples []float64
	head    int
	count   int
}

// NewSparkline creates a sparkline holding width samples.
func NewSparkline(width int) *Sparkline {
	if width <= 0 {
		width = 20
	}
	return &Sparkline{samples: make([]float64, width)}
}

// Add records a sample, evicting the oldest when full.
func (s *Sparkline) Add(value float64) {
	s.samples[s.head] = value
	s.head = (s.head + 1) % len(s.samples)
	s.count++
}

// Values returns the held samples, oldest first.
func (s *Sparkline) Values() []float64 {
	n := min(s.count, len(s.samples))
	out := make([]float64, 0, n)
	start := 0
	if s.count >= len(s.samples) {
		start = s.head
	}
	for i := range n {
		out = append(out, s.samples[(start+i)%len(s.samples)])
	}
	return out
}

// Render draws the held samples, padded with spaces to the capacity.
func (s *Sparkline) Render() string {
	values := s.Values()
	return Bars(values) + strings.Repeat(" ", len(s.samples)-len(values))
}

// Count returns the number of samples added.
func (s *Sparkline) Count() int {
	return s.count
}

// Bars draws one block per value, scaled to the largest value.
func Bars(values []float64) string {
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}

	var sb strings.Builder
	sb.Grow(len(values) * 3)
	for _, v := range values {
		idx := 0
		if peak > 0 && v > 0 {
			idx = int(v / peak * float64(len(SparklineChars)-1))
			idx = min(max(idx, 0), len(SparklineChars)-1)
		}
		sb.WriteRune(SparklineChars[idx])
	}
	return sb.String()
}
