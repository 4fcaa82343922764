// Package output formats CLI output: status lines and ranked results.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	iconSuccess = "✅"
	iconWarning = "⚠️ "

	barWidth = 30
)

// Writer prints status lines and ranked results. Write errors are dropped;
// there is nowhere better to report a broken terminal.
type Writer struct {
	out      io.Writer
	useColor bool
	match    lipgloss.Style
	dim      lipgloss.Style
}

// New returns a plain Writer. Matched characters are bracketed.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// NewColor returns a Writer that highlights matched characters and dims
// details.
func NewColor(out io.Writer) *Writer {
	return &Writer{
		out:      out,
		useColor: true,
		match:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("154")),
		dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

func (w *Writer) line(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format, args...)
}

// Status prints msg after icon. An empty icon indents msg under the
// previous status line.
func (w *Writer) Status(icon, msg string) {
	if icon == "" {
		w.line("   %s\n", msg)
		return
	}
	w.line("%s %s\n", icon, msg)
}

func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

func (w *Writer) Success(msg string) { w.Status(iconSuccess, msg) }

func (w *Writer) Warning(msg string) { w.Status(iconWarning, msg) }

func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

func (w *Writer) Newline() { w.line("\n") }

// Progress redraws a bar in place; the line is finished once current
// reaches total.
func (w *Writer) Progress(current, total int, msg string) {
	if total <= 0 {
		return
	}
	w.line("\r[%s] %3d%% %s", progressBar(current, total, barWidth), current*100/total, msg)
	if current >= total {
		w.Newline()
	}
}

func progressBar(current, total, width int) string {
	filled := 0
	if total > 0 {
		filled = min(max(current*width/total, 0), width)
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
