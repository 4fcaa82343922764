package ui

import "github.com/charmbracelet/lipgloss"

// Color palette: a single lime accent on grays.
const (
	ColorLime     = "154" // Primary accent (#AFFF00)
	ColorLimeDim  = "106" // Dimmed lime for inactive elements
	ColorWhite    = "255" // Selected row, headers
	ColorGray     = "245" // Secondary text, details
	ColorDarkGray = "238" // Separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
)

// Styles holds all styles used by the picker and the stats view.
type Styles struct {
	Header   lipgloss.Style
	Prompt   lipgloss.Style
	Match    lipgloss.Style
	Selected lipgloss.Style
	Normal   lipgloss.Style
	Detail   lipgloss.Style
	Kind     lipgloss.Style

	// Mode bar
	ActiveMode   lipgloss.Style
	InactiveMode lipgloss.Style

	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Dim       lipgloss.Style
	Sparkline lipgloss.Style
	Label     lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Prompt:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Match:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Normal:   lipgloss.NewStyle(),
		Detail:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Kind:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLimeDim)),

		ActiveMode:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		InactiveMode: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),

		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Sparkline: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
	}
}

// NoColorStyles returns unstyled components. The picker marks matches with
// brackets when these are in use.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:       plain,
		Prompt:       plain,
		Match:        plain,
		Selected:     plain,
		Normal:       plain,
		Detail:       plain,
		Kind:         plain,
		ActiveMode:   plain,
		InactiveMode: plain,
		Success:      plain,
		Warning:      plain,
		Error:        plain,
		Dim:          plain,
		Sparkline:    plain,
		Label:        plain,
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
