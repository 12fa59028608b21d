package components

import "github.com/charmbracelet/lipgloss"

// Color scheme
const (
	ColorPrimary = "6"  // Cyan
	ColorSuccess = "2"  // Green
	ColorWarning = "3"  // Yellow
	ColorError   = "1"  // Red
	ColorInfo    = "4"  // Blue
	ColorMuted   = "8"  // Dark gray
	ColorAccent  = "11" // Bright yellow
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorPrimary)).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true)

	SectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(ColorSuccess))
)

// Text styles
var (
	KeyHighlightStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorAccent)).
				Bold(true)

	SelectedStyle = lipgloss.NewStyle().
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorError))

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorMuted))

	BranchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorInfo))

	DirtyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorWarning))

	CleanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSuccess))

	StatusConnectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorSuccess))

	StatusDisconnectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorError))
)

// Container styles
var (
	FooterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorMuted)).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true)
)
