package tui

import "github.com/charmbracelet/lipgloss"

// 256-color palette
const (
	colorAccent = lipgloss.Color("86")
	colorText   = lipgloss.Color("252")
	colorNote   = lipgloss.Color("244")
	colorMuted  = lipgloss.Color("240")
	colorOK     = lipgloss.Color("46")
	colorWarn   = lipgloss.Color("220")
	colorFail   = lipgloss.Color("196")
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(colorAccent)
	labelStyle  = lipgloss.NewStyle().Foreground(colorText)
	noteStyle   = lipgloss.NewStyle().Foreground(colorNote)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	okStyle     = lipgloss.NewStyle().Foreground(colorOK)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarn)
	failStyle   = lipgloss.NewStyle().Foreground(colorFail)

	titleStyle = accentStyle.Bold(true).MarginBottom(1)
	hintStyle  = mutedStyle.MarginTop(1)
)

// glyph is the marker drawn before a stage label.
func glyph(s Status, spin string) string {
	switch s {
	case StatusRunning:
		return accentStyle.Render(spin)
	case StatusComplete:
		return okStyle.Render("✓")
	case StatusFailed:
		return failStyle.Render("✗")
	case StatusSkipped:
		return mutedStyle.Render("-")
	default:
		return mutedStyle.Render("○")
	}
}
