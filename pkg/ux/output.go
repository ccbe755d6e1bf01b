package ux

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Palette for dashboard output
var (
	colorPrimary = lipgloss.Color("#7AA2F7") // section titles
	colorOK      = lipgloss.Color("#9ECE6A")
	colorWarn    = lipgloss.Color("#E0AF68")
	colorBad     = lipgloss.Color("#F7768E")
	colorMuted   = lipgloss.Color("#565F89")
)

// Styles are the pre-configured lipgloss styles used by the CLI
var Styles = struct {
	Title   lipgloss.Style
	Section lipgloss.Style
	OK      lipgloss.Style
	Warn    lipgloss.Style
	Bad     lipgloss.Style
	Muted   lipgloss.Style
	Box     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
	Section: lipgloss.NewStyle().Bold(true).Underline(true),
	OK:      lipgloss.NewStyle().Foreground(colorOK),
	Warn:    lipgloss.NewStyle().Foreground(colorWarn),
	Bad:     lipgloss.NewStyle().Foreground(colorBad),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMuted).
		Padding(0, 1),
}

// Glyphs for per-item states
const (
	GlyphOK   = "✓"
	GlyphWarn = "⚠"
	GlyphBad  = "✗"
	GlyphDot  = "•"
)

// OK renders a success line
func OK(format string, args ...any) string {
	return Styles.OK.Render(GlyphOK+" ") + fmt.Sprintf(format, args...)
}

// Warn renders a warning line
func Warn(format string, args ...any) string {
	return Styles.Warn.Render(GlyphWarn+" ") + fmt.Sprintf(format, args...)
}

// Bad renders a failure line
func Bad(format string, args ...any) string {
	return Styles.Bad.Render(GlyphBad+" ") + fmt.Sprintf(format, args...)
}

// Redact shortens a secret for display, keeping just enough to compare
// by eye
func Redact(value string) string {
	if len(value) <= 4 {
		return "****"
	}
	return value[:2] + "…" + value[len(value)-2:]
}
