// Package ux provides terminal output styling for the stackctl CLI:
// a small lipgloss palette, status glyphs, and secret redaction for
// on-screen display.
package ux
