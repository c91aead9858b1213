package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// statusStyles colours status lines when w is a terminal. Anything else,
// including test buffers, gets plain text.
type statusStyles struct {
	success lipgloss.Style
	warning lipgloss.Style
}

func newStatusStyles(w io.Writer) statusStyles {
	r := lipgloss.NewRenderer(w)
	return statusStyles{
		success: r.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		warning: r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
	}
}
