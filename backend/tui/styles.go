// Package tui is the terminal client for the directory and the admin panel.
// Both models drive the same screen state machines the websocket sessions
// use, against a store reached over HTTP.
package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles shared by both models.
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Notice   lipgloss.Style
	Error    lipgloss.Style
	Label    lipgloss.Style
	Help     lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).MarginBottom(1),
		Header:   lipgloss.NewStyle().Bold(true).Underline(true),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Notice:   lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")),
		Label:    lipgloss.NewStyle().Width(16),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1),
	}
}

func truncate(s string, l int) string {
	r := []rune(s)
	if len(r) > l {
		return string(r[:l-3]) + "..."
	}
	return s
}
