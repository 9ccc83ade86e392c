package tui

import "github.com/charmbracelet/lipgloss"

var colors = struct {
	Work      lipgloss.Color
	Break     lipgloss.Color
	LongBreak lipgloss.Color
	Muted     lipgloss.Color
	Done      lipgloss.Color
	Status    lipgloss.Color
}{
	Work:      lipgloss.Color("#D63031"),
	Break:     lipgloss.Color("#00B894"),
	LongBreak: lipgloss.Color("#74B9FF"),
	Muted:     lipgloss.Color("#636E72"),
	Done:      lipgloss.Color("#00B894"),
	Status:    lipgloss.Color("#FDCB6E"),
}

type styles struct {
	Phase   lipgloss.Style
	Clock   lipgloss.Style
	Muted   lipgloss.Style
	Done    lipgloss.Style
	Status  lipgloss.Style
	Help    lipgloss.Style
	Section lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Phase:   lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Clock:   lipgloss.NewStyle().Bold(true).MarginLeft(1),
		Muted:   lipgloss.NewStyle().Foreground(colors.Muted),
		Done:    lipgloss.NewStyle().Foreground(colors.Done).Strikethrough(true),
		Status:  lipgloss.NewStyle().Foreground(colors.Status).Italic(true),
		Help:    lipgloss.NewStyle().Foreground(colors.Muted).MarginTop(1),
		Section: lipgloss.NewStyle().Bold(true).MarginTop(1),
	}
}
