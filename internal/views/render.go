package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	listWidth = 58
	sideWidth = 48
)

// Screen is everything the reminder screen shows, top to bottom.
type Screen struct {
	Title         string
	List          string
	Side          string
	Prompt        string
	Input         string
	Status        string
	StatusIsError bool
	Keys          string
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	listStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(listWidth)
	sideStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(sideWidth)
	promptStyle = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("11")).Padding(0, 1)
	keysStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderScreen lays out the list beside the optional side panel, then the
// permission prompt, the input line, the status and the key hints.
func RenderScreen(s Screen) string {
	body := listStyle.Render(s.List)
	if strings.TrimSpace(s.Side) != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, sideStyle.Render(s.Side))
	}

	parts := []string{titleStyle.Render(s.Title), body}
	if s.Prompt != "" {
		parts = append(parts, promptStyle.Render(s.Prompt))
	}
	if s.Input != "" {
		parts = append(parts, s.Input)
	}
	if s.Status != "" {
		style := okStyle
		if s.StatusIsError {
			style = errorStyle
		}
		parts = append(parts, style.Render(s.Status))
	}
	if s.Keys != "" {
		parts = append(parts, keysStyle.Render(s.Keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// RenderMarkdown renders md for the side panel, falling back to the raw text.
func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(sideWidth-4),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
