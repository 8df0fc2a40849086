package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme contains style tokens used by the line REPL.
type Theme struct {
	Name          string
	BannerStyle   lipgloss.Style
	MutedStyle    lipgloss.Style
	PromptStyle   lipgloss.Style
	InternalStyle lipgloss.Style
	NoticeStyle   lipgloss.Style
	ErrorStyle    lipgloss.Style
	ToolNameStyle lipgloss.Style
}

// ResolveTheme returns the configured theme or the dark default. Styles are
// bound to r so color support follows the writer they render for.
func ResolveTheme(name string, r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "light":
		return newLightTheme(r)
	case "plain", "none":
		return newPlainTheme(r)
	default:
		return newDarkTheme(r)
	}
}

func newDarkTheme(r *lipgloss.Renderer) Theme {
	muted := lipgloss.Color("245")
	return Theme{
		Name:          "dark",
		BannerStyle:   r.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		MutedStyle:    r.NewStyle().Foreground(muted),
		PromptStyle:   r.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		InternalStyle: r.NewStyle().Foreground(muted).Italic(true),
		NoticeStyle:   r.NewStyle().Foreground(lipgloss.Color("111")),
		ErrorStyle:    r.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		ToolNameStyle: r.NewStyle().Foreground(lipgloss.Color("111")).Bold(true),
	}
}

func newLightTheme(r *lipgloss.Renderer) Theme {
	muted := lipgloss.Color("240")
	return Theme{
		Name:          "light",
		BannerStyle:   r.NewStyle().Foreground(lipgloss.Color("94")).Bold(true),
		MutedStyle:    r.NewStyle().Foreground(muted),
		PromptStyle:   r.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
		InternalStyle: r.NewStyle().Foreground(muted).Italic(true),
		NoticeStyle:   r.NewStyle().Foreground(lipgloss.Color("31")),
		ErrorStyle:    r.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
		ToolNameStyle: r.NewStyle().Foreground(lipgloss.Color("31")).Bold(true),
	}
}

func newPlainTheme(r *lipgloss.Renderer) Theme {
	plain := r.NewStyle()
	return Theme{
		Name:          "plain",
		BannerStyle:   plain,
		MutedStyle:    plain,
		PromptStyle:   plain,
		InternalStyle: plain,
		NoticeStyle:   plain,
		ErrorStyle:    plain,
		ToolNameStyle: plain,
	}
}
