// Package tui renders the interactive line REPL: banner, prompt, notices and
// the styled internal channel.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Renderer formats REPL output for one writer.
type Renderer struct {
	theme Theme
}

// NewRenderer resolves themeName for output w.
func NewRenderer(w io.Writer, themeName string) *Renderer {
	return &Renderer{theme: ResolveTheme(themeName, lipgloss.NewRenderer(w))}
}

// Theme returns the active theme.
func (r *Renderer) Theme() Theme { return r.theme }

// Prompt is the input prompt string.
func (r *Renderer) Prompt() string {
	return r.theme.PromptStyle.Render("you›") + " "
}

// Banner introduces the agent at the start of an interactive session.
func (r *Renderer) Banner(name, description, hint string) string {
	var b strings.Builder
	b.WriteString(r.theme.BannerStyle.Render(name))
	if description = strings.TrimSpace(description); description != "" {
		b.WriteString(" " + r.theme.MutedStyle.Render("- "+description))
	}
	b.WriteString("\n")
	if hint != "" {
		b.WriteString(r.theme.MutedStyle.Render(hint) + "\n")
	}
	return b.String()
}

// Notice formats a one-line status message.
func (r *Renderer) Notice(format string, args ...any) string {
	return r.theme.NoticeStyle.Render(fmt.Sprintf(format, args...)) + "\n"
}

// Error formats a one-line failure message.
func (r *Renderer) Error(format string, args ...any) string {
	return r.theme.ErrorStyle.Render(fmt.Sprintf(format, args...)) + "\n"
}

// ToolList formats name/description pairs.
func (r *Renderer) ToolList(names, descriptions []string) string {
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}
	var b strings.Builder
	for i, name := range names {
		desc := ""
		if i < len(descriptions) {
			desc = descriptions[i]
		}
		pad := strings.Repeat(" ", width-len(name))
		fmt.Fprintf(&b, "  %s%s  %s\n", r.theme.ToolNameStyle.Render(name), pad, desc)
	}
	return b.String()
}

// InternalWriter styles everything written through it with the internal
// channel style.
func (r *Renderer) InternalWriter(w io.Writer) io.Writer {
	return &styledWriter{w: w, style: r.theme.InternalStyle}
}

// styledWriter renders each line segment on its own; lipgloss pads
// multi-line blocks to a common width, which would corrupt streamed text.
type styledWriter struct {
	w     io.Writer
	style lipgloss.Style
}

func (s *styledWriter) Write(p []byte) (int, error) {
	var b strings.Builder
	segments := strings.Split(string(p), "\n")
	for i, seg := range segments {
		if seg != "" {
			b.WriteString(s.style.Render(seg))
		}
		if i < len(segments)-1 {
			b.WriteString("\n")
		}
	}
	if _, err := io.WriteString(s.w, b.String()); err != nil {
		return 0, err
	}
	return len(p), nil
}
