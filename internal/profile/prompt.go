package profile

import (
	"fmt"
	"strings"

	"termagent/internal/demux"
	"termagent/internal/tools"
)

const basePrompt = `You are %s. %s

Structure every reply in exactly two sections, in this order:
%s
your private reasoning, plans and notes about tool results
%s
%s
the answer for the user
%s
Never write text outside these sections. Keep the final section self-contained.`

// SystemPrompt builds the system turn for p. It mandates the marker format
// and lists the tools the model may call.
func SystemPrompt(p Profile, available []tools.Tool) string {
	p = p.normalize()

	var b strings.Builder
	fmt.Fprintf(&b, basePrompt,
		p.Name, p.Description,
		demux.InternalStart, demux.InternalEnd,
		demux.FinalStart, demux.FinalEnd,
	)

	if len(available) > 0 {
		b.WriteString("\n\nTools you can call:\n")
		for _, tool := range available {
			fmt.Fprintf(&b, "- %s: %s\n", tool.Name(), firstLine(tool.Description()))
		}
		b.WriteString("Use tools only when they help; you get at most a few rounds of tool calls before you must answer.")
	}

	if p.Instructions != "" {
		b.WriteString("\n\n")
		b.WriteString(p.Instructions)
	}
	return b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
