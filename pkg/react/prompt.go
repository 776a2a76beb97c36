package react

import (
	"fmt"
	"strings"

	"github.com/actionloop/agentcore/pkg/toolkit"
)

// PromptSlots composes the system prompt from named, independently
// overridable slots rather than one monolithic string, so an operator can
// replace one aspect of the agent's behavior (its role, how it talks about
// tools, its output style) without rewriting the rest.
type PromptSlots struct {
	SystemRole         string
	ToolUsage          string
	OutputFormat       string
	CommunicationStyle string
	Additional         string
}

// DefaultPromptSlots returns the slot values new engines start from.
func DefaultPromptSlots() PromptSlots {
	return PromptSlots{
		SystemRole: "You are an AI agent that solves tasks by reasoning about " +
			"them and, when it helps, calling tools.",
		ToolUsage: "Call a tool only when it moves you toward the answer. " +
			"Use the exact argument names the tool expects. If a result isn't " +
			"enough, call another tool, fetch the tool's full schema via " +
			"tool_detail, or ask the user for the missing detail.",
		OutputFormat: "Once you have the final answer, respond directly with " +
			"no further tool calls.",
		CommunicationStyle: "Be direct and concise.",
	}
}

// Merge overlays non-empty fields of other onto s, returning the result.
func (s PromptSlots) Merge(other PromptSlots) PromptSlots {
	merged := s
	if other.SystemRole != "" {
		merged.SystemRole = other.SystemRole
	}
	if other.ToolUsage != "" {
		merged.ToolUsage = other.ToolUsage
	}
	if other.OutputFormat != "" {
		merged.OutputFormat = other.OutputFormat
	}
	if other.CommunicationStyle != "" {
		merged.CommunicationStyle = other.CommunicationStyle
	}
	if other.Additional != "" {
		merged.Additional = other.Additional
	}
	return merged
}

// buildSystemPrompt assembles the system prompt for one turn: role,
// guardrails, environment context, and the list of available tools by
// "name: description". Frontend tools are deliberately omitted from this
// textual list: they reach the model only through the structured tools
// field, so their full schema isn't duplicated here. The system prompt is
// rebuilt from these slots fresh every turn; nothing here is persisted
// across turns on its own.
func buildSystemPrompt(slots PromptSlots, registry *toolkit.Registry, environmentContext string, detailed bool) string {
	var b strings.Builder

	writeSection := func(s string) {
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s)
	}

	writeSection(slots.SystemRole)
	writeSection(slots.ToolUsage)
	writeSection(slots.OutputFormat)
	writeSection(slots.CommunicationStyle)
	writeSection(slots.Additional)

	if environmentContext != "" {
		writeSection("Environment context:\n" + environmentContext)
	}

	summaries := registry.ListSummaries()
	if len(summaries) > 0 {
		var tb strings.Builder
		tb.WriteString("Available tools:\n")
		for _, s := range summaries {
			if detailed {
				if detail, ok := registry.GetDetail(s.Name); ok {
					fmt.Fprintf(&tb, "- %s: %s (example: %v)\n", s.Name, s.Description, detail.RequestExample)
					continue
				}
			}
			fmt.Fprintf(&tb, "- %s: %s\n", s.Name, s.Description)
		}
		writeSection(strings.TrimRight(tb.String(), "\n"))
	}

	return b.String()
}
