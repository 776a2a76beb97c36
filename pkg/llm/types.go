// Package llm provides the uniform adapter contract the ReAct engine uses to
// talk to OpenAI-compatible chat-completions providers, including streaming
// decode of content and reasoning channels.
package llm

import (
	"context"

	"github.com/actionloop/agentcore/pkg/stream"
)

// Role is a chat message role, wire-compatible with the OpenAI schema.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model-issued request to invoke a named function with JSON
// string arguments.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function ToolCallFunc `json:"function"`
}

// ToolCallFunc carries the function name and raw JSON arguments string.
type ToolCallFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one chat-history entry.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolSpec is what the model sees for one registered tool.
type ToolSpec struct {
	Type     string           `json:"type"`
	Function ToolSpecFunction `json:"function"`
}

// ToolSpecFunction carries the name, description and JSON-Schema parameters
// surfaced to the model for one tool.
type ToolSpecFunction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

// ToolChoice selects how strongly the model is nudged toward calling a tool.
// The zero value means "let the model decide" (wire value "auto").
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = "auto"
	ToolChoiceNone ToolChoice = "none"
)

// Request is the uniform request C9 sends to an Adapter.
type Request struct {
	Model       string
	Messages    []Message
	Tools       []ToolSpec
	ToolChoice  ToolChoice
	Temperature float64
	MaxTokens   int
	Stream      bool
	// DisableThinking requests providers that support it (via the
	// `thinking:{type:"disabled"}` payload extension) to suppress an
	// internal reasoning phase.
	DisableThinking bool
}

// Usage reports token accounting for one exchange, whether reported by the
// provider or estimated locally when a stream omits it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Estimated        bool
}

// Response is the synthesized result of one chat call, whether the
// underlying transport streamed or not.
type Response struct {
	ID           string
	Created      int64
	Model        string
	Message      Message
	FinishReason string
	Usage        Usage
}

// Adapter is the contract every provider-specific implementation satisfies.
// When sink is non-nil and req.Stream is true, CONTENT and REASONING
// segments are emitted incrementally through it as the response arrives;
// Chat always returns the fully synthesized Response regardless of whether
// streaming occurred.
type Adapter interface {
	Chat(ctx context.Context, req Request, sink stream.Sink) (Response, error)
	ModelName() string
	Close() error
}
