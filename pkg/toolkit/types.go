// Package toolkit implements the tool registry (C3) and reflective example
// generator (C4): it stores ToolDefinitions keyed by name and serves both a
// cheap ToolSummary view (for the model's tool list) and a full ToolDetail
// view (schema + examples, fetched on demand via the tool_detail built-in).
package toolkit

import (
	"context"

	"github.com/actionloop/agentcore/pkg/stream"
)

// Kind is the closed set of tool invocation backends. This sum type is
// closed by design: adding a fourth kind (e.g. an MCP-backed one) would
// require a corresponding invoker and is deliberately out of scope.
type Kind string

const (
	Local   Kind = "LOCAL"
	HTTP    Kind = "HTTP"
	Browser Kind = "BROWSER"
)

// Source identifies where a parameter's value comes from when a tool is
// invoked over HTTP.
type Source string

const (
	SourceBody  Source = "BODY"
	SourcePath  Source = "PATH"
	SourceQuery Source = "QUERY"
	SourceOther Source = "OTHER"
)

// ParamBinding describes one parameter of a tool's target callable/route.
type ParamBinding struct {
	Name         string
	DeclaredType string
	Position     int
	Required     bool
	Source       Source
}

// ParamSpec is the detailed, model-facing description of one parameter.
type ParamSpec struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
	Example     any    `json:"example,omitempty"`
}

// ToolSummary is the cheap view shown to the model in the tool list.
type ToolSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ToolDetail is the full view, fetched on demand via tool_detail.
type ToolDetail struct {
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Parameters      []ParamSpec `json:"parameters"`
	ReturnType      string      `json:"returnType,omitempty"`
	ReturnExample   any         `json:"returnExample,omitempty"`
	RequestExample  any         `json:"requestExample,omitempty"`
	ResponseExample any         `json:"responseExample,omitempty"`
}

// HTTPRoute is the targetRef for an HTTP-kind tool.
type HTTPRoute struct {
	Method       string
	PathTemplate string
	Consumes     string
	Produces     string
}

// LocalTarget is the targetRef for a LOCAL-kind tool: a callable bound via
// reflection by the local invoker.
type LocalTarget struct {
	Func any
}

// Invoker is the contract C5/C6/C7 each implement for their Kind. sink
// receives the ACTION segment a browser-kind invocation emits before
// suspending; LOCAL/HTTP invokers ignore it.
type Invoker interface {
	Invoke(ctx context.Context, def *ToolDefinition, argumentsJSON string, rc *RequestContext, sink stream.Sink) (string, error)
}

// RequestContext carries the ambient data an HTTP-kind invocation needs:
// the inbound cookies/headers and base URL the engine itself was invoked
// with.
type RequestContext struct {
	BaseURL string
	Cookies []*CookiePair
	Headers map[string][]string
}

// CookiePair is a minimal name/value pair, avoiding a net/http.Cookie
// dependency at this layer.
type CookiePair struct {
	Name  string
	Value string
}

// ToolDefinition is what the registry stores for one tool.
type ToolDefinition struct {
	Name     string
	Kind     Kind
	Detail   ToolDetail
	Bindings []ParamBinding

	// Exactly one of these is populated, selected by Kind.
	LocalTarget *LocalTarget
	HTTPRoute   *HTTPRoute
	// BrowserTools have no targetRef: resolution happens through C7 at
	// call time.
}

// Summary projects a ToolDefinition down to its ToolSummary view.
func (d *ToolDefinition) Summary() ToolSummary {
	return ToolSummary{Name: d.Name, Description: d.Detail.Description}
}
