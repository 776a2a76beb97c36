// Package builtin implements the fixed set of tools the engine itself
// publishes (C10): most importantly tool_detail, which lets the model
// request a tool's full schema on demand instead of paying the token cost
// of inlining every tool's examples up front. A couple of optional
// diagnostic tools are registered alongside it as ordinary LOCAL tools.
package builtin

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"time"

	"github.com/actionloop/agentcore/pkg/toolkit"
)

// toolDetailArgs is the single argument tool_detail accepts.
type toolDetailArgs struct {
	ToolName string `json:"tool_name" jsonschema:"description=the tool's registered name,example=add"`
}

// Register adds the built-in tools to registry. startedAt is used by the
// summary diagnostic tool to report uptime.
func Register(registry *toolkit.Registry, startedAt time.Time) {
	registry.Register(toolDetailDefinition(registry))
	registry.Register(threadDumpDefinition())
	registry.Register(summaryDefinition(registry, startedAt))
}

// toolDetailDefinition builds the tool_detail tool: given a tool_name, it
// returns that tool's full ToolDetail (schema + examples) from the
// registry, or an error if the name isn't registered.
func toolDetailDefinition(registry *toolkit.Registry) *toolkit.ToolDefinition {
	lookup := func(_ context.Context, args toolDetailArgs) (toolkit.ToolDetail, error) {
		detail, ok := registry.GetDetail(args.ToolName)
		if !ok {
			return toolkit.ToolDetail{}, fmt.Errorf("no tool registered under name %q", args.ToolName)
		}
		return detail, nil
	}

	argType := reflect.TypeOf(toolDetailArgs{})
	return &toolkit.ToolDefinition{
		Name: "tool_detail",
		Kind: toolkit.Local,
		Detail: toolkit.ToolDetail{
			Name:        "tool_detail",
			Description: "Fetches the full schema, parameter list, and example payloads for a registered tool by name.",
			Parameters:  toolkit.ParamSpecsFor(argType),
			ReturnType:  "toolkit.ToolDetail",
		},
		// The binding name deliberately doesn't match any JSON key the model
		// sends ("tool_name" is a field of toolDetailArgs, not a top-level
		// parameter name) so the local invoker's envelope-unwrap path binds
		// the whole {"tool_name": "..."} object to this one struct parameter.
		Bindings: []toolkit.ParamBinding{
			{Name: "request", DeclaredType: "builtin.toolDetailArgs", Position: 0, Required: true, Source: toolkit.SourceOther},
		},
		LocalTarget: &toolkit.LocalTarget{Func: lookup},
	}
}

// threadDumpDefinition returns a diagnostic tool that dumps all running
// goroutines' stacks, useful for a model asked to help debug a stuck
// request against this engine itself. It takes no arguments.
func threadDumpDefinition() *toolkit.ToolDefinition {
	dump := func(_ context.Context) (string, error) {
		buf := make([]byte, 1<<20)
		n := runtime.Stack(buf, true)
		return string(buf[:n]), nil
	}

	return &toolkit.ToolDefinition{
		Name: "thread_dump",
		Kind: toolkit.Local,
		Detail: toolkit.ToolDetail{
			Name:        "thread_dump",
			Description: "Dumps the stack of every running goroutine, for diagnosing a stuck or slow turn.",
			Parameters:  []toolkit.ParamSpec{},
			ReturnType:  "string",
		},
		LocalTarget: &toolkit.LocalTarget{Func: dump},
	}
}

// summaryResult is what engine_summary returns.
type summaryResult struct {
	RegisteredTools int    `json:"registeredTools"`
	UptimeSeconds   int64  `json:"uptimeSeconds"`
	GoVersion       string `json:"goVersion"`
}

// summaryDefinition returns a diagnostic tool reporting basic facts about
// the running engine: how many tools are registered and how long it's
// been up. It takes no arguments.
func summaryDefinition(registry *toolkit.Registry, startedAt time.Time) *toolkit.ToolDefinition {
	summarize := func(_ context.Context) (summaryResult, error) {
		return summaryResult{
			RegisteredTools: registry.Count(),
			UptimeSeconds:   int64(time.Since(startedAt).Seconds()),
			GoVersion:       runtime.Version(),
		}, nil
	}

	return &toolkit.ToolDefinition{
		Name: "engine_summary",
		Kind: toolkit.Local,
		Detail: toolkit.ToolDetail{
			Name:        "engine_summary",
			Description: "Reports how many tools are registered and how long this engine process has been running.",
			Parameters:  []toolkit.ParamSpec{},
			ReturnType:  "builtin.summaryResult",
		},
		LocalTarget: &toolkit.LocalTarget{Func: summarize},
	}
}
