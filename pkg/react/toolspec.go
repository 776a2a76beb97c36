package react

import (
	"strings"

	"github.com/actionloop/agentcore/pkg/llm"
	"github.com/actionloop/agentcore/pkg/toolkit"
)

// assembleToolSpecs builds the per-turn tool list the model sees: every
// registered tool (built-ins included, since they live in the same
// registry) rendered with a basic JSON schema (required fields only, no
// examples, to keep the tools payload small), followed by the frontend
// tools carried verbatim on the request.
func assembleToolSpecs(registry *toolkit.Registry, frontendTools []llm.ToolSpec) []llm.ToolSpec {
	summaries := registry.ListSummaries()
	specs := make([]llm.ToolSpec, 0, len(summaries)+len(frontendTools))

	for _, s := range summaries {
		detail, _ := registry.GetDetail(s.Name)
		specs = append(specs, llm.ToolSpec{
			Type: "function",
			Function: llm.ToolSpecFunction{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  basicSchema(detail.Parameters),
			},
		})
	}

	specs = append(specs, frontendTools...)
	return specs
}

// basicSchema renders a tool's parameters as a minimal JSON Schema object:
// only the required parameters, each with just its type, omitting optional
// parameters, descriptions and examples (those live in ToolDetail, fetched
// on demand via tool_detail).
func basicSchema(params []toolkit.ParamSpec) map[string]any {
	properties := make(map[string]any, len(params))
	required := make([]string, 0, len(params))

	for _, p := range params {
		if !p.Required {
			continue
		}
		properties[p.Name] = map[string]any{"type": jsonSchemaType(p.Type)}
		required = append(required, p.Name)
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// jsonSchemaType maps a Go type string (as reflect.Type.String() renders
// it) to the closest JSON Schema primitive.
func jsonSchemaType(goType string) string {
	t := strings.TrimPrefix(goType, "*")
	switch {
	case strings.HasPrefix(t, "int"), strings.HasPrefix(t, "uint"):
		return "integer"
	case strings.HasPrefix(t, "float"):
		return "number"
	case t == "bool":
		return "boolean"
	case strings.HasPrefix(t, "[]"):
		return "array"
	case strings.HasPrefix(t, "map["):
		return "object"
	case t == "string":
		return "string"
	default:
		return "object"
	}
}

// frontendToolNames indexes the per-request frontend tool specs by name
// for O(1) "is this call a frontend tool" lookups during dispatch.
func frontendToolNames(tools []llm.ToolSpec) map[string]struct{} {
	names := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		names[t.Function.Name] = struct{}{}
	}
	return names
}
