package builtin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionloop/agentcore/pkg/toolkit"
	"github.com/actionloop/agentcore/pkg/toolkit/localinvoke"
)

func TestToolDetailReturnsFullDetailForKnownTool(t *testing.T) {
	registry := toolkit.NewRegistry()
	registry.Register(&toolkit.ToolDefinition{
		Name: "add",
		Kind: toolkit.Local,
		Detail: toolkit.ToolDetail{
			Name:        "add",
			Description: "adds two integers",
		},
	})
	Register(registry, time.Now())

	def, ok := registry.GetDefinition("tool_detail")
	require.True(t, ok)

	inv := localinvoke.New()
	out, err := inv.Invoke(context.Background(), def, `{"tool_name":"add"}`, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "adds two integers")
}

func TestToolDetailErrorsForUnknownTool(t *testing.T) {
	registry := toolkit.NewRegistry()
	Register(registry, time.Now())

	def, ok := registry.GetDefinition("tool_detail")
	require.True(t, ok)

	inv := localinvoke.New()
	_, err := inv.Invoke(context.Background(), def, `{"tool_name":"ghost"}`, nil, nil)
	assert.Error(t, err)
}

func TestThreadDumpReturnsNonEmptyStack(t *testing.T) {
	registry := toolkit.NewRegistry()
	Register(registry, time.Now())

	def, ok := registry.GetDefinition("thread_dump")
	require.True(t, ok)

	inv := localinvoke.New()
	out, err := inv.Invoke(context.Background(), def, `{}`, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "goroutine")
}

func TestEngineSummaryReportsRegisteredToolCount(t *testing.T) {
	registry := toolkit.NewRegistry()
	Register(registry, time.Now())

	def, ok := registry.GetDefinition("engine_summary")
	require.True(t, ok)

	inv := localinvoke.New()
	out, err := inv.Invoke(context.Background(), def, `{}`, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "registeredTools")
}
