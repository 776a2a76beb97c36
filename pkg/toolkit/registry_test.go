package toolkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(&ToolDefinition{
		Name: "search",
		Kind: Local,
		Detail: ToolDetail{
			Name:        "search",
			Description: "Searches things.",
			Parameters:  []ParamSpec{{Name: "query", Type: "string", Required: true}},
		},
	})

	summaries := r.ListSummaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, "search", summaries[0].Name)
	assert.Equal(t, "Searches things.", summaries[0].Description)

	detail, ok := r.GetDetail("search")
	require.True(t, ok)
	assert.Equal(t, "query", detail.Parameters[0].Name)

	def, ok := r.GetDefinition("search")
	require.True(t, ok)
	assert.Equal(t, Local, def.Kind)

	_, ok = r.GetDetail("missing")
	assert.False(t, ok)
}

func TestRegistryRegisterIsIdempotentByName(t *testing.T) {
	r := NewRegistry()
	r.Register(&ToolDefinition{Name: "t", Detail: ToolDetail{Description: "v1"}})
	r.Register(&ToolDefinition{Name: "t", Detail: ToolDetail{Description: "v2"}})

	assert.Equal(t, 1, r.Count())
	detail, _ := r.GetDetail("t")
	assert.Equal(t, "v2", detail.Description)
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	r.Register(&ToolDefinition{Name: "t", Detail: ToolDetail{Description: "v1"}})
	r.Remove("t")
	assert.Equal(t, 0, r.Count())

	assert.NotPanics(t, func() { r.Remove("does-not-exist") })
}
