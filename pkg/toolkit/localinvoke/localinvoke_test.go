package localinvoke

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionloop/agentcore/pkg/toolkit"
)

type addArgs struct {
	A int `json:"a"`
	B int `json:"b"`
}

func add(args addArgs) (int, error) {
	return args.A + args.B, nil
}

func TestInvokeEnvelopeUnwrap(t *testing.T) {
	def := &toolkit.ToolDefinition{
		Name:        "add",
		Kind:        toolkit.Local,
		LocalTarget: &toolkit.LocalTarget{Func: add},
		Bindings:    []toolkit.ParamBinding{{Name: "args", Position: 0, Required: true}},
	}

	out, err := New().Invoke(context.Background(), def, `{"a":2,"b":3}`, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "5", out)
}

func greet(name string, loud bool) (string, error) {
	if loud {
		return "HELLO " + name, nil
	}
	return "hello " + name, nil
}

func TestInvokeMultiParamBinding(t *testing.T) {
	def := &toolkit.ToolDefinition{
		Name:        "greet",
		Kind:        toolkit.Local,
		LocalTarget: &toolkit.LocalTarget{Func: greet},
		Bindings: []toolkit.ParamBinding{
			{Name: "name", Position: 0, Required: true},
			{Name: "loud", Position: 1, Required: false},
		},
	}

	out, err := New().Invoke(context.Background(), def, `{"name":"Ada","loud":true}`, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "HELLO Ada", out)
}

func TestInvokeMissingRequiredArgument(t *testing.T) {
	def := &toolkit.ToolDefinition{
		Name:        "greet",
		Kind:        toolkit.Local,
		LocalTarget: &toolkit.LocalTarget{Func: greet},
		Bindings: []toolkit.ParamBinding{
			{Name: "name", Position: 0, Required: true},
			{Name: "loud", Position: 1, Required: false},
		},
	}

	_, err := New().Invoke(context.Background(), def, `{"loud":true}`, nil, nil)
	require.Error(t, err)
	var invalidArgs *toolkit.InvalidArgumentsError
	require.ErrorAs(t, err, &invalidArgs)
	assert.Equal(t, "name", invalidArgs.Field)
}

func failing() (string, error) {
	return "", errors.New("boom")
}

func TestInvokeSurfacesExecutionError(t *testing.T) {
	def := &toolkit.ToolDefinition{
		Name:        "failing",
		Kind:        toolkit.Local,
		LocalTarget: &toolkit.LocalTarget{Func: failing},
	}

	_, err := New().Invoke(context.Background(), def, `{}`, nil, nil)
	require.Error(t, err)
	var execErr *toolkit.ToolExecutionError
	require.ErrorAs(t, err, &execErr)
}

func withCtx(ctx context.Context, name string) (string, error) {
	if ctx == nil {
		return "", errors.New("missing context")
	}
	return "ctx-ok:" + name, nil
}

func TestInvokePassesContextAsLeadingParam(t *testing.T) {
	def := &toolkit.ToolDefinition{
		Name:        "withCtx",
		Kind:        toolkit.Local,
		LocalTarget: &toolkit.LocalTarget{Func: withCtx},
		Bindings:    []toolkit.ParamBinding{{Name: "name", Position: 0, Required: true}},
	}

	out, err := New().Invoke(context.Background(), def, `{"name":"x"}`, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ctx-ok:x", out)
}
