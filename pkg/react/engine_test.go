package react

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionloop/agentcore/internal/config"
	"github.com/actionloop/agentcore/pkg/llm"
	"github.com/actionloop/agentcore/pkg/session"
	"github.com/actionloop/agentcore/pkg/stream"
	"github.com/actionloop/agentcore/pkg/task"
	"github.com/actionloop/agentcore/pkg/toolkit"
	"github.com/actionloop/agentcore/pkg/toolkit/browser"
	"github.com/actionloop/agentcore/pkg/toolkit/localinvoke"
)

// scriptedAdapter returns one canned Response per call, in order, ignoring
// the request it's given; it implements llm.Adapter for engine tests that
// don't need a real upstream.
type scriptedAdapter struct {
	responses []llm.Response
	calls     int
}

func (s *scriptedAdapter) Chat(_ context.Context, _ llm.Request, _ stream.Sink) (llm.Response, error) {
	if s.calls >= len(s.responses) {
		return llm.Response{}, nil
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

func (s *scriptedAdapter) ModelName() string { return "scripted" }
func (s *scriptedAdapter) Close() error      { return nil }

func addTool() *toolkit.ToolDefinition {
	add := func(a, b int) int { return a + b }
	return &toolkit.ToolDefinition{
		Name: "add",
		Kind: toolkit.Local,
		Detail: toolkit.ToolDetail{
			Name:        "add",
			Description: "adds two integers",
			Parameters: []toolkit.ParamSpec{
				{Name: "a", Type: "int", Required: true},
				{Name: "b", Type: "int", Required: true},
			},
		},
		Bindings: []toolkit.ParamBinding{
			{Name: "a", DeclaredType: "int", Position: 0, Required: true, Source: toolkit.SourceOther},
			{Name: "b", DeclaredType: "int", Position: 1, Required: true, Source: toolkit.SourceOther},
		},
		LocalTarget: &toolkit.LocalTarget{Func: add},
	}
}

func newTestEngine(adapter llm.Adapter, cfg config.ReactConfig) (*Engine, *toolkit.Registry) {
	registry := toolkit.NewRegistry()
	registry.Register(addTool())

	eng := New(
		registry,
		session.NewStore(),
		task.NewManager(),
		adapter,
		localinvoke.New(),
		nil,
		browser.NewManager(0, nil),
		cfg,
	)
	return eng, registry
}

func TestRunArithmeticViaTool(t *testing.T) {
	adapter := &scriptedAdapter{responses: []llm.Response{
		{
			Message: llm.Message{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call1", Type: "function", Function: llm.ToolCallFunc{Name: "add", Arguments: `{"a":2,"b":3}`}},
				},
			},
		},
		{
			Message: llm.Message{Role: llm.RoleAssistant, Content: "The answer is 5"},
		},
	}}

	eng, _ := newTestEngine(adapter, config.ReactConfig{MaxSteps: 10})
	rec := stream.NewRecorder()

	err := eng.Run(context.Background(), TurnRequest{
		SessionID:   "s1",
		Model:       "scripted",
		NewMessages: []llm.Message{{Role: llm.RoleUser, Content: "what is 2+3?"}},
	}, rec)
	require.NoError(t, err)

	segs := rec.Segments()
	var sawAction, sawObservation, sawAnswer bool
	for _, s := range segs {
		switch s.Type {
		case stream.Action:
			assert.Contains(t, s.Chunk, "add(")
			sawAction = true
		case stream.Observation:
			assert.Contains(t, s.Chunk, "5")
			sawObservation = true
		case stream.Answer:
			assert.Contains(t, s.Chunk, "5")
			sawAnswer = true
		}
	}
	assert.True(t, sawAction)
	assert.True(t, sawObservation)
	assert.True(t, sawAnswer)

	sess, err := newSessionLookup(eng).Get("s1")
	require.NoError(t, err)
	history := sess.Snapshot()
	require.True(t, len(history) >= 4)
}

func TestRunStepBudgetExceeded(t *testing.T) {
	alwaysToolCall := llm.Response{
		Message: llm.Message{
			Role: llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{
				{ID: "call1", Type: "function", Function: llm.ToolCallFunc{Name: "add", Arguments: `{"a":1,"b":1}`}},
			},
		},
	}
	adapter := &scriptedAdapter{responses: []llm.Response{alwaysToolCall, alwaysToolCall, alwaysToolCall}}

	eng, _ := newTestEngine(adapter, config.ReactConfig{MaxSteps: 2})
	rec := stream.NewRecorder()

	err := eng.Run(context.Background(), TurnRequest{
		SessionID:   "s1",
		NewMessages: []llm.Message{{Role: llm.RoleUser, Content: "keep going"}},
	}, rec)
	assert.ErrorIs(t, err, ErrBudgetExceeded)
	assert.Equal(t, 2, adapter.calls)

	var sawBudgetError bool
	for _, s := range rec.Segments() {
		if s.Type == stream.Error && s.Chunk == "max_steps_exceeded" {
			sawBudgetError = true
		}
	}
	assert.True(t, sawBudgetError)
}

func TestRunToolNotFoundIsObservationNotFatal(t *testing.T) {
	adapter := &scriptedAdapter{responses: []llm.Response{
		{
			Message: llm.Message{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call1", Type: "function", Function: llm.ToolCallFunc{Name: "does_not_exist", Arguments: `{}`}},
				},
			},
		},
		{Message: llm.Message{Role: llm.RoleAssistant, Content: "done"}},
	}}

	eng, _ := newTestEngine(adapter, config.ReactConfig{MaxSteps: 10})
	rec := stream.NewRecorder()

	err := eng.Run(context.Background(), TurnRequest{
		SessionID:   "s1",
		NewMessages: []llm.Message{{Role: llm.RoleUser, Content: "call a missing tool"}},
	}, rec)
	require.NoError(t, err)

	var sawNotFound bool
	for _, s := range rec.Segments() {
		if s.Type == stream.Observation && s.Chunk == "❌ Tool not found: does_not_exist" {
			sawNotFound = true
		}
	}
	assert.True(t, sawNotFound)
}

func TestRunBrowserToolTimeoutEmitsObservation(t *testing.T) {
	adapter := &scriptedAdapter{responses: []llm.Response{
		{
			Message: llm.Message{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call1", Type: "function", Function: llm.ToolCallFunc{Name: "take_screenshot", Arguments: `{}`}},
				},
			},
		},
		{Message: llm.Message{Role: llm.RoleAssistant, Content: "done"}},
	}}

	registry := toolkit.NewRegistry()
	eng := New(
		registry,
		session.NewStore(),
		task.NewManager(),
		adapter,
		localinvoke.New(),
		nil,
		browser.NewManager(5*time.Millisecond, nil),
		config.ReactConfig{MaxSteps: 10},
	)
	rec := stream.NewRecorder()

	err := eng.Run(context.Background(), TurnRequest{
		SessionID: "s1",
		NewMessages: []llm.Message{{Role: llm.RoleUser, Content: "take a screenshot"}},
		FrontendTools: []llm.ToolSpec{
			{Type: "function", Function: llm.ToolSpecFunction{Name: "take_screenshot"}},
		},
	}, rec)
	require.NoError(t, err)

	var observations []string
	for _, s := range rec.Segments() {
		if s.Type == stream.Observation {
			observations = append(observations, s.Chunk)
		}
	}
	require.Len(t, observations, 1)
	assert.Contains(t, observations[0], "timeout")
}

func TestRunSessionBusyRejectsConcurrentTurn(t *testing.T) {
	adapter := &scriptedAdapter{}
	eng, _ := newTestEngine(adapter, config.ReactConfig{MaxSteps: 10})

	sess := eng.Sessions.GetOrCreate("s1")
	require.NoError(t, sess.Acquire())
	defer sess.Release()

	err := eng.Run(context.Background(), TurnRequest{SessionID: "s1"}, stream.Discard)
	assert.ErrorIs(t, err, ErrSessionBusy)
}

// newSessionLookup is a tiny accessor so tests can read back persisted
// history through the same Store the Engine uses, without exporting test
// hooks on Engine itself.
func newSessionLookup(eng *Engine) *session.Store { return eng.Sessions }
