// Package react implements the ReAct control loop (C9): the orchestrator
// that builds the tool list and system prompt, drives the model/tool
// iteration, emits typed stream segments, enforces the step budget, and
// routes tool calls to the local, HTTP, or browser invoker by kind.
package react

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/actionloop/agentcore/internal/config"
	"github.com/actionloop/agentcore/pkg/llm"
	"github.com/actionloop/agentcore/pkg/session"
	"github.com/actionloop/agentcore/pkg/stream"
	"github.com/actionloop/agentcore/pkg/task"
	"github.com/actionloop/agentcore/pkg/toolkit"
	"github.com/actionloop/agentcore/pkg/toolkit/browser"
)

// Invoker is the subset of toolkit.Invoker the engine dispatches to for a
// given Kind. LOCAL and HTTP tools are looked up in the registry and
// dispatched here. BROWSER tools never appear in the registry: they are
// matched against the request's frontend tool list and dispatched to the
// browser manager directly.
type Invoker = toolkit.Invoker

// TurnRequest is one user turn's input: a chat-request envelope carrying
// the session id, model, the new messages to append (typically the
// latest user message), optional per-request frontend tools, and ambient
// HTTP context for any HTTP-kind tool the turn ends up calling.
type TurnRequest struct {
	SessionID          string
	Model              string
	NewMessages        []llm.Message
	Temperature        *float64
	MaxTokens          *int
	FrontendTools      []llm.ToolSpec
	EnvironmentContext string
	RequestContext     *toolkit.RequestContext
}

// Metrics is the counter/histogram surface the engine reports through;
// nil-safe no-op default if the caller doesn't wire one in.
type Metrics interface {
	TurnStarted()
	ToolInvoked(kind toolkit.Kind)
	BudgetExceeded()
	UpstreamError()
	TurnDuration(d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) TurnStarted()                {}
func (noopMetrics) ToolInvoked(toolkit.Kind)     {}
func (noopMetrics) BudgetExceeded()              {}
func (noopMetrics) UpstreamError()               {}
func (noopMetrics) TurnDuration(time.Duration)   {}

// Tracer starts a span for a turn, an LLM call, or a tool dispatch,
// returning a context carrying the span and a function that ends it.
// Nil-safe no-op default if the caller doesn't wire one in.
type Tracer interface {
	StartTurn(ctx context.Context, sessionID string) (context.Context, func())
	StartLLMCall(ctx context.Context, step int) (context.Context, func())
	StartToolDispatch(ctx context.Context, name string, kind toolkit.Kind) (context.Context, func())
}

type noopTracer struct{}

func (noopTracer) StartTurn(ctx context.Context, _ string) (context.Context, func()) {
	return ctx, func() {}
}
func (noopTracer) StartLLMCall(ctx context.Context, _ int) (context.Context, func()) {
	return ctx, func() {}
}
func (noopTracer) StartToolDispatch(ctx context.Context, _ string, _ toolkit.Kind) (context.Context, func()) {
	return ctx, func() {}
}

// Engine is the ReAct orchestrator: one Engine serves every session,
// routing each turn through the shared registry, session store, task
// manager, and invokers.
type Engine struct {
	Registry *toolkit.Registry
	Sessions *session.Store
	Tasks    *task.Manager
	Adapter  llm.Adapter

	Local   Invoker
	HTTP    Invoker
	Browser Invoker

	Slots  PromptSlots
	Config config.ReactConfig

	Metrics Metrics
	Tracer  Tracer
}

// New builds an Engine from its collaborators. Metrics/Tracer may be nil,
// in which case no-op implementations are used.
func New(registry *toolkit.Registry, sessions *session.Store, tasks *task.Manager, adapter llm.Adapter, local, httpInvoker, browserInvoker Invoker, cfg config.ReactConfig) *Engine {
	return &Engine{
		Registry: registry,
		Sessions: sessions,
		Tasks:    tasks,
		Adapter:  adapter,
		Local:    local,
		HTTP:     httpInvoker,
		Browser:  browserInvoker,
		Slots:    DefaultPromptSlots(),
		Config:   cfg,
		Metrics:  noopMetrics{},
		Tracer:   noopTracer{},
	}
}

func (e *Engine) metrics() Metrics {
	if e.Metrics == nil {
		return noopMetrics{}
	}
	return e.Metrics
}

func (e *Engine) tracer() Tracer {
	if e.Tracer == nil {
		return noopTracer{}
	}
	return e.Tracer
}

// Run drives one user turn to completion: it loads the session, assembles
// the tool list and system prompt, iterates the model/tool loop up to the
// configured step budget, and persists the resulting history back to the
// session before returning.
//
// State machine: READY -> LLM_CALL -> (FINAL | TOOL_DISPATCH
// -> TOOL_WAIT -> LLM_CALL) -> DONE, with terminal states DONE, CANCELLED,
// BUDGET_EXCEEDED, UPSTREAM_FAILED corresponding to the return values below.
func (e *Engine) Run(ctx context.Context, req TurnRequest, sink stream.Sink) error {
	start := time.Now()
	e.metrics().TurnStarted()
	defer func() { e.metrics().TurnDuration(time.Since(start)) }()

	sess := e.Sessions.GetOrCreate(req.SessionID)
	if err := sess.Acquire(); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionBusy, err)
	}
	defer sess.Release()

	handle, err := e.Tasks.Start(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionBusy, err)
	}

	turnCtx, endTurnSpan := e.tracer().StartTurn(handle.Context(), sess.ID)
	defer endTurnSpan()

	systemPrompt := buildSystemPrompt(e.Slots, e.Registry, req.EnvironmentContext, e.Config.DetailedSystemPrompt)
	toolSpecs := assembleToolSpecs(e.Registry, req.FrontendTools)
	frontendNames := frontendToolNames(req.FrontendTools)

	history := replaceSystemPrompt(sess.Snapshot(), systemPrompt)
	history = append(history, req.NewMessages...)

	temperature := e.Config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := 0
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	maxSteps := e.Config.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 10
	}

	for step := 1; step <= maxSteps; step++ {
		if handle.Cancelled() {
			sink.Emit(stream.Error, "cancelled")
			sess.Replace(history)
			handle.Finish(task.ReasonCancelled, e.Tasks)
			return ErrCancelled
		}

		llmCtx, endLLMSpan := e.tracer().StartLLMCall(turnCtx, step)
		resp, err := e.Adapter.Chat(llmCtx, llm.Request{
			Model:       req.Model,
			Messages:    history,
			Tools:       toolSpecs,
			ToolChoice:  llm.ToolChoiceAuto,
			Temperature: temperature,
			MaxTokens:   maxTokens,
			Stream:      true,
		}, sink)
		endLLMSpan()

		if err != nil {
			e.metrics().UpstreamError()
			sink.Emit(stream.Error, fmt.Sprintf("upstream model error: %v", err))
			sess.Replace(history)
			handle.Finish(task.ReasonUpstreamError, e.Tasks)
			return fmt.Errorf("react: upstream model error: %w", err)
		}

		history = append(history, resp.Message)

		if len(resp.Message.ToolCalls) == 0 {
			sink.Emit(stream.Answer, resp.Message.Content)
			sess.Replace(history)
			handle.Finish(task.ReasonDone, e.Tasks)
			return nil
		}

		successCount, failCount := 0, 0
		for _, call := range resp.Message.ToolCalls {
			if handle.Cancelled() {
				sink.Emit(stream.Error, "cancelled")
				sess.Replace(history)
				handle.Finish(task.ReasonCancelled, e.Tasks)
				return ErrCancelled
			}

			observation, failed := e.executeToolCall(turnCtx, req, call, frontendNames, sink)
			if failed {
				failCount++
			} else {
				successCount++
			}
			history = append(history, llm.Message{
				Role:       llm.RoleTool,
				Content:    observation,
				ToolCallID: call.ID,
			})
		}

		if e.Config.VerboseReflection {
			sink.Emit(stream.Thinking, fmt.Sprintf(
				"step %d: executed %d tool call(s) (%d succeeded, %d failed)",
				step, successCount+failCount, successCount, failCount))
		}
	}

	e.metrics().BudgetExceeded()
	sink.Emit(stream.Error, "max_steps_exceeded")
	sess.Replace(history)
	handle.Finish(task.ReasonBudgetExceeded, e.Tasks)
	return ErrBudgetExceeded
}

// executeToolCall dispatches one model-issued tool call to the matching
// invoker and returns the observation text to append to history, plus
// whether the call failed (for reflection bookkeeping). A failure here
// never aborts the turn: the observation is formatted with a leading "❌"
// and the loop continues so the model can recover.
func (e *Engine) executeToolCall(ctx context.Context, req TurnRequest, call llm.ToolCall, frontendNames map[string]struct{}, sink stream.Sink) (observation string, failed bool) {
	name := call.Function.Name
	args := call.Function.Arguments

	dispatchCtx, endSpan := e.tracer().StartToolDispatch(ctx, name, kindFor(e.Registry, frontendNames, name))
	defer endSpan()

	if _, ok := frontendNames[name]; ok {
		e.metrics().ToolInvoked(toolkit.Browser)
		sessionCtx := browser.WithSessionID(dispatchCtx, req.SessionID)
		def := &toolkit.ToolDefinition{Name: name, Kind: toolkit.Browser}
		result, err := e.Browser.Invoke(sessionCtx, def, args, nil, sink)
		if err != nil {
			observation = formatToolError(err)
			sink.Emit(stream.Observation, observation)
			return observation, true
		}
		sink.Emit(stream.Observation, result)
		return result, false
	}

	sink.Emit(stream.Action, fmt.Sprintf("%s(%s)", name, args))

	def, ok := e.Registry.GetDefinition(name)
	if !ok {
		observation = fmt.Sprintf("❌ Tool not found: %s", name)
		sink.Emit(stream.Observation, observation)
		return observation, true
	}

	var result string
	var err error
	switch def.Kind {
	case toolkit.Local:
		e.metrics().ToolInvoked(toolkit.Local)
		result, err = e.Local.Invoke(dispatchCtx, def, args, nil, sink)
	case toolkit.HTTP:
		e.metrics().ToolInvoked(toolkit.HTTP)
		result, err = e.HTTP.Invoke(dispatchCtx, def, args, req.RequestContext, sink)
	default:
		err = fmt.Errorf("unsupported tool kind %q", def.Kind)
	}

	if err != nil {
		observation = formatToolError(err)
		sink.Emit(stream.Observation, observation)
		return observation, true
	}

	sink.Emit(stream.Observation, result)
	return result, false
}

// kindFor reports the Kind a tool name would dispatch to, for tracing
// attributes only; unregistered/unknown names report an empty Kind.
func kindFor(registry *toolkit.Registry, frontendNames map[string]struct{}, name string) toolkit.Kind {
	if _, ok := frontendNames[name]; ok {
		return toolkit.Browser
	}
	if def, ok := registry.GetDefinition(name); ok {
		return def.Kind
	}
	return ""
}

// formatToolError renders any invoker failure as the uniform
// "❌ Tool call failed: <msg>" observation text. A ToolExecutionError is
// unwrapped down to its cause's message rather than leaking the wrapper's
// own "toolkit: executing tool ..." prefix; an InvalidArgumentsError is
// rendered whole, so the offending field name stays in the text.
func formatToolError(err error) string {
	msg := err.Error()

	var execErr *toolkit.ToolExecutionError
	if errors.As(err, &execErr) && execErr.Err != nil {
		msg = execErr.Err.Error()
	}

	var argErr *toolkit.InvalidArgumentsError
	if errors.As(err, &argErr) {
		msg = argErr.Error()
	}

	return fmt.Sprintf("❌ Tool call failed: %s", msg)
}

// replaceSystemPrompt returns history with any existing system message(s)
// removed and a single fresh one prepended: the system prompt is rebuilt
// fresh each turn rather than accumulated.
func replaceSystemPrompt(history []llm.Message, systemPrompt string) []llm.Message {
	out := make([]llm.Message, 0, len(history)+1)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, m := range history {
		if m.Role == llm.RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}
