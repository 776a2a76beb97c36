// Package browser implements the browser tool manager and invoker (C7): it
// correlates an outbound "please execute this tool" event with the later
// inbound result, blocking the agent turn until one arrives or the call
// times out or the owning session is cancelled.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/actionloop/agentcore/pkg/stream"
	"github.com/actionloop/agentcore/pkg/toolkit"
)

// outcomeKind distinguishes how a PendingBrowserCall was resolved, for
// observability; the caller only ever sees the resulting (string, error).
type outcomeKind int

const (
	outcomeResult outcomeKind = iota
	outcomeError
	outcomeTimeout
	outcomeCancelled
)

type outcome struct {
	kind   outcomeKind
	result string
	err    error
}

// pendingCall is the concrete PendingBrowserCall: a single-shot completion
// slot guarded so exactly one of {result, error, timeout, cancel} resolves
// it.
type pendingCall struct {
	sessionID string
	callID    string
	done      chan outcome
	once      sync.Once
}

func (p *pendingCall) resolve(o outcome) bool {
	resolved := false
	p.once.Do(func() {
		p.done <- o
		resolved = true
	})
	return resolved
}

// Manager tracks pending browser tool calls across sessions and implements
// toolkit.Invoker for toolkit.Browser tools.
type Manager struct {
	mu      sync.Mutex
	pending map[string]*pendingCall // callID -> call
	bySession map[string]map[string]struct{} // sessionID -> set of callIDs
	timeout time.Duration
	push    PushFunc
}

// PushFunc delivers the outbound FRONTEND_TOOL_CALL envelope to whatever
// transport owns the session's duplex channel (e.g. a websocket
// connection). The engine supplies this when constructing the Manager.
type PushFunc func(sessionID string, envelopeJSON string) error

// frontendToolCallEnvelope is the JSON payload following the
// "[FRONTEND_TOOL_CALL] " sentinel line.
type frontendToolCallEnvelope struct {
	CallID   string `json:"callId"`
	ToolName string `json:"toolName"`
	Arguments json.RawMessage `json:"arguments"`
}

// NewManager returns a Manager that fails a pending call after timeout if
// nothing resolves it first, and delivers outbound call envelopes via push.
func NewManager(timeout time.Duration, push PushFunc) *Manager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Manager{
		pending:   make(map[string]*pendingCall),
		bySession: make(map[string]map[string]struct{}),
		timeout:   timeout,
		push:      push,
	}
}

// Invoke implements toolkit.Invoker. def.Name and argumentsJSON describe the
// tool call; rc is unused (browser calls have no ambient HTTP context). The
// sessionID is threaded through ctx by the caller (see SessionIDFromContext)
// since toolkit.Invoker's signature is shared across kinds.
func (m *Manager) Invoke(ctx context.Context, def *toolkit.ToolDefinition, argumentsJSON string, _ *toolkit.RequestContext, sink stream.Sink) (string, error) {
	sessionID, ok := SessionIDFromContext(ctx)
	if !ok {
		return "", &toolkit.ToolExecutionError{Tool: def.Name, Err: fmt.Errorf("no session id in context")}
	}

	callID := uuid.NewString()
	envelope := frontendToolCallEnvelope{
		CallID:    callID,
		ToolName:  def.Name,
		Arguments: json.RawMessage(argumentsJSON),
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return "", &toolkit.ToolExecutionError{Tool: def.Name, Err: err}
	}

	call := &pendingCall{sessionID: sessionID, callID: callID, done: make(chan outcome, 1)}
	m.register(call)
	defer m.forget(call)

	if sink != nil {
		sink.Emit(stream.Action, stream.FrontendToolCallPrefix+string(payload))
	}

	if m.push != nil {
		if err := m.push(sessionID, string(payload)); err != nil {
			return "", &toolkit.ToolExecutionError{Tool: def.Name, Err: fmt.Errorf("delivering frontend tool call: %w", err)}
		}
	}

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case o := <-call.done:
		return interpretOutcome(def.Name, o)
	case <-timer.C:
		call.resolve(outcome{kind: outcomeTimeout})
		return "", &toolkit.ToolExecutionError{Tool: def.Name, Err: fmt.Errorf("timeout: browser tool call did not return within %s", m.timeout)}
	case <-ctx.Done():
		call.resolve(outcome{kind: outcomeCancelled})
		return "", ctx.Err()
	}
}

func interpretOutcome(tool string, o outcome) (string, error) {
	switch o.kind {
	case outcomeResult:
		return fmt.Sprintf("✅ Tool call succeeded: %s", o.result), nil
	case outcomeError:
		return "", &toolkit.ToolExecutionError{Tool: tool, Err: o.err}
	case outcomeTimeout:
		return "", &toolkit.ToolExecutionError{Tool: tool, Err: fmt.Errorf("timeout: browser tool call did not return in time")}
	default:
		return "", &toolkit.ToolExecutionError{Tool: tool, Err: fmt.Errorf("browser tool call cancelled")}
	}
}

func (m *Manager) register(call *pendingCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[call.callID] = call
	set, ok := m.bySession[call.sessionID]
	if !ok {
		set = make(map[string]struct{})
		m.bySession[call.sessionID] = set
	}
	set[call.callID] = struct{}{}
}

func (m *Manager) forget(call *pendingCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, call.callID)
	if set, ok := m.bySession[call.sessionID]; ok {
		delete(set, call.callID)
		if len(set) == 0 {
			delete(m.bySession, call.sessionID)
		}
	}
}

// Complete resolves a pending call with the browser client's result. It is
// a no-op (returns false) if callID is unknown or already resolved. The
// ingress handler should still report success to the client in that case,
// since "already resolved" typically means the call already timed out or
// the session was cancelled.
func (m *Manager) Complete(callID string, result string, isError bool) bool {
	m.mu.Lock()
	call, ok := m.pending[callID]
	m.mu.Unlock()
	if !ok {
		return false
	}

	o := outcome{kind: outcomeResult, result: result}
	if isError {
		o = outcome{kind: outcomeError, err: fmt.Errorf("%s", result)}
	}
	return call.resolve(o)
}

// CancelSession fails every pending call belonging to sessionID as
// cancelled: it fails all pending browser calls for the session at once.
func (m *Manager) CancelSession(sessionID string) int {
	m.mu.Lock()
	callIDs := make([]string, 0, len(m.bySession[sessionID]))
	for id := range m.bySession[sessionID] {
		callIDs = append(callIDs, id)
	}
	calls := make([]*pendingCall, 0, len(callIDs))
	for _, id := range callIDs {
		if c, ok := m.pending[id]; ok {
			calls = append(calls, c)
		}
	}
	m.mu.Unlock()

	for _, c := range calls {
		c.resolve(outcome{kind: outcomeCancelled})
	}
	return len(calls)
}

// PendingCount reports how many calls are currently awaiting resolution,
// for diagnostics/metrics.
func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

type sessionIDKey struct{}

// WithSessionID attaches a session id to ctx so the Manager's Invoke method
// (bound by the shared toolkit.Invoker signature) can recover it.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

// SessionIDFromContext recovers a session id attached by WithSessionID.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey{}).(string)
	return v, ok
}
