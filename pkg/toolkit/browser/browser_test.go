package browser

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionloop/agentcore/pkg/stream"
	"github.com/actionloop/agentcore/pkg/toolkit"
)

func TestInvokeResolvesOnComplete(t *testing.T) {
	var pushedSession, pushedPayload string
	mgr := NewManager(time.Second, func(sessionID, payload string) error {
		pushedSession = sessionID
		pushedPayload = payload
		return nil
	})

	def := &toolkit.ToolDefinition{Name: "take_screenshot", Kind: toolkit.Browser}
	ctx := WithSessionID(context.Background(), "sess-1")
	rec := stream.NewRecorder()

	var out string
	var invokeErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		out, invokeErr = mgr.Invoke(ctx, def, `{}`, nil, rec)
	}()

	require.Eventually(t, func() bool { return mgr.PendingCount() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "sess-1", pushedSession)
	assert.Contains(t, pushedPayload, "take_screenshot")

	segs := rec.Segments()
	require.Len(t, segs, 1)
	assert.Equal(t, stream.Action, segs[0].Type)
	assert.Contains(t, segs[0].Chunk, stream.FrontendToolCallPrefix)

	var envelope struct {
		CallID string `json:"callId"`
	}
	require.NoError(t, json.Unmarshal([]byte(pushedPayload), &envelope))

	ok := mgr.Complete(envelope.CallID, `{"screenshot":"base64..."}`, false)
	require.True(t, ok)

	wg.Wait()
	require.NoError(t, invokeErr)
	assert.Equal(t, `✅ Tool call succeeded: {"screenshot":"base64..."}`, out)
}

func TestInvokeTimesOut(t *testing.T) {
	mgr := NewManager(20*time.Millisecond, func(string, string) error { return nil })
	def := &toolkit.ToolDefinition{Name: "slow_tool", Kind: toolkit.Browser}
	ctx := WithSessionID(context.Background(), "sess-2")

	_, err := mgr.Invoke(ctx, def, `{}`, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Equal(t, 0, mgr.PendingCount())
}

func TestCancelSessionFailsPendingCalls(t *testing.T) {
	mgr := NewManager(time.Second, func(string, string) error { return nil })
	def := &toolkit.ToolDefinition{Name: "tool_a", Kind: toolkit.Browser}
	ctx := WithSessionID(context.Background(), "sess-3")

	resultCh := make(chan error, 1)
	go func() {
		_, err := mgr.Invoke(ctx, def, `{}`, nil, nil)
		resultCh <- err
	}()

	require.Eventually(t, func() bool { return mgr.PendingCount() == 1 }, time.Second, time.Millisecond)
	cancelled := mgr.CancelSession("sess-3")
	assert.Equal(t, 1, cancelled)

	select {
	case err := <-resultCh:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("invoke did not return after session cancel")
	}
}

func TestCompleteUnknownCallIsNoop(t *testing.T) {
	mgr := NewManager(time.Second, nil)
	assert.False(t, mgr.Complete("does-not-exist", "x", false))
}
