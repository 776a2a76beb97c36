package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionloop/agentcore/pkg/toolkit"
)

func TestRecordedCountersAppearInHandlerOutput(t *testing.T) {
	m := New()
	m.TurnStarted()
	m.ToolInvoked(toolkit.Local)
	m.ToolInvoked(toolkit.HTTP)
	m.BudgetExceeded()
	m.UpstreamError()
	m.TurnDuration(250 * time.Millisecond)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "agentcore_turn_started_total 1")
	assert.Contains(t, body, `agentcore_tool_invocations_total{kind="LOCAL"} 1`)
	assert.Contains(t, body, `agentcore_tool_invocations_total{kind="HTTP"} 1`)
	assert.Contains(t, body, "agentcore_turn_budget_exceeded_total 1")
	assert.Contains(t, body, "agentcore_turn_upstream_errors_total 1")
	assert.True(t, strings.Contains(body, "agentcore_turn_duration_seconds"))
}

func TestNilMetricsIsSafeNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TurnStarted()
		m.ToolInvoked(toolkit.Browser)
		m.BudgetExceeded()
		m.UpstreamError()
		m.TurnDuration(time.Second)
		assert.Nil(t, m.Registry())
	})

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	assert.Equal(t, 503, rec.Code)
}
