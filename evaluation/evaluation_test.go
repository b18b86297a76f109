package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/deskflow/trace"
)

func sampleTrajectory() []trace.Entry {
	return []trace.Entry{
		{EventType: trace.EventUserID, Data: map[string]any{"id": float64(1038), "domain": "banking", "intent": "update_address"}},
		{EventType: trace.EventUserInput, Data: map[string]any{"content": "I need to update my address."}},
		{EventType: trace.EventToolCalled, Data: map[string]any{"current_agent": "router", "tool_name": "intent_identified", "arguments": `{"intent":"update_address"}`}},
		{EventType: trace.EventAgentResponse, Data: map[string]any{"current_agent": "router", "content": "Transferring you.", "user_perceived_latency": 0.4}},
		{EventType: trace.EventUserInput, Data: map[string]any{"content": "My code is 111222."}},
		{EventType: trace.EventToolCalled, Data: map[string]any{"current_agent": "authenticator", "tool_name": "verify_code", "arguments": `{"code":"111222"}`}},
		{EventType: trace.EventAgentResponse, Data: map[string]any{"current_agent": "authenticator", "content": "Authenticated.", "user_perceived_latency": 0.6}},
		{EventType: trace.EventUserInput, Data: map[string]any{"content": "5 Main St please."}},
		{EventType: trace.EventToolCalled, Data: map[string]any{"current_agent": "update_address", "tool_name": "update_address", "arguments": `{"street":"5 main st"}`}},
		{EventType: trace.EventError, Data: map[string]any{"current_agent": "update_address", "message": "transient"}},
		{EventType: trace.EventToolCalled, Data: map[string]any{"current_agent": "update_address", "tool_name": "complete_case", "arguments": `{}`}},
	}
}

func TestExtractUserIntent(t *testing.T) {
	userID, intent := ExtractUserIntent(sampleTrajectory())
	assert.Equal(t, "1038", userID)
	assert.Equal(t, "update_address", intent)

	userID, intent = ExtractUserIntent(nil)
	assert.Empty(t, userID)
	assert.Empty(t, intent)
}

func TestToolSequence(t *testing.T) {
	sequence := ToolSequence(sampleTrajectory())

	assert.Equal(t, []string{
		"agent: router",
		`tool: intent_identified({"intent":"update_address"})`,
		"agent: authenticator",
		`tool: verify_code({"code":"111222"})`,
		"agent: update_address",
		`tool: update_address({"street":"5 main st"})`,
		"tool: complete_case({})",
	}, sequence)
}

func TestCounts(t *testing.T) {
	entries := sampleTrajectory()

	assert.Equal(t, 3, CountTurns(entries))
	assert.Equal(t, 1, CountErrors(entries))
	assert.InDelta(t, 0.5, AverageLatency(entries), 1e-9)
	assert.Zero(t, AverageLatency(nil))
}

func TestToolMetrics(t *testing.T) {
	t.Run("perfect match", func(t *testing.T) {
		calls := []string{"tool: a(1)", "tool: b(2)"}
		m := ToolMetrics(calls, calls)
		assert.Equal(t, 1.0, m.Precision)
		assert.Equal(t, 1.0, m.Recall)
		assert.Equal(t, 1.0, m.F1)
	})

	t.Run("partial overlap ignores params and order", func(t *testing.T) {
		predicted := []string{"tool: b(9)", "tool: a(1)", "tool: c()"}
		reference := []string{"tool: a(2)", "tool: b(3)"}

		m := ToolMetrics(predicted, reference)
		assert.InDelta(t, 2.0/3.0, m.Precision, 1e-9)
		assert.InDelta(t, 1.0, m.Recall, 1e-9)
	})

	t.Run("duplicates count as multiset", func(t *testing.T) {
		predicted := []string{"tool: a()", "tool: a()", "tool: a()"}
		reference := []string{"tool: a()"}

		m := ToolMetrics(predicted, reference)
		assert.InDelta(t, 1.0/3.0, m.Precision, 1e-9)
		assert.Equal(t, 1.0, m.Recall)
	})

	t.Run("empty inputs", func(t *testing.T) {
		m := ToolMetrics(nil, nil)
		assert.Zero(t, m.Precision)
		assert.Zero(t, m.Recall)
		assert.Zero(t, m.F1)
	})
}

func TestEvaluate(t *testing.T) {
	report := Evaluate(sampleTrajectory(), "update_address")
	require.NotNil(t, report)

	assert.Equal(t, "1038", report.UserID)
	assert.True(t, report.IntentMatch)
	assert.Equal(t, 3, report.Turns)
	assert.Equal(t, 1, report.Errors)
	assert.Len(t, report.ToolSequence, 7)

	report = Evaluate(sampleTrajectory(), "withdraw_retirement_funds")
	assert.False(t, report.IntentMatch)
}
