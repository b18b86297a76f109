package trace

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/deskflow/model"
)

func readJSONLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		lines = append(lines, m)
	}
	require.NoError(t, scanner.Err())

	return lines
}

func TestRecorderLogAndFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpt", "parallel_Basic", "update_address", "c-1.jsonl")

	rec, err := NewRecorder(path)
	require.NoError(t, err)

	rec.Log(EventUserID, map[string]any{"user_id": "c-1", "expected_intent": "update_address"})
	rec.Log(EventUserInput, map[string]any{"user_input": "I moved house"})
	rec.Log(EventAgentResponse, map[string]any{
		"agent_response":         "Happy to help.",
		"current_agent":          "router",
		"user_perceived_latency": 0.42,
	})
	require.NoError(t, rec.Flush())

	lines := readJSONLines(t, path)
	require.Len(t, lines, 3)
	assert.Equal(t, "user_id", lines[0]["event_type"])
	assert.Equal(t, "user_input", lines[1]["event_type"])

	data := lines[2]["data"].(map[string]any)
	assert.Equal(t, "router", data["current_agent"])
	assert.InDelta(t, 0.42, data["user_perceived_latency"], 1e-9)

	// timestamps are monotone floats
	ts0 := lines[0]["timestamp"].(float64)
	ts2 := lines[2]["timestamp"].(float64)
	assert.LessOrEqual(t, ts0, ts2)
}

func TestRecorderSanitizesUnserializable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	rec, err := NewRecorder(path)
	require.NoError(t, err)

	rec.Log(EventToolOutput, map[string]any{"tool_output": make(chan int), "tool_name": "weird"})
	require.NoError(t, rec.Flush())

	lines := readJSONLines(t, path)
	require.Len(t, lines, 1)
	data := lines[0]["data"].(map[string]any)
	_, isString := data["tool_output"].(string)
	assert.True(t, isString)
	assert.Equal(t, "weird", data["tool_name"])
}

func TestRecorderRemovesStaleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	rec, err := NewRecorder(path)
	require.NoError(t, err)

	rec.Log(EventError, map[string]any{"error": "boom"})
	require.NoError(t, rec.Flush())

	lines := readJSONLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "error", lines[0]["event_type"])
}

func TestRecorderFlushClearsBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	rec, err := NewRecorder(path, func(o *RecorderOptions) {
		o.Now = func() time.Time { return time.Unix(100, 0) }
	})
	require.NoError(t, err)

	rec.Log(EventUserInput, map[string]any{"user_input": "hi"})
	require.NoError(t, rec.Flush())
	require.NoError(t, rec.Flush()) // nothing left, no duplicate lines

	lines := readJSONLines(t, path)
	assert.Len(t, lines, 1)
	assert.Equal(t, float64(100), lines[0]["timestamp"])
	assert.Empty(t, rec.Entries())
}

func TestUsageLogger(t *testing.T) {
	dir := t.TempDir()

	u := NewUsageLogger(dir, "gpt", "parallel_Basic", "update_address")
	u.SetClientID("c-1")

	u.Record("router", CallTypeTextGeneration, "", &model.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	u.Record("fulfillment", CallTypeFunctionCall, "update_address", &model.TokenUsage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30})
	u.Record("fulfillment", CallTypeTextGeneration, "", nil)

	cum, requests := u.Cumulative()
	assert.Equal(t, 3, requests)
	assert.Equal(t, 45, cum.TotalTokens)

	path := filepath.Join(dir, "gpt", "parallel_Basic", "update_address", "c-1.jsonl")
	lines := readJSONLines(t, path)
	require.Len(t, lines, 3)
	assert.Equal(t, "c-1", lines[0]["client_id"])
	assert.Equal(t, "text_generation", lines[0]["type"])
	assert.Equal(t, "update_address", lines[1]["function_name"])
	assert.Equal(t, float64(30), lines[1]["total_tokens"])

	// switching customers resets the running total
	u.SetClientID("c-2")
	cum, requests = u.Cumulative()
	assert.Zero(t, requests)
	assert.Zero(t, cum.TotalTokens)
}
