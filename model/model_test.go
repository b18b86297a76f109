package model

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/deskflow/core"
)

func TestMockModelScriptedQueue(t *testing.T) {
	m := NewMockModel("test-model", "mock")
	m.EnqueueText("first")
	m.EnqueueCall("call-1", "lookup", `{"q":"x"}`)

	resp, err := m.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content.Text())

	resp, err = m.Generate(context.Background(), Request{})
	require.NoError(t, err)
	calls := resp.Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call-1", calls[0].ID)
	assert.Equal(t, "lookup", calls[0].Name)
	assert.Equal(t, "tool_calls", resp.FinishReason)
}

func TestMockModelEchoFallback(t *testing.T) {
	m := NewMockModel("test-model", "mock")

	resp, err := m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewTextContent("user", "hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hello", resp.Content.Text())
}

func TestMockModelDelayedResponse(t *testing.T) {
	m := NewMockModel("test-model", "mock")
	m.EnqueueDelayed(Response{Content: core.NewTextContent("assistant", "slow")}, 30*time.Millisecond)

	start := time.Now()
	resp, err := m.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "slow", resp.Content.Text())
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestMockModelDelayedRespectsContext(t *testing.T) {
	m := NewMockModel("test-model", "mock")
	m.EnqueueDelayed(Response{Content: core.NewTextContent("assistant", "slow")}, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
