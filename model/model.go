package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/deskflow/core"
)

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider branching.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction describes the concrete function target of a tool call.
type ToolCallFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"` // JSON string of arguments
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by a session turn.
type Request struct {
	Instructions string           `json:"instructions"` // Instructions for the model
	Contents     []core.Content   `json:"contents"`     // Higher-level content converted to provider messages
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed output of a single generation.
type Response struct {
	ID           string       `json:"id"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// queued pairs a scripted response with an optional artificial delay, used to
// exercise timing-sensitive paths such as the personalization join barrier.
type queued struct {
	resp  Response
	delay time.Duration
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Scripted responses are consumed in FIFO order; when the queue is empty it
// echoes the last user text.
type MockModel struct {
	info Info

	mu    sync.Mutex
	queue []queued
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
	}
}

// Enqueue appends a scripted response to the queue.
func (m *MockModel) Enqueue(resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, queued{resp: resp})
}

// EnqueueDelayed appends a scripted response that Generate only returns
// after the given delay elapses (or the context is cancelled).
func (m *MockModel) EnqueueDelayed(resp Response, delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, queued{resp: resp, delay: delay})
}

// EnqueueText is a shorthand for a plain assistant text response.
func (m *MockModel) EnqueueText(text string) {
	m.Enqueue(Response{
		Content:      core.NewTextContent("assistant", text),
		FinishReason: "stop",
	})
}

// EnqueueCall is a shorthand for a response carrying a single function call.
func (m *MockModel) EnqueueCall(id, name, arguments string) {
	m.Enqueue(Response{
		Content: core.Content{
			Role: "assistant",
			Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        id,
				Name:      name,
				Arguments: arguments,
			}}},
		},
		FinishReason: "tool_calls",
	})
}

// Generate implements Model; it pops the next scripted response or echoes
// the last user text when the queue is exhausted.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	var next queued
	if len(m.queue) > 0 {
		next = m.queue[0]
		m.queue = m.queue[1:]
	} else {
		var inputText string
		for i := len(req.Contents) - 1; i >= 0; i-- {
			if req.Contents[i].Role == "user" {
				inputText = req.Contents[i].Text()
				break
			}
		}
		next = queued{resp: Response{
			Content:      core.NewTextContent("assistant", fmt.Sprintf("Mock response to: %s", inputText)),
			FinishReason: "stop",
		}}
	}
	m.mu.Unlock()

	if next.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(next.delay):
		}
	}

	resp := next.resp
	return &resp, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
