package testutil

import (
	"github.com/hupe1980/deskflow/core"
)

// ContentBuilder provides a fluent helper for constructing content in tests.
// Example:
//
//	c := NewContentBuilder("assistant").Text("hello").Call("c1", "lookup", "{}").Build()
//
// Chain only the parts you need.
type ContentBuilder struct {
	role  string
	parts []core.Part
}

// NewContentBuilder creates a builder for content with the given role.
func NewContentBuilder(role string) *ContentBuilder {
	return &ContentBuilder{role: role}
}

// Text appends a text part (chainable).
func (b *ContentBuilder) Text(text string) *ContentBuilder {
	b.parts = append(b.parts, core.TextPart{Text: text})
	return b
}

// Call appends a function call part (chainable).
func (b *ContentBuilder) Call(id, name, arguments string) *ContentBuilder {
	b.parts = append(b.parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
		ID:        id,
		Name:      name,
		Arguments: arguments,
	}})
	return b
}

// Response appends a function response part (chainable).
func (b *ContentBuilder) Response(id, name string, response any) *ContentBuilder {
	b.parts = append(b.parts, core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
		ID:       id,
		Name:     name,
		Response: response,
	}})
	return b
}

// Build returns the assembled content.
func (b *ContentBuilder) Build() core.Content {
	return core.Content{Role: b.role, Parts: b.parts}
}
