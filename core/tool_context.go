package core

import (
	"fmt"

	"github.com/hupe1980/deskflow/logging"
)

// ToolContext provides a constrained, auditable surface for tool / function
// implementations invoked during a session turn. It exposes the customer
// context, the originating function call ID and the role that issued the
// call, without handing tools the whole session.
type ToolContext struct {
	customer       *CustomerContext
	functionCallID string
	agentState     AgentState

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a customer and a unique
// functionCallID.
func NewToolContext(customer *CustomerContext, functionCallID string, state AgentState, logger logging.Logger) *ToolContext {
	return &ToolContext{
		customer:       customer,
		functionCallID: functionCallID,
		agentState:     state,
		loggerAdapter:  newLoggerAdapter(logger),
	}
}

// Customer returns the customer context associated with the invocation.
func (tc *ToolContext) Customer() *CustomerContext { return tc.customer }

// CustomerID returns the customer ID associated with the invocation.
func (tc *ToolContext) CustomerID() string {
	if tc.customer == nil {
		return ""
	}
	return tc.customer.CustomerID
}

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// FunctionCallID returns the function call ID associated with the invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// AgentState returns the role that issued the call.
func (tc *ToolContext) AgentState() AgentState { return tc.agentState }

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if tc.customer == nil || tc.functionCallID == "" {
		return fmt.Errorf("invalid ToolContext")
	}

	return nil
}

// IsValid reports whether Validate would succeed (fast path).
func (tc *ToolContext) IsValid() bool {
	return tc.customer != nil && tc.functionCallID != ""
}
