package tool

import (
	"github.com/hupe1980/deskflow/core"
)

// TerminalToolName marks the routine's final step. Once called, the session
// ends after the assistant's next message flushes to the customer.
const TerminalToolName = "complete_case"

// NewCompleteCaseTool builds the terminal tool that closes out a routine.
func NewCompleteCaseTool() Tool {
	return NewFunctionTool(
		TerminalToolName,
		"Mark the customer's case as complete. Call only when every routine step has finished.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"resolution": map[string]any{
					"type":        "string",
					"description": "Short summary of how the case was resolved",
				},
			},
		},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			resolution, _ := args["resolution"].(string)

			toolCtx.LogInfo("case.completed", "customer_id", toolCtx.CustomerID(), "resolution", resolution)

			return map[string]any{"status": "case_closed"}, nil
		},
	)
}
