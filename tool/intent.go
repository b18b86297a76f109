package tool

import (
	"fmt"

	"github.com/hupe1980/deskflow/core"
)

// IntentToolName is the routing tool every router role carries. Calls to it
// (and their responses) are pruned from history once routing succeeds.
const IntentToolName = "intent_identified"

// IntentPayload is returned by the intent tool. Config is resolved from the
// catalog and intentionally excluded from serialization; only the intent and
// confirmation message travel back to the model.
type IntentPayload struct {
	Intent  string `json:"intent"`
	Message string `json:"message"`

	Config *IntentConfig `json:"-"`
}

// NewIntentIdentifiedTool builds the routing tool for a catalog. The model
// calls it with the matched intent name; unknown intents fail with a
// validation error listing the supported set.
func NewIntentIdentifiedTool(catalog *Catalog) Tool {
	return NewFunctionTool(
		IntentToolName,
		"Record the customer's identified intent. Call this exactly once, as soon as the intent is clear.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"intent": map[string]any{
					"type":        "string",
					"description": "The identified intent name",
				},
			},
			"required": []string{"intent"},
		},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			intent, _ := args["intent"].(string)

			cfg, ok := catalog.Intent(intent)
			if !ok {
				return nil, &ToolError{
					Tool:    IntentToolName,
					Message: fmt.Sprintf("unknown intent %q, supported intents: %v", intent, catalog.Intents()),
					Code:    "VALIDATION_ERROR",
				}
			}

			toolCtx.Customer().SetIntent(cfg.Intent, cfg.Routine)
			toolCtx.LogInfo("intent.identified", "intent", cfg.Intent, "customer_id", toolCtx.CustomerID())

			return &IntentPayload{
				Intent:  cfg.Intent,
				Message: "Intent recorded. Transferring the customer to identity verification.",
				Config:  cfg,
			}, nil
		},
	)
}
