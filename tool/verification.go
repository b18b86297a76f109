package tool

import (
	"sync"
	"time"

	"github.com/hupe1980/deskflow/core"
)

const (
	// SendVerificationToolName sends the one-time code to the customer.
	SendVerificationToolName = "send_verification_text"
	// VerifyCodeToolName checks the code the customer read back.
	VerifyCodeToolName = "verify_code"
)

// VerificationOutcome is the closed result union of the verify_code tool.
// Callers type-switch on the two concrete outcomes instead of inspecting
// loosely typed maps.
type VerificationOutcome interface{ isVerificationOutcome() }

// VerificationSuccess reports a passed identity check and names the role the
// conversation should hand off to.
type VerificationSuccess struct {
	Value    string          `json:"value"`
	NextRole core.AgentState `json:"-"`
}

func (VerificationSuccess) isVerificationOutcome() {}

// VerificationFailure reports a failed attempt and how many attempts remain.
type VerificationFailure struct {
	Value             string `json:"value"`
	AttemptsRemaining int    `json:"attempts_remaining"`
}

func (VerificationFailure) isVerificationOutcome() {}

// Verifier decides whether a submitted code is valid. The default accepts
// any non-empty code, matching the simulated authentication flow.
type Verifier func(customerID, code string) bool

// VerificationOptions configure the verification tool pair.
type VerificationOptions struct {
	// Verifier validates submitted codes. Nil accepts any non-empty code.
	Verifier Verifier
	// MaxAttempts caps failed verify_code calls before the session should
	// terminate. Default 2.
	MaxAttempts int
	// SendDelay simulates the latency of dispatching a text message.
	SendDelay time.Duration
}

// NewSendVerificationTool builds the code-dispatch tool. The dispatch itself
// is simulated; the tool only acknowledges that a code is on its way.
func NewSendVerificationTool(optFns ...func(o *VerificationOptions)) Tool {
	opts := VerificationOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return NewFunctionTool(
		SendVerificationToolName,
		"Send a one-time verification code to the customer's phone on file.",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			if opts.SendDelay > 0 {
				time.Sleep(opts.SendDelay)
			}

			toolCtx.LogInfo("verification.code_sent", "customer_id", toolCtx.CustomerID())

			return map[string]any{"status": "sent"}, nil
		},
	)
}

// verifyCodeTool tracks failed attempts across calls within one session.
type verifyCodeTool struct {
	verifier    Verifier
	maxAttempts int

	mu       sync.Mutex
	attempts int
}

// NewVerifyCodeTool builds the code-check tool. Construct one instance per
// session so attempt counting stays scoped to the conversation.
func NewVerifyCodeTool(optFns ...func(o *VerificationOptions)) Tool {
	opts := VerificationOptions{MaxAttempts: 2}
	for _, fn := range optFns {
		fn(&opts)
	}

	verifier := opts.Verifier
	if verifier == nil {
		verifier = func(_, code string) bool { return code != "" }
	}

	return &verifyCodeTool{
		verifier:    verifier,
		maxAttempts: opts.MaxAttempts,
	}
}

func (t *verifyCodeTool) Name() string { return VerifyCodeToolName }

func (t *verifyCodeTool) Description() string {
	return "Verify the one-time code the customer read back. Call after send_verification_text."
}

func (t *verifyCodeTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code": map[string]any{
				"type":        "string",
				"description": "The code provided by the customer",
			},
		},
		"required": []string{"code"},
	}
}

func (t *verifyCodeTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	code, _ := args["code"].(string)

	if t.verifier(toolCtx.CustomerID(), code) {
		toolCtx.LogInfo("verification.passed", "customer_id", toolCtx.CustomerID())

		return VerificationSuccess{
			Value:    "Identity verified.",
			NextRole: core.StateFulfillment,
		}, nil
	}

	t.mu.Lock()
	t.attempts++
	remaining := t.maxAttempts - t.attempts
	t.mu.Unlock()

	if remaining < 0 {
		remaining = 0
	}

	toolCtx.LogWarn("verification.failed", "customer_id", toolCtx.CustomerID(), "attempts_remaining", remaining)

	return VerificationFailure{
		Value:             "The code did not match.",
		AttemptsRemaining: remaining,
	}, nil
}
