package tool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/deskflow/core"
	"github.com/hupe1980/deskflow/internal/util"
	"github.com/hupe1980/deskflow/logging"
)

// -------------------- Schema & Validation Tests --------------------

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
}

func TestCreateSchema(t *testing.T) {
	schema := util.CreateSchema(sampleSchema{})
	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	// Properties present
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	// Required only includes non-pointer, non-omitempty exported fields
	req, _ := schema["required"].([]string)
	if req == nil { // reflection may produce []any
		ifaceReq, _ := schema["required"].([]any)
		for _, v := range ifaceReq {
			req = append(req, v.(string))
		}
	}
	assert.ElementsMatch(t, []string{"a"}, req)
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		// Use []any to mirror possible JSON decoded schema shape
		"required": []any{"x"},
	}

	// Success
	err := util.ValidateParameters(map[string]any{"x": 5}, schema)
	assert.NoError(t, err)

	// Missing required
	err = util.ValidateParameters(map[string]any{}, schema)
	assert.Error(t, err)
	if vErr, ok := err.(*ValidationError); ok {
		assert.Equal(t, "x", vErr.Field)
	} else {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	// Wrong type
	err = util.ValidateParameters(map[string]any{"x": "not-int"}, schema)
	assert.Error(t, err)
	if vErr, ok := err.(*ValidationError); ok {
		assert.Contains(t, vErr.Message, "expected type integer")
	} else {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func testToolContext(fcID string) *core.ToolContext {
	customer := core.NewCustomerContext("cust-1", "SimpleBanking")
	return core.NewToolContext(customer, fcID, core.StateFulfillment, logging.NoOpLogger{})
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sumTool := NewFunctionTool("sum", "Add numbers", params, func(_ *core.ToolContext, args map[string]any) (any, error) {
		a := args["a"].(float64)
		b := args["b"].(float64)
		return a + b, nil
	})

	result, err := sumTool.Call(testToolContext("fc1"), map[string]any{"a": 2.0, "b": 3.0})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		// Use interface slice to match ValidateParameters implementation expectation
		"required": []any{"a"},
	}
	tTool := NewFunctionTool("test", "Test", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return 0, nil
	})
	_, err := tTool.Call(testToolContext("fc2"), map[string]any{})
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	execTool := NewFunctionTool("fail", "Fails", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})
	_, err := execTool.Call(testToolContext("fc3"), map[string]any{})
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
}

// -------------------- Catalog Tests --------------------

func noopTool(name string) Tool {
	return NewFunctionTool(name, "noop", map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *core.ToolContext, _ map[string]any) (any, error) { return "ok", nil })
}

func TestCatalogRegisterAndLookup(t *testing.T) {
	c := NewCatalog("SimpleBanking")

	cfg := &IntentConfig{
		Intent:         "update_address",
		Routine:        "Do the thing.",
		ExecutionTools: []Tool{noopTool("update_address")},
		ExtraTools:     []Tool{noopTool("get_account_type")},
	}
	require.NoError(t, c.Register(cfg))

	// duplicate registration rejected
	assert.Error(t, c.Register(cfg))

	got, ok := c.Intent("update_address")
	require.True(t, ok)
	assert.Equal(t, "Do the thing.", got.Routine)

	_, ok = c.Intent("unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{"update_address"}, c.Intents())
}

func TestIntentConfigAllToolsOrder(t *testing.T) {
	cfg := &IntentConfig{
		Intent:         "x",
		ExecutionTools: []Tool{noopTool("exec_a"), noopTool("exec_b")},
		ExtraTools:     []Tool{noopTool("extra")},
	}

	all := cfg.AllTools()
	require.Len(t, all, 3)
	// extra tools come first
	assert.Equal(t, "extra", all[0].Name())
	assert.Equal(t, "exec_a", all[1].Name())

	tl, ok := cfg.ToolByName("exec_b")
	require.True(t, ok)
	assert.Equal(t, "exec_b", tl.Name())
}

// -------------------- Intent Tool Tests --------------------

func TestIntentIdentifiedTool(t *testing.T) {
	c := NewCatalog("SimpleBanking")
	c.MustRegister(&IntentConfig{Intent: "update_address", Routine: "Routine text."})

	intentTool := NewIntentIdentifiedTool(c)
	tc := testToolContext("fc-intent")

	res, err := intentTool.Call(tc, map[string]any{"intent": "update_address"})
	require.NoError(t, err)

	payload, ok := res.(*IntentPayload)
	require.True(t, ok)
	assert.Equal(t, "update_address", payload.Intent)
	require.NotNil(t, payload.Config)
	assert.Equal(t, "Routine text.", payload.Config.Routine)

	// the customer context is updated as a side effect
	assert.Equal(t, "update_address", tc.Customer().Intent())
	assert.Equal(t, "Routine text.", tc.Customer().FullRoutine())
}

func TestIntentIdentifiedToolUnknownIntent(t *testing.T) {
	c := NewCatalog("SimpleBanking")
	c.MustRegister(&IntentConfig{Intent: "update_address", Routine: "r"})

	intentTool := NewIntentIdentifiedTool(c)

	_, err := intentTool.Call(testToolContext("fc-bad"), map[string]any{"intent": "nope"})
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

// -------------------- Verification Tool Tests --------------------

func TestVerifyCodeToolOutcomes(t *testing.T) {
	vt := NewVerifyCodeTool(func(o *VerificationOptions) {
		o.Verifier = func(_, code string) bool { return code == "1234" }
		o.MaxAttempts = 2
	})

	res, err := vt.Call(testToolContext("fc-v1"), map[string]any{"code": "0000"})
	require.NoError(t, err)
	failure, ok := res.(VerificationFailure)
	require.True(t, ok)
	assert.Equal(t, 1, failure.AttemptsRemaining)

	res, err = vt.Call(testToolContext("fc-v2"), map[string]any{"code": "1234"})
	require.NoError(t, err)
	success, ok := res.(VerificationSuccess)
	require.True(t, ok)
	assert.Equal(t, core.StateFulfillment, success.NextRole)
}

func TestVerifyCodeToolDefaultAcceptsNonEmpty(t *testing.T) {
	vt := NewVerifyCodeTool()

	res, err := vt.Call(testToolContext("fc-v3"), map[string]any{"code": "anything"})
	require.NoError(t, err)
	_, ok := res.(VerificationSuccess)
	assert.True(t, ok)

	res, err = vt.Call(testToolContext("fc-v4"), map[string]any{"code": ""})
	require.NoError(t, err)
	_, ok = res.(VerificationFailure)
	assert.True(t, ok)
}

func TestCompleteCaseTool(t *testing.T) {
	ct := NewCompleteCaseTool()
	assert.Equal(t, TerminalToolName, ct.Name())

	res, err := ct.Call(testToolContext("fc-c1"), map[string]any{"resolution": "address updated"})
	require.NoError(t, err)
	m, ok := res.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "case_closed", m["status"])
}

// -------------------- ToolError Formatting --------------------

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("demo", "something failed", "E123")
	assert.Contains(t, err.Error(), "E123")
	assert.Contains(t, err.Error(), "demo")
}
