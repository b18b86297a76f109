package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/deskflow/logging"
	"github.com/hupe1980/deskflow/model"
)

// Call types recorded per usage line.
const (
	CallTypeTextGeneration = "text_generation"
	CallTypeFunctionCall   = "function_call"
	CallTypeHandoff        = "handoff"
)

// UsageEntry is one usage line: token counts for a single model call,
// attributed to the role and (when present) the function it drove.
type UsageEntry struct {
	ClientID         string `json:"client_id"`
	Agent            string `json:"agent"`
	Type             string `json:"type"`
	FunctionName     string `json:"function_name,omitempty"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
}

// UsageLogger appends per-call token usage to a JSONL file laid out as
// <root>/<model>/<experiment>/<intent>/<customer>.jsonl and keeps a running
// total for the session.
type UsageLogger struct {
	mu         sync.Mutex
	root       string
	modelLabel string
	experiment string
	intent     string
	clientID   string
	path       string
	cumulative model.TokenUsage
	requests   int
	logger     logging.Logger
}

// UsageLoggerOptions configure a UsageLogger.
type UsageLoggerOptions struct {
	Logger logging.Logger
}

// NewUsageLogger creates a usage logger rooted at dir for one experiment run.
func NewUsageLogger(dir, modelLabel, experiment, intent string, optFns ...func(o *UsageLoggerOptions)) *UsageLogger {
	opts := UsageLoggerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &UsageLogger{
		root:       dir,
		modelLabel: modelLabel,
		experiment: experiment,
		intent:     intent,
		logger:     opts.Logger,
	}
}

// SetClientID binds the logger to a customer. Switching customers resets the
// cumulative counters so each session starts from zero.
func (u *UsageLogger) SetClientID(clientID string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if clientID != u.clientID {
		u.cumulative = model.TokenUsage{}
		u.requests = 0
	}

	u.clientID = clientID
	u.path = filepath.Join(u.root, u.modelLabel, u.experiment, u.intent, clientID+".jsonl")
}

// Record appends one usage line for a model call. A nil usage is counted as
// a zero-token call so the request count stays accurate.
func (u *UsageLogger) Record(agent, callType, functionName string, usage *model.TokenUsage) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.path == "" {
		u.logger.Warn("usage.no_client_bound")
		return
	}

	var tokens model.TokenUsage
	if usage != nil {
		tokens = *usage
	}

	u.requests++
	u.cumulative.PromptTokens += tokens.PromptTokens
	u.cumulative.CompletionTokens += tokens.CompletionTokens
	u.cumulative.TotalTokens += tokens.TotalTokens

	entry := UsageEntry{
		ClientID:         u.clientID,
		Agent:            agent,
		Type:             callType,
		FunctionName:     functionName,
		PromptTokens:     tokens.PromptTokens,
		CompletionTokens: tokens.CompletionTokens,
		TotalTokens:      tokens.TotalTokens,
	}

	if err := u.append(entry); err != nil {
		u.logger.Warn("usage.write_failed", "error", err.Error())
	}
}

// Cumulative returns the running token total and request count for the
// current customer.
func (u *UsageLogger) Cumulative() (model.TokenUsage, int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cumulative, u.requests
}

func (u *UsageLogger) append(entry UsageEntry) error {
	if err := os.MkdirAll(filepath.Dir(u.path), 0o755); err != nil {
		return fmt.Errorf("create usage dir: %w", err)
	}

	f, err := os.OpenFile(u.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open usage file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(entry)
}
