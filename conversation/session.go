// Package conversation runs the turn loop of a customer-service session. A
// session alternates client utterances with agent turns; inside an agent
// turn the model may issue tool calls, which the session executes and feeds
// back until the model produces text. Role transitions between turns are
// delegated to the handoff controller.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/deskflow/core"
	"github.com/hupe1980/deskflow/handoff"
	"github.com/hupe1980/deskflow/logging"
	"github.com/hupe1980/deskflow/model"
	"github.com/hupe1980/deskflow/store"
	"github.com/hupe1980/deskflow/tool"
	"github.com/hupe1980/deskflow/trace"
)

// DefaultMaxTurns bounds how many client/agent exchanges a session may run.
const DefaultMaxTurns = 15

// Outcome summarizes a finished session.
type Outcome struct {
	Turns      int
	Reason     core.TerminationReason
	FinalState core.AgentState
}

// SessionOptions configure a Session.
type SessionOptions struct {
	MaxTurns       int
	GuardWindow    int
	GuardThreshold int
	// Recorder captures the conversation trajectory. Nil disables tracing.
	Recorder *trace.Recorder
	// Usage captures per-call token accounting. Nil disables it.
	Usage *trace.UsageLogger
	// Results captures fulfillment tool output. Nil disables capture.
	Results *store.DynamicStore
	// Intent labels the trajectory with the expected intent when the batch
	// runner knows it up front.
	Intent string
	Logger logging.Logger
	// Now overrides the clock, used for latency measurement in tests.
	Now func() time.Time
}

// Session drives one conversation between a simulated or scripted client and
// the pipeline of service agents.
type Session struct {
	customer   *core.CustomerContext
	controller *handoff.Controller
	client     Client
	model      model.Model
	tracker    *InvocationTracker

	recorder *trace.Recorder
	usage    *trace.UsageLogger
	results  *store.DynamicStore
	logger   logging.Logger

	maxTurns int
	intent   string
	now      func() time.Time

	// full carries the complete transcript including tool traffic and is
	// what the model sees. clean carries only user and assistant text and
	// is what the client sees.
	full  []core.Content
	clean []core.Content

	reason core.TerminationReason

	// terminalSeen marks that the terminal tool ran. The session still lets
	// the model render its closing message before terminating.
	terminalSeen bool
}

// NewSession wires a session from its collaborators.
func NewSession(customer *core.CustomerContext, controller *handoff.Controller, client Client, m model.Model, optFns ...func(o *SessionOptions)) *Session {
	opts := SessionOptions{
		MaxTurns:       DefaultMaxTurns,
		GuardWindow:    10,
		GuardThreshold: 3,
		Logger:         logging.NoOpLogger{},
		Now:            time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Session{
		customer:   customer,
		controller: controller,
		client:     client,
		model:      m,
		tracker:    NewInvocationTracker(opts.GuardWindow, opts.GuardThreshold),
		recorder:   opts.Recorder,
		usage:      opts.Usage,
		results:    opts.Results,
		logger:     opts.Logger,
		maxTurns:   opts.MaxTurns,
		intent:     opts.Intent,
		now:        opts.Now,
	}
}

// History returns the full transcript including tool traffic.
func (s *Session) History() []core.Content {
	out := make([]core.Content, len(s.full))
	copy(out, s.full)
	return out
}

// CleanHistory returns the text-only transcript shown to the client.
func (s *Session) CleanHistory() []core.Content {
	out := make([]core.Content, len(s.clean))
	copy(out, s.clean)
	return out
}

// Run executes the turn loop until the client exits, a terminal condition
// fires or the turn limit is reached.
func (s *Session) Run(ctx context.Context) (*Outcome, error) {
	if s.usage != nil {
		s.usage.SetClientID(s.customer.CustomerID)
	}
	s.record(trace.EventUserID, map[string]any{
		"id":     s.customer.CustomerID,
		"domain": s.customer.Domain,
		"intent": s.intent,
	})

	turns := 0

	for turn := 1; turn <= s.maxTurns; turn++ {
		if s.controller.State() == core.StateTerminated {
			break
		}

		utterance, err := s.client.NextUtterance(ctx, s.clean)
		if err != nil {
			s.flush()
			return nil, fmt.Errorf("client utterance: %w", err)
		}

		// The sentinel may be embedded in a longer goodbye. The turn still
		// runs so the agent can respond before the session closes.
		exitRequested := strings.Contains(utterance, ExitSentinel)
		if exitRequested {
			s.logger.Info("session.client_exit", "customer_id", s.customer.CustomerID)
		}

		turns = turn

		s.record(trace.EventUserInput, map[string]any{"content": utterance})
		userContent := core.NewTextContent("user", utterance)
		s.full = append(s.full, userContent)
		s.clean = append(s.clean, userContent)

		// The role is pinned for the whole turn. Handoffs requested inside
		// the turn take effect on the next one.
		role := s.controller.ActiveRole()
		if role == nil {
			break
		}

		if err := s.runTurn(ctx, role); err != nil {
			s.flush()
			return nil, err
		}

		if role.State == core.StateRouter && s.controller.IntentIdentified() && s.controller.State() == core.StateRouter {
			if err := s.controller.AdvanceToAuthenticator(); err != nil {
				s.flush()
				return nil, err
			}
		}

		if exitRequested && s.controller.State() != core.StateTerminated {
			s.reason = core.ReasonClientExit
			s.controller.Terminate()
			break
		}
	}

	if s.controller.State() != core.StateTerminated {
		s.logger.Warn("session.turn_limit", "customer_id", s.customer.CustomerID, "max_turns", s.maxTurns)
		s.reason = core.ReasonTurnLimitExceeded
		s.controller.Terminate()
	}

	if err := s.flush(); err != nil {
		return nil, err
	}

	return &Outcome{Turns: turns, Reason: s.reason, FinalState: s.controller.State()}, nil
}

// runTurn loops model calls and tool executions until the model replies with
// text or a terminal condition fires.
func (s *Session) runTurn(ctx context.Context, role *handoff.Role) error {
	// The latency clock starts at the user input and covers every model call,
	// tool execution and handoff wait until the reply is rendered.
	start := s.now()

	for {
		resp, err := s.model.Generate(ctx, model.Request{
			Instructions: role.Instructions,
			Contents:     s.full,
			Tools:        role.Definitions(),
		})
		if err != nil {
			s.logger.Error("session.model_failed", "agent", role.Name, "error", err.Error())
			s.record(trace.EventError, map[string]any{
				"message":       fmt.Sprintf("model call failed: %v", err),
				"current_agent": role.Name,
			})
			return nil
		}

		calls := resp.Content.FunctionCalls()

		if s.usage != nil {
			callType := trace.CallTypeTextGeneration
			functionName := ""
			if len(calls) > 0 {
				callType = trace.CallTypeFunctionCall
				functionName = calls[0].Name
			}
			s.usage.Record(role.Name, callType, functionName, resp.Usage)
		}

		s.full = append(s.full, resp.Content)

		if len(calls) == 0 {
			text := resp.Content.Text()
			s.clean = append(s.clean, core.NewTextContent("assistant", text))
			s.record(trace.EventAgentResponse, map[string]any{
				"content":                text,
				"current_agent":          role.Name,
				"user_perceived_latency": s.now().Sub(start).Seconds(),
			})
			if s.terminalSeen {
				s.controller.Terminate()
			}
			return nil
		}

		var responses []core.Part
		pruneIntent := false

		for _, call := range calls {
			s.record(trace.EventToolCalled, map[string]any{
				"current_agent": role.Name,
				"tool_name":     call.Name,
				"call_id":       call.ID,
				"arguments":     call.Arguments,
			})

			if s.tracker.Record(call.Name, call.Arguments) == VerdictTerminate {
				s.logger.Warn("session.call_loop", "tool", call.Name, "customer_id", s.customer.CustomerID)
				s.record(trace.EventError, map[string]any{
					"message":       fmt.Sprintf("potential infinite loop detected on %s, terminating session", call.Name),
					"current_agent": role.Name,
				})
				s.reason = core.ReasonRepeatedCallLoop
				s.controller.Terminate()
				return nil
			}

			if call.Name == tool.IntentToolName {
				pruneIntent = true
			}

			response := s.executeCall(ctx, role, call)
			responses = append(responses, core.FunctionResponsePart{FunctionResponse: response})
		}

		s.full = append(s.full, core.Content{Role: "tool", Parts: responses})

		// Pruning must run after the response batch lands, otherwise an
		// orphan tool response survives in the model-facing history.
		if pruneIntent {
			s.pruneIntentTraffic()
		}
	}
}

// executeCall runs one tool call and reacts to its control payloads.
func (s *Session) executeCall(ctx context.Context, role *handoff.Role, call core.FunctionCall) core.FunctionResponse {
	response := core.FunctionResponse{ID: call.ID, Name: call.Name}

	recordOutput := func(result any, errMsg string) {
		data := map[string]any{
			"current_agent": role.Name,
			"call_id":       call.ID,
			"result":        result,
		}
		if errMsg != "" {
			data["error"] = errMsg
		}
		s.record(trace.EventToolOutput, data)
	}

	t, ok := role.ToolByName(call.Name)
	if !ok {
		response.Error = fmt.Sprintf("unknown tool: %s", call.Name)
		recordOutput(nil, response.Error)
		return response
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			response.Error = fmt.Sprintf("invalid arguments: %v", err)
			recordOutput(nil, response.Error)
			return response
		}
	}

	toolCtx := core.NewToolContext(s.customer, call.ID, role.State, s.logger)

	result, err := t.Call(toolCtx, args)
	if err != nil {
		s.logger.Warn("session.tool_failed", "tool", call.Name, "error", err.Error())
		response.Error = err.Error()
		recordOutput(nil, response.Error)
		return response
	}

	response.Response = result
	recordOutput(result, "")

	switch payload := result.(type) {
	case *tool.IntentPayload:
		if err := s.controller.HandleIntent(ctx, payload); err != nil {
			s.logger.Error("session.intent_failed", "error", err.Error())
		}
	case tool.VerificationSuccess:
		if err := s.controller.FinalizeHandoff(ctx, payload.NextRole); err != nil {
			s.logger.Error("session.handoff_failed", "error", err.Error())
		}
	case tool.VerificationFailure:
		s.logger.Warn("session.verification_failed", "attempts_remaining", payload.AttemptsRemaining)
	default:
		if call.Name == tool.TerminalToolName {
			s.reason = core.ReasonCompleted
			s.terminalSeen = true
			return response
		}

		if s.results != nil {
			s.results.Record(s.customer.CustomerID, s.customer.Domain, call.Name, result, false)
		}
	}

	return response
}

// pruneIntentTraffic removes intent_identified call and response parts from
// the transcript so later model calls never see routing internals.
func (s *Session) pruneIntentTraffic() {
	pruned := make([]core.Content, 0, len(s.full))

	for _, content := range s.full {
		parts := make([]core.Part, 0, len(content.Parts))

		for _, p := range content.Parts {
			switch part := p.(type) {
			case core.FunctionCallPart:
				if part.FunctionCall.Name == tool.IntentToolName {
					continue
				}
			case core.FunctionResponsePart:
				if part.FunctionResponse.Name == tool.IntentToolName {
					continue
				}
			}
			parts = append(parts, p)
		}

		if len(parts) == 0 {
			continue
		}

		content.Parts = parts
		pruned = append(pruned, content)
	}

	s.full = pruned
}

func (s *Session) record(eventType string, data map[string]any) {
	if s.recorder == nil {
		return
	}
	s.recorder.Log(eventType, data)
}

func (s *Session) flush() error {
	if s.recorder == nil {
		return nil
	}
	return s.recorder.Flush()
}
