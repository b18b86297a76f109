// Package handoff drives the forward-only role pipeline of a session:
// router, authenticator, fulfillment, terminated. The controller owns the
// single active role, assembles the fulfillment role when identity
// verification passes, and joins the background personalization task at that
// boundary.
package handoff

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/deskflow/core"
	"github.com/hupe1980/deskflow/logging"
	"github.com/hupe1980/deskflow/model"
	"github.com/hupe1980/deskflow/personalize"
	"github.com/hupe1980/deskflow/prompt"
	"github.com/hupe1980/deskflow/store"
	"github.com/hupe1980/deskflow/tool"
)

// Role pairs an agent state with its instructions and tool set. Roles are
// immutable once assembled; the controller swaps whole roles instead of
// mutating them.
type Role struct {
	State        core.AgentState
	Name         string
	Instructions string
	Tools        []tool.Tool
}

// ToolByName finds a tool in the role's set.
func (r *Role) ToolByName(name string) (tool.Tool, bool) {
	for _, t := range r.Tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Definitions exposes the role's tools in the wire format models expect.
func (r *Role) Definitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, len(r.Tools))
	for i, t := range r.Tools {
		defs[i] = model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		}
	}
	return defs
}

// Controller tracks which role owns the conversation and performs the
// transitions between them. Exactly one role is active at any time.
type Controller struct {
	mu       sync.Mutex
	state    core.AgentState
	roles    map[core.AgentState]*Role
	customer *core.CustomerContext

	personalizer *personalize.Coordinator
	parallel     bool
	task         *personalize.Task

	results *store.DynamicStore
	logger  logging.Logger

	intentCfg         *tool.IntentConfig
	intentFullRoutine string
}

// ControllerOptions configure a Controller.
type ControllerOptions struct {
	// Personalizer runs the routine-trimming pass. Nil disables
	// personalization entirely.
	Personalizer *personalize.Coordinator
	// Parallel launches the personalizer at intent time instead of skipping
	// it. Without it the fulfillment role always gets the full routine.
	Parallel bool
	// Results receives info-gathering tool output. Nil disables capture.
	Results *store.DynamicStore
	Logger  logging.Logger
}

// NewController creates a controller starting at the router role.
func NewController(customer *core.CustomerContext, router, authenticator *Role, optFns ...func(o *ControllerOptions)) *Controller {
	opts := ControllerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Controller{
		state: core.StateRouter,
		roles: map[core.AgentState]*Role{
			core.StateRouter:        router,
			core.StateAuthenticator: authenticator,
		},
		customer:     customer,
		personalizer: opts.Personalizer,
		parallel:     opts.Parallel,
		results:      opts.Results,
		logger:       opts.Logger,
	}
}

// State returns the active agent state.
func (c *Controller) State() core.AgentState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveRole returns the role owning the conversation, nil once terminated.
func (c *Controller) ActiveRole() *Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roles[c.state]
}

// IntentIdentified reports whether routing has succeeded.
func (c *Controller) IntentIdentified() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intentCfg != nil
}

// HandleIntent processes a successful intent_identified call: it runs the
// intent's info-gathering tools inline, merges their facts into the customer
// context, and launches the personalization task when parallel mode is on.
func (c *Controller) HandleIntent(ctx context.Context, payload *tool.IntentPayload) error {
	if payload == nil || payload.Config == nil {
		return fmt.Errorf("intent payload carries no config")
	}

	c.mu.Lock()
	if c.intentCfg != nil {
		c.mu.Unlock()
		c.logger.Debug("handoff.intent_repeated", "intent", payload.Intent)
		return nil
	}
	c.intentCfg = payload.Config
	c.mu.Unlock()

	cfg := payload.Config

	for _, info := range cfg.InfoTools {
		toolCtx := core.NewToolContext(c.customer, core.NewID(), core.StateRouter, c.logger)

		facts, err := info.Gather(toolCtx)
		if err != nil {
			c.logger.Warn("handoff.info_tool_failed", "tool", info.Name(), "error", err.Error())
			continue
		}

		c.customer.UpdateClientInfo(facts)

		if c.results != nil {
			c.results.Record(c.customer.CustomerID, c.customer.Domain, info.Name(), facts, true)
		}
	}

	routine := fmt.Sprintf("The customer ID is %s. Routine to execute: %s", c.customer.CustomerID, cfg.Routine)

	c.mu.Lock()
	c.intentFullRoutine = routine
	launch := c.parallel && c.personalizer != nil
	c.mu.Unlock()

	if launch {
		task := c.personalizer.Start(ctx, c.customer, cfg)

		c.mu.Lock()
		c.task = task
		c.mu.Unlock()

		c.logger.Info("handoff.personalizer_started", "intent", cfg.Intent, "customer_id", c.customer.CustomerID)
	}

	return nil
}

// AdvanceToAuthenticator moves the conversation from routing to identity
// verification. Called once the router's acknowledgement has flushed.
func (c *Controller) AdvanceToAuthenticator() error {
	return c.transition(core.StateAuthenticator)
}

// FinalizeHandoff joins the personalization task (if one is running),
// assembles the fulfillment role and transitions to the requested state.
// When personalization failed or produced nothing, the role falls back to
// the full routine and the intent's complete tool set.
func (c *Controller) FinalizeHandoff(ctx context.Context, next core.AgentState) error {
	c.mu.Lock()
	cfg := c.intentCfg
	task := c.task
	c.task = nil
	fullRoutine := c.intentFullRoutine
	c.mu.Unlock()

	if cfg == nil {
		return fmt.Errorf("no intent identified before handoff")
	}

	routine := fullRoutine
	tools := cfg.AllTools()

	if task != nil {
		res, err := task.Await(ctx)
		switch {
		case err != nil:
			c.logger.Warn("handoff.personalization_failed", "intent", cfg.Intent, "error", err.Error())
		case res == nil || res.Routine == "" || len(res.Tools) == 0:
			c.logger.Warn("handoff.personalization_empty", "intent", cfg.Intent)
		default:
			routine = res.Routine
			tools = res.Tools
		}
	}

	role := &Role{
		State:        next,
		Name:         cfg.Intent,
		Instructions: fmt.Sprintf("%s\n\n%s", prompt.FulfillmentIntro(c.customer.CustomerID), routine),
		Tools:        tools,
	}

	c.mu.Lock()
	c.roles[next] = role
	c.mu.Unlock()

	return c.transition(next)
}

// Terminate moves the pipeline to its terminal state. Idempotent.
func (c *Controller) Terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == core.StateTerminated {
		return
	}

	c.logger.Info("handoff.terminated", "from", c.state.String())
	c.state = core.StateTerminated
}

// transition validates and applies a state change.
func (c *Controller) transition(to core.AgentState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !core.CanTransition(c.state, to) {
		return fmt.Errorf("invalid handoff %s -> %s", c.state, to)
	}

	c.logger.Info("handoff.transition", "from", c.state.String(), "to", to.String())
	c.state = to

	return nil
}
