package personalize

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/deskflow/artifact"
	"github.com/hupe1980/deskflow/core"
	"github.com/hupe1980/deskflow/internal/util"
	"github.com/hupe1980/deskflow/logging"
	"github.com/hupe1980/deskflow/model"
	"github.com/hupe1980/deskflow/prompt"
	"github.com/hupe1980/deskflow/tool"
)

// Result is the personalizer's output: the trimmed routine text plus the
// subset of catalog tools the routine still references.
type Result struct {
	Routine string
	Tools   []tool.Tool
}

// Task is a handle to an in-flight personalization run. Await blocks until
// the run finishes or the context is cancelled; it acts as the join barrier
// the handoff controller waits on before assembling the fulfillment role.
type Task struct {
	done chan struct{}
	res  *Result
	err  error
}

// Await returns the personalization result, blocking until it is ready.
func (t *Task) Await(ctx context.Context) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return t.res, t.err
	}
}

// Coordinator launches personalization runs. It is stateless across runs
// and safe to share between sessions.
type Coordinator struct {
	model        model.Model
	artifacts    artifact.Store
	instructions string
	modelLabel   string
	experiment   string
	logger       logging.Logger
}

// CoordinatorOptions configure a Coordinator.
type CoordinatorOptions struct {
	// Artifacts receives trimmed routines, keyed by model / experiment /
	// intent. Nil disables the save.
	Artifacts artifact.Store
	// Instructions overrides the default personalizer template.
	Instructions string
	// ModelLabel and Experiment name the artifact scope.
	ModelLabel string
	Experiment string
	Logger     logging.Logger
}

// NewCoordinator creates a coordinator driving the given model.
func NewCoordinator(m model.Model, optFns ...func(o *CoordinatorOptions)) *Coordinator {
	opts := CoordinatorOptions{
		Instructions: prompt.PersonalizerInstructions,
		ModelLabel:   "default",
		Experiment:   "default",
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Coordinator{
		model:        m,
		artifacts:    opts.Artifacts,
		instructions: opts.Instructions,
		modelLabel:   opts.ModelLabel,
		experiment:   opts.Experiment,
		logger:       opts.Logger,
	}
}

// Start launches a personalization run in the background and returns its
// task handle immediately.
func (c *Coordinator) Start(ctx context.Context, customer *core.CustomerContext, cfg *tool.IntentConfig) *Task {
	task := &Task{done: make(chan struct{})}

	go func() {
		defer close(task.done)
		task.res, task.err = c.run(ctx, customer, cfg)
	}()

	return task
}

// run performs one personalization pass: render the template, generate the
// trimmed routine, and intersect the tool list with the catalog.
func (c *Coordinator) run(ctx context.Context, customer *core.CustomerContext, cfg *tool.IntentConfig) (*Result, error) {
	available := cfg.AllTools()
	names := make([]string, len(available))
	for i, t := range available {
		names[i] = t.Name()
	}

	instructions, err := util.RenderTemplate(c.instructions, map[string]any{
		"ClientData":     customer.Summary(),
		"FullRoutine":    cfg.Routine,
		"AvailableTools": strings.Join(names, ", "),
	})
	if err != nil {
		return nil, fmt.Errorf("render personalizer instructions: %w", err)
	}

	resp, err := c.model.Generate(ctx, model.Request{
		Instructions: instructions,
		Contents: []core.Content{
			core.NewTextContent("user", fmt.Sprintf("User information: %s", customer.Summary())),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("personalizer generation: %w", err)
	}

	trimmed := resp.Content.Text()
	if strings.TrimSpace(trimmed) == "" {
		return nil, fmt.Errorf("personalizer returned empty routine")
	}

	keptNames := ExtractToolNames(trimmed)
	var kept []tool.Tool
	for _, t := range available {
		for _, name := range keptNames {
			if t.Name() == name {
				kept = append(kept, t)
				break
			}
		}
	}

	customer.SetPersonalization(trimmed, keptNames)
	c.saveRoutine(customer, cfg.Intent, trimmed)

	c.logger.Info("personalize.done", "intent", cfg.Intent, "customer_id", customer.CustomerID, "kept_tools", len(kept))

	return &Result{Routine: trimmed, Tools: kept}, nil
}

// saveRoutine persists the trimmed routine without blocking the handoff;
// a failed save is logged and dropped.
func (c *Coordinator) saveRoutine(customer *core.CustomerContext, intent, routine string) {
	if c.artifacts == nil {
		return
	}

	scope := fmt.Sprintf("trimmed_routines/%s/%s/%s", c.modelLabel, c.experiment, intent)
	id := customer.CustomerID + "_routine.txt"

	go func() {
		if err := c.artifacts.Save(scope, id, []byte(routine)); err != nil {
			c.logger.Warn("personalize.save_failed", "scope", scope, "error", err.Error())
		}
	}()
}
