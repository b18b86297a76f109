// Package deskflow provides a high-level façade for running multi-turn
// customer-service conversations. Applications:
//  1. Create an Engine via New() with a config (or rely on environment defaults)
//  2. Register one or more intent catalogs (e.g. domain/banking)
//  3. Run single sessions (NewSession) or whole record batches (RunBatch)
//
// The façade wires the conversation loop, the role handoff controller, the
// parallel personalizer, trajectory tracing and token accounting so callers
// do not assemble these by hand. Defaults are safe for local runs; production
// batches typically supply a real provider model and a structured logger.
package deskflow

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/deskflow/artifact"
	"github.com/hupe1980/deskflow/config"
	"github.com/hupe1980/deskflow/conversation"
	"github.com/hupe1980/deskflow/core"
	"github.com/hupe1980/deskflow/handoff"
	"github.com/hupe1980/deskflow/logging"
	"github.com/hupe1980/deskflow/model"
	anthropicmodel "github.com/hupe1980/deskflow/model/anthropic"
	openaimodel "github.com/hupe1980/deskflow/model/openai"
	"github.com/hupe1980/deskflow/personalize"
	"github.com/hupe1980/deskflow/prompt"
	"github.com/hupe1980/deskflow/runner"
	"github.com/hupe1980/deskflow/store"
	"github.com/hupe1980/deskflow/tool"
	"github.com/hupe1980/deskflow/trace"
)

// Options configures the Engine.
type Options struct {
	// Model drives the service agents. Defaults to a provider model built
	// from the config.
	Model model.Model
	// ClientModel drives the simulated customer. Defaults to Model.
	ClientModel model.Model
	// Artifacts stores trimmed routines. Defaults to a file store under the
	// configured output directory.
	Artifacts artifact.Store
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Engine is the high-level façade aggregating catalogs, models and stores.
type Engine struct {
	cfg       *config.Config
	model     model.Model
	client    model.Model
	artifacts artifact.Store
	logger    logging.Logger
	catalogs  map[string]*tool.Catalog
}

// New creates an Engine from a config with optional overrides.
func New(cfg *config.Config, optFns ...func(o *Options)) (*Engine, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Model == nil {
		m, err := buildModel(cfg)
		if err != nil {
			return nil, err
		}
		opts.Model = m
	}
	if opts.ClientModel == nil {
		opts.ClientModel = opts.Model
	}
	if opts.Artifacts == nil {
		opts.Artifacts = artifact.NewFileStore(cfg.OutputDir)
	}

	return &Engine{
		cfg:       cfg,
		model:     opts.Model,
		client:    opts.ClientModel,
		artifacts: opts.Artifacts,
		logger:    opts.Logger,
		catalogs:  map[string]*tool.Catalog{},
	}, nil
}

// buildModel constructs the provider model named by the config.
func buildModel(cfg *config.Config) (model.Model, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		var clientOpts []option.RequestOption
		if cfg.APIKey != "" {
			clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
		}
		client := openaisdk.NewClient(clientOpts...)
		return openaimodel.NewModelFromClient(&client, func(o *openaimodel.Options) {
			o.Model = cfg.Model
		}), nil
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.Model = anthropicsdk.Model(cfg.Model)
			o.APIKey = cfg.APIKey
		}), nil
	case "mock":
		return model.NewMockModel(cfg.Model, "mock"), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

// RegisterCatalog adds a domain catalog. Registering a domain twice fails.
func (e *Engine) RegisterCatalog(catalog *tool.Catalog) error {
	if _, exists := e.catalogs[catalog.Domain()]; exists {
		return fmt.Errorf("catalog for domain %q already registered", catalog.Domain())
	}
	e.catalogs[catalog.Domain()] = catalog
	return nil
}

// Catalog returns the registered catalog for a domain.
func (e *Engine) Catalog(domain string) (*tool.Catalog, bool) {
	c, ok := e.catalogs[domain]
	return c, ok
}

// NewSession assembles a session for one customer record. The client decides
// who speaks for the customer: pass a scripted client for replays or nil to
// simulate one from the record's first utterance.
func (e *Engine) NewSession(rec store.CustomerRecord, domain, intent, trajectoryPath string, client conversation.Client) (*conversation.Session, error) {
	catalog, ok := e.catalogs[domain]
	if !ok {
		return nil, fmt.Errorf("no catalog registered for domain %q", domain)
	}

	customerID := rec.ID()
	if customerID == "" {
		return nil, fmt.Errorf("record has no customer id")
	}

	customer := core.NewCustomerContext(customerID, domain)

	logger := e.logger
	if sl, ok := logger.(*logging.SessionLogger); ok {
		logger = sl.WithSession(core.NewID(), customerID)
	}

	router := &handoff.Role{
		State:        core.StateRouter,
		Name:         "router",
		Instructions: prompt.RouterInstructions(domain, catalog.Intents()),
		Tools:        []tool.Tool{tool.NewIntentIdentifiedTool(catalog)},
	}
	authenticator := &handoff.Role{
		State:        core.StateAuthenticator,
		Name:         "authenticator",
		Instructions: prompt.AuthenticatorInstructions(customerID),
		Tools:        []tool.Tool{tool.NewSendVerificationTool(), tool.NewVerifyCodeTool()},
	}

	personalizer := personalize.NewCoordinator(e.model, func(o *personalize.CoordinatorOptions) {
		o.Artifacts = e.artifacts
		o.ModelLabel = e.cfg.ModelLabel()
		o.Experiment = e.cfg.ExperimentLabel()
		o.Logger = logger
	})

	results := store.NewDynamicStore(
		filepath.Join(e.cfg.DataDir, "customer_data"),
		filepath.Join(e.cfg.OutputDir, "customer_data"),
		func(o *store.DynamicStoreOptions) { o.Logger = logger },
	)

	controller := handoff.NewController(customer, router, authenticator, func(o *handoff.ControllerOptions) {
		o.Personalizer = personalizer
		o.Parallel = e.cfg.Parallel
		o.Results = results
		o.Logger = logger
	})

	recorder, err := trace.NewRecorder(trajectoryPath, func(o *trace.RecorderOptions) {
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}

	usage := trace.NewUsageLogger(
		filepath.Join(e.cfg.OutputDir, "usage"),
		e.cfg.ModelLabel(), e.cfg.ExperimentLabel(), intent,
		func(o *trace.UsageLoggerOptions) { o.Logger = logger },
	)

	if client == nil {
		client = conversation.NewSimulatedClient(e.client, rec.FirstUtterance())
	}

	return conversation.NewSession(customer, controller, client, e.model, func(o *conversation.SessionOptions) {
		o.MaxTurns = e.cfg.MaxTurns
		o.GuardWindow = e.cfg.GuardWindow
		o.GuardThreshold = e.cfg.GuardThreshold
		o.Recorder = recorder
		o.Usage = usage
		o.Results = results
		o.Intent = intent
		o.Logger = logger
	}), nil
}

// RunBatch runs every eligible customer record of the given domains.
func (e *Engine) RunBatch(ctx context.Context, domains ...string) (map[string]*runner.Summary, error) {
	summaries := make(map[string]*runner.Summary, len(domains))

	for _, domain := range domains {
		if _, ok := e.catalogs[domain]; !ok {
			return summaries, fmt.Errorf("no catalog registered for domain %q", domain)
		}

		factory := func(ctx context.Context, rec store.CustomerRecord, intent, trajectoryPath string) (*conversation.Session, error) {
			return e.NewSession(rec, domain, intent, trajectoryPath, nil)
		}

		r := runner.New(e.cfg.DataDir, e.cfg.OutputDir, e.cfg.ModelLabel(), e.cfg.ExperimentLabel(), factory, func(o *runner.Options) {
			o.Concurrency = e.cfg.Concurrency
			o.Logger = e.logger
		})

		summary, err := r.RunDomain(ctx, domain)
		if err != nil {
			return summaries, err
		}
		summaries[domain] = summary
	}

	return summaries, nil
}
