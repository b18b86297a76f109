// Package config loads runtime settings from the environment. All variables
// share the DESKFLOW prefix, e.g. DESKFLOW_MODEL or DESKFLOW_OUTPUT_DIR.
package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable of a batch run.
type Config struct {
	// Model is the provider model id used for the service agents.
	Model string `envconfig:"MODEL" split_words:"true" default:"gpt-4o"`
	// Provider selects the model backend, openai or anthropic.
	Provider string `envconfig:"PROVIDER" split_words:"true" default:"openai"`
	APIKey   string `envconfig:"API_KEY" split_words:"true"`

	// Prompt names the personalizer prompt variant used for labeling output.
	Prompt string `envconfig:"PROMPT" split_words:"true" default:"Basic"`
	// Parallel runs routine personalization concurrently with
	// authentication instead of skipping it.
	Parallel bool `envconfig:"PARALLEL" split_words:"true" default:"true"`

	MaxTurns       int `envconfig:"MAX_TURNS" split_words:"true" default:"15"`
	GuardWindow    int `envconfig:"GUARD_WINDOW" split_words:"true" default:"10"`
	GuardThreshold int `envconfig:"GUARD_THRESHOLD" split_words:"true" default:"3"`

	// Concurrency caps how many customer sessions a batch runs at once.
	Concurrency int `envconfig:"CONCURRENCY" split_words:"true" default:"1"`

	DataDir   string `envconfig:"DATA_DIR" split_words:"true" default:"data"`
	OutputDir string `envconfig:"OUTPUT_DIR" split_words:"true" default:"output"`

	LogLevel  string `envconfig:"LOG_LEVEL" split_words:"true" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" split_words:"true" default:"json"`
}

// Load reads configuration from DESKFLOW_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("DESKFLOW", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad is Load that panics on error, for program entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks field combinations Load cannot express with tags.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Provider) {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}

	if c.MaxTurns <= 0 {
		return fmt.Errorf("max turns must be positive, got %d", c.MaxTurns)
	}
	if c.GuardWindow <= 0 || c.GuardThreshold <= 0 {
		return fmt.Errorf("guard window and threshold must be positive")
	}

	return nil
}

// ExperimentLabel names the run variant, combining execution mode and prompt,
// e.g. "parallel_Basic" or "sequential_Basic". Output paths embed it.
func (c *Config) ExperimentLabel() string {
	mode := "sequential"
	if c.Parallel {
		mode = "parallel"
	}
	return fmt.Sprintf("%s_%s", mode, c.Prompt)
}

// ModelLabel is the model id made filesystem safe.
func (c *Config) ModelLabel() string {
	return strings.NewReplacer("/", "-", ":", "-").Replace(c.Model)
}
