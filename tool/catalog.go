package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/deskflow/core"
)

// InfoTool gathers background facts about a customer without being exposed to
// the model. Info tools run inline when an intent is identified and their
// results feed both the customer context and the side-channel store.
type InfoTool interface {
	// Name returns the unique identifier for this info tool.
	Name() string

	// Gather collects facts for the customer bound to the tool context.
	Gather(toolCtx *core.ToolContext) (map[string]any, error)
}

// IntentConfig bundles everything a fulfillment role needs for one intent:
// the full routine text, the execution tools the routine references, the
// info-gathering tools run at handoff time, and the extra tools that are
// available regardless of personalization.
type IntentConfig struct {
	Intent         string
	Routine        string
	ExecutionTools []Tool
	InfoTools      []InfoTool
	ExtraTools     []Tool
}

// AllTools returns the untrimmed tool set for the intent: extra tools first,
// then execution tools.
func (c *IntentConfig) AllTools() []Tool {
	out := make([]Tool, 0, len(c.ExtraTools)+len(c.ExecutionTools))
	out = append(out, c.ExtraTools...)
	out = append(out, c.ExecutionTools...)
	return out
}

// ToolByName finds a tool in the untrimmed set.
func (c *IntentConfig) ToolByName(name string) (Tool, bool) {
	for _, t := range c.AllTools() {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Catalog is a registry of intent configurations for one business domain.
// Safe for concurrent use.
type Catalog struct {
	domain string

	mu      sync.RWMutex
	intents map[string]*IntentConfig
}

// NewCatalog creates an empty catalog for the given domain.
func NewCatalog(domain string) *Catalog {
	return &Catalog{
		domain:  domain,
		intents: map[string]*IntentConfig{},
	}
}

// Domain returns the business domain the catalog serves.
func (c *Catalog) Domain() string { return c.domain }

// Register adds an intent configuration. Registering the same intent twice
// returns an error.
func (c *Catalog) Register(cfg *IntentConfig) error {
	if cfg == nil || cfg.Intent == "" {
		return fmt.Errorf("intent config must have a non-empty intent")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.intents[cfg.Intent]; exists {
		return fmt.Errorf("intent %q already registered", cfg.Intent)
	}

	c.intents[cfg.Intent] = cfg

	return nil
}

// MustRegister is Register that panics on error, for static catalog setup.
func (c *Catalog) MustRegister(cfg *IntentConfig) {
	if err := c.Register(cfg); err != nil {
		panic(err)
	}
}

// Intent looks up the configuration for an intent name.
func (c *Catalog) Intent(name string) (*IntentConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cfg, ok := c.intents[name]

	return cfg, ok
}

// Intents returns the sorted intent names the catalog knows about.
func (c *Catalog) Intents() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.intents))
	for name := range c.intents {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
