package core

import (
	"encoding/json"
	"fmt"
	"sync"
)

// CustomerContext carries the per-session customer identity plus the mutable
// facts gathered while the conversation runs (identified intent, routines,
// assigned tool names, info-gathering results). Mutable fields are guarded so
// the personalization goroutine and the turn loop can touch it concurrently.
type CustomerContext struct {
	CustomerID string
	Domain     string

	mu                  sync.RWMutex
	intent              string
	fullRoutine         string
	personalizedRoutine string
	assignedTools       []string
	clientInfo          map[string]any
}

// NewCustomerContext creates a customer context for the given identity.
func NewCustomerContext(customerID, domain string) *CustomerContext {
	return &CustomerContext{
		CustomerID: customerID,
		Domain:     domain,
		clientInfo: map[string]any{},
	}
}

// Intent returns the identified intent, empty until routing succeeds.
func (c *CustomerContext) Intent() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.intent
}

// SetIntent records the identified intent and its full routine text.
func (c *CustomerContext) SetIntent(intent, routine string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intent = intent
	c.fullRoutine = routine
}

// FullRoutine returns the unabridged routine for the identified intent.
func (c *CustomerContext) FullRoutine() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fullRoutine
}

// SetPersonalization stores the trimmed routine and the tool names the
// personalizer kept for this customer.
func (c *CustomerContext) SetPersonalization(routine string, tools []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.personalizedRoutine = routine
	c.assignedTools = append([]string(nil), tools...)
}

// PersonalizedRoutine returns the trimmed routine, empty when
// personalization has not run or produced nothing.
func (c *CustomerContext) PersonalizedRoutine() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.personalizedRoutine
}

// AssignedTools returns a copy of the personalizer's kept tool names.
func (c *CustomerContext) AssignedTools() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.assignedTools...)
}

// UpdateClientInfo merges gathered facts about the customer.
func (c *CustomerContext) UpdateClientInfo(facts map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range facts {
		c.clientInfo[k] = v
	}
}

// ClientInfo returns a copy of the gathered customer facts.
func (c *CustomerContext) ClientInfo() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.clientInfo))
	for k, v := range c.clientInfo {
		out[k] = v
	}
	return out
}

// Summary renders the customer facts as JSON for prompt interpolation.
// Routine texts are abbreviated so the summary stays compact.
func (c *CustomerContext) Summary() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := map[string]any{
		"customer_id": c.CustomerID,
		"domain":      c.Domain,
	}
	if c.intent != "" {
		snapshot["intent"] = c.intent
	}
	if c.fullRoutine != "" {
		snapshot["routine"] = fmt.Sprintf("<routine for %s>", c.intent)
	}
	for k, v := range c.clientInfo {
		snapshot[k] = v
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Sprintf("%v", snapshot)
	}
	return string(data)
}
