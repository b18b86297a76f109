package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/deskflow/core"
	"github.com/hupe1980/deskflow/model"
	"github.com/hupe1980/deskflow/prompt"
)

// ExitSentinel marks an utterance as the client's last. It may sit inside a
// longer goodbye; the session runs the turn, then terminates.
const ExitSentinel = "Exit."

// Client produces the customer side of the conversation. The clean history
// passed in holds only user and assistant text, never tool traffic.
type Client interface {
	NextUtterance(ctx context.Context, history []core.Content) (string, error)
}

// ScriptedClient replays a fixed list of utterances and then exits. Useful
// for tests and deterministic batch runs.
type ScriptedClient struct {
	utterances []string
	next       int
}

// NewScriptedClient creates a client replaying the given utterances in order.
func NewScriptedClient(utterances ...string) *ScriptedClient {
	return &ScriptedClient{utterances: utterances}
}

// NextUtterance returns the next scripted line, or the exit sentinel once the
// script runs out.
func (c *ScriptedClient) NextUtterance(_ context.Context, _ []core.Content) (string, error) {
	if c.next >= len(c.utterances) {
		return ExitSentinel, nil
	}

	u := c.utterances[c.next]
	c.next++

	return u, nil
}

// SimulatedClient drives the customer side with a model playing a persona
// seeded from an initial utterance. Because the model speaks as the customer,
// the conversation roles are inverted before each call: assistant turns
// become the "user" input it reacts to.
type SimulatedClient struct {
	model     model.Model
	utterance string
}

// NewSimulatedClient creates a model-backed customer persona.
func NewSimulatedClient(m model.Model, utterance string) *SimulatedClient {
	return &SimulatedClient{model: m, utterance: utterance}
}

// NextUtterance generates the customer's reply to the conversation so far.
func (c *SimulatedClient) NextUtterance(ctx context.Context, history []core.Content) (string, error) {
	req := model.Request{
		Instructions: prompt.ClientPersona(c.utterance),
		Contents:     invertRoles(history),
	}

	resp, err := c.model.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("client model: %w", err)
	}

	text := strings.TrimSpace(resp.Content.Text())
	if text == "" {
		return ExitSentinel, nil
	}

	return text, nil
}

// invertRoles swaps user and assistant so the persona model sees the service
// agent's messages as input addressed to it.
func invertRoles(history []core.Content) []core.Content {
	out := make([]core.Content, 0, len(history))
	for _, content := range history {
		role := content.Role
		switch role {
		case "user":
			role = "assistant"
		case "assistant":
			role = "user"
		}
		out = append(out, core.Content{Role: role, Parts: content.Parts})
	}

	return out
}
