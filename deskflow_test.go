package deskflow

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/deskflow/config"
	"github.com/hupe1980/deskflow/conversation"
	"github.com/hupe1980/deskflow/core"
	"github.com/hupe1980/deskflow/domain/banking"
	"github.com/hupe1980/deskflow/model"
	"github.com/hupe1980/deskflow/store"
	"github.com/hupe1980/deskflow/tool"
	"github.com/hupe1980/deskflow/trace"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()

	return &config.Config{
		Model:          "mock-1",
		Provider:       "mock",
		Prompt:         "Basic",
		Parallel:       false,
		MaxTurns:       15,
		GuardWindow:    10,
		GuardThreshold: 3,
		Concurrency:    1,
		DataDir:        dir,
		OutputDir:      filepath.Join(dir, "output"),
	}
}

func writeBankingRecords(t *testing.T, cfg *config.Config, records []map[string]any) []store.CustomerRecord {
	t.Helper()

	dataDir := filepath.Join(cfg.DataDir, "customer_data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))

	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "banking_utterance.json"), data, 0o644))

	loaded, err := store.LoadRecords(dataDir, "banking")
	require.NoError(t, err)

	return loaded
}

func TestEngineRegisterCatalog(t *testing.T) {
	engine, err := New(testConfig(t))
	require.NoError(t, err)

	catalog := banking.NewCatalog(nil)
	require.NoError(t, engine.RegisterCatalog(catalog))
	assert.Error(t, engine.RegisterCatalog(catalog))

	got, ok := engine.Catalog(banking.Domain)
	require.True(t, ok)
	assert.Equal(t, catalog, got)

	_, ok = engine.Catalog("flights")
	assert.False(t, ok)
}

func TestEngineUnsupportedProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Provider = "cohere"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestEngineEndToEnd(t *testing.T) {
	cfg := testConfig(t)

	records := writeBankingRecords(t, cfg, []map[string]any{
		{
			"customer_id":        1038,
			"agent_sequence":     []string{"update_address"},
			"account_type":       "ROTH_IRA",
			"client_level":       "STANDARD",
			"account_balance":    25000,
			"user_provided_info": map[string]any{"first_utterance": "I moved last week and need my address changed."},
		},
	})

	m := model.NewMockModel("mock-1", "mock")
	// Turn 1, router.
	m.EnqueueCall("call-1", tool.IntentToolName, `{"intent":"update_address"}`)
	m.EnqueueText("Let me transfer you to identity verification.")
	// Turn 2, authenticator.
	m.EnqueueCall("call-2", tool.VerifyCodeToolName, `{"code":"111222"}`)
	m.EnqueueText("You have been successfully authenticated. Are you ready to proceed with your request?")
	// Turn 3, fulfillment.
	m.EnqueueCall("call-3", "update_address", `{"customer_id":"1038","street":"5 main st","city":"springfield","state":"il","zip_code":"62704","country":"us"}`)
	m.EnqueueText("Your address is updated.")
	// Turn 4, close out with a final message.
	m.EnqueueCall("call-4", tool.TerminalToolName, `{}`)
	m.EnqueueText("Glad I could help. Goodbye.")

	engine, err := New(cfg, func(o *Options) {
		o.Model = m
	})
	require.NoError(t, err)
	require.NoError(t, engine.RegisterCatalog(banking.NewCatalog(records)))

	trajectoryPath := filepath.Join(cfg.OutputDir, "trajectory", cfg.ModelLabel(), cfg.ExperimentLabel(), "update_address", "1038.jsonl")

	client := conversation.NewScriptedClient(
		"I moved last week and need my address changed.",
		"My code is 111222.",
		"5 main st, springfield, il 62704, us.",
		"That is everything.",
	)

	session, err := engine.NewSession(records[0], banking.Domain, "update_address", trajectoryPath, client)
	require.NoError(t, err)

	outcome, err := session.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, core.ReasonCompleted, outcome.Reason)
	assert.Equal(t, core.StateTerminated, outcome.FinalState)

	// Trajectory lands on disk, labeled with the scripted intent.
	entries, err := trace.ReadEntries(trajectoryPath)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, trace.EventUserID, entries[0].EventType)
	assert.Equal(t, "update_address", entries[0].Data["intent"])

	// The closing message follows the terminal tool in the trajectory.
	last := entries[len(entries)-1]
	assert.Equal(t, trace.EventAgentResponse, last.EventType)
	assert.Equal(t, "Glad I could help. Goodbye.", last.Data["content"])

	// Token accounting lands under output/usage.
	usagePath := filepath.Join(cfg.OutputDir, "usage", cfg.ModelLabel(), cfg.ExperimentLabel(), "update_address", "1038.jsonl")
	_, err = os.Stat(usagePath)
	assert.NoError(t, err)

	// The info pass and the execution tool both wrote into the record copy.
	updated, err := store.LoadRecords(filepath.Join(cfg.OutputDir, "customer_data"), "banking")
	require.NoError(t, err)
	require.Len(t, updated, 1)

	info, ok := updated[0]["info_gathering_results"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, info, "get_account_type")

	dynamic, ok := updated[0]["dynamic_results"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, dynamic, "update_address")
}

func TestEngineRunBatch(t *testing.T) {
	cfg := testConfig(t)

	records := writeBankingRecords(t, cfg, []map[string]any{
		{
			"customer_id":        1038,
			"agent_sequence":     []string{"update_address"},
			"account_type":       "ROTH_IRA",
			"client_level":       "STANDARD",
			"user_provided_info": map[string]any{"first_utterance": "I need to change my address."},
		},
	})

	// The simulated client model immediately exits every conversation.
	clientModel := model.NewMockModel("mock-client", "mock")
	clientModel.EnqueueText(conversation.ExitSentinel)

	engine, err := New(cfg, func(o *Options) {
		o.Model = model.NewMockModel("mock-1", "mock")
		o.ClientModel = clientModel
	})
	require.NoError(t, err)
	require.NoError(t, engine.RegisterCatalog(banking.NewCatalog(records)))

	summaries, err := engine.RunBatch(context.Background(), banking.Domain)
	require.NoError(t, err)

	require.Contains(t, summaries, banking.Domain)
	assert.Equal(t, 1, summaries[banking.Domain].Processed)

	// Unregistered domains fail fast.
	_, err = engine.RunBatch(context.Background(), "flights")
	assert.Error(t, err)
}
