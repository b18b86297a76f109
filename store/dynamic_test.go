package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecords(t *testing.T, dir, domain string, records []CustomerRecord) {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain+"_utterance.json"), data, 0o644))
}

func readOutput(t *testing.T, dir, domain string) []CustomerRecord {
	t.Helper()
	records, err := LoadRecords(dir, domain)
	require.NoError(t, err)
	return records
}

func TestCustomerRecordAccessors(t *testing.T) {
	rec := CustomerRecord{
		"customer_id":    "c-1",
		"agent_sequence": []any{"update_address", "other"},
	}
	assert.Equal(t, "c-1", rec.ID())
	assert.Equal(t, "update_address", rec.Intent())

	// id aliases
	assert.Equal(t, "c-2", CustomerRecord{"customerId": "c-2"}.ID())
	assert.Equal(t, "p-3", CustomerRecord{"patientId": "p-3"}.ID())
	// numeric ids are stringified
	assert.Equal(t, "42", CustomerRecord{"customer_id": float64(42)}.ID())

	assert.Empty(t, CustomerRecord{}.ID())
	assert.Empty(t, CustomerRecord{}.Intent())

	rec = CustomerRecord{
		"user_provided_info": map[string]any{"first_utterance": "I moved last week."},
	}
	assert.Equal(t, "I moved last week.", rec.FirstUtterance())
	assert.Empty(t, CustomerRecord{}.FirstUtterance())
}

func TestDynamicStoreRecordAndSnapshot(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")

	writeRecords(t, inputDir, "SimpleBanking", []CustomerRecord{
		{"customer_id": "c-1", "agent_sequence": []any{"update_address"}},
		{"customer_id": "c-2", "agent_sequence": []any{"withdraw_retirement_funds"}},
	})

	s := NewDynamicStore(inputDir, outputDir)

	s.Record("c-1", "SimpleBanking", "update_address", map[string]any{"status": "Success"}, false)
	s.Record("c-1", "SimpleBanking", "get_account_type", map[string]any{"account_type": "CHECKING"}, true)

	out := readOutput(t, outputDir, "SimpleBanking")
	require.Len(t, out, 2)

	dyn, ok := out[0]["dynamic_results"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"status": "Success"}, dyn["update_address"])

	info, ok := out[0]["info_gathering_results"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"account_type": "CHECKING"}, info["get_account_type"])

	// other records untouched
	_, hasDyn := out[1]["dynamic_results"]
	assert.False(t, hasDyn)

	// input file stays pristine
	in := readOutput(t, inputDir, "SimpleBanking")
	_, hasDyn = in[0]["dynamic_results"]
	assert.False(t, hasDyn)
}

func TestDynamicStoreIdempotentPerTool(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeRecords(t, inputDir, "SimpleBanking", []CustomerRecord{
		{"customer_id": "c-1"},
	})

	s := NewDynamicStore(inputDir, outputDir)

	s.Record("c-1", "SimpleBanking", "validate_address", map[string]any{"valid": false}, false)
	s.Record("c-1", "SimpleBanking", "validate_address", map[string]any{"valid": true}, false)

	out := readOutput(t, outputDir, "SimpleBanking")
	dyn := out[0]["dynamic_results"].(map[string]any)
	// keyed by tool name, repeat overwrites
	assert.Equal(t, map[string]any{"valid": true}, dyn["validate_address"])
	assert.Len(t, dyn, 1)
}

func TestDynamicStoreSecondWriteReadsSnapshot(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeRecords(t, inputDir, "SimpleBanking", []CustomerRecord{
		{"customer_id": "c-1"},
	})

	s := NewDynamicStore(inputDir, outputDir)

	s.Record("c-1", "SimpleBanking", "tool_a", "first", false)
	s.Record("c-1", "SimpleBanking", "tool_b", "second", false)

	out := readOutput(t, outputDir, "SimpleBanking")
	dyn := out[0]["dynamic_results"].(map[string]any)
	assert.Equal(t, "first", dyn["tool_a"])
	assert.Equal(t, "second", dyn["tool_b"])
}

func TestDynamicStoreCoercesUnserializable(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeRecords(t, inputDir, "SimpleBanking", []CustomerRecord{
		{"customer_id": "c-1"},
	})

	s := NewDynamicStore(inputDir, outputDir)

	// channels cannot be marshaled; the store falls back to a string rendering
	s.Record("c-1", "SimpleBanking", "weird_tool", make(chan int), false)

	out := readOutput(t, outputDir, "SimpleBanking")
	dyn := out[0]["dynamic_results"].(map[string]any)
	_, isString := dyn["weird_tool"].(string)
	assert.True(t, isString)
}

func TestDynamicStoreMissingCustomerOrFile(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeRecords(t, inputDir, "SimpleBanking", []CustomerRecord{
		{"customer_id": "c-1"},
	})

	s := NewDynamicStore(inputDir, outputDir)

	// unknown customer: skipped, no output written
	s.Record("ghost", "SimpleBanking", "tool", "x", false)
	_, err := os.Stat(filepath.Join(outputDir, "SimpleBanking_utterance.json"))
	assert.True(t, os.IsNotExist(err))

	// unknown domain: skipped without panicking
	s.Record("c-1", "NoSuchDomain", "tool", "x", false)
}
