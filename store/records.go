// Package store loads customer records and persists tool results back into
// them. The dynamic store is a best-effort side channel: a failed write never
// disturbs the conversation that produced it.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// idFields are the customer identifier aliases found in record files,
// checked in order.
var idFields = []string{"customer_id", "customerId", "patientId"}

// CustomerRecord is one entry of a domain record file. Records are free-form
// JSON objects; the accessors below pull out the conventional fields.
type CustomerRecord map[string]any

// ID returns the customer identifier, trying each known alias in order.
func (r CustomerRecord) ID() string {
	for _, field := range idFields {
		if v, ok := r[field]; ok && v != nil {
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

// Intent returns the first entry of the record's agent_sequence, which names
// the scripted intent for this customer.
func (r CustomerRecord) Intent() string {
	seq, ok := r["agent_sequence"].([]any)
	if !ok || len(seq) == 0 {
		return ""
	}
	s, _ := seq[0].(string)
	return s
}

// FirstUtterance returns the scripted opening line for this customer, taken
// from user_provided_info.first_utterance.
func (r CustomerRecord) FirstUtterance() string {
	info, ok := r["user_provided_info"].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := info["first_utterance"].(string)
	return s
}

// recordFile returns the conventional record file name for a domain.
func recordFile(dir, domain string) string {
	return filepath.Join(dir, domain+"_utterance.json")
}

// LoadRecords reads the record list for a domain from dir.
func LoadRecords(dir, domain string) ([]CustomerRecord, error) {
	path := recordFile(dir, domain)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records %s: %w", path, err)
	}

	var records []CustomerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}

	return records, nil
}

// saveRecords writes the record list for a domain to dir, creating the
// directory if needed.
func saveRecords(dir, domain string, records []CustomerRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(recordFile(dir, domain), data, 0o644)
}
