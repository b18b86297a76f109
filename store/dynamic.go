package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/hupe1980/deskflow/logging"
)

const (
	dynamicResultsKey = "dynamic_results"
	infoResultsKey    = "info_gathering_results"
)

// DynamicStore captures tool results into per-domain customer record files.
// The input directory holds the pristine records; the first write for a
// domain snapshots them into the output directory and all later writes read
// and rewrite that snapshot, so the inputs are never touched.
//
// Writes are serialized with a mutex. Record never returns an error: every
// failure is logged and swallowed so a broken side channel cannot take down
// a session.
type DynamicStore struct {
	mu        sync.Mutex
	inputDir  string
	outputDir string
	logger    logging.Logger
}

// DynamicStoreOptions configure a DynamicStore.
type DynamicStoreOptions struct {
	Logger logging.Logger
}

// NewDynamicStore creates a store reading pristine records from inputDir and
// writing updated snapshots to outputDir.
func NewDynamicStore(inputDir, outputDir string, optFns ...func(o *DynamicStoreOptions)) *DynamicStore {
	opts := DynamicStoreOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &DynamicStore{
		inputDir:  inputDir,
		outputDir: outputDir,
		logger:    opts.Logger,
	}
}

// Record upserts a tool result into the customer's record. infoTool selects
// the info_gathering_results section instead of dynamic_results. Results are
// keyed by tool name, so repeating a call overwrites the previous value
// rather than appending.
func (s *DynamicStore) Record(customerID, domain, toolName string, result any, infoTool bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Prefer the output snapshot so earlier writes survive.
	readDir := s.inputDir
	if _, err := os.Stat(recordFile(s.outputDir, domain)); err == nil {
		readDir = s.outputDir
	}

	records, err := LoadRecords(readDir, domain)
	if err != nil {
		s.logger.Warn("dynamic_store.load_failed", "domain", domain, "error", err.Error())
		return
	}

	found := false
	for _, rec := range records {
		if rec.ID() != customerID {
			continue
		}
		found = true

		key := dynamicResultsKey
		if infoTool {
			key = infoResultsKey
		}

		section, ok := rec[key].(map[string]any)
		if !ok {
			section = map[string]any{}
			rec[key] = section
		}

		section[toolName] = serializable(result)

		break
	}

	if !found {
		s.logger.Warn("dynamic_store.customer_not_found", "customer_id", customerID, "domain", domain)
		return
	}

	if err := saveRecords(s.outputDir, domain, records); err != nil {
		s.logger.Warn("dynamic_store.save_failed", "domain", domain, "error", err.Error())
		return
	}

	s.logger.Debug("dynamic_store.saved", "customer_id", customerID, "domain", domain, "tool", toolName)
}

// serializable returns the result unchanged when it survives a JSON
// round-trip, otherwise its string rendering.
func serializable(result any) any {
	if _, err := json.Marshal(result); err != nil {
		return fmt.Sprintf("%v", result)
	}
	return result
}
