// Package trace records session trajectories and token usage as JSONL files,
// one line per event, for offline evaluation of completed conversations.
package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hupe1980/deskflow/logging"
)

// Event types emitted into trajectory files.
const (
	EventUserID        = "user_id"
	EventUserInput     = "user_input"
	EventAgentResponse = "agent_response"
	EventToolCalled    = "tool_called"
	EventToolOutput    = "tool_output"
	EventError         = "error"
)

// Entry is one trajectory line.
type Entry struct {
	EventType string         `json:"event_type"`
	Data      map[string]any `json:"data"`
	Timestamp float64        `json:"timestamp"`
}

// Recorder buffers trajectory entries for one session and flushes them to a
// JSONL file. Log is cheap and never fails; Flush performs the actual write.
type Recorder struct {
	mu      sync.Mutex
	path    string
	entries []Entry
	now     func() time.Time
	logger  logging.Logger
}

// RecorderOptions configure a Recorder.
type RecorderOptions struct {
	Logger logging.Logger
	// Now overrides the clock, for deterministic timestamps in tests.
	Now func() time.Time
}

// NewRecorder creates a recorder that will flush to path. Parent directories
// are created eagerly and a stale file from an earlier run is removed so the
// trajectory always reflects a single session.
func NewRecorder(path string, optFns ...func(o *RecorderOptions)) (*Recorder, error) {
	opts := RecorderOptions{Logger: logging.NoOpLogger{}, Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create trajectory dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale trajectory: %w", err)
	}

	return &Recorder{
		path:   path,
		now:    opts.Now,
		logger: opts.Logger,
	}, nil
}

// Log buffers an entry. Data values that cannot be marshaled are replaced by
// a string rendering so one odd value never poisons the whole line.
func (r *Recorder) Log(eventType string, data map[string]any) {
	clean := make(map[string]any, len(data))
	for k, v := range data {
		if _, err := json.Marshal(v); err != nil {
			clean[k] = fmt.Sprintf("%v", v)
			continue
		}
		clean[k] = v
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, Entry{
		EventType: eventType,
		Data:      clean,
		Timestamp: float64(r.now().UnixNano()) / float64(time.Second),
	})
}

// Path returns the trajectory file location.
func (r *Recorder) Path() string {
	return r.path
}

// Entries returns a snapshot of the buffered entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Flush appends the buffered entries to the trajectory file and clears the
// buffer. Safe to call multiple times.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	entries := r.entries
	r.entries = nil
	r.mu.Unlock()

	if len(entries) == 0 {
		return nil
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open trajectory: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			r.logger.Warn("trace.encode_failed", "event_type", e.EventType, "error", err.Error())
		}
	}

	return nil
}

// ReadEntries parses a trajectory file back into entries.
func ReadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trajectory: %w", err)
	}
	defer f.Close()

	var entries []Entry

	dec := json.NewDecoder(f)
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode trajectory: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, nil
}
