// Package evaluation computes offline metrics over recorded trajectories:
// intent accuracy, turn counts, perceived latency, error counts and tool-call
// precision/recall against a reference sequence.
package evaluation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/deskflow/tool"
	"github.com/hupe1980/deskflow/trace"
)

// Report summarizes one trajectory.
type Report struct {
	UserID       string
	Intent       string
	IntentMatch  bool
	Turns        int
	Errors       int
	AvgLatency   float64
	ToolSequence []string
}

// Evaluate builds a report for a trajectory against the intent the customer
// was scripted with.
func Evaluate(entries []trace.Entry, expectedIntent string) *Report {
	userID, intent := ExtractUserIntent(entries)

	return &Report{
		UserID:       userID,
		Intent:       intent,
		IntentMatch:  intent != "" && intent == expectedIntent,
		Turns:        CountTurns(entries),
		Errors:       CountErrors(entries),
		AvgLatency:   AverageLatency(entries),
		ToolSequence: ToolSequence(entries),
	}
}

// ExtractUserIntent pulls the customer id and the first routed intent out of
// a trajectory.
func ExtractUserIntent(entries []trace.Entry) (userID, intent string) {
	for _, e := range entries {
		switch e.EventType {
		case trace.EventUserID:
			userID = stringify(e.Data["id"])
		case trace.EventToolCalled:
			if stringify(e.Data["tool_name"]) != tool.IntentToolName {
				continue
			}
			var args struct {
				Intent string `json:"intent"`
			}
			raw, _ := e.Data["arguments"].(string)
			if err := json.Unmarshal([]byte(raw), &args); err == nil {
				intent = args.Intent
			}
			return userID, intent
		}
	}
	return userID, intent
}

// ToolSequence produces the chronological list of agent switches and tool
// calls, as "agent: X" and "tool: name(args)" entries. Consecutive duplicate
// agents collapse to one entry; error events are skipped.
func ToolSequence(entries []trace.Entry) []string {
	var sequence []string
	lastAgent := ""

	for _, e := range entries {
		if e.EventType == trace.EventError {
			continue
		}

		if agent := stringify(e.Data["current_agent"]); agent != "" && agent != lastAgent {
			sequence = append(sequence, "agent: "+agent)
			lastAgent = agent
		}

		if e.EventType == trace.EventToolCalled {
			name := stringify(e.Data["tool_name"])
			args, _ := e.Data["arguments"].(string)
			sequence = append(sequence, fmt.Sprintf("tool: %s(%s)", name, args))
		}
	}

	return sequence
}

// CountTurns counts the user inputs in a trajectory.
func CountTurns(entries []trace.Entry) int {
	n := 0
	for _, e := range entries {
		if e.EventType == trace.EventUserInput {
			n++
		}
	}
	return n
}

// CountErrors counts the error events in a trajectory.
func CountErrors(entries []trace.Entry) int {
	n := 0
	for _, e := range entries {
		if e.EventType == trace.EventError {
			n++
		}
	}
	return n
}

// AverageLatency returns the mean user-perceived latency over all agent
// responses, in seconds. Zero when the trajectory has none.
func AverageLatency(entries []trace.Entry) float64 {
	var sum float64
	n := 0

	for _, e := range entries {
		if e.EventType != trace.EventAgentResponse {
			continue
		}
		if v, ok := e.Data["user_perceived_latency"].(float64); ok {
			sum += v
			n++
		}
	}

	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Metrics holds multiset precision, recall and F1 of tool names.
type Metrics struct {
	Precision float64
	Recall    float64
	F1        float64
}

// ToolMetrics compares predicted against reference tool calls, ignoring
// parameters and order. Calls are compared as multisets of tool names.
func ToolMetrics(predicted, reference []string) Metrics {
	predCounts := nameCounts(predicted)
	refCounts := nameCounts(reference)

	matched := 0
	for name, refN := range refCounts {
		if predN, ok := predCounts[name]; ok {
			if predN < refN {
				matched += predN
			} else {
				matched += refN
			}
		}
	}

	var m Metrics
	if len(predicted) > 0 {
		m.Precision = float64(matched) / float64(len(predicted))
	}
	if len(reference) > 0 {
		m.Recall = float64(matched) / float64(len(reference))
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}

	return m
}

// toolName strips the parameter list from a "tool: name(args)" entry.
func toolName(call string) string {
	if i := strings.Index(call, "("); i >= 0 {
		call = call[:i]
	}
	return strings.TrimSpace(strings.TrimPrefix(call, "tool:"))
}

func nameCounts(calls []string) map[string]int {
	counts := make(map[string]int, len(calls))
	for _, c := range calls {
		counts[toolName(c)]++
	}
	return counts
}

// stringify renders ids that may arrive as JSON numbers.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
