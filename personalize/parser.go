// Package personalize runs a background model pass that trims an intent's
// full routine to the steps and tools one specific customer actually needs.
// The coordinator hands out Tasks whose Await acts as a join barrier for the
// fulfillment handoff.
package personalize

import (
	"regexp"
	"strings"
)

// toolListPattern matches the "available_tools = [...]" assignment the
// personalizer model is instructed to emit at the end of its routine.
var toolListPattern = regexp.MustCompile(`available_tools\s*=\s*\[([^\]]*)\]`)

// ExtractToolNames parses the tool list out of a trimmed routine. Missing or
// malformed assignments yield an empty slice, never an error; the caller
// treats that as "keep the full tool set".
func ExtractToolNames(routine string) []string {
	m := toolListPattern.FindStringSubmatch(routine)
	if m == nil {
		return nil
	}

	var names []string
	for _, part := range strings.Split(m[1], ",") {
		name := strings.TrimSpace(part)
		name = strings.Trim(name, `"'`)
		if name != "" {
			names = append(names, name)
		}
	}

	return names
}
