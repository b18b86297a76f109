// Package core provides the foundational domain types used by DeskFlow. It
// defines the core abstractions for:
//
//   - Content and Parts (role-based message segments, function calls/responses)
//   - AgentState (the closed forward-only handoff pipeline)
//   - TerminationReason (why a session ended)
//   - CustomerContext (per-session customer identity and gathered facts)
//   - ToolContext (scoped tool sandboxing)
//
// The package intentionally keeps implementation concerns (persistence,
// session orchestration, concrete tools) out of scope, exposing small types
// to enable custom backends and extensions.
package core
