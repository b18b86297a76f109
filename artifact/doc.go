// Package artifact contains the Store contract and concrete implementations
// used to persist session byproducts such as personalized routine texts.
//
// Artifacts are grouped by a caller-chosen scope (for example
// "trimmed_routines/gpt/parallel_Basic/update_address") and addressed by an
// id within that scope. Implementation packages (in-memory, filesystem)
// provide storage backends that can be swapped without touching calling code.
//
// Callers should depend on the Store interface rather than concrete types so
// they can substitute alternative persistence layers in tests or production.
package artifact
