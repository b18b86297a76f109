package artifact

// Store persists named artifacts grouped by scope. Implementations must be
// safe for concurrent use; the personalization coordinator saves routines
// from background goroutines.
type Store interface {
	// Save stores (or overwrites) the artifact bytes for the given scope and id.
	Save(scope, artifactID string, data []byte) error

	// Get returns the stored artifact bytes or ErrNotFound.
	Get(scope, artifactID string) ([]byte, error)

	// List returns the artifact ids stored for the scope.
	List(scope string) ([]string, error)

	// Delete removes the artifact if present or returns ErrNotFound.
	Delete(scope, artifactID string) error
}
