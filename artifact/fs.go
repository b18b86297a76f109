package artifact

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore persists artifacts on the local filesystem under a root
// directory. Scopes map to subdirectories (slashes in the scope become
// nested directories) and artifact ids to files within them.
type FileStore struct {
	root string
	mu   sync.Mutex
}

// NewFileStore creates a filesystem backed store rooted at dir. The root is
// created lazily on the first Save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

func (s *FileStore) scopeDir(scope string) string {
	parts := strings.Split(scope, "/")
	return filepath.Join(append([]string{s.root}, parts...)...)
}

// Save writes the artifact bytes, creating scope directories as needed.
func (s *FileStore) Save(scope, artifactID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.scopeDir(scope)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, artifactID), data, 0o644)
}

// Get reads the artifact bytes or returns ErrNotFound.
func (s *FileStore) Get(scope, artifactID string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.scopeDir(scope), artifactID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// List returns the artifact ids stored for the scope. A missing scope
// directory yields an empty slice, not an error.
func (s *FileStore) List(scope string) ([]string, error) {
	entries, err := os.ReadDir(s.scopeDir(scope))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// Delete removes the artifact file or returns ErrNotFound.
func (s *FileStore) Delete(scope, artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.scopeDir(scope), artifactID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
