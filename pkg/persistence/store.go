package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bacnode-protocol/bacnode-go/pkg/node"
)

// Store persists device backups to a single JSON file.
// It is safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
}

// Compile-time interface satisfaction check.
var _ node.BackupStore = (*Store)(nil)

// NewStore creates a store writing to the given path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Save writes the backup, overwriting any prior snapshot.
func (s *Store) Save(b *node.Backup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	b.Version = node.BackupVersion
	if b.SavedAt.IsZero() {
		b.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the last saved snapshot.
// Returns node.ErrNoBackup when nothing has been saved.
func (s *Store) Load() (*node.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, node.ErrNoBackup
	}
	if err != nil {
		return nil, err
	}

	b := &node.Backup{}
	if err := json.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	return b, nil
}

// Clear removes the backup file. Clearing an empty store is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
