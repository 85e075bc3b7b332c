package memory

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/aretw0/speriment/pkg/domain"
)

// Store implements ports.ArtifactStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save keeps a private copy of the artifact.
func (s *Store) Save(ctx context.Context, name string, artifact []byte) error {
	if !domain.ValidVariableName(name) {
		return domain.ErrInvalidVariableName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = bytes.Clone(artifact)
	return nil
}

// Load returns a copy so callers cannot mutate the stored bytes.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifact, ok := s.data[name]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	return bytes.Clone(artifact), nil
}

// Delete removes the artifact.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

// List returns stored artifact names.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
