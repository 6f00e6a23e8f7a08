package store

import (
	"context"
	"sync"
)

// MemoryStore is a mutex-guarded in-memory triple store. Deterministic and
// dependency-free, it backs tests and single-process deployments.
type MemoryStore struct {
	mu       sync.Mutex
	subjects map[string]map[string]Triple // subject -> triple key -> triple

	// ExistsHook, when set, is invoked inside the store lock on every
	// Exists call. Concurrency tests use it to serialize and observe
	// uniqueness checks.
	ExistsHook func(identifier string, exists bool)
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subjects: make(map[string]map[string]Triple),
	}
}

// LoadTriples returns all triples for the subject. Unknown subjects yield
// an empty slice.
func (s *MemoryStore) LoadTriples(_ context.Context, subject string) ([]Triple, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	triples := make([]Triple, 0, len(s.subjects[subject]))
	for _, t := range s.subjects[subject] {
		triples = append(triples, t)
	}
	return triples, nil
}

// ApplyDiff removes then adds triples for one subject under the store lock
func (s *MemoryStore) ApplyDiff(_ context.Context, subject string, add, remove []Triple) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.subjects[subject]
	if current == nil {
		current = make(map[string]Triple)
		s.subjects[subject] = current
	}
	for _, t := range remove {
		delete(current, t.Key())
	}
	for _, t := range add {
		current[t.Key()] = t
	}
	if len(current) == 0 {
		delete(s.subjects, subject)
	}
	return nil
}

// Exists reports whether any triple is stored for the identifier
func (s *MemoryStore) Exists(_ context.Context, identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists := len(s.subjects[identifier]) > 0
	if s.ExistsHook != nil {
		s.ExistsHook(identifier, exists)
	}
	return exists, nil
}

// DeleteAll removes every triple for the subject
func (s *MemoryStore) DeleteAll(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.subjects, subject)
	return nil
}

// TripleCount returns the number of stored triples for a subject.
// Test helper.
func (s *MemoryStore) TripleCount(subject string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subjects[subject])
}
