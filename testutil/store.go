package testutil

import (
	"context"
	"sync"

	"github.com/c360/semmodel/store"
)

// ScriptedStore is a triple store for lifecycle tests: a MemoryStore with
// error injection and call recording on top. The zero value is not usable;
// create one with NewScriptedStore.
type ScriptedStore struct {
	mem *store.MemoryStore

	mu        sync.Mutex
	applyErrs []error

	// Errors returned by the respective operations when non-nil.
	LoadErr   error
	ExistsErr error
	DeleteErr error

	// ApplyDiff call recording.
	ApplyCalls int
	LastAdd    []store.Triple
	LastRemove []store.Triple
}

// NewScriptedStore creates a scripted store over a fresh MemoryStore.
func NewScriptedStore() *ScriptedStore {
	return &ScriptedStore{mem: store.NewMemoryStore()}
}

// FailNextApply queues an error for a future ApplyDiff call. Queued
// errors are consumed in order before any write reaches the inner store.
func (s *ScriptedStore) FailNextApply(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyErrs = append(s.applyErrs, err)
}

// LoadTriples delegates to the inner store unless LoadErr is set.
func (s *ScriptedStore) LoadTriples(ctx context.Context, subject string) ([]store.Triple, error) {
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	return s.mem.LoadTriples(ctx, subject)
}

// ApplyDiff records the diff, consumes a queued failure if one exists,
// and otherwise delegates to the inner store.
func (s *ScriptedStore) ApplyDiff(ctx context.Context, subject string, add, remove []store.Triple) error {
	s.mu.Lock()
	s.ApplyCalls++
	s.LastAdd = append([]store.Triple(nil), add...)
	s.LastRemove = append([]store.Triple(nil), remove...)
	var err error
	if len(s.applyErrs) > 0 {
		err = s.applyErrs[0]
		s.applyErrs = s.applyErrs[1:]
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	return s.mem.ApplyDiff(ctx, subject, add, remove)
}

// Exists delegates to the inner store unless ExistsErr is set.
func (s *ScriptedStore) Exists(ctx context.Context, identifier string) (bool, error) {
	if s.ExistsErr != nil {
		return false, s.ExistsErr
	}
	return s.mem.Exists(ctx, identifier)
}

// DeleteAll delegates to the inner store unless DeleteErr is set.
func (s *ScriptedStore) DeleteAll(ctx context.Context, subject string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	return s.mem.DeleteAll(ctx, subject)
}

// TripleCount reports the stored triple count for a subject.
func (s *ScriptedStore) TripleCount(subject string) int {
	return s.mem.TripleCount(subject)
}
