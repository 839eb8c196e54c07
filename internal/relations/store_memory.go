package relations

import (
	"context"
	"fmt"
	"sync"
)

// NewInMemoryStore returns a Store backed by an in-memory map. The map key
// mirrors the composite uniqueness constraint of the persistent store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{relations: make(map[string]Relation)}
}

// InMemoryStore implements Store for tests and local development.
type InMemoryStore struct {
	mu        sync.Mutex
	relations map[string]Relation
}

func relationKey(actor string, kind Kind, target string) string {
	return fmt.Sprintf("%s|%s|%s", actor, kind, target)
}

// Create inserts the relation, failing when the composite key already exists.
func (s *InMemoryStore) Create(_ context.Context, rel Relation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := relationKey(rel.ActorID, rel.Kind, rel.TargetID)
	if _, ok := s.relations[key]; ok {
		return ErrRelationExists
	}
	s.relations[key] = rel
	return nil
}

// Delete removes the relation, reporting ErrRelationMissing when absent.
func (s *InMemoryStore) Delete(_ context.Context, actor string, kind Kind, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := relationKey(actor, kind, target)
	if _, ok := s.relations[key]; !ok {
		return ErrRelationMissing
	}
	delete(s.relations, key)
	return nil
}

// Exists reports whether the relation record is present.
func (s *InMemoryStore) Exists(_ context.Context, actor string, kind Kind, target string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.relations[relationKey(actor, kind, target)]
	return ok, nil
}

// Len reports the number of stored relations. Useful for tests.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.relations)
}
