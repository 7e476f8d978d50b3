// Package memstore provides an in-memory graph.Store. It is the default
// sink for scans and the working set the query layer reads from.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/codegraph-labs/codegraph/pkg/graph"
)

// Store holds the graph in memory. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	entities map[graph.Key]graph.Entity
	rels     map[string]graph.Relationship
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entities: make(map[graph.Key]graph.Entity),
		rels:     make(map[string]graph.Relationship),
	}
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Clear removes every entity and relationship.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = make(map[graph.Key]graph.Entity)
	s.rels = make(map[string]graph.Relationship)
	return nil
}

// UpsertEntity inserts the entity or merges its non-zero fields into the
// existing entity with the same key.
func (s *Store) UpsertEntity(ctx context.Context, e graph.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := e.Key()
	existing, ok := s.entities[key]
	if !ok {
		s.entities[key] = e
		return nil
	}
	s.entities[key] = merge(existing, e)
	return nil
}

func merge(old, upd graph.Entity) graph.Entity {
	if upd.Line != 0 {
		old.Line = upd.Line
	}
	if upd.EndLine != 0 {
		old.EndLine = upd.EndLine
	}
	if upd.Length != 0 {
		old.Length = upd.Length
	}
	if upd.Value != "" {
		old.Value = upd.Value
	}
	if upd.ValueType != "" {
		old.ValueType = upd.ValueType
	}
	if upd.Scope != "" {
		old.Scope = upd.Scope
	}
	if upd.Language != "" {
		old.Language = upd.Language
	}
	old.IsTest = old.IsTest || upd.IsTest
	old.IsExample = old.IsExample || upd.IsExample
	old.IsMain = old.IsMain || upd.IsMain
	old.IsClassMember = old.IsClassMember || upd.IsClassMember
	return old
}

// UpsertRelationship inserts the relationship, deduplicated by identity.
func (s *Store) UpsertRelationship(ctx context.Context, r graph.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rels[r.Identity()] = r
	return nil
}

// DeleteEntity removes the entity and every edge touching it.
func (s *Store) DeleteEntity(ctx context.Context, k graph.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities, k)
	for id, r := range s.rels {
		if r.From == k || r.To == k {
			delete(s.rels, id)
		}
	}
	return nil
}

// DeleteRelationship removes one relationship by identity.
func (s *Store) DeleteRelationship(ctx context.Context, r graph.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rels, r.Identity())
	return nil
}

// Entities returns entities matching the filter, ordered by key.
func (s *Store) Entities(ctx context.Context, f graph.EntityFilter) ([]graph.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []graph.Entity
	for _, e := range s.entities {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().String() < out[j].Key().String()
	})
	return out, nil
}

// Relationships returns relationships matching the filter, ordered by
// identity.
func (s *Store) Relationships(ctx context.Context, f graph.RelFilter) ([]graph.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []graph.Relationship
	for _, r := range s.rels {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Identity() < out[j].Identity()
	})
	return out, nil
}

// Export returns a copy of the full graph for snapshotting.
func (s *Store) Export() ([]graph.Entity, []graph.Relationship) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entities := make([]graph.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		entities = append(entities, e)
	}
	rels := make([]graph.Relationship, 0, len(s.rels))
	for _, r := range s.rels {
		rels = append(rels, r)
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].Key().String() < entities[j].Key().String()
	})
	sort.Slice(rels, func(i, j int) bool {
		return rels[i].Identity() < rels[j].Identity()
	})
	return entities, rels
}

// Import replaces the store contents with a snapshot.
func (s *Store) Import(entities []graph.Entity, rels []graph.Relationship) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = make(map[graph.Key]graph.Entity, len(entities))
	for _, e := range entities {
		s.entities[e.Key()] = e
	}
	s.rels = make(map[string]graph.Relationship, len(rels))
	for _, r := range rels {
		s.rels[r.Identity()] = r
	}
}

var _ graph.Store = (*Store)(nil)
