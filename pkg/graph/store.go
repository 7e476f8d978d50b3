package graph

import "context"

// EntityFilter selects entities. Zero-valued fields match everything.
type EntityFilter struct {
	Kind EntityKind
	Name string
	File string

	// ReferenceOnly selects placeholder entities; ConcreteOnly selects
	// defined ones. Setting both matches nothing.
	ReferenceOnly bool
	ConcreteOnly  bool
}

// Matches reports whether the filter selects the entity.
func (f EntityFilter) Matches(e Entity) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Name != "" && e.Name != f.Name {
		return false
	}
	if f.File != "" && e.File != f.File {
		return false
	}
	if f.ReferenceOnly && !e.IsReference {
		return false
	}
	if f.ConcreteOnly && e.IsReference {
		return false
	}
	return true
}

// RelFilter selects relationships. Zero-valued fields match everything.
type RelFilter struct {
	Kind RelKind
	From *Key
	To   *Key
}

// Matches reports whether the filter selects the relationship.
func (f RelFilter) Matches(r Relationship) bool {
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.From != nil && r.From != *f.From {
		return false
	}
	if f.To != nil && r.To != *f.To {
		return false
	}
	return true
}

// Store is the sink a scan writes the code graph into. Implementations must
// make UpsertEntity merge non-zero fields into any existing entity with the
// same Key, and must deduplicate relationships by Identity.
type Store interface {
	// Ping verifies the store is reachable before a scan begins.
	Ping(ctx context.Context) error

	// Clear removes every entity and relationship.
	Clear(ctx context.Context) error

	UpsertEntity(ctx context.Context, e Entity) error
	UpsertRelationship(ctx context.Context, r Relationship) error

	DeleteEntity(ctx context.Context, k Key) error
	DeleteRelationship(ctx context.Context, r Relationship) error

	Entities(ctx context.Context, f EntityFilter) ([]Entity, error)
	Relationships(ctx context.Context, f RelFilter) ([]Relationship, error)
}
