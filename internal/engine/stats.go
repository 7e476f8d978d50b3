package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/codegraph-labs/codegraph/pkg/coverage"
	"github.com/codegraph-labs/codegraph/pkg/graph"
)

// FileError records a file that could not be processed.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Stats summarizes one scan.
type Stats struct {
	FilesFound   int         `json:"files_found"`
	FilesScanned int         `json:"files_scanned"`
	Errors       []FileError `json:"errors,omitempty"`

	Entities      map[graph.EntityKind]int `json:"entities"`
	Relationships map[graph.RelKind]int    `json:"relationships"`

	ImportsRecorded int            `json:"imports_recorded"`
	ResolvedCalls   int            `json:"resolved_calls"`
	UnresolvedRefs  int            `json:"unresolved_refs"`
	Coverage        coverage.Stats `json:"coverage"`

	Duration time.Duration `json:"duration"`
}

func newStats() *Stats {
	return &Stats{
		Entities:      make(map[graph.EntityKind]int),
		Relationships: make(map[graph.RelKind]int),
	}
}

// FilesFailed is the number of files skipped due to errors.
func (s *Stats) FilesFailed() int {
	return len(s.Errors)
}

func (s *Stats) addError(path string, err error) {
	s.Errors = append(s.Errors, FileError{Path: path, Err: err.Error()})
}

// countStore tallies the final entity and relationship counts per kind.
func (s *Stats) countStore(ctx context.Context, store graph.Store) error {
	entities, err := store.Entities(ctx, graph.EntityFilter{})
	if err != nil {
		return fmt.Errorf("counting entities: %w", err)
	}
	for _, e := range entities {
		s.Entities[e.Kind]++
	}

	rels, err := store.Relationships(ctx, graph.RelFilter{})
	if err != nil {
		return fmt.Errorf("counting relationships: %w", err)
	}
	for _, r := range rels {
		s.Relationships[r.Kind]++
	}
	return nil
}
