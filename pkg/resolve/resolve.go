// Package resolve runs the reconciliation pass that turns placeholder call
// targets into edges against concrete definitions. Extraction always writes
// CALLS edges to name-keyed placeholders; running this pass after every file
// has been applied makes the final graph independent of file order.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/codegraph-labs/codegraph/pkg/graph"
)

// Stats summarizes one reconciliation pass.
type Stats struct {
	// ResolvedCalls is the number of call edges rewritten to concrete
	// definitions.
	ResolvedCalls int

	// RemovedPlaceholders is the number of placeholder functions deleted
	// because a definition was found.
	RemovedPlaceholders int

	// UnresolvedRefs is the number of placeholders left in the graph with
	// no definition anywhere in the scanned tree.
	UnresolvedRefs int
}

// Reconcile rewrites placeholder-targeted CALLS edges to every concrete
// function sharing the callee name, then removes the superseded
// placeholders. A callee name matches a definition with that exact name,
// or a class member whose plain name matches: call sites record `post`
// while the definition is keyed `Ledger.post`. Placeholders with no
// definition stay in the graph as unresolved references.
func Reconcile(ctx context.Context, store graph.Store) (Stats, error) {
	var stats Stats

	functions, err := store.Entities(ctx, graph.EntityFilter{Kind: graph.KindFunction})
	if err != nil {
		return stats, fmt.Errorf("loading functions: %w", err)
	}

	concrete := make(map[string][]graph.Key)
	byPlainName := make(map[string][]graph.Key)
	placeholders := make(map[string]graph.Key)
	for _, fn := range functions {
		if fn.IsReference {
			placeholders[fn.Name] = fn.Key()
			continue
		}
		concrete[fn.Name] = append(concrete[fn.Name], fn.Key())
		if plain := plainName(fn.Name); plain != fn.Name {
			byPlainName[plain] = append(byPlainName[plain], fn.Key())
		}
	}

	definitions := func(name string) []graph.Key {
		if targets := concrete[name]; len(targets) > 0 {
			return targets
		}
		return byPlainName[name]
	}

	calls, err := store.Relationships(ctx, graph.RelFilter{Kind: graph.RelCalls})
	if err != nil {
		return stats, fmt.Errorf("loading call edges: %w", err)
	}

	for _, call := range calls {
		if call.To.File != "" {
			continue // already concrete
		}
		targets := definitions(call.To.Name)
		if len(targets) == 0 {
			continue
		}
		// A name defined in several files gets an edge per definition;
		// without type information every candidate is plausible.
		for _, target := range targets {
			rewritten := call
			rewritten.To = target
			if err := store.UpsertRelationship(ctx, rewritten); err != nil {
				return stats, fmt.Errorf("rewriting call edge: %w", err)
			}
		}
		if err := store.DeleteRelationship(ctx, call); err != nil {
			return stats, fmt.Errorf("removing placeholder edge: %w", err)
		}
		stats.ResolvedCalls++
	}

	for name, key := range placeholders {
		if len(definitions(name)) == 0 {
			stats.UnresolvedRefs++
			continue
		}
		if err := store.DeleteEntity(ctx, key); err != nil {
			return stats, fmt.Errorf("removing placeholder %s: %w", name, err)
		}
		stats.RemovedPlaceholders++
	}

	return stats, nil
}

func plainName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
