// Package coverage derives TESTS edges linking test functions to the code
// they exercise. Three heuristics contribute edges, each tagged with its
// derivation method: naming_pattern strips a configured test prefix and
// matches the remainder against function names, import links a test to the
// names its file imports, and call links a test to the functions it calls
// directly. The pass runs after reconciliation so every edge targets a
// concrete definition.
package coverage

import (
	"context"
	"fmt"
	"strings"

	"github.com/codegraph-labs/codegraph/pkg/config"
	"github.com/codegraph-labs/codegraph/pkg/graph"
)

// Stats counts derived edges per heuristic.
type Stats struct {
	NamingPattern int
	Import        int
	Call          int
}

// Total returns the number of derived edges across heuristics.
func (s Stats) Total() int {
	return s.NamingPattern + s.Import + s.Call
}

// Deriver computes TESTS edges over a populated store.
type Deriver struct {
	prefixes []string
}

// New creates a deriver using the configured test function prefixes.
func New(cfg config.ClassifyConfig) *Deriver {
	return &Deriver{prefixes: cfg.TestFuncPrefixes}
}

// Derive runs all three heuristics and writes TESTS edges into the store.
func (d *Deriver) Derive(ctx context.Context, store graph.Store) (Stats, error) {
	var stats Stats

	functions, err := store.Entities(ctx, graph.EntityFilter{Kind: graph.KindFunction, ConcreteOnly: true})
	if err != nil {
		return stats, fmt.Errorf("loading functions: %w", err)
	}

	// Index concrete non-test functions by their plain (member) name.
	byPlainName := make(map[string][]graph.Entity)
	byName := make(map[string][]graph.Entity)
	var testFns []graph.Entity
	testFnKeys := make(map[graph.Key]graph.Entity)
	testFnsByFile := make(map[string][]graph.Entity)
	for _, fn := range functions {
		if fn.IsTest {
			testFns = append(testFns, fn)
			testFnKeys[fn.Key()] = fn
			testFnsByFile[fn.File] = append(testFnsByFile[fn.File], fn)
			continue
		}
		byPlainName[plainName(fn.Name)] = append(byPlainName[plainName(fn.Name)], fn)
		byName[fn.Name] = append(byName[fn.Name], fn)
	}

	n, err := d.deriveNaming(ctx, store, testFns, byPlainName)
	if err != nil {
		return stats, err
	}
	stats.NamingPattern = n

	n, err = d.deriveImports(ctx, store, testFnKeys, testFnsByFile, byName)
	if err != nil {
		return stats, err
	}
	stats.Import = n

	n, err = d.deriveCalls(ctx, store, testFnKeys)
	if err != nil {
		return stats, err
	}
	stats.Call = n

	return stats, nil
}

// deriveNaming links test_foo to every function named foo.
func (d *Deriver) deriveNaming(ctx context.Context, store graph.Store, testFns []graph.Entity, byPlainName map[string][]graph.Entity) (int, error) {
	count := 0
	for _, fn := range testFns {
		target := d.stripPrefix(plainName(fn.Name))
		if target == "" {
			continue
		}
		for _, subject := range byPlainName[target] {
			if err := store.UpsertRelationship(ctx, graph.Relationship{
				Kind:   graph.RelTests,
				From:   fn.Key(),
				To:     subject.Key(),
				Method: graph.MethodNamingPattern,
			}); err != nil {
				return count, fmt.Errorf("writing naming edge: %w", err)
			}
			count++
		}
	}
	return count, nil
}

// deriveImports links test functions to the functions their file imports.
// Function-scoped imports attach to that function only; module-level
// imports attach to every test function in the file.
func (d *Deriver) deriveImports(ctx context.Context, store graph.Store, testFnKeys map[graph.Key]graph.Entity, testFnsByFile map[string][]graph.Entity, byName map[string][]graph.Entity) (int, error) {
	imports, err := store.Relationships(ctx, graph.RelFilter{Kind: graph.RelImports})
	if err != nil {
		return 0, fmt.Errorf("loading import edges: %w", err)
	}

	count := 0
	seen := make(map[string]bool)
	for _, imp := range imports {
		subjects := byName[imp.To.Name]
		if len(subjects) == 0 {
			continue
		}

		var sources []graph.Entity
		if fn, ok := testFnKeys[imp.From]; ok {
			sources = []graph.Entity{fn}
		} else if imp.From.Kind == graph.KindFile {
			sources = testFnsByFile[imp.From.File]
		}

		for _, src := range sources {
			for _, subject := range subjects {
				edge := graph.Relationship{
					Kind:   graph.RelTests,
					From:   src.Key(),
					To:     subject.Key(),
					Method: graph.MethodImport,
				}
				if seen[edge.Identity()] {
					continue
				}
				seen[edge.Identity()] = true
				if err := store.UpsertRelationship(ctx, edge); err != nil {
					return count, fmt.Errorf("writing import edge: %w", err)
				}
				count++
			}
		}
	}
	return count, nil
}

// deriveCalls links test functions to everything they call directly.
func (d *Deriver) deriveCalls(ctx context.Context, store graph.Store, testFnKeys map[graph.Key]graph.Entity) (int, error) {
	calls, err := store.Relationships(ctx, graph.RelFilter{Kind: graph.RelCalls})
	if err != nil {
		return 0, fmt.Errorf("loading call edges: %w", err)
	}

	count := 0
	seen := make(map[string]bool)
	for _, call := range calls {
		fn, ok := testFnKeys[call.From]
		if !ok {
			continue
		}
		// Unresolved placeholders and calls between tests derive nothing.
		if call.To.File == "" {
			continue
		}
		if _, isTest := testFnKeys[call.To]; isTest {
			continue
		}
		edge := graph.Relationship{
			Kind:   graph.RelTests,
			From:   fn.Key(),
			To:     call.To,
			Method: graph.MethodCall,
		}
		if seen[edge.Identity()] {
			continue
		}
		seen[edge.Identity()] = true
		if err := store.UpsertRelationship(ctx, edge); err != nil {
			return count, fmt.Errorf("writing call edge: %w", err)
		}
		count++
	}
	return count, nil
}

func (d *Deriver) stripPrefix(name string) string {
	for _, prefix := range d.prefixes {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			return name[len(prefix):]
		}
	}
	return ""
}

func plainName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
