// Package engine orchestrates a scan: it walks the tree, parses and
// extracts files on a worker pool, applies the results to the graph store
// in a deterministic order, then runs the reconciliation and coverage
// passes. The store is cleared before every scan, so scanning is
// idempotent.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/codegraph-labs/codegraph/internal/scanner"
	"github.com/codegraph-labs/codegraph/pkg/classify"
	"github.com/codegraph-labs/codegraph/pkg/config"
	"github.com/codegraph-labs/codegraph/pkg/coverage"
	"github.com/codegraph-labs/codegraph/pkg/extract"
	"github.com/codegraph-labs/codegraph/pkg/graph"
	"github.com/codegraph-labs/codegraph/pkg/parser"
	"github.com/codegraph-labs/codegraph/pkg/resolve"
)

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// Engine runs scans against a graph store.
type Engine struct {
	cfg        *config.Config
	store      graph.Store
	classifier *classify.Classifier
	extractor  *extract.Extractor
	scanner    *scanner.Scanner
}

// New creates an engine. The config must already be validated.
func New(cfg *config.Config, store graph.Store) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	classifier, err := classify.New(cfg.Classify)
	if err != nil {
		return nil, fmt.Errorf("building classifier: %w", err)
	}
	return &Engine{
		cfg:        cfg,
		store:      store,
		classifier: classifier,
		extractor:  extract.New(classifier),
		scanner:    scanner.New(cfg),
	}, nil
}

// Scan builds the code graph for the tree rooted at root. The previous
// graph contents are cleared first. Individual file failures are recorded
// in the stats and do not abort the scan; an unreachable store does.
func (e *Engine) Scan(ctx context.Context, root string, onProgress ProgressFunc) (*Stats, error) {
	start := time.Now()

	if err := e.store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("graph store unreachable: %w", err)
	}
	if err := e.store.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clearing graph store: %w", err)
	}

	files, err := e.scanner.ScanDir(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	stats := newStats()
	stats.FilesFound = len(files)

	extracts := e.extractFiles(root, files, stats, onProgress)

	// Apply in path order so repeated scans produce identical stores.
	sort.Slice(extracts, func(i, j int) bool { return extracts[i].Path < extracts[j].Path })
	for _, fe := range extracts {
		if err := e.apply(ctx, fe, stats); err != nil {
			return nil, fmt.Errorf("applying %s: %w", fe.Path, err)
		}
	}

	resolveStats, err := resolve.Reconcile(ctx, e.store)
	if err != nil {
		return nil, fmt.Errorf("reconciling references: %w", err)
	}
	stats.ResolvedCalls = resolveStats.ResolvedCalls
	stats.UnresolvedRefs = resolveStats.UnresolvedRefs

	coverStats, err := coverage.New(e.cfg.Classify).Derive(ctx, e.store)
	if err != nil {
		return nil, fmt.Errorf("deriving coverage: %w", err)
	}
	stats.Coverage = coverStats

	if err := stats.countStore(ctx, e.store); err != nil {
		return nil, err
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

// extractFiles parses and extracts files on a worker pool. Each worker
// owns a parser; results and errors funnel through one mutex.
func (e *Engine) extractFiles(root string, files []string, stats *Stats, onProgress ProgressFunc) []*extract.FileExtract {
	workers := e.cfg.Scan.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	extracts := make([]*extract.FileExtract, 0, len(files))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(workers)
	for _, relPath := range files {
		p.Go(func() {
			psr := parser.New()
			defer psr.Close()

			res, err := psr.ParseFile(filepath.Join(root, relPath))
			if onProgress != nil {
				onProgress()
			}
			if err != nil {
				mu.Lock()
				stats.addError(relPath, err)
				mu.Unlock()
				return
			}
			fe := e.extractor.Extract(res, relPath)

			mu.Lock()
			extracts = append(extracts, fe)
			mu.Unlock()
		})
	}
	p.Wait()

	return extracts
}

// apply writes one file extract into the store: entities with CONTAINS
// edges first, then imports, then calls with their placeholders.
func (e *Engine) apply(ctx context.Context, fe *extract.FileExtract, stats *Stats) error {
	fileKey := graph.Key{Kind: graph.KindFile, Name: fe.Path, File: fe.Path}
	classKeys := make(map[string]graph.Key)

	for _, ent := range fe.Entities {
		if err := e.store.UpsertEntity(ctx, ent); err != nil {
			return err
		}
		if ent.Kind == graph.KindClass {
			classKeys[ent.Name] = ent.Key()
		}
	}

	for _, ent := range fe.Entities {
		if ent.Kind == graph.KindFile {
			continue
		}
		from := fileKey
		// Class members hang off their class when it is defined here.
		if ent.Kind == graph.KindFunction && ent.IsClassMember {
			if owner, ok := classKeys[ownerName(ent.Name)]; ok {
				from = owner
			}
		}
		if err := e.store.UpsertRelationship(ctx, graph.Relationship{
			Kind: graph.RelContains,
			From: from,
			To:   ent.Key(),
		}); err != nil {
			return err
		}
	}

	// Imports matter for coverage derivation, which only reads them for
	// test files. The target is an Import node, not the function
	// placeholder for the same name: placeholders are removed once their
	// definition is found, and the import record has to outlive that.
	if fe.IsTest {
		for _, imp := range fe.Imports {
			from := fileKey
			if imp.Function != "" {
				from = graph.Key{Kind: graph.KindFunction, Name: imp.Function, File: fe.Path}
			}
			target := graph.Entity{Kind: graph.KindImport, Name: imp.Name}
			if err := e.store.UpsertEntity(ctx, target); err != nil {
				return err
			}
			if err := e.store.UpsertRelationship(ctx, graph.Relationship{
				Kind:   graph.RelImports,
				From:   from,
				To:     target.Key(),
				Module: imp.Module,
				Alias:  imp.Alias,
			}); err != nil {
				return err
			}
			stats.ImportsRecorded++
		}
	}

	// Every call targets a name-keyed placeholder; reconciliation rewrites
	// the edges that have definitions.
	for _, call := range fe.Calls {
		placeholder := graph.Entity{
			Kind:        graph.KindFunction,
			Name:        call.Callee,
			IsReference: true,
		}
		if err := e.store.UpsertEntity(ctx, placeholder); err != nil {
			return err
		}
		if err := e.store.UpsertRelationship(ctx, graph.Relationship{
			Kind: graph.RelCalls,
			From: graph.Key{Kind: graph.KindFunction, Name: call.Caller, File: fe.Path},
			To:   placeholder.Key(),
			Line: call.Line,
			Args: call.Args,
		}); err != nil {
			return err
		}
	}

	stats.FilesScanned++
	return nil
}

func ownerName(qualified string) string {
	for i := len(qualified) - 1; i >= 0; i-- {
		if qualified[i] == '.' {
			return qualified[:i]
		}
	}
	return ""
}
