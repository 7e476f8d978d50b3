// Package query provides read-only projections over a populated code graph:
// entity listings, call relationships, coverage summaries, and call-path
// traversal. It never writes to the store.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/codegraph-labs/codegraph/pkg/classify"
	"github.com/codegraph-labs/codegraph/pkg/graph"
)

// Service answers queries against a graph store.
type Service struct {
	store      graph.Store
	classifier *classify.Classifier
}

// New creates a query service. The classifier is used to exclude test
// classes from untested-function reports; it may be nil, in which case only
// entity flags are consulted.
func New(store graph.Store, classifier *classify.Classifier) *Service {
	return &Service{store: store, classifier: classifier}
}

// Summary aggregates entity and relationship counts.
type Summary struct {
	Files      int `json:"files"`
	Classes    int `json:"classes"`
	Functions  int `json:"functions"`
	Constants  int `json:"constants"`
	References int `json:"references"`

	Relationships map[graph.RelKind]int `json:"relationships"`
}

// Summary counts entities by kind and relationships by edge type.
// Placeholder functions are reported separately as references.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	sum := Summary{Relationships: make(map[graph.RelKind]int)}

	entities, err := s.store.Entities(ctx, graph.EntityFilter{})
	if err != nil {
		return Summary{}, fmt.Errorf("listing entities: %w", err)
	}
	for _, e := range entities {
		if e.IsReference {
			sum.References++
			continue
		}
		switch e.Kind {
		case graph.KindFile:
			sum.Files++
		case graph.KindClass:
			sum.Classes++
		case graph.KindFunction:
			sum.Functions++
		case graph.KindConstant:
			sum.Constants++
		}
	}

	rels, err := s.store.Relationships(ctx, graph.RelFilter{})
	if err != nil {
		return Summary{}, fmt.Errorf("listing relationships: %w", err)
	}
	for _, r := range rels {
		sum.Relationships[r.Kind]++
	}
	return sum, nil
}

// Files lists every scanned file entity.
func (s *Service) Files(ctx context.Context) ([]graph.Entity, error) {
	return s.store.Entities(ctx, graph.EntityFilter{Kind: graph.KindFile})
}

// FunctionsInFile lists the concrete functions defined in a file.
func (s *Service) FunctionsInFile(ctx context.Context, file string) ([]graph.Entity, error) {
	return s.store.Entities(ctx, graph.EntityFilter{
		Kind:         graph.KindFunction,
		File:         file,
		ConcreteOnly: true,
	})
}

// ClassesInFile lists the classes defined in a file.
func (s *Service) ClassesInFile(ctx context.Context, file string) ([]graph.Entity, error) {
	return s.store.Entities(ctx, graph.EntityFilter{Kind: graph.KindClass, File: file})
}

// Constants lists every constant, optionally restricted to one file.
func (s *Service) Constants(ctx context.Context, file string) ([]graph.Entity, error) {
	return s.store.Entities(ctx, graph.EntityFilter{Kind: graph.KindConstant, File: file})
}

// CallSite is one end of a CALLS edge together with its site properties.
type CallSite struct {
	Function graph.Key `json:"function"`
	Line     int       `json:"line,omitempty"`
	Args     string    `json:"args,omitempty"`
}

// Callers returns the call sites that invoke the named function. A plain
// name matches both top-level functions and class members whose member part
// equals it.
func (s *Service) Callers(ctx context.Context, name string) ([]CallSite, error) {
	rels, err := s.store.Relationships(ctx, graph.RelFilter{Kind: graph.RelCalls})
	if err != nil {
		return nil, fmt.Errorf("listing calls: %w", err)
	}

	var sites []CallSite
	for _, r := range rels {
		if !nameMatches(r.To.Name, name) {
			continue
		}
		sites = append(sites, CallSite{Function: r.From, Line: r.Line, Args: r.Args})
	}
	sortSites(sites)
	return sites, nil
}

// Callees returns the call sites inside the named function.
func (s *Service) Callees(ctx context.Context, name string) ([]CallSite, error) {
	rels, err := s.store.Relationships(ctx, graph.RelFilter{Kind: graph.RelCalls})
	if err != nil {
		return nil, fmt.Errorf("listing calls: %w", err)
	}

	var sites []CallSite
	for _, r := range rels {
		if !nameMatches(r.From.Name, name) {
			continue
		}
		sites = append(sites, CallSite{Function: r.To, Line: r.Line, Args: r.Args})
	}
	sortSites(sites)
	return sites, nil
}

// Unresolved lists placeholder functions that survived reconciliation, i.e.
// names that are called somewhere but defined nowhere in the scanned tree.
func (s *Service) Unresolved(ctx context.Context) ([]graph.Entity, error) {
	return s.store.Entities(ctx, graph.EntityFilter{
		Kind:          graph.KindFunction,
		ReferenceOnly: true,
	})
}

// Untested lists concrete functions with no incoming TESTS edge. Test
// functions themselves, members of test classes, and example code are not
// subjects and are excluded.
func (s *Service) Untested(ctx context.Context) ([]graph.Entity, error) {
	fns, err := s.store.Entities(ctx, graph.EntityFilter{
		Kind:         graph.KindFunction,
		ConcreteOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("listing functions: %w", err)
	}

	rels, err := s.store.Relationships(ctx, graph.RelFilter{Kind: graph.RelTests})
	if err != nil {
		return nil, fmt.Errorf("listing coverage edges: %w", err)
	}
	tested := make(map[graph.Key]bool, len(rels))
	for _, r := range rels {
		tested[r.To] = true
	}

	var untested []graph.Entity
	for _, fn := range fns {
		if fn.IsTest || fn.IsExample || tested[fn.Key()] {
			continue
		}
		if s.classifier != nil && s.classifier.IsTestClass(ownerName(fn.Name)) {
			continue
		}
		untested = append(untested, fn)
	}
	return untested, nil
}

// UntestedClasses lists classes none of whose member functions has an
// incoming TESTS edge. Test classes and example code are excluded.
func (s *Service) UntestedClasses(ctx context.Context) ([]graph.Entity, error) {
	classes, err := s.store.Entities(ctx, graph.EntityFilter{Kind: graph.KindClass})
	if err != nil {
		return nil, fmt.Errorf("listing classes: %w", err)
	}

	rels, err := s.store.Relationships(ctx, graph.RelFilter{Kind: graph.RelTests})
	if err != nil {
		return nil, fmt.Errorf("listing coverage edges: %w", err)
	}
	testedOwner := make(map[string]bool, len(rels))
	for _, r := range rels {
		if owner := ownerName(r.To.Name); owner != "" {
			testedOwner[owner] = true
		}
	}

	var untested []graph.Entity
	for _, class := range classes {
		if class.IsTest || class.IsExample || testedOwner[class.Name] {
			continue
		}
		if s.classifier != nil && s.classifier.IsTestClass(class.Name) {
			continue
		}
		untested = append(untested, class)
	}
	return untested, nil
}

// FileCoverage reports tested and total subject counts for one file.
type FileCoverage struct {
	File   string  `json:"file"`
	Tested int     `json:"tested"`
	Total  int     `json:"total"`
	Ratio  float64 `json:"ratio"`
}

// Coverage summarizes TESTS edges across the graph.
type Coverage struct {
	Tested int     `json:"tested"`
	Total  int     `json:"total"`
	Ratio  float64 `json:"ratio"`

	ByFile   []FileCoverage `json:"by_file"`
	ByMethod map[string]int `json:"by_method"`
}

// Coverage computes the tested ratio over all coverage subjects, per file,
// and the number of TESTS edges per derivation method.
func (s *Service) Coverage(ctx context.Context) (Coverage, error) {
	fns, err := s.store.Entities(ctx, graph.EntityFilter{
		Kind:         graph.KindFunction,
		ConcreteOnly: true,
	})
	if err != nil {
		return Coverage{}, fmt.Errorf("listing functions: %w", err)
	}

	rels, err := s.store.Relationships(ctx, graph.RelFilter{Kind: graph.RelTests})
	if err != nil {
		return Coverage{}, fmt.Errorf("listing coverage edges: %w", err)
	}

	cov := Coverage{ByMethod: make(map[string]int)}
	tested := make(map[graph.Key]bool)
	for _, r := range rels {
		tested[r.To] = true
		cov.ByMethod[r.Method]++
	}

	perFile := make(map[string]*FileCoverage)
	for _, fn := range fns {
		if fn.IsTest || fn.IsExample {
			continue
		}
		if s.classifier != nil && s.classifier.IsTestClass(ownerName(fn.Name)) {
			continue
		}
		fc := perFile[fn.File]
		if fc == nil {
			fc = &FileCoverage{File: fn.File}
			perFile[fn.File] = fc
		}
		fc.Total++
		cov.Total++
		if tested[fn.Key()] {
			fc.Tested++
			cov.Tested++
		}
	}

	for _, fc := range perFile {
		if fc.Total > 0 {
			fc.Ratio = float64(fc.Tested) / float64(fc.Total)
		}
		cov.ByFile = append(cov.ByFile, *fc)
	}
	sort.Slice(cov.ByFile, func(i, j int) bool { return cov.ByFile[i].File < cov.ByFile[j].File })
	if cov.Total > 0 {
		cov.Ratio = float64(cov.Tested) / float64(cov.Total)
	}
	return cov, nil
}

// Uncalled lists concrete functions with no incoming CALLS edge. Entry
// points and test functions are expected to have no callers and are
// excluded.
func (s *Service) Uncalled(ctx context.Context) ([]graph.Entity, error) {
	fns, err := s.store.Entities(ctx, graph.EntityFilter{
		Kind:         graph.KindFunction,
		ConcreteOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("listing functions: %w", err)
	}

	rels, err := s.store.Relationships(ctx, graph.RelFilter{Kind: graph.RelCalls})
	if err != nil {
		return nil, fmt.Errorf("listing calls: %w", err)
	}

	called := make(map[graph.Key]bool, len(rels))
	calledByName := make(map[string]bool, len(rels))
	for _, r := range rels {
		called[r.To] = true
		if r.To.File == "" {
			calledByName[r.To.Name] = true
		}
	}

	var uncalled []graph.Entity
	for _, fn := range fns {
		if fn.IsMain || fn.IsTest || fn.IsExample {
			continue
		}
		if called[fn.Key()] || calledByName[fn.Name] {
			continue
		}
		uncalled = append(uncalled, fn)
	}
	return uncalled, nil
}

// ConstantGroup is a set of constants sharing a value or a name.
type ConstantGroup struct {
	Value     string         `json:"value,omitempty"`
	ValueType string         `json:"value_type,omitempty"`
	Name      string         `json:"name,omitempty"`
	Count     int            `json:"count"`
	Constants []graph.Entity `json:"constants"`
}

// RepeatedValues groups constants whose value and type repeat at least
// minCount times, largest group first. Such groups usually indicate a value
// that should be defined once.
func (s *Service) RepeatedValues(ctx context.Context, minCount int) ([]ConstantGroup, error) {
	if minCount < 2 {
		minCount = 2
	}
	consts, err := s.store.Entities(ctx, graph.EntityFilter{Kind: graph.KindConstant})
	if err != nil {
		return nil, fmt.Errorf("listing constants: %w", err)
	}

	byValue := make(map[string][]graph.Entity)
	for _, c := range consts {
		if c.Value == "" {
			continue
		}
		byValue[c.ValueType+"\x00"+c.Value] = append(byValue[c.ValueType+"\x00"+c.Value], c)
	}

	var groups []ConstantGroup
	for _, members := range byValue {
		if len(members) < minCount {
			continue
		}
		groups = append(groups, ConstantGroup{
			Value:     members[0].Value,
			ValueType: members[0].ValueType,
			Count:     len(members),
			Constants: members,
		})
	}
	sortGroups(groups)
	return groups, nil
}

// RepeatedNames groups constants re-declared under the same name in
// different scopes or files, largest group first.
func (s *Service) RepeatedNames(ctx context.Context, minCount int) ([]ConstantGroup, error) {
	if minCount < 2 {
		minCount = 2
	}
	consts, err := s.store.Entities(ctx, graph.EntityFilter{Kind: graph.KindConstant})
	if err != nil {
		return nil, fmt.Errorf("listing constants: %w", err)
	}

	byName := make(map[string][]graph.Entity)
	for _, c := range consts {
		byName[c.Name] = append(byName[c.Name], c)
	}

	var groups []ConstantGroup
	for name, members := range byName {
		if len(members) < minCount {
			continue
		}
		groups = append(groups, ConstantGroup{
			Name:      name,
			Count:     len(members),
			Constants: members,
		})
	}
	sortGroups(groups)
	return groups, nil
}

func nameMatches(candidate, name string) bool {
	return candidate == name || memberName(candidate) == name
}

// memberName returns the part after the last dot of a qualified name.
func memberName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// ownerName returns the class part of a qualified member name, or "".
func ownerName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[:idx]
	}
	return ""
}

func sortSites(sites []CallSite) {
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].Function.String() != sites[j].Function.String() {
			return sites[i].Function.String() < sites[j].Function.String()
		}
		return sites[i].Line < sites[j].Line
	})
}

func sortGroups(groups []ConstantGroup) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		if groups[i].Name != groups[j].Name {
			return groups[i].Name < groups[j].Name
		}
		return groups[i].Value < groups[j].Value
	})
}

// callGraph is the gonum representation of the CALLS edges, with mappings
// between graph keys and gonum node IDs.
type callGraph struct {
	directed *simple.DirectedGraph
	keyToID  map[graph.Key]int64
	idToKey  map[int64]graph.Key
}

func (s *Service) buildCallGraph(ctx context.Context) (*callGraph, error) {
	rels, err := s.store.Relationships(ctx, graph.RelFilter{Kind: graph.RelCalls})
	if err != nil {
		return nil, fmt.Errorf("listing calls: %w", err)
	}

	cg := &callGraph{
		directed: simple.NewDirectedGraph(),
		keyToID:  make(map[graph.Key]int64),
		idToKey:  make(map[int64]graph.Key),
	}
	id := func(k graph.Key) int64 {
		if n, ok := cg.keyToID[k]; ok {
			return n
		}
		n := int64(len(cg.keyToID))
		cg.keyToID[k] = n
		cg.idToKey[n] = k
		cg.directed.AddNode(simple.Node(n))
		return n
	}

	// Self-calls cannot appear on a path and gonum simple graphs reject
	// self-loops, so recursive edges are dropped.
	for _, r := range rels {
		from, to := id(r.From), id(r.To)
		if from != to {
			cg.directed.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		}
	}
	return cg, nil
}

// nodesMatching returns the gonum IDs of every node whose function name
// matches name.
func (cg *callGraph) nodesMatching(name string) []int64 {
	var ids []int64
	for k, id := range cg.keyToID {
		if nameMatches(k.Name, name) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CallPaths enumerates simple call paths from one function to another, up
// to maxDepth edges per path. Paths are returned as sequences of function
// names, shortest first.
func (s *Service) CallPaths(ctx context.Context, from, to string, maxDepth int) ([][]string, error) {
	if maxDepth <= 0 {
		maxDepth = 10
	}
	cg, err := s.buildCallGraph(ctx)
	if err != nil {
		return nil, err
	}

	sources := cg.nodesMatching(from)
	targets := make(map[int64]bool)
	for _, id := range cg.nodesMatching(to) {
		targets[id] = true
	}
	if len(sources) == 0 || len(targets) == 0 {
		return nil, nil
	}

	var paths [][]string
	visited := make(map[int64]bool)
	var walk func(node int64, trail []int64)
	walk = func(node int64, trail []int64) {
		trail = append(trail, node)
		if targets[node] && len(trail) > 1 {
			names := make([]string, len(trail))
			for i, id := range trail {
				names[i] = cg.idToKey[id].Name
			}
			paths = append(paths, names)
			return
		}
		if len(trail) > maxDepth {
			return
		}
		visited[node] = true
		it := cg.directed.From(node)
		for it.Next() {
			next := it.Node().ID()
			if !visited[next] {
				walk(next, trail)
			}
		}
		visited[node] = false
	}
	for _, src := range sources {
		walk(src, nil)
	}

	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) < len(paths[j])
		}
		return strings.Join(paths[i], ">") < strings.Join(paths[j], ">")
	})
	return paths, nil
}
