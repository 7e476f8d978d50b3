// Package graph defines the code graph model: the entities extracted from
// source files, the relationships between them, and the Store interface
// sinks implement.
package graph

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// EntityKind identifies the node types in the code graph.
type EntityKind string

const (
	KindFile     EntityKind = "File"
	KindClass    EntityKind = "Class"
	KindFunction EntityKind = "Function"
	KindConstant EntityKind = "Constant"

	// KindImport nodes are the targets of IMPORTS edges, keyed by imported
	// name alone. They are deliberately distinct from function placeholders
	// so that deleting a reconciled placeholder never takes recorded
	// imports with it.
	KindImport EntityKind = "Import"
)

// RelKind identifies the edge types in the code graph.
type RelKind string

const (
	RelContains RelKind = "CONTAINS"
	RelCalls    RelKind = "CALLS"
	RelTests    RelKind = "TESTS"
	RelImports  RelKind = "IMPORTS"
)

// Coverage edge derivation methods.
const (
	MethodNamingPattern = "naming_pattern"
	MethodImport        = "import"
	MethodCall          = "call"
)

// Key identifies an entity. Concrete entities are keyed by kind, name and
// file. Placeholder functions carry an empty File so that call sites in any
// file resolve to the same node until a definition appears.
type Key struct {
	Kind EntityKind `json:"kind"`
	Name string     `json:"name"`
	File string     `json:"file,omitempty"`
}

func (k Key) String() string {
	if k.File == "" {
		return fmt.Sprintf("%s:%s", k.Kind, k.Name)
	}
	return fmt.Sprintf("%s:%s:%s", k.Kind, k.Name, k.File)
}

// Hash returns a stable 64-bit digest of the key, used by persistent stores
// for compact key encoding.
func (k Key) Hash() uint64 {
	return xxhash.Sum64String(k.String())
}

// Entity is one node in the code graph. Fields beyond Kind and Name apply
// to a subset of kinds; zero values mean "not applicable".
type Entity struct {
	Kind EntityKind `json:"kind"`
	Name string     `json:"name"`

	// File is the defining file path. Empty for placeholder functions.
	File string `json:"file,omitempty"`

	Line    int `json:"line,omitempty"`
	EndLine int `json:"end_line,omitempty"`

	// Length is the inclusive line span of the definition. Zero for
	// placeholders and entities without a known extent.
	Length int `json:"length,omitempty"`

	IsTest    bool `json:"is_test,omitempty"`
	IsExample bool `json:"is_example,omitempty"`
	IsMain    bool `json:"is_main,omitempty"`

	// IsReference marks a placeholder created from a call site before (or
	// instead of) a definition being seen.
	IsReference bool `json:"is_reference,omitempty"`

	// IsClassMember marks functions defined inside a class body. Their
	// Name is qualified as ClassName.functionName.
	IsClassMember bool `json:"is_class_member,omitempty"`

	// Constant fields.
	Value     string `json:"value,omitempty"`
	ValueType string `json:"value_type,omitempty"`
	Scope     string `json:"scope,omitempty"`

	// File fields.
	Language string `json:"language,omitempty"`
}

// Key returns the identity of the entity. Placeholder functions are keyed
// by name alone so definitions in any file supersede them.
func (e Entity) Key() Key {
	if e.IsReference {
		return Key{Kind: e.Kind, Name: e.Name}
	}
	return Key{Kind: e.Kind, Name: e.Name, File: e.File}
}

// Relationship is one edge in the code graph.
type Relationship struct {
	Kind RelKind `json:"kind"`
	From Key     `json:"from"`
	To   Key     `json:"to"`

	// CALLS properties.
	Line int    `json:"line,omitempty"`
	Args string `json:"args,omitempty"`

	// TESTS properties.
	Method string `json:"method,omitempty"`

	// IMPORTS properties.
	Module string `json:"module,omitempty"`
	Alias  string `json:"alias,omitempty"`
}

// Identity returns a string distinguishing this edge from others of the
// same kind between the same endpoints. CALLS edges are distinct per call
// site; TESTS edges per derivation method.
func (r Relationship) Identity() string {
	switch r.Kind {
	case RelCalls:
		return fmt.Sprintf("%s|%s|%s|%d|%s", r.Kind, r.From, r.To, r.Line, r.Args)
	case RelTests:
		return fmt.Sprintf("%s|%s|%s|%s", r.Kind, r.From, r.To, r.Method)
	default:
		return fmt.Sprintf("%s|%s|%s", r.Kind, r.From, r.To)
	}
}

// ConstantScope values.
const (
	ScopeModule   = "module"
	ScopeClass    = "class"
	ScopeFunction = "function"
)
