// Package extract walks parsed syntax trees and produces the entities and
// relationship events for one file. Traversal threads an explicit scope
// context instead of mutating visitor state, so nested definitions resolve
// their enclosing class and function without ordering hazards.
package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codegraph-labs/codegraph/pkg/classify"
	"github.com/codegraph-labs/codegraph/pkg/graph"
	"github.com/codegraph-labs/codegraph/pkg/parser"
)

// maxConstantValue caps stored constant value text.
const maxConstantValue = 256

// CallEvent records one call site inside a named function.
type CallEvent struct {
	Caller string
	Callee string
	Line   int
	Args   string
}

// ImportEvent records one imported name. Function is the enclosing function
// name, empty for module-level imports.
type ImportEvent struct {
	Function string
	Name     string
	Module   string
	Alias    string
}

// FileExtract is everything extraction found in one file.
type FileExtract struct {
	Path      string
	Language  parser.Language
	IsTest    bool
	IsExample bool

	Entities []graph.Entity
	Calls    []CallEvent
	Imports  []ImportEvent
}

// Extractor turns parse results into file extracts.
type Extractor struct {
	classifier *classify.Classifier
}

// New creates an extractor using the given classifier for test detection.
func New(classifier *classify.Classifier) *Extractor {
	return &Extractor{classifier: classifier}
}

// scope is the traversal context: the enclosing class and function, if any.
// Values are copied down the tree, never mutated in place.
type scope struct {
	class    string
	function string
}

// Extract walks the tree and collects entities, call sites, and imports.
// relPath is the path recorded on entities, normally relative to the scan
// root.
func (e *Extractor) Extract(res *parser.ParseResult, relPath string) *FileExtract {
	fc := e.classifier.Classify(relPath)
	out := &FileExtract{
		Path:      relPath,
		Language:  res.Language,
		IsTest:    fc.IsTest,
		IsExample: fc.IsExample,
	}
	root := res.Tree.RootNode()
	out.Entities = append(out.Entities, graph.Entity{
		Kind:      graph.KindFile,
		Name:      relPath,
		File:      relPath,
		Language:  string(res.Language),
		Line:      1,
		EndLine:   parser.EndLine(root),
		Length:    parser.EndLine(root),
		IsTest:    fc.IsTest,
		IsExample: fc.IsExample,
	})

	g := parser.GrammarFor(res.Language)
	e.walk(root, res.Source, res.Language, g, scope{}, out)
	return out
}

func (e *Extractor) walk(node *sitter.Node, source []byte, lang parser.Language, g parser.Grammar, sc scope, out *FileExtract) {
	switch g.Kind(node.Type()) {
	case parser.KindClass:
		e.onClass(node, source, lang, g, sc, out)
		return
	case parser.KindFunction:
		e.onFunction(node, source, lang, g, sc, out)
		return
	case parser.KindCall:
		e.onCall(node, source, lang, sc, out)
		// Nested calls in arguments still count.
	case parser.KindImport:
		e.onImport(node, source, lang, sc, out)
		return
	case parser.KindAssignment:
		e.onAssignment(node, source, lang, sc, out)
		return
	}

	for i := range int(node.ChildCount()) {
		e.walk(node.Child(i), source, lang, g, sc, out)
	}
}

func (e *Extractor) onClass(node *sitter.Node, source []byte, lang parser.Language, g parser.Grammar, sc scope, out *FileExtract) {
	name := parser.ClassName(node, source, lang)
	if name == "" {
		return
	}
	start, end := parser.StartLine(node), parser.EndLine(node)
	out.Entities = append(out.Entities, graph.Entity{
		Kind:      graph.KindClass,
		Name:      name,
		File:      out.Path,
		Line:      start,
		EndLine:   end,
		Length:    end - start + 1,
		IsTest:    out.IsTest,
		IsExample: out.IsExample,
	})

	inner := sc
	inner.class = name
	for i := range int(node.ChildCount()) {
		e.walk(node.Child(i), source, lang, g, inner, out)
	}
}

func (e *Extractor) onFunction(node *sitter.Node, source []byte, lang parser.Language, g parser.Grammar, sc scope, out *FileExtract) {
	name := parser.FunctionName(node, source, lang)
	if name == "" {
		return
	}
	// Dunder functions are skipped entirely, body included.
	if isDunder(name) {
		return
	}

	owner := sc.class
	if owner == "" {
		owner = parser.FunctionOwner(node, source, lang)
	}
	qualified := name
	if owner != "" {
		qualified = owner + "." + name
	}

	start, end := parser.StartLine(node), parser.EndLine(node)
	out.Entities = append(out.Entities, graph.Entity{
		Kind:          graph.KindFunction,
		Name:          qualified,
		File:          out.Path,
		Line:          start,
		EndLine:       end,
		Length:        end - start + 1,
		IsMain:        name == "main",
		IsClassMember: owner != "",
		// Test labeling is file-granular: a test_* name in a production
		// file stays a production function.
		IsTest:        out.IsTest,
		IsExample:     out.IsExample,
	})

	inner := sc
	inner.function = qualified
	for i := range int(node.ChildCount()) {
		e.walk(node.Child(i), source, lang, g, inner, out)
	}
}

func (e *Extractor) onCall(node *sitter.Node, source []byte, lang parser.Language, sc scope, out *FileExtract) {
	call, ok := parser.CallAt(node, source, lang)
	if !ok {
		return
	}

	if lang == parser.LangRuby {
		if spec, ok := parser.RubyRequire(call); ok {
			out.Imports = append(out.Imports, ImportEvent{
				Function: sc.function,
				Name:     spec.Name,
			})
			return
		}
	}

	// Calls outside any function have no caller to attach to.
	if sc.function == "" {
		return
	}
	if skipCall(call, lang) {
		return
	}
	out.Calls = append(out.Calls, CallEvent{
		Caller: sc.function,
		Callee: call.Callee,
		Line:   parser.StartLine(node),
		Args:   call.Args,
	})
}

func (e *Extractor) onImport(node *sitter.Node, source []byte, lang parser.Language, sc scope, out *FileExtract) {
	for _, spec := range parser.ImportSpecs(node, source, lang) {
		out.Imports = append(out.Imports, ImportEvent{
			Function: sc.function,
			Name:     spec.Name,
			Module:   spec.Module,
			Alias:    spec.Alias,
		})
	}
}

func (e *Extractor) onAssignment(node *sitter.Node, source []byte, lang parser.Language, sc scope, out *FileExtract) {
	a, ok := parser.AssignmentAt(node, source, lang)
	if !ok {
		return
	}
	if !isConstantName(a.Name) {
		return
	}

	value := parser.GetNodeText(a.Value, source)
	if len(value) > maxConstantValue {
		value = value[:maxConstantValue]
	}

	start := parser.StartLine(node)
	out.Entities = append(out.Entities, graph.Entity{
		Kind:      graph.KindConstant,
		Name:      a.Name,
		File:      out.Path,
		Line:      start,
		EndLine:   parser.EndLine(node),
		Length:    parser.EndLine(node) - start + 1,
		Value:     value,
		ValueType: parser.LiteralKind(a.Value, source, lang),
		Scope:     constantScope(sc),
		IsTest:    out.IsTest,
		IsExample: out.IsExample,
	})
}

func constantScope(sc scope) string {
	switch {
	case sc.function != "":
		return graph.ScopeFunction
	case sc.class != "":
		return graph.ScopeClass
	default:
		return graph.ScopeModule
	}
}

// isDunder reports names of the __init__ form.
func isDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// isConstantName matches all-uppercase names with at least one letter, the
// conventional shape of a constant.
func isConstantName(name string) bool {
	hasLetter := false
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

// skipCall filters out calls to language builtins and well-known standard
// library modules, which would otherwise flood the graph with noise.
func skipCall(call parser.Call, lang parser.Language) bool {
	if builtins[lang][call.Callee] {
		return true
	}
	if call.Receiver != "" && stdlibModules[lang][call.Receiver] {
		return true
	}
	return false
}
