package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// NodeKind classifies the syntax nodes the extraction layer cares about.
type NodeKind int

const (
	KindNone NodeKind = iota
	KindClass
	KindFunction
	KindCall
	KindImport
	KindAssignment
)

// Grammar maps a language's tree-sitter node types onto the node kinds the
// extractor consumes. Node types not listed here are treated as structure to
// descend through.
type Grammar struct {
	classNodes      map[string]bool
	functionNodes   map[string]bool
	callNodes       map[string]bool
	importNodes     map[string]bool
	assignmentNodes map[string]bool
}

// Kind returns the extraction kind for a node type, or KindNone.
func (g Grammar) Kind(nodeType string) NodeKind {
	switch {
	case g.classNodes[nodeType]:
		return KindClass
	case g.functionNodes[nodeType]:
		return KindFunction
	case g.callNodes[nodeType]:
		return KindCall
	case g.importNodes[nodeType]:
		return KindImport
	case g.assignmentNodes[nodeType]:
		return KindAssignment
	}
	return KindNone
}

func set(types ...string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

var grammars = map[Language]Grammar{
	LangGo: {
		classNodes:      set("type_declaration"),
		functionNodes:   set("function_declaration", "method_declaration"),
		callNodes:       set("call_expression"),
		importNodes:     set("import_spec"),
		assignmentNodes: set("const_spec", "var_spec"),
	},
	LangPython: {
		classNodes:      set("class_definition"),
		functionNodes:   set("function_definition"),
		callNodes:       set("call"),
		importNodes:     set("import_statement", "import_from_statement"),
		assignmentNodes: set("assignment"),
	},
	LangTypeScript: jsGrammar,
	LangTSX:        jsGrammar,
	LangJavaScript: jsGrammar,
	LangRuby: {
		classNodes:      set("class", "module"),
		functionNodes:   set("method", "singleton_method"),
		callNodes:       set("call"),
		importNodes:     set(), // require is a call; see ImportSpecs
		assignmentNodes: set("assignment"),
	},
}

var jsGrammar = Grammar{
	classNodes:      set("class_declaration", "class"),
	functionNodes:   set("function_declaration", "method_definition"),
	callNodes:       set("call_expression"),
	importNodes:     set("import_statement"),
	assignmentNodes: set("variable_declarator"),
}

// GrammarFor returns the grammar table for a language. Languages without a
// table yield an empty grammar, so extraction finds nothing in them.
func GrammarFor(lang Language) Grammar {
	return grammars[lang]
}

// ClassName extracts the declared name from a class-kind node.
func ClassName(node *sitter.Node, source []byte, lang Language) string {
	switch lang {
	case LangGo:
		// type_declaration wraps one or more type_spec children.
		for i := range int(node.ChildCount()) {
			child := node.Child(i)
			if child.Type() == "type_spec" {
				return GetNodeText(child.ChildByFieldName("name"), source)
			}
		}
	case LangRuby:
		for i := range int(node.ChildCount()) {
			child := node.Child(i)
			if child.Type() == "constant" || child.Type() == "scope_resolution" {
				return GetNodeText(child, source)
			}
		}
	default:
		return GetNodeText(node.ChildByFieldName("name"), source)
	}
	return ""
}

// FunctionName extracts the declared name from a function-kind node.
func FunctionName(node *sitter.Node, source []byte, lang Language) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return GetNodeText(nameNode, source)
	}
	return ""
}

// FunctionOwner returns the receiver type for Go methods, so the extractor
// can qualify them like members of nested class bodies in other languages.
func FunctionOwner(node *sitter.Node, source []byte, lang Language) string {
	if lang != LangGo || node.Type() != "method_declaration" {
		return ""
	}
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	var owner string
	Walk(recv, source, func(n *sitter.Node, src []byte) bool {
		if n.Type() == "type_identifier" {
			owner = GetNodeText(n, src)
			return false
		}
		return true
	})
	return owner
}

// Call describes one call expression: the plain callee name, the receiver
// expression if the call was qualified, and the flattened argument text.
type Call struct {
	Callee   string
	Receiver string
	Args     string
}

// CallAt extracts call information from a call-kind node. Returns false when
// the callee is not a resolvable plain name (e.g. a computed expression).
func CallAt(node *sitter.Node, source []byte, lang Language) (Call, bool) {
	var call Call

	switch lang {
	case LangRuby:
		call.Callee = GetNodeText(node.ChildByFieldName("method"), source)
		call.Receiver = GetNodeText(node.ChildByFieldName("receiver"), source)
		call.Args = argsText(node.ChildByFieldName("arguments"), source)
	default:
		fn := node.ChildByFieldName("function")
		if fn == nil {
			return call, false
		}
		switch fn.Type() {
		case "identifier":
			call.Callee = GetNodeText(fn, source)
		case "selector_expression":
			call.Receiver = GetNodeText(fn.ChildByFieldName("operand"), source)
			call.Callee = GetNodeText(fn.ChildByFieldName("field"), source)
		case "attribute":
			call.Receiver = GetNodeText(fn.ChildByFieldName("object"), source)
			call.Callee = GetNodeText(fn.ChildByFieldName("attribute"), source)
		case "member_expression":
			call.Receiver = GetNodeText(fn.ChildByFieldName("object"), source)
			call.Callee = GetNodeText(fn.ChildByFieldName("property"), source)
		default:
			return call, false
		}
		call.Args = argsText(node.ChildByFieldName("arguments"), source)
	}

	if call.Callee == "" {
		return call, false
	}
	return call, true
}

// argsText flattens an argument list to the textual form of each argument,
// joined by ", ". Names stay verbatim and literals keep their source text.
func argsText(argsNode *sitter.Node, source []byte) string {
	if argsNode == nil {
		return ""
	}
	var parts []string
	for i := range int(argsNode.ChildCount()) {
		child := argsNode.Child(i)
		if child.IsNamed() {
			parts = append(parts, GetNodeText(child, source))
		}
	}
	return strings.Join(parts, ", ")
}

// ImportSpec is one imported name from an import-kind node.
type ImportSpec struct {
	Name   string
	Module string
	Alias  string
}

// ImportSpecs extracts the names bound by an import-kind node.
func ImportSpecs(node *sitter.Node, source []byte, lang Language) []ImportSpec {
	switch lang {
	case LangGo:
		path := strings.Trim(GetNodeText(node.ChildByFieldName("path"), source), "`\"")
		if path == "" {
			return nil
		}
		spec := ImportSpec{Name: path}
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			spec.Alias = GetNodeText(nameNode, source)
		}
		return []ImportSpec{spec}

	case LangPython:
		return pythonImports(node, source)

	case LangTypeScript, LangTSX, LangJavaScript:
		var specs []ImportSpec
		module := strings.Trim(GetNodeText(node.ChildByFieldName("source"), source), "'\"`")
		Walk(node, source, func(n *sitter.Node, src []byte) bool {
			if n.Type() == "import_specifier" {
				spec := ImportSpec{
					Name:   GetNodeText(n.ChildByFieldName("name"), src),
					Module: module,
					Alias:  GetNodeText(n.ChildByFieldName("alias"), src),
				}
				if spec.Alias == "" {
					spec.Alias = spec.Name
				}
				specs = append(specs, spec)
				return false
			}
			return true
		})
		if len(specs) == 0 && module != "" {
			specs = append(specs, ImportSpec{Name: module})
		}
		return specs
	}
	return nil
}

// RubyRequire recognizes require/require_relative calls, Ruby's import form.
func RubyRequire(call Call) (ImportSpec, bool) {
	if call.Callee != "require" && call.Callee != "require_relative" {
		return ImportSpec{}, false
	}
	name := strings.Trim(call.Args, "'\"")
	if name == "" {
		return ImportSpec{}, false
	}
	return ImportSpec{Name: name}, true
}

func pythonImports(node *sitter.Node, source []byte) []ImportSpec {
	var specs []ImportSpec

	if node.Type() == "import_statement" {
		// import module [as alias]
		for i := range int(node.ChildCount()) {
			child := node.Child(i)
			switch child.Type() {
			case "dotted_name":
				name := GetNodeText(child, source)
				specs = append(specs, ImportSpec{Name: name, Alias: name})
			case "aliased_import":
				spec := ImportSpec{
					Name:  GetNodeText(child.ChildByFieldName("name"), source),
					Alias: GetNodeText(child.ChildByFieldName("alias"), source),
				}
				specs = append(specs, spec)
			}
		}
		return specs
	}

	// from module import name [as alias], ...
	module := GetNodeText(node.ChildByFieldName("module_name"), source)
	seenModule := false
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name", "relative_import":
			if !seenModule {
				seenModule = true
				continue
			}
			name := GetNodeText(child, source)
			specs = append(specs, ImportSpec{Name: name, Module: module, Alias: name})
		case "aliased_import":
			spec := ImportSpec{
				Name:   GetNodeText(child.ChildByFieldName("name"), source),
				Module: module,
				Alias:  GetNodeText(child.ChildByFieldName("alias"), source),
			}
			specs = append(specs, spec)
		case "wildcard_import":
			specs = append(specs, ImportSpec{Name: "*", Module: module, Alias: "*"})
		}
	}
	return specs
}

// Assignment describes one name bound to a literal or expression.
type Assignment struct {
	Name  string
	Value *sitter.Node
}

// AssignmentAt extracts the target name and value node from an
// assignment-kind node. Returns false for destructuring and other targets
// that are not a single plain name.
func AssignmentAt(node *sitter.Node, source []byte, lang Language) (Assignment, bool) {
	var left, right *sitter.Node

	switch lang {
	case LangGo:
		// const_spec / var_spec: name is an identifier, value an expression list.
		left = node.ChildByFieldName("name")
		if values := node.ChildByFieldName("value"); values != nil {
			for i := range int(values.ChildCount()) {
				if child := values.Child(i); child.IsNamed() {
					right = child
					break
				}
			}
		}
	case LangTypeScript, LangTSX, LangJavaScript:
		left = node.ChildByFieldName("name")
		right = node.ChildByFieldName("value")
	default:
		left = node.ChildByFieldName("left")
		right = node.ChildByFieldName("right")
	}

	if left == nil || right == nil {
		return Assignment{}, false
	}
	switch left.Type() {
	case "identifier", "constant":
	default:
		return Assignment{}, false
	}
	return Assignment{Name: GetNodeText(left, source), Value: right}, true
}

// LiteralKind maps a value node to one of the constant value types:
// string, int, float, bool, list, dict, tuple, or other.
func LiteralKind(node *sitter.Node, source []byte, lang Language) string {
	if node == nil {
		return "other"
	}
	switch node.Type() {
	case "string", "string_literal", "interpreted_string_literal",
		"raw_string_literal", "template_string", "string_content":
		return "string"
	case "integer", "int_literal":
		return "int"
	case "float", "float_literal":
		return "float"
	case "true", "false", "boolean":
		return "bool"
	case "list", "array", "array_literal":
		return "list"
	case "dictionary", "hash", "object", "map_literal":
		return "dict"
	case "tuple":
		return "tuple"
	case "number":
		// JS has a single numeric literal node type.
		if strings.ContainsAny(GetNodeText(node, source), ".eE") {
			return "float"
		}
		return "int"
	case "unary_expression":
		// Negative literals wrap the number in a unary expression.
		for i := range int(node.ChildCount()) {
			if child := node.Child(i); child.IsNamed() {
				return LiteralKind(child, source, lang)
			}
		}
	}
	return "other"
}
