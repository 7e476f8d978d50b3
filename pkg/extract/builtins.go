package extract

import "github.com/codegraph-labs/codegraph/pkg/parser"

// builtins lists call targets that belong to the language itself. Edges to
// them carry no project information.
var builtins = map[parser.Language]map[string]bool{
	parser.LangPython: set(
		"abs", "aiter", "all", "anext", "any", "ascii", "bin", "bool",
		"breakpoint", "bytearray", "bytes", "callable", "chr", "classmethod",
		"compile", "complex", "delattr", "dict", "dir", "divmod", "enumerate",
		"eval", "exec", "filter", "float", "format", "frozenset", "getattr",
		"globals", "hasattr", "hash", "help", "hex", "id", "input", "int",
		"isinstance", "issubclass", "iter", "len", "list", "locals", "map",
		"max", "memoryview", "min", "next", "object", "oct", "open", "ord",
		"pow", "print", "property", "range", "repr", "reversed", "round",
		"set", "setattr", "slice", "sorted", "staticmethod", "str", "sum",
		"super", "tuple", "type", "vars", "zip",
	),
	parser.LangGo: set(
		"append", "cap", "clear", "close", "complex", "copy", "delete",
		"imag", "len", "make", "max", "min", "new", "panic", "print",
		"println", "real", "recover",
	),
	parser.LangJavaScript: jsBuiltins,
	parser.LangTypeScript: jsBuiltins,
	parser.LangTSX:        jsBuiltins,
	parser.LangRuby: set(
		"puts", "print", "p", "pp", "raise", "lambda", "proc", "loop",
		"attr_accessor", "attr_reader", "attr_writer", "include", "extend",
		"freeze", "format", "rand", "sleep", "gets", "block_given?",
	),
}

var jsBuiltins = set(
	"parseInt", "parseFloat", "isNaN", "isFinite", "encodeURIComponent",
	"decodeURIComponent", "encodeURI", "decodeURI", "eval", "String",
	"Number", "Boolean", "Array", "Object", "Symbol", "BigInt", "Error",
	"TypeError", "RangeError", "Promise", "Map", "Set", "WeakMap", "WeakSet",
	"Date", "RegExp", "setTimeout", "setInterval", "clearTimeout",
	"clearInterval", "structuredClone", "fetch", "require",
)

// stdlibModules lists receivers whose method calls are standard library
// usage rather than project calls.
var stdlibModules = map[parser.Language]map[string]bool{
	parser.LangPython: set(
		"os", "sys", "re", "json", "math", "time", "datetime", "random",
		"logging", "collections", "itertools", "functools", "pathlib",
		"subprocess", "shutil", "typing", "copy", "string", "io", "csv",
		"argparse", "unittest", "pickle", "hashlib", "base64", "uuid",
		"socket", "threading", "asyncio", "traceback", "inspect", "glob",
		"tempfile", "textwrap", "warnings", "struct", "enum", "abc",
	),
	parser.LangGo: set(
		"fmt", "os", "strings", "strconv", "errors", "time", "context",
		"sort", "bytes", "io", "bufio", "regexp", "math", "sync", "slices",
		"maps", "filepath", "json", "http", "log", "path",
	),
	parser.LangJavaScript: jsStdlib,
	parser.LangTypeScript: jsStdlib,
	parser.LangTSX:        jsStdlib,
	parser.LangRuby: set(
		"Kernel", "Math", "File", "Dir", "IO", "JSON", "YAML", "Time",
		"Process", "ENV", "Marshal", "ObjectSpace",
	),
}

var jsStdlib = set(
	"console", "JSON", "Math", "Object", "Array", "Number", "String",
	"Promise", "Reflect", "Date", "Intl", "process", "window", "document",
	"navigator", "localStorage", "sessionStorage", "crypto",
)

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
