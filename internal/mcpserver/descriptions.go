package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// and how to interpret results.

func describeSummary() string {
	return `Returns entity and relationship counts for the scanned code graph.

USE WHEN:
- Orienting yourself in an unfamiliar codebase
- Checking whether a scan has been run and what it found
- Validating that a rescan picked up expected changes

INTERPRETING RESULTS:
- files, classes, functions, constants: concrete definitions found
- references: functions that are called somewhere but defined nowhere scanned
- relationships: edge counts by type (CONTAINS, CALLS, TESTS, IMPORTS)
- A high reference count usually means external libraries, not missing code

RETURNS:
- Counts per entity kind and per relationship kind`
}

func describeListFiles() string {
	return `Lists every source file in the scanned graph.

USE WHEN:
- Discovering what was actually scanned
- Getting exact file paths for list_functions or list_classes

INTERPRETING RESULTS:
- Paths are relative to the scanned project root
- is_test and is_example flags show how the file was classified

RETURNS:
- File entities with path, language, and classification flags`
}

func describeListFunctions() string {
	return `Lists the functions defined in one file.

USE WHEN:
- Exploring a file's structure without reading its source
- Finding the exact qualified name of a class member

INTERPRETING RESULTS:
- Class members are qualified as ClassName.functionName
- line and end_line are 1-based; length is the inclusive line span
- is_main marks entry points, is_test marks test functions

RETURNS:
- Function entities with position, span, and flags`
}

func describeListClasses() string {
	return `Lists the classes defined in one file.

USE WHEN:
- Exploring a file's structure
- Checking which classes a file contributes to the graph

INTERPRETING RESULTS:
- line and end_line give the definition extent
- Use list_functions to see the members; they are qualified by class name

RETURNS:
- Class entities with position and span`
}

func describeListConstants() string {
	return `Lists constants, optionally restricted to one file.

USE WHEN:
- Auditing configuration values scattered through the code
- Checking where a named constant is defined

INTERPRETING RESULTS:
- scope is module, class, or function
- value_type is the literal kind: string, int, float, bool, list, dict
- Only all-uppercase assignments are recorded as constants

RETURNS:
- Constant entities with value, type, and scope`
}

func describeCallers() string {
	return `Finds every call site that invokes a function.

USE WHEN:
- Assessing the blast radius of changing a function
- Checking whether a function is safe to rename or remove

INTERPRETING RESULTS:
- A plain name matches class members too: post matches Ledger.post
- line is the call site line in the calling function's file
- args is the source text of the call arguments

RETURNS:
- Call sites with the calling function's key, line, and arguments`
}

func describeCallees() string {
	return `Lists every call a function makes.

USE WHEN:
- Understanding what a function depends on
- Tracing behavior without reading the body

INTERPRETING RESULTS:
- Callees without a file are unresolved references (external or dynamic)
- Builtin and standard library calls are filtered out during scanning

RETURNS:
- Call sites with the called function's key, line, and arguments`
}

func describeTransitiveCalls() string {
	return `Enumerates call paths from one function to another.

USE WHEN:
- Answering "can A ever reach B?"
- Tracing how user input flows to a sensitive operation

INTERPRETING RESULTS:
- Paths are simple (no repeated function) and shortest-first
- An empty result means no path exists within max_depth edges
- Raise max_depth cautiously; enumeration grows quickly in dense graphs

RETURNS:
- Paths as ordered lists of function names`
}

func describeUnresolved() string {
	return `Lists functions that are called but never defined in the scanned code.

USE WHEN:
- Separating external dependencies from project code
- Hunting typos in call sites (a misspelled callee shows up here)

INTERPRETING RESULTS:
- Most entries are imported library functions, which is expected
- A near-duplicate of a project function name is likely a typo

RETURNS:
- Placeholder function entities, name only`
}

func describeUncalled() string {
	return `Lists functions with no recorded callers.

USE WHEN:
- Finding candidate dead code
- Auditing a module after a feature removal

INTERPRETING RESULTS:
- Entry points and test functions are excluded
- Dynamic dispatch and reflection are not resolved, so verify before deleting
- Public API functions may be called only by external consumers

RETURNS:
- Function entities with no incoming call edge`
}

func describeUntested() string {
	return `Lists functions with no test coverage edge.

USE WHEN:
- Prioritizing test-writing effort
- Reviewing coverage of a changed module

INTERPRETING RESULTS:
- Coverage is heuristic: naming patterns, test-file imports, and direct calls
- Test functions and test class members are not counted as subjects
- A listed function may still be covered indirectly through integration tests

RETURNS:
- Function entities lacking any TESTS edge`
}

func describeUntestedClasses() string {
	return `Lists classes none of whose methods has a test coverage edge.

USE WHEN:
- Finding whole components with no test signal at all
- Triaging coverage at a coarser grain than individual functions

INTERPRETING RESULTS:
- A single tested method removes the class from this list
- Test classes and example code are excluded
- Coverage edges are heuristic, so a listed class may have indirect coverage

RETURNS:
- Class entities with no tested member function`
}

func describeCoverage() string {
	return `Computes the heuristic test coverage ratio, overall and per file.

USE WHEN:
- Getting a quick coverage signal without running a test suite
- Comparing coverage across files to direct attention

INTERPRETING RESULTS:
- ratio is tested subjects over total subjects, 0.0 to 1.0
- by_method shows how edges were derived: naming_pattern, import, call
- This measures linkage between tests and code, not executed lines

RETURNS:
- Overall ratio, per-file breakdown, and edge counts per derivation method`
}

func describeRepetitiveConstants() string {
	return `Groups constants that repeat the same value and type.

USE WHEN:
- Finding magic values that should be defined once
- Spotting configuration drift between modules

INTERPRETING RESULTS:
- Groups are ordered largest first
- The same value under different names in different files is the usual smell

RETURNS:
- Groups with value, type, count, and the member constants`
}

func describeRepetitiveNames() string {
	return `Groups constants re-declared under the same name.

USE WHEN:
- Finding a constant duplicated across files instead of shared
- Checking whether same-named constants have drifted to different values

INTERPRETING RESULTS:
- Compare member values within a group; differing values are a bug risk
- Same name and same value in many files suggests a missing shared module

RETURNS:
- Groups with name, count, and the member constants`
}

func describeScan() string {
	return `Rebuilds the code graph from the project root.

USE WHEN:
- The source tree changed since the last scan
- Query results look stale

INTERPRETING RESULTS:
- The previous graph is cleared first; a failed scan leaves a partial graph
- errors lists files that failed to parse and were skipped

RETURNS:
- Scan statistics: files, entities, relationships, coverage, duration`
}
