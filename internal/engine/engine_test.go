package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph-labs/codegraph/pkg/config"
	"github.com/codegraph-labs/codegraph/pkg/graph"
	"github.com/codegraph-labs/codegraph/pkg/graph/memstore"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func scanTree(t *testing.T, files map[string]string) (*memstore.Store, *Stats) {
	t.Helper()
	root := writeTree(t, files)
	store := memstore.New()
	eng, err := New(config.DefaultConfig(), store)
	require.NoError(t, err)
	stats, err := eng.Scan(context.Background(), root, nil)
	require.NoError(t, err)
	return store, stats
}

func TestScanBuildsGraph(t *testing.T) {
	store, stats := scanTree(t, map[string]string{
		"app.py": `MAX_SIZE = 10

def main():
    helper(MAX_SIZE)

def helper(n):
    pass
`,
	})
	ctx := context.Background()

	assert.Equal(t, 1, stats.FilesFound)
	assert.Equal(t, 1, stats.FilesScanned)
	assert.Equal(t, 0, stats.FilesFailed())
	assert.Equal(t, 1, stats.Entities[graph.KindFile])
	assert.Equal(t, 2, stats.Entities[graph.KindFunction])
	assert.Equal(t, 1, stats.Entities[graph.KindConstant])

	// The call resolved within the file.
	calls, err := store.Relationships(ctx, graph.RelFilter{Kind: graph.RelCalls})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "app.py", calls[0].To.File)
	assert.Equal(t, "helper", calls[0].To.Name)
	assert.Equal(t, 4, calls[0].Line)
	assert.Equal(t, "MAX_SIZE", calls[0].Args)

	// main is flagged.
	fns, err := store.Entities(ctx, graph.EntityFilter{Kind: graph.KindFunction, Name: "main"})
	require.NoError(t, err)
	require.Len(t, fns, 1)
	assert.True(t, fns[0].IsMain)
}

func TestScanResolvesForwardReferencesAcrossFiles(t *testing.T) {
	// a_caller.py sorts before z_callee.py, so the call is applied before
	// the definition.
	store, stats := scanTree(t, map[string]string{
		"a_caller.py": "def run():\n    compute()\n",
		"z_callee.py": "def compute():\n    pass\n",
	})
	ctx := context.Background()

	assert.Equal(t, 1, stats.ResolvedCalls)
	assert.Equal(t, 0, stats.UnresolvedRefs)

	calls, err := store.Relationships(ctx, graph.RelFilter{Kind: graph.RelCalls})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "z_callee.py", calls[0].To.File)

	refs, err := store.Entities(ctx, graph.EntityFilter{ReferenceOnly: true})
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestScanOrderIndependence(t *testing.T) {
	// The same code split so the definition sorts first in one tree and
	// last in the other. Both scans must produce the same shape.
	caller := "def run():\n    compute()\n"
	callee := "def compute():\n    pass\n"

	first, _ := scanTree(t, map[string]string{"a.py": caller, "z.py": callee})
	second, _ := scanTree(t, map[string]string{"a.py": callee, "z.py": caller})

	ctx := context.Background()
	firstCalls, err := first.Relationships(ctx, graph.RelFilter{Kind: graph.RelCalls})
	require.NoError(t, err)
	secondCalls, err := second.Relationships(ctx, graph.RelFilter{Kind: graph.RelCalls})
	require.NoError(t, err)

	require.Len(t, firstCalls, 1)
	require.Len(t, secondCalls, 1)
	assert.Equal(t, "compute", firstCalls[0].To.Name)
	assert.Equal(t, "compute", secondCalls[0].To.Name)
	assert.NotEmpty(t, firstCalls[0].To.File)
	assert.NotEmpty(t, secondCalls[0].To.File)

	firstRefs, _ := first.Entities(ctx, graph.EntityFilter{ReferenceOnly: true})
	secondRefs, _ := second.Entities(ctx, graph.EntityFilter{ReferenceOnly: true})
	assert.Empty(t, firstRefs)
	assert.Empty(t, secondRefs)
}

func TestScanIdempotence(t *testing.T) {
	files := map[string]string{
		"app.py":             "def process():\n    helper()\n\ndef helper():\n    pass\n",
		"tests/test_app.py":  "from app import process\n\ndef test_process():\n    process()\n",
	}
	root := writeTree(t, files)
	store := memstore.New()
	eng, err := New(config.DefaultConfig(), store)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = eng.Scan(ctx, root, nil)
	require.NoError(t, err)
	firstEntities, firstRels := store.Export()

	_, err = eng.Scan(ctx, root, nil)
	require.NoError(t, err)
	secondEntities, secondRels := store.Export()

	assert.Equal(t, firstEntities, secondEntities)
	assert.Equal(t, firstRels, secondRels)
}

func TestScanUnresolvedReferenceStays(t *testing.T) {
	store, stats := scanTree(t, map[string]string{
		"app.py": "def run():\n    vanished()\n",
	})

	assert.Equal(t, 1, stats.UnresolvedRefs)

	refs, err := store.Entities(context.Background(), graph.EntityFilter{ReferenceOnly: true})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "vanished", refs[0].Name)
	assert.Equal(t, 0, refs[0].Length)
}

func TestScanDeriveCoverage(t *testing.T) {
	store, stats := scanTree(t, map[string]string{
		"app.py": "def process():\n    pass\n\ndef format_output():\n    pass\n",
		"tests/test_app.py": `from app import format_output

def test_process():
    process()
`,
	})
	ctx := context.Background()

	// naming_pattern: test_process -> process.
	// call: unresolved (process not imported), placeholder skipped... the
	// call still resolves to app.py's process, so call contributes too.
	// import: module-level format_output import covers it from test_process.
	assert.Equal(t, 1, stats.Coverage.NamingPattern)
	assert.Equal(t, 1, stats.Coverage.Import)
	assert.Equal(t, 1, stats.Coverage.Call)

	edges, err := store.Relationships(ctx, graph.RelFilter{Kind: graph.RelTests})
	require.NoError(t, err)
	assert.Len(t, edges, 3)

	methods := make(map[string]int)
	for _, e := range edges {
		methods[e.Method]++
		assert.Equal(t, "tests/test_app.py", e.From.File)
	}
	assert.Equal(t, 1, methods[graph.MethodNamingPattern])
	assert.Equal(t, 1, methods[graph.MethodImport])
	assert.Equal(t, 1, methods[graph.MethodCall])
}

func TestScanImportCoverageSurvivesResolution(t *testing.T) {
	// The imported name is also called, so its placeholder gets resolved
	// and removed. The import record must not go with it.
	store, stats := scanTree(t, map[string]string{
		"app.py": "def helper():\n    pass\n",
		"tests/test_app.py": `from app import helper

def test_run():
    helper()
`,
	})
	ctx := context.Background()

	assert.Equal(t, 1, stats.Coverage.Import)
	assert.Equal(t, 1, stats.Coverage.Call)

	imports, err := store.Relationships(ctx, graph.RelFilter{Kind: graph.RelImports})
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, graph.KindImport, imports[0].To.Kind)
	assert.Equal(t, "helper", imports[0].To.Name)

	refs, err := store.Entities(ctx, graph.EntityFilter{ReferenceOnly: true})
	require.NoError(t, err)
	assert.Empty(t, refs)

	edges, err := store.Relationships(ctx, graph.RelFilter{Kind: graph.RelTests})
	require.NoError(t, err)
	methods := make(map[string]int)
	for _, e := range edges {
		methods[e.Method]++
	}
	assert.Equal(t, 1, methods[graph.MethodImport])
}

func TestScanResolvesMemberCalls(t *testing.T) {
	store, stats := scanTree(t, map[string]string{
		"ledger.py": `class Ledger:
    def post(self, entry):
        pass
`,
		"app.py": "def run():\n    ledger.post(1)\n",
	})
	ctx := context.Background()

	assert.Equal(t, 1, stats.ResolvedCalls)
	assert.Equal(t, 0, stats.UnresolvedRefs)

	refs, err := store.Entities(ctx, graph.EntityFilter{ReferenceOnly: true})
	require.NoError(t, err)
	assert.Empty(t, refs)

	caller := graph.Key{Kind: graph.KindFunction, Name: "run", File: "app.py"}
	calls, err := store.Relationships(ctx, graph.RelFilter{Kind: graph.RelCalls, From: &caller})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "Ledger.post", calls[0].To.Name)
	assert.Equal(t, "ledger.py", calls[0].To.File)
}

func TestScanMemberCallCoverage(t *testing.T) {
	store, stats := scanTree(t, map[string]string{
		"ledger.py": `class Ledger:
    def post(self, entry):
        pass
`,
		"tests/test_ledger.py": "def test_post():\n    ledger.post(1)\n",
	})
	ctx := context.Background()

	// naming_pattern and call both link test_post to Ledger.post.
	assert.Equal(t, 1, stats.Coverage.NamingPattern)
	assert.Equal(t, 1, stats.Coverage.Call)

	edges, err := store.Relationships(ctx, graph.RelFilter{Kind: graph.RelTests})
	require.NoError(t, err)
	require.Len(t, edges, 2)
	for _, e := range edges {
		assert.Equal(t, "test_post", e.From.Name)
		assert.Equal(t, "Ledger.post", e.To.Name)
	}
}

func TestScanClassContainment(t *testing.T) {
	store, _ := scanTree(t, map[string]string{
		"ledger.py": `class Ledger:
    def post(self):
        pass
`,
	})
	ctx := context.Background()

	classKey := graph.Key{Kind: graph.KindClass, Name: "Ledger", File: "ledger.py"}
	contains, err := store.Relationships(ctx, graph.RelFilter{Kind: graph.RelContains, From: &classKey})
	require.NoError(t, err)
	require.Len(t, contains, 1)
	assert.Equal(t, "Ledger.post", contains[0].To.Name)

	// The class itself hangs off the file.
	fileKey := graph.Key{Kind: graph.KindFile, Name: "ledger.py", File: "ledger.py"}
	fromFile, err := store.Relationships(ctx, graph.RelFilter{Kind: graph.RelContains, From: &fileKey})
	require.NoError(t, err)
	require.Len(t, fromFile, 1)
	assert.Equal(t, classKey, fromFile[0].To)
}

func TestScanRecordsParseErrors(t *testing.T) {
	store, stats := scanTree(t, map[string]string{
		"good.py":   "def ok():\n    pass\n",
		"broken.py": "def broken(:\n",
	})

	assert.Equal(t, 2, stats.FilesFound)
	assert.Equal(t, 1, stats.FilesScanned)
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, "broken.py", stats.Errors[0].Path)

	// The broken file contributes nothing.
	files, err := store.Entities(context.Background(), graph.EntityFilter{Kind: graph.KindFile})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "good.py", files[0].Name)
}

func TestScanClearsPreviousGraph(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	require.NoError(t, store.UpsertEntity(ctx, graph.Entity{
		Kind: graph.KindFunction, Name: "stale", File: "gone.py",
	}))

	root := writeTree(t, map[string]string{"app.py": "def fresh():\n    pass\n"})
	eng, err := New(config.DefaultConfig(), store)
	require.NoError(t, err)
	_, err = eng.Scan(ctx, root, nil)
	require.NoError(t, err)

	stale, err := store.Entities(ctx, graph.EntityFilter{Name: "stale"})
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestScanLengthComputation(t *testing.T) {
	store, _ := scanTree(t, map[string]string{
		"app.py": `def short():
    pass

def longer():
    a = 1
    b = 2
    return a + b
`,
	})
	ctx := context.Background()

	fns, err := store.Entities(ctx, graph.EntityFilter{Kind: graph.KindFunction, Name: "short"})
	require.NoError(t, err)
	require.Len(t, fns, 1)
	assert.Equal(t, 2, fns[0].Length)

	fns, err = store.Entities(ctx, graph.EntityFilter{Kind: graph.KindFunction, Name: "longer"})
	require.NoError(t, err)
	require.Len(t, fns, 1)
	assert.Equal(t, 4, fns[0].Length)
	assert.Equal(t, 4, fns[0].Line)
	assert.Equal(t, 7, fns[0].EndLine)
}
