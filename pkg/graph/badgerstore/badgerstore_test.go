package badgerstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph-labs/codegraph/pkg/graph"
)

func openTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func sampleSnapshot() Snapshot {
	fileKey := graph.Key{Kind: graph.KindFile, Name: "a.py", File: "a.py"}
	fnKey := graph.Key{Kind: graph.KindFunction, Name: "run", File: "a.py"}
	return Snapshot{
		Entities: []graph.Entity{
			{Kind: graph.KindFile, Name: "a.py", File: "a.py", Language: "python"},
			{Kind: graph.KindFunction, Name: "run", File: "a.py", Line: 1, EndLine: 4, Length: 4},
		},
		Relationships: []graph.Relationship{
			{Kind: graph.RelContains, From: fileKey, To: fnKey},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := openTestManager(t)
	ctx := context.Background()

	meta, err := m.Save(ctx, "/proj", "baseline", sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, 2, meta.EntityCount)
	assert.Equal(t, 1, meta.EdgeCount)
	assert.Equal(t, "baseline", meta.Label)

	snap, loadedMeta, err := m.Load(ctx, "/proj", meta.SnapshotID)
	require.NoError(t, err)
	assert.Equal(t, meta.SnapshotID, loadedMeta.SnapshotID)
	assert.Equal(t, sampleSnapshot(), *snap)
}

func TestLoadLatest(t *testing.T) {
	m := openTestManager(t)
	ctx := context.Background()

	_, err := m.Save(ctx, "/proj", "first", sampleSnapshot())
	require.NoError(t, err)
	second, err := m.Save(ctx, "/proj", "second", sampleSnapshot())
	require.NoError(t, err)

	_, meta, err := m.LoadLatest(ctx, "/proj")
	require.NoError(t, err)
	assert.Equal(t, second.SnapshotID, meta.SnapshotID)
}

func TestListScopedToProject(t *testing.T) {
	m := openTestManager(t)
	ctx := context.Background()

	_, err := m.Save(ctx, "/proj-a", "", sampleSnapshot())
	require.NoError(t, err)
	_, err = m.Save(ctx, "/proj-b", "", sampleSnapshot())
	require.NoError(t, err)

	list, err := m.List(ctx, "/proj-a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "/proj-a", list[0].ProjectRoot)
}

func TestDelete(t *testing.T) {
	m := openTestManager(t)
	ctx := context.Background()

	meta, err := m.Save(ctx, "/proj", "", sampleSnapshot())
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, "/proj", meta.SnapshotID))

	_, _, err = m.Load(ctx, "/proj", meta.SnapshotID)
	assert.Error(t, err)

	// Latest pointer was cleared along with the only snapshot.
	_, _, err = m.LoadLatest(ctx, "/proj")
	assert.Error(t, err)
}
