// Package badgerstore persists scan results as named snapshots in BadgerDB.
// Each snapshot is the full graph, gzip-compressed JSON, keyed by a hash of
// the scanned project root so repeated scans of the same tree group together.
package badgerstore

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"

	"github.com/codegraph-labs/codegraph/pkg/graph"
)

const (
	keyPrefixSnap   = "codegraph:snap:"
	keySuffixData   = ":data"
	keySuffixMeta   = ":meta"
	keySuffixLatest = ":latest"
)

// Snapshot is the serialized form of a full code graph.
type Snapshot struct {
	Entities      []graph.Entity       `json:"entities"`
	Relationships []graph.Relationship `json:"relationships"`
}

// Metadata describes a stored snapshot.
type Metadata struct {
	SnapshotID     string `json:"snapshot_id"`
	ProjectRoot    string `json:"project_root"`
	ProjectHash    string `json:"project_hash"`
	Label          string `json:"label,omitempty"`
	CreatedAtMilli int64  `json:"created_at_milli"`
	EntityCount    int    `json:"entity_count"`
	EdgeCount      int    `json:"edge_count"`
	CompressedSize int64  `json:"compressed_size"`
}

// Manager saves and loads graph snapshots in BadgerDB.
type Manager struct {
	db *badger.DB
}

// Open opens (or creates) a snapshot database at dir.
func Open(dir string) (*Manager, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db: %w", err)
	}
	return &Manager{db: db}, nil
}

// NewManager wraps an already opened BadgerDB instance.
func NewManager(db *badger.DB) *Manager {
	return &Manager{db: db}
}

// Close closes the underlying database.
func (m *Manager) Close() error {
	return m.db.Close()
}

// ProjectHash returns the key-prefix hash for a project root.
func ProjectHash(projectRoot string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(projectRoot))
}

// Save stores the graph as a new snapshot for projectRoot and returns its
// metadata. The latest pointer for the project is updated.
//
// Key schema:
//
//	codegraph:snap:{projectHash}:{snapshotID}:data -> gzip(JSON(Snapshot))
//	codegraph:snap:{projectHash}:{snapshotID}:meta -> JSON(Metadata)
//	codegraph:snap:{projectHash}:latest            -> snapshotID
func (m *Manager) Save(ctx context.Context, projectRoot, label string, snap Snapshot) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	jsonData, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot: %w", err)
	}

	var compressed bytes.Buffer
	gw := gzip.NewWriter(&compressed)
	if _, err := gw.Write(jsonData); err != nil {
		return nil, fmt.Errorf("compressing snapshot: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}

	now := time.Now().UnixMilli()
	projectHash := ProjectHash(projectRoot)
	snapshotID := fmt.Sprintf("%016x", xxhash.Sum64String(projectRoot+":"+strconv.FormatInt(now, 10)))

	meta := &Metadata{
		SnapshotID:     snapshotID,
		ProjectRoot:    projectRoot,
		ProjectHash:    projectHash,
		Label:          label,
		CreatedAtMilli: now,
		EntityCount:    len(snap.Entities),
		EdgeCount:      len(snap.Relationships),
		CompressedSize: int64(compressed.Len()),
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata: %w", err)
	}

	dataKey := keyPrefixSnap + projectHash + ":" + snapshotID + keySuffixData
	metaKey := keyPrefixSnap + projectHash + ":" + snapshotID + keySuffixMeta
	latestKey := keyPrefixSnap + projectHash + keySuffixLatest

	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(dataKey), compressed.Bytes()); err != nil {
			return err
		}
		if err := txn.Set([]byte(metaKey), metaJSON); err != nil {
			return err
		}
		return txn.Set([]byte(latestKey), []byte(snapshotID))
	})
	if err != nil {
		return nil, fmt.Errorf("writing snapshot: %w", err)
	}
	return meta, nil
}

// Load retrieves a snapshot by project root and ID.
func (m *Manager) Load(ctx context.Context, projectRoot, snapshotID string) (*Snapshot, *Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return m.loadByKeys(ProjectHash(projectRoot), snapshotID)
}

// LoadLatest retrieves the most recent snapshot for a project root.
func (m *Manager) LoadLatest(ctx context.Context, projectRoot string) (*Snapshot, *Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	projectHash := ProjectHash(projectRoot)
	latestKey := keyPrefixSnap + projectHash + keySuffixLatest

	var snapshotID string
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			snapshotID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, nil, fmt.Errorf("reading latest pointer: %w", err)
	}
	return m.loadByKeys(projectHash, snapshotID)
}

// List returns metadata for the project's snapshots, newest first.
func (m *Manager) List(ctx context.Context, projectRoot string) ([]*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := keyPrefixSnap + ProjectHash(projectRoot) + ":"

	var results []*Metadata
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())
			if !isMetaKey(key) {
				continue
			}
			var meta Metadata
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				continue
			}
			results = append(results, &meta)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAtMilli > results[j].CreatedAtMilli
	})
	return results, nil
}

// Delete removes a snapshot. If it was the latest, the latest pointer is
// cleared too.
func (m *Manager) Delete(ctx context.Context, projectRoot, snapshotID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	projectHash := ProjectHash(projectRoot)
	dataKey := keyPrefixSnap + projectHash + ":" + snapshotID + keySuffixData
	metaKey := keyPrefixSnap + projectHash + ":" + snapshotID + keySuffixMeta
	latestKey := keyPrefixSnap + projectHash + keySuffixLatest

	err := m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(dataKey)); err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Delete([]byte(metaKey)); err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		item, err := txn.Get([]byte(latestKey))
		if err == nil {
			var latest string
			_ = item.Value(func(val []byte) error {
				latest = string(val)
				return nil
			})
			if latest == snapshotID {
				if err := txn.Delete([]byte(latestKey)); err != nil && err != badger.ErrKeyNotFound {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", snapshotID, err)
	}
	return nil
}

func (m *Manager) loadByKeys(projectHash, snapshotID string) (*Snapshot, *Metadata, error) {
	dataKey := keyPrefixSnap + projectHash + ":" + snapshotID + keySuffixData
	metaKey := keyPrefixSnap + projectHash + ":" + snapshotID + keySuffixMeta

	var compressedData, metaJSON []byte
	err := m.db.View(func(txn *badger.Txn) error {
		dataItem, err := txn.Get([]byte(dataKey))
		if err != nil {
			return fmt.Errorf("reading snapshot %s: %w", snapshotID, err)
		}
		if compressedData, err = dataItem.ValueCopy(nil); err != nil {
			return err
		}
		metaItem, err := txn.Get([]byte(metaKey))
		if err != nil {
			return fmt.Errorf("reading metadata for %s: %w", snapshotID, err)
		}
		metaJSON, err = metaItem.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}

	gr, err := gzip.NewReader(bytes.NewReader(compressedData))
	if err != nil {
		return nil, nil, fmt.Errorf("decompressing snapshot %s: %w", snapshotID, err)
	}
	defer gr.Close()

	jsonData, err := io.ReadAll(gr)
	if err != nil {
		return nil, nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(jsonData, &snap); err != nil {
		return nil, nil, fmt.Errorf("unmarshaling snapshot %s: %w", snapshotID, err)
	}
	return &snap, &meta, nil
}

func isMetaKey(key string) bool {
	return len(key) > len(keySuffixMeta) && key[len(key)-len(keySuffixMeta):] == keySuffixMeta
}
