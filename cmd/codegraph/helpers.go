package main

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/codegraph-labs/codegraph/internal/output"
	"github.com/codegraph-labs/codegraph/pkg/config"
	"github.com/codegraph-labs/codegraph/pkg/graph/badgerstore"
	"github.com/codegraph-labs/codegraph/pkg/graph/memstore"
)

// loadConfig resolves the config file from the --config flag or well-known
// locations, then applies output flags on top.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}

	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.Bool("verbose") {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

// newFormatter builds the output formatter from global flags and config.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	return output.NewFormatter(output.ParseFormat(cfg.Output.Format), c.String("output"), cfg.Output.Color)
}

// projectRoot resolves the positional path argument, defaulting to ".".
func projectRoot(c *cli.Context) (string, error) {
	path := "."
	if c.Args().Len() > 0 {
		path = c.Args().First()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", path, err)
	}
	return abs, nil
}

// openLatestSnapshot loads the most recent graph snapshot for root into an
// in-memory store. The badger handle is closed before returning.
func openLatestSnapshot(c *cli.Context, cfg *config.Config, root string) (*memstore.Store, *badgerstore.Metadata, error) {
	mgr, err := badgerstore.Open(cfg.Snapshot.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening snapshot store %s: %w", cfg.Snapshot.Dir, err)
	}
	defer mgr.Close()

	snap, meta, err := mgr.LoadLatest(c.Context, root)
	if err != nil {
		return nil, nil, fmt.Errorf("loading latest snapshot (run `codegraph scan --snapshot` first): %w", err)
	}

	store := memstore.New()
	store.Import(snap.Entities, snap.Relationships)
	return store, meta, nil
}
