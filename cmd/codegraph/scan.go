package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/codegraph-labs/codegraph/internal/engine"
	"github.com/codegraph-labs/codegraph/internal/output"
	"github.com/codegraph-labs/codegraph/internal/progress"
	"github.com/codegraph-labs/codegraph/pkg/graph"
	"github.com/codegraph-labs/codegraph/pkg/graph/badgerstore"
	"github.com/codegraph-labs/codegraph/pkg/graph/memstore"
)

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Walk source files and build the code graph",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of parallel parse workers (0 = number of CPUs)",
			},
			&cli.BoolFlag{
				Name:  "snapshot",
				Usage: "Persist the finished graph as a snapshot",
			},
			&cli.StringFlag{
				Name:  "label",
				Usage: "Label to attach to the snapshot",
			},
			&cli.StringSliceFlag{
				Name:  "test-dir",
				Usage: "Directory name that marks its files as tests (repeatable, overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "test-func-prefix",
				Usage: "Function name prefix that marks tests (repeatable, overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "test-file-glob",
				Usage: "Filename glob that marks a file as a test (repeatable, overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "test-class-pattern",
				Usage: "Class name pattern that marks tests (repeatable, overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "example-dir",
				Usage: "Directory name that marks its files as examples (repeatable, overrides config)",
			},
		},
		Action: runScanCmd,
	}
}

func runScanCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("workers") {
		cfg.Scan.Workers = c.Int("workers")
	}
	if dirs := c.StringSlice("test-dir"); len(dirs) > 0 {
		cfg.Classify.TestDirs = dirs
	}
	if prefixes := c.StringSlice("test-func-prefix"); len(prefixes) > 0 {
		cfg.Classify.TestFuncPrefixes = prefixes
	}
	if globs := c.StringSlice("test-file-glob"); len(globs) > 0 {
		cfg.Classify.TestFileGlobs = globs
	}
	if patterns := c.StringSlice("test-class-pattern"); len(patterns) > 0 {
		cfg.Classify.TestClassPatterns = patterns
	}
	if dirs := c.StringSlice("example-dir"); len(dirs) > 0 {
		cfg.Classify.ExampleDirs = dirs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	root, err := projectRoot(c)
	if err != nil {
		return err
	}

	store := memstore.New()
	eng, err := engine.New(cfg, store)
	if err != nil {
		return err
	}

	tracker := progress.NewSpinner("Scanning " + root + "...")
	stats, err := eng.Scan(c.Context, root, tracker.Tick)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("scan failed: %w", err)
	}
	tracker.FinishSuccess()

	if c.Bool("snapshot") || cfg.Snapshot.Enabled {
		meta, err := saveSnapshot(c, cfg.Snapshot.Dir, root, c.String("label"), store)
		if err != nil {
			return err
		}
		color.Green("Snapshot %s saved (%d entities, %d edges)", meta.SnapshotID, meta.EntityCount, meta.EdgeCount)
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return renderScanStats(formatter, stats)
}

func saveSnapshot(c *cli.Context, dir, root, label string, store *memstore.Store) (*badgerstore.Metadata, error) {
	mgr, err := badgerstore.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store %s: %w", dir, err)
	}
	defer mgr.Close()

	entities, rels := store.Export()
	meta, err := mgr.Save(c.Context, root, label, badgerstore.Snapshot{
		Entities:      entities,
		Relationships: rels,
	})
	if err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}
	return meta, nil
}

func renderScanStats(formatter *output.Formatter, stats *engine.Stats) error {
	if formatter.Format() == output.FormatJSON {
		return formatter.Output(stats)
	}

	entityRows := [][]string{
		{"Files", fmt.Sprintf("%d", stats.Entities[graph.KindFile])},
		{"Classes", fmt.Sprintf("%d", stats.Entities[graph.KindClass])},
		{"Functions", fmt.Sprintf("%d", stats.Entities[graph.KindFunction])},
		{"Constants", fmt.Sprintf("%d", stats.Entities[graph.KindConstant])},
	}
	edgeRows := [][]string{
		{"CONTAINS", fmt.Sprintf("%d", stats.Relationships[graph.RelContains])},
		{"CALLS", fmt.Sprintf("%d", stats.Relationships[graph.RelCalls])},
		{"TESTS", fmt.Sprintf("%d", stats.Relationships[graph.RelTests])},
		{"IMPORTS", fmt.Sprintf("%d", stats.Relationships[graph.RelImports])},
	}
	coverageRows := [][]string{
		{"naming_pattern", fmt.Sprintf("%d", stats.Coverage.NamingPattern)},
		{"import", fmt.Sprintf("%d", stats.Coverage.Import)},
		{"call", fmt.Sprintf("%d", stats.Coverage.Call)},
	}

	report := &output.Report{
		Title: "Scan summary",
		Sections: []output.Renderable{
			output.NewTable("Entities", []string{"Kind", "Count"}, entityRows, nil, stats.Entities),
			output.NewTable("Relationships", []string{"Kind", "Count"}, edgeRows, nil, stats.Relationships),
			output.NewTable("Coverage edges", []string{"Heuristic", "Count"}, coverageRows, nil, stats.Coverage),
		},
	}
	if err := formatter.Output(report); err != nil {
		return err
	}

	formatter.Info("Scanned %d/%d files in %s (%d calls resolved, %d unresolved references)",
		stats.FilesScanned, stats.FilesFound, stats.Duration.Round(time.Millisecond), stats.ResolvedCalls, stats.UnresolvedRefs)
	for _, fe := range stats.Errors {
		formatter.Warning("skipped %s: %s", fe.Path, fe.Err)
	}
	return nil
}
