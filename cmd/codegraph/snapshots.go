package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/codegraph-labs/codegraph/internal/output"
	"github.com/codegraph-labs/codegraph/pkg/graph/badgerstore"
)

func snapshotsCmd() *cli.Command {
	return &cli.Command{
		Name:  "snapshots",
		Usage: "Manage stored graph snapshots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Value: ".",
				Usage: "Project root the snapshots were scanned from",
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List snapshots for the project, newest first",
				Action: runSnapshotsList,
			},
			{
				Name:      "delete",
				Usage:     "Delete a snapshot by ID",
				ArgsUsage: "SNAPSHOT_ID",
				Action:    runSnapshotsDelete,
			},
		},
	}
}

func openManager(c *cli.Context) (*badgerstore.Manager, string, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, "", err
	}
	root, err := filepath.Abs(c.String("root"))
	if err != nil {
		return nil, "", fmt.Errorf("invalid root %s: %w", c.String("root"), err)
	}
	mgr, err := badgerstore.Open(cfg.Snapshot.Dir)
	if err != nil {
		return nil, "", fmt.Errorf("opening snapshot store %s: %w", cfg.Snapshot.Dir, err)
	}
	return mgr, root, nil
}

func runSnapshotsList(c *cli.Context) error {
	mgr, root, err := openManager(c)
	if err != nil {
		return err
	}
	defer mgr.Close()

	metas, err := mgr.List(c.Context, root)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rows := make([][]string, 0, len(metas))
	for _, m := range metas {
		created := time.UnixMilli(m.CreatedAtMilli).Format(time.RFC3339)
		rows = append(rows, []string{
			m.SnapshotID,
			m.Label,
			created,
			fmt.Sprintf("%d", m.EntityCount),
			fmt.Sprintf("%d", m.EdgeCount),
		})
	}
	return formatter.Output(output.NewTable("Snapshots", []string{"ID", "Label", "Created", "Entities", "Edges"}, rows, nil, metas))
}

func runSnapshotsDelete(c *cli.Context) error {
	id, err := requiredArg(c, 0, "SNAPSHOT_ID")
	if err != nil {
		return err
	}
	mgr, root, err := openManager(c)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if err := mgr.Delete(c.Context, root, id); err != nil {
		return err
	}
	color.Green("Deleted snapshot %s", id)
	return nil
}
