package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/codegraph-labs/codegraph/pkg/config"
	"github.com/codegraph-labs/codegraph/pkg/graph"
)

// TestProjectRoot verifies positional path resolution.
func TestProjectRoot(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "no args defaults to current dir",
			args: []string{},
			want: ".",
		},
		{
			name: "explicit path",
			args: []string{"/foo/bar"},
			want: "/foo/bar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &cli.App{
				Action: func(c *cli.Context) error {
					got, err := projectRoot(c)
					if err != nil {
						t.Fatalf("projectRoot() error: %v", err)
					}
					want, _ := filepath.Abs(tt.want)
					if got != want {
						t.Errorf("projectRoot() = %q, want %q", got, want)
					}
					return nil
				},
			}
			args := append([]string{"test"}, tt.args...)
			_ = app.Run(args)
		})
	}
}

// TestRequiredArg verifies positional argument validation.
func TestRequiredArg(t *testing.T) {
	app := &cli.App{
		Action: func(c *cli.Context) error {
			got, err := requiredArg(c, 0, "FUNCTION")
			if err != nil {
				t.Fatalf("requiredArg(0) error: %v", err)
			}
			if got != "main" {
				t.Errorf("requiredArg(0) = %q, want %q", got, "main")
			}
			if _, err := requiredArg(c, 1, "TARGET"); err == nil {
				t.Error("requiredArg(1) expected error for missing argument")
			}
			return nil
		},
	}
	if err := app.Run([]string{"test", "main"}); err != nil {
		t.Fatalf("app.Run() error: %v", err)
	}
}

func TestFlagString(t *testing.T) {
	tests := []struct {
		name   string
		entity graph.Entity
		want   string
	}{
		{"no flags", graph.Entity{}, ""},
		{"test", graph.Entity{IsTest: true}, "test"},
		{"main", graph.Entity{IsMain: true}, "main"},
		{"member test", graph.Entity{IsTest: true, IsClassMember: true}, "test,member"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flagString(tt.entity); got != tt.want {
				t.Errorf("flagString() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestGenerateDefaultConfig checks the init template loads back unchanged.
func TestGenerateDefaultConfig(t *testing.T) {
	content, err := generateDefaultConfig()
	if err != nil {
		t.Fatalf("generateDefaultConfig() error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "codegraph.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load() error: %v", err)
	}

	want := config.DefaultConfig()
	if len(cfg.Classify.TestDirs) != len(want.Classify.TestDirs) {
		t.Errorf("TestDirs = %v, want %v", cfg.Classify.TestDirs, want.Classify.TestDirs)
	}
	if cfg.Scan.Workers != want.Scan.Workers {
		t.Errorf("Workers = %d, want %d", cfg.Scan.Workers, want.Scan.Workers)
	}
	if cfg.Snapshot.Dir != want.Snapshot.Dir {
		t.Errorf("Snapshot.Dir = %q, want %q", cfg.Snapshot.Dir, want.Snapshot.Dir)
	}
	if cfg.Output.Format != want.Output.Format {
		t.Errorf("Output.Format = %q, want %q", cfg.Output.Format, want.Output.Format)
	}
}

// TestCommandWiring confirms every top-level command is registered.
func TestCommandWiring(t *testing.T) {
	commands := []*cli.Command{scanCmd(), queryCmd(), snapshotsCmd(), mcpCmd(), initCmd()}
	want := []string{"scan", "query", "snapshots", "mcp", "init"}
	for i, cmd := range commands {
		if cmd.Name != want[i] {
			t.Errorf("command[%d].Name = %q, want %q", i, cmd.Name, want[i])
		}
	}

	querySubs := map[string]bool{}
	for _, sub := range queryCmd().Subcommands {
		querySubs[sub.Name] = true
	}
	for _, name := range []string{"summary", "files", "functions", "classes", "constants", "callers", "callees", "paths", "unresolved", "uncalled", "untested", "coverage", "repetitive"} {
		if !querySubs[name] {
			t.Errorf("query subcommand %q not registered", name)
		}
	}
}
