package main

import (
	"github.com/urfave/cli/v2"

	"github.com/codegraph-labs/codegraph/internal/mcpserver"
	"github.com/codegraph-labs/codegraph/pkg/graph/memstore"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes the code graph
as tools an LLM can invoke. The graph is loaded from the latest snapshot
when one exists; scan_codebase builds or refreshes it.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "codegraph": {
        "command": "codegraph",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - graph_summary              Entity and relationship counts
  - list_files                 Scanned files
  - list_functions             Functions in a file
  - list_classes               Classes in a file
  - list_constants             Constants, optionally per file
  - callers                    Call sites invoking a function
  - callees                    Calls a function makes
  - transitive_calls           Call paths between two functions
  - unresolved_references      Called but never defined
  - uncalled_functions         No recorded callers
  - untested_functions         No test coverage edge
  - untested_classes           No tested member function
  - test_coverage_ratio        Heuristic coverage, overall and per file
  - repetitive_constants       Same value declared repeatedly
  - repetitive_constant_names  Same name declared repeatedly
  - scan_codebase              Rebuild the graph from the project root`,
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	root, err := projectRoot(c)
	if err != nil {
		return err
	}

	// Start from the latest snapshot when one exists; otherwise the
	// scan_codebase tool populates the store on demand.
	store, _, err := openLatestSnapshot(c, cfg, root)
	if err != nil {
		store = memstore.New()
	}

	server, err := mcpserver.NewServer(version, cfg, store, root)
	if err != nil {
		return err
	}
	return server.Run(c.Context)
}
