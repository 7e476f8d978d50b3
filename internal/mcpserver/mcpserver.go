package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegraph-labs/codegraph/internal/engine"
	"github.com/codegraph-labs/codegraph/pkg/classify"
	"github.com/codegraph-labs/codegraph/pkg/config"
	"github.com/codegraph-labs/codegraph/pkg/graph"
	"github.com/codegraph-labs/codegraph/pkg/query"
)

// Server exposes the code graph query surface over MCP. Read tools answer
// from the store the server was given; scan_codebase rebuilds it.
type Server struct {
	server *mcp.Server
	store  graph.Store
	svc    *query.Service
	cfg    *config.Config
	root   string
}

// NewServer creates an MCP server over a graph store. root is the project
// directory scan_codebase rescans.
func NewServer(version string, cfg *config.Config, store graph.Store, root string) (*Server, error) {
	if version == "" {
		version = "dev"
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	classifier, err := classify.New(cfg.Classify)
	if err != nil {
		return nil, fmt.Errorf("building classifier: %w", err)
	}

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "codegraph",
			Version: version,
		},
		nil,
	)

	s := &Server{
		server: server,
		store:  store,
		svc:    query.New(store, classifier),
		cfg:    cfg,
		root:   root,
	}
	s.registerTools()
	s.registerPrompts()
	return s, nil
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// rescan rebuilds the graph from the project root.
func (s *Server) rescan(ctx context.Context) (*engine.Stats, error) {
	eng, err := engine.New(s.cfg, s.store)
	if err != nil {
		return nil, err
	}
	return eng.Scan(ctx, s.root, nil)
}

// registerTools adds the query and scan tools to the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "graph_summary",
		Description: describeSummary(),
	}, s.handleSummary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_files",
		Description: describeListFiles(),
	}, s.handleListFiles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_functions",
		Description: describeListFunctions(),
	}, s.handleListFunctions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_classes",
		Description: describeListClasses(),
	}, s.handleListClasses)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_constants",
		Description: describeListConstants(),
	}, s.handleListConstants)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "callers",
		Description: describeCallers(),
	}, s.handleCallers)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "callees",
		Description: describeCallees(),
	}, s.handleCallees)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "transitive_calls",
		Description: describeTransitiveCalls(),
	}, s.handleTransitiveCalls)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "unresolved_references",
		Description: describeUnresolved(),
	}, s.handleUnresolved)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "uncalled_functions",
		Description: describeUncalled(),
	}, s.handleUncalled)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "untested_functions",
		Description: describeUntested(),
	}, s.handleUntested)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "untested_classes",
		Description: describeUntestedClasses(),
	}, s.handleUntestedClasses)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "test_coverage_ratio",
		Description: describeCoverage(),
	}, s.handleCoverage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "repetitive_constants",
		Description: describeRepetitiveConstants(),
	}, s.handleRepetitiveConstants)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "repetitive_constant_names",
		Description: describeRepetitiveNames(),
	}, s.handleRepetitiveNames)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "scan_codebase",
		Description: describeScan(),
	}, s.handleScan)
}
