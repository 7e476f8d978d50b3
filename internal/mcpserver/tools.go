package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool inputs. Empty structs still get a schema, which keeps clients that
// send {} happy.

// EmptyInput is used by tools that take no arguments.
type EmptyInput struct{}

// FileInput scopes a listing to one file.
type FileInput struct {
	File string `json:"file" jsonschema:"Relative path of a scanned file, as returned by list_files."`
}

// OptionalFileInput scopes a listing to one file when set.
type OptionalFileInput struct {
	File string `json:"file,omitempty" jsonschema:"Relative path of a scanned file. All files when empty."`
}

// FunctionInput names a function.
type FunctionInput struct {
	Function string `json:"function" jsonschema:"Function name. A plain name also matches class members, e.g. post matches Ledger.post."`
}

// PathsInput bounds a transitive call search.
type PathsInput struct {
	From     string `json:"from" jsonschema:"Function the paths start at."`
	To       string `json:"to" jsonschema:"Function the paths end at."`
	MaxDepth int    `json:"max_depth,omitempty" jsonschema:"Maximum call edges per path. Default 10."`
}

// MinCountInput bounds a repetition query.
type MinCountInput struct {
	MinCount int `json:"min_count,omitempty" jsonschema:"Minimum repetitions before a group is reported. Default 2."`
}

func toolResult(data any) (*mcp.CallToolResult, any, error) {
	text, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(text)},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// Tool handlers

func (s *Server) handleSummary(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, any, error) {
	sum, err := s.svc.Summary(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(sum)
}

func (s *Server) handleListFiles(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, any, error) {
	files, err := s.svc.Files(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(files)
}

func (s *Server) handleListFunctions(ctx context.Context, req *mcp.CallToolRequest, input FileInput) (*mcp.CallToolResult, any, error) {
	if input.File == "" {
		return toolError("file is required")
	}
	fns, err := s.svc.FunctionsInFile(ctx, input.File)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(fns)
}

func (s *Server) handleListClasses(ctx context.Context, req *mcp.CallToolRequest, input FileInput) (*mcp.CallToolResult, any, error) {
	if input.File == "" {
		return toolError("file is required")
	}
	classes, err := s.svc.ClassesInFile(ctx, input.File)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(classes)
}

func (s *Server) handleListConstants(ctx context.Context, req *mcp.CallToolRequest, input OptionalFileInput) (*mcp.CallToolResult, any, error) {
	consts, err := s.svc.Constants(ctx, input.File)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(consts)
}

func (s *Server) handleCallers(ctx context.Context, req *mcp.CallToolRequest, input FunctionInput) (*mcp.CallToolResult, any, error) {
	if input.Function == "" {
		return toolError("function is required")
	}
	sites, err := s.svc.Callers(ctx, input.Function)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(sites)
}

func (s *Server) handleCallees(ctx context.Context, req *mcp.CallToolRequest, input FunctionInput) (*mcp.CallToolResult, any, error) {
	if input.Function == "" {
		return toolError("function is required")
	}
	sites, err := s.svc.Callees(ctx, input.Function)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(sites)
}

func (s *Server) handleTransitiveCalls(ctx context.Context, req *mcp.CallToolRequest, input PathsInput) (*mcp.CallToolResult, any, error) {
	if input.From == "" || input.To == "" {
		return toolError("from and to are required")
	}
	paths, err := s.svc.CallPaths(ctx, input.From, input.To, input.MaxDepth)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(paths)
}

func (s *Server) handleUnresolved(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, any, error) {
	refs, err := s.svc.Unresolved(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(refs)
}

func (s *Server) handleUncalled(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, any, error) {
	fns, err := s.svc.Uncalled(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(fns)
}

func (s *Server) handleUntested(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, any, error) {
	fns, err := s.svc.Untested(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(fns)
}

func (s *Server) handleUntestedClasses(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, any, error) {
	classes, err := s.svc.UntestedClasses(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(classes)
}

func (s *Server) handleCoverage(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, any, error) {
	cov, err := s.svc.Coverage(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(cov)
}

func (s *Server) handleRepetitiveConstants(ctx context.Context, req *mcp.CallToolRequest, input MinCountInput) (*mcp.CallToolResult, any, error) {
	groups, err := s.svc.RepeatedValues(ctx, input.MinCount)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(groups)
}

func (s *Server) handleRepetitiveNames(ctx context.Context, req *mcp.CallToolRequest, input MinCountInput) (*mcp.CallToolResult, any, error) {
	groups, err := s.svc.RepeatedNames(ctx, input.MinCount)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(groups)
}

func (s *Server) handleScan(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, any, error) {
	stats, err := s.rescan(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(stats)
}
