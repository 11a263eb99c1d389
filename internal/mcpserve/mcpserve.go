// Package mcpserve exposes the search core as a single MCP tool,
// "search_files", so an AI assistant can issue rdump queries the same
// way a CLI caller does. Grounded on the teacher's internal/mcp package
// (registerTools/AddTool/createJSONResponse pattern), scoped down to this
// spec's one read-only query operation — the teacher's raison d'être,
// narrowed to this core.
package mcpserve

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rdump-dev/rdump/internal/config"
	"github.com/rdump-dev/rdump/internal/orchestrator"
	"github.com/rdump-dev/rdump/internal/predicate"
)

// Server adapts the orchestrator core to an MCP tool surface.
type Server struct {
	server   *mcp.Server
	registry *predicate.Registry
	presets  map[string]string
}

// New builds the MCP server and registers its one tool. registry is the
// shared, read-only predicate registry (§5); presets resolve bare @name
// references in incoming queries (§6 "Configuration inputs").
func New(registry *predicate.Registry, presets map[string]string) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "rdump-mcp-server",
			Version: "0.1.0",
		}, nil),
		registry: registry,
		presets:  presets,
	}
	s.registerTools()
	return s
}

// Serve runs the server over stdio until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "search_files",
		Description: "Search source files under a directory using rdump's boolean query language (metadata, content, and syntax-aware predicates combined with &, |, !).",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "rdump query, e.g. \"ext:'go' & contains:'TODO'\" or \"func:'HandleRequest'\"",
				},
				"root": {
					Type:        "string",
					Description: "Directory to search. Defaults to the current working directory.",
				},
				"include_hidden": {
					Type:        "boolean",
					Description: "Include dot-prefixed files and directories.",
				},
				"no_ignore": {
					Type:        "boolean",
					Description: "Disable built-in, global, and .gitignore exclusions (.rdumpignore still applies).",
				},
				"max_depth": {
					Type:        "integer",
					Description: "Maximum directory depth below root; omit for unbounded. 0 restricts to root's direct children.",
				},
				"workers": {
					Type:        "integer",
					Description: "Evaluator worker count; omit to use one per logical CPU.",
				},
			},
			Required: []string{"query"},
		},
	}, s.handleSearchFiles)
}

// searchFilesArgs is the tool's input, deserialized manually (as the
// teacher's handlers do) rather than relying on struct-tag inference, so
// an unrecognized field never hard-fails the call.
type searchFilesArgs struct {
	Query         string `json:"query"`
	Root          string `json:"root"`
	IncludeHidden bool   `json:"include_hidden"`
	NoIgnore      bool   `json:"no_ignore"`
	MaxDepth      *int   `json:"max_depth"`
	Workers       int    `json:"workers"`
}

type searchFilesRecord struct {
	Path         string    `json:"path"`
	SizeBytes    int64     `json:"size_bytes"`
	ModifiedTime time.Time `json:"modified_time"`
}

func (s *Server) handleSearchFiles(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args searchFilesArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return errorResult("search_files", fmt.Errorf("invalid parameters: %w", err))
	}

	root := args.Root
	if root == "" {
		root = "."
	}
	maxDepth := -1
	if args.MaxDepth != nil {
		maxDepth = *args.MaxDepth
	}
	workers := args.Workers
	if workers <= 0 {
		workers = config.Default().Workers
	}

	resolvedQuery := config.ResolvePreset(s.presets, args.Query)

	records, err := orchestrator.Run(ctx, orchestrator.Options{
		Query:         resolvedQuery,
		Root:          root,
		IncludeHidden: args.IncludeHidden,
		NoIgnore:      args.NoIgnore,
		MaxDepth:      maxDepth,
		Workers:       workers,
	}, s.registry)
	if err != nil {
		return errorResult("search_files", err)
	}

	out := make([]searchFilesRecord, len(records))
	for i, r := range records {
		out[i] = searchFilesRecord{Path: r.Path, SizeBytes: r.SizeBytes, ModifiedTime: r.ModifiedTime}
	}
	return jsonResult(map[string]any{
		"matches": out,
		"count":   len(out),
	})
}

func jsonResult(data any) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(content)}},
	}, nil
}

func errorResult(operation string, err error) (*mcp.CallToolResult, error) {
	result, marshalErr := jsonResult(map[string]any{
		"success":   false,
		"operation": operation,
		"error":     err.Error(),
	})
	if marshalErr != nil {
		return nil, marshalErr
	}
	result.IsError = true
	return result, nil
}
