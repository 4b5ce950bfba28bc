package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server *mcp.Server
}

// Config holds server dependencies.
type Config struct {
	Index   IndexLoader
	Version string // reported to clients; defaults to v0.1.0
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "v0.1.0"
	}
	impl := &mcp.Implementation{
		Name:    "artifact-catalog",
		Version: version,
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_artifacts",
		Description: "Search the catalog of generated front-end artifacts (React components and HTML pages). Filters by source, tags, dependencies and creation date; sorts by name, date, size or source.",
	}, makeSearchHandler(cfg.Index))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_artifact",
		Description: "Get one artifact's metadata by id, or by filename and source. The path field is the URL of the raw file on this server.",
	}, makeGetHandler(cfg.Index))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tags",
		Description: "List every distinct artifact tag, sorted.",
	}, makeTagsHandler(cfg.Index))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_dependencies",
		Description: "List every distinct library the artifacts depend on, sorted.",
	}, makeDependenciesHandler(cfg.Index))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index_status",
		Description: "Get the version, last update time, build id and per-source counts of the metadata index. Set reload to pick up a freshly generated index.",
	}, makeStatusHandler(cfg.Index))

	return &Server{server: server}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
