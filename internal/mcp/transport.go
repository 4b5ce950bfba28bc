package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// HTTPHandlerOptions configures the HTTP transport behavior.
type HTTPHandlerOptions struct {
	// Stateless disables session management. Use for simple tool servers
	// that don't need server-to-client requests. Default: false (stateful).
	Stateless bool
}

// NewHTTPHandler creates an HTTP handler for the MCP server using Streamable HTTP transport.
// The handler can be mounted on any http.ServeMux path (e.g., "/mcp").
func NewHTTPHandler(server *Server, opts *HTTPHandlerOptions) http.Handler {
	if opts == nil {
		opts = &HTTPHandlerOptions{}
	}

	sdkOpts := &mcp.StreamableHTTPOptions{
		Stateless: opts.Stateless,
	}

	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server.MCPServer()
	}, sdkOpts)
}

// Routes holds the handlers mounted by NewMux.
type Routes struct {
	MCP        http.Handler
	Health     http.Handler
	Landing    http.Handler
	References http.Handler // static files under /references/, nil to skip
}

// NewMux mounts the server endpoints: /mcp, /health, / and /references/.
func NewMux(routes Routes) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/mcp", routes.MCP)
	mux.Handle("/health", routes.Health)
	mux.Handle("/", routes.Landing)
	if routes.References != nil {
		mux.Handle("/references/", http.StripPrefix("/references/", routes.References))
	}
	return mux
}
