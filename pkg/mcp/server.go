// Package mcp exposes the analyst gateway and market views to MCP
// clients over streamable HTTP.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
)

// Server owns the mcp-go server instance the engine registers its tools
// on. The HTTP transport is attached separately by the handler layer.
type Server struct {
	mcp *server.MCPServer
}

// NewServer creates an MCP server advertising tool capabilities.
func NewServer(name, version string) *Server {
	return &Server{
		mcp: server.NewMCPServer(
			name,
			version,
			server.WithToolCapabilities(true),
		),
	}
}

// MCP returns the underlying MCPServer for tool registration.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// NewStreamableHTTPServer creates the stateless streamable HTTP transport
// for this server. The mux routes /mcp itself, so no endpoint path is
// configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}
