// Package mcptool exposes the retrieval engine and chat service as MCP
// tools over stdio, so agent runtimes can search the knowledge base
// directly.
package mcptool

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/askdocs/askdocs/internal/chat"
	"github.com/askdocs/askdocs/internal/engine"
	"github.com/askdocs/askdocs/internal/store"
)

const (
	// ServerName is the MCP server name
	ServerName = "askdocs-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	engine *engine.Engine
	store  *store.Store
	chat   *chat.Service
}

// NewServer creates a new MCP server instance over already-constructed
// services. The caller owns store initialization; tools answer with a
// not-ready error until it completes.
func NewServer(eng *engine.Engine, st *store.Store, chatSvc *chat.Service) *Server {
	s := &Server{
		mcp:    server.NewMCPServer(ServerName, ServerVersion),
		engine: eng,
		store:  st,
		chat:   chatSvc,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchDocumentsTool(), s.handleSearchDocuments)
	s.mcp.AddTool(askTool(), s.handleAsk)
	s.mcp.AddTool(getStatsTool(), s.handleGetStats)
}
