// Package mcp provides an MCP (Model Context Protocol) server that lets other
// agents inspect the context arbor would compile for a conversation node.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/arbor/pkg/storage"
	"github.com/papercomputeco/arbor/pkg/utils"
)

type Config struct {
	// Driver loads persisted project trees
	Driver storage.Driver

	// TokenBudget is the advisory budget reported by context_compile
	TokenBudget int

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the context tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "arbor",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Driver == nil {
			return nil, errors.New("storage driver is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        compileToolName,
			Description: compileDescription,
		}, s.handleCompile)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        summaryToolName,
			Description: summaryDescription,
		}, s.handleSummary)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
