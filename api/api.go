package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/arbor/pkg/storage"
)

// Server is the API server for inspecting arbor projects.
type Server struct {
	config Config
	driver storage.Driver
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The driver is injected to allow sharing with the CLI session that writes
// to it. mcpHandler is mounted at /mcp when non-nil.
func NewServer(config Config, driver storage.Driver, mcpHandler http.Handler, logger *slog.Logger) (*Server, error) {
	if driver == nil {
		return nil, errors.New("storage driver is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		driver: driver,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/projects", s.handleListProjects)

	project := app.Group("/projects/:project")
	project.Get("/nodes", s.handleListNodes)
	project.Get("/nodes/:id", s.handleGetNode)
	project.Get("/context/:id", s.handleContext)
	project.Get("/summary/:id", s.handleSummary)
	project.Get("/integrity", s.handleIntegrity)
	project.Get("/export", s.handleExport)

	if mcpHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(mcpHandler))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Test runs req against the router without a network listener.
func (s *Server) Test(req *http.Request) (*http.Response, error) {
	return s.app.Test(req, -1)
}
