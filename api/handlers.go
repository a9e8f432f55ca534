package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/arbor/pkg/llm"
	"github.com/papercomputeco/arbor/pkg/memory"
	"github.com/papercomputeco/arbor/pkg/transfer"
	"github.com/papercomputeco/arbor/pkg/tree"
)

// NodeResponse is a node with its position in the tree.
type NodeResponse struct {
	Node  *tree.Node `json:"node"`
	Depth int        `json:"depth"`

	// Path lists ancestor ids root first, ending with this node.
	Path []string `json:"path"`

	Policy memory.Policy `json:"policy"`
}

// IntegrityResponse reports the structural issues of a project tree.
type IntegrityResponse struct {
	OK     bool         `json:"ok"`
	Issues []tree.Issue `json:"issues"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListProjects lists saved projects.
func (s *Server) handleListProjects(c *fiber.Ctx) error {
	projects, err := s.driver.Projects(c.Context())
	if err != nil {
		s.logger.Error("failed to list projects", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list projects"})
	}
	if projects == nil {
		projects = []string{}
	}

	return c.JSON(map[string]any{
		"count":    len(projects),
		"projects": projects,
	})
}

// handleListNodes returns every node of a project in store order.
func (s *Server) handleListNodes(c *fiber.Ctx) error {
	store, err := s.loadStore(c)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(map[string]any{
		"project": c.Params("project"),
		"count":   store.Len(),
		"roots":   len(store.Roots()),
		"leaves":  len(store.Leaves()),
		"nodes":   store.Nodes(),
	})
}

// handleGetNode returns a single node with its ancestry.
func (s *Server) handleGetNode(c *fiber.Ctx) error {
	store, err := s.loadStore(c)
	if err != nil {
		return s.writeError(c, err)
	}

	id := c.Params("id")
	path, err := store.PathToRoot(id)
	if err != nil {
		return s.writeError(c, err)
	}

	ids := make([]string, 0, len(path))
	for _, n := range path {
		ids = append(ids, n.ID)
	}

	node := path[len(path)-1]
	return c.JSON(NodeResponse{
		Node:   node,
		Depth:  len(path) - 1,
		Path:   ids,
		Policy: memory.Classify(node),
	})
}

// handleContext returns the compiled context for a node and an optional
// prompt query parameter.
func (s *Server) handleContext(c *fiber.Ctx) error {
	store, err := s.loadStore(c)
	if err != nil {
		return s.writeError(c, err)
	}

	view, err := memory.Inspect(store, c.Params("id"), c.Query("prompt"), s.config.TokenBudget)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(view)
}

// handleSummary returns the context summary for a node.
func (s *Server) handleSummary(c *fiber.Ctx) error {
	store, err := s.loadStore(c)
	if err != nil {
		return s.writeError(c, err)
	}

	summary, err := memory.SummarizeStore(store, c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(summary)
}

// handleIntegrity runs the structural integrity pass over a project.
func (s *Server) handleIntegrity(c *fiber.Ctx) error {
	store, err := s.loadStore(c)
	if err != nil {
		return s.writeError(c, err)
	}

	issues := store.Validate()
	return c.JSON(IntegrityResponse{
		OK:     len(issues) == 0,
		Issues: issues,
	})
}

// handleExport returns the project in the portable export format.
func (s *Server) handleExport(c *fiber.Ctx) error {
	store, err := s.loadStore(c)
	if err != nil {
		return s.writeError(c, err)
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+c.Params("project")+`.json"`)
	return c.JSON(transfer.Export(store.Nodes(), time.Now()))
}

// loadStore loads the project named in the route.
func (s *Server) loadStore(c *fiber.Ctx) (*tree.Store, error) {
	project := c.Params("project")

	nodes, err := s.driver.Load(c.Context(), project)
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", project, err)
	}
	if nodes == nil {
		return nil, errProjectNotFound
	}

	return tree.NewStore(nodes...), nil
}

var errProjectNotFound = errors.New("project not found")

// writeError maps storage and tree errors to HTTP responses.
func (s *Server) writeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errProjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	var nf tree.NotFoundError
	if errors.As(err, &nf) {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: nf.Error()})
	}

	var cycle tree.CycleError
	if errors.As(err, &cycle) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(llm.ErrorResponse{Error: cycle.Error()})
	}

	var invalid tree.InvalidImportError
	if errors.As(err, &invalid) {
		s.logger.Error("stored project is invalid", "error", err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(llm.ErrorResponse{Error: invalid.Error()})
	}

	s.logger.Error("request failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error"})
}
