package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/arbor/pkg/memory"
	"github.com/papercomputeco/arbor/pkg/tree"
)

var (
	compileToolName    = "context_compile"
	compileDescription = "Compile the message list arbor would send to a model from a node in a branching conversation tree. " +
		"Roots see every branch in chronological order; nodes inside a branch see only their ancestor path. The pinned node always comes first."

	summaryToolName    = "context_summary"
	summaryDescription = "Summarize what context a node in a branching conversation tree would see: the memory policy, node counts per step and the total token estimate."
)

// CompileInput represents the input arguments for the context_compile tool.
type CompileInput struct {
	Project string `json:"project" jsonschema:"the project whose tree to read"`
	NodeID  string `json:"node_id" jsonschema:"the active node id; empty compiles only pinned context"`
	Prompt  string `json:"prompt,omitempty" jsonschema:"the new user prompt appended last"`
}

// SummaryInput represents the input arguments for the context_summary tool.
type SummaryInput struct {
	Project string `json:"project" jsonschema:"the project whose tree to read"`
	NodeID  string `json:"node_id" jsonschema:"the active node id"`
}

// SummaryOutput represents the output of the context_summary tool.
type SummaryOutput struct {
	Project string         `json:"project"`
	NodeID  string         `json:"node_id"`
	Summary memory.Summary `json:"summary"`
}

// handleCompile processes a context_compile request.
func (s *Server) handleCompile(ctx context.Context, _ *mcp.CallToolRequest, input CompileInput) (*mcp.CallToolResult, memory.View, error) {
	logger := s.config.Logger
	logger.Debug("MCP context_compile request",
		"project", input.Project,
		"node_id", input.NodeID,
	)

	store, err := s.loadStore(ctx, input.Project)
	if err != nil {
		return errorResult(err), memory.View{}, nil
	}

	view, err := memory.Inspect(store, input.NodeID, input.Prompt, s.config.TokenBudget)
	if err != nil {
		return errorResult(err), memory.View{}, nil
	}

	return jsonResult(*view)
}

// handleSummary processes a context_summary request.
func (s *Server) handleSummary(ctx context.Context, _ *mcp.CallToolRequest, input SummaryInput) (*mcp.CallToolResult, SummaryOutput, error) {
	s.config.Logger.Debug("MCP context_summary request",
		"project", input.Project,
		"node_id", input.NodeID,
	)

	store, err := s.loadStore(ctx, input.Project)
	if err != nil {
		return errorResult(err), SummaryOutput{}, nil
	}

	summary, err := memory.SummarizeStore(store, input.NodeID)
	if err != nil {
		return errorResult(err), SummaryOutput{}, nil
	}

	return jsonResult(SummaryOutput{
		Project: input.Project,
		NodeID:  input.NodeID,
		Summary: summary,
	})
}

func (s *Server) loadStore(ctx context.Context, project string) (*tree.Store, error) {
	if project == "" {
		return nil, fmt.Errorf("project is required")
	}

	nodes, err := s.config.Driver.Load(ctx, project)
	if err != nil {
		s.config.Logger.Error("failed to load project", "project", project, "error", err)
		return nil, fmt.Errorf("failed to load project %q: %w", project, err)
	}
	if nodes == nil {
		return nil, fmt.Errorf("project %q not found", project)
	}

	return tree.NewStore(nodes...), nil
}

// jsonResult returns output both as structured content and, for clients that
// only read text, as serialized JSON in a TextContent block.
func jsonResult[T any](output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		var zero T
		return errorResult(fmt.Errorf("failed to serialize result: %w", err)), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: err.Error()},
		},
	}
}
