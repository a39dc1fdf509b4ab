// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the content pipeline as tools for LLM integration via stdio.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/outline"
	"github.com/starford/ansuz/internal/pipeline"
	"github.com/starford/ansuz/internal/store"
)

// Server wraps the MCP server with pipeline tools.
type Server struct {
	mcp   *server.MCPServer
	orch  *pipeline.Orchestrator
	store store.ProjectStore
}

// New creates a new MCP server with all pipeline tools registered.
func New(orch *pipeline.Orchestrator, st store.ProjectStore) *Server {
	s := &Server{orch: orch, store: st}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_project",
		mcp.WithDescription("Fetch a content project record, including its pipeline status and staged outputs."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Project id")),
	), s.getProject)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List content projects, optionally filtered by pipeline status."),
		mcp.WithString("status", mcp.Description("Optional status filter (e.g. created, outline_completed, failed)")),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("create_project",
		mcp.WithDescription("Create a new content project for a brand and main keyword."),
		mcp.WithString("brand_name", mcp.Required(), mcp.Description("Brand name")),
		mcp.WithString("main_keyword", mcp.Required(), mcp.Description("Main target keyword")),
		mcp.WithString("lsi_keywords", mcp.Description("Optional comma-separated LSI keywords")),
		mcp.WithString("output_language", mcp.Description("Output language (defaults to the configured one)")),
	), s.createProject)

	s.mcp.AddTool(mcp.NewTool("run_planning_workflow",
		mcp.WithDescription("Run the planning workflow for a project: search intent, competitor analysis, and outline generation with quality scoring. Long-running."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Project id")),
	), s.runPlanningWorkflow)

	s.mcp.AddTool(mcp.NewTool("generate_content",
		mcp.WithDescription("Generate the full article content for a project that already has an outline, resolving image placeholders. Long-running."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Project id")),
	), s.generateContent)

	s.mcp.AddTool(mcp.NewTool("score_outline",
		mcp.WithDescription("Score an article outline against the structural quality checks and return the report."),
		mcp.WithString("outline", mcp.Required(), mcp.Description("Outline text in Markdown")),
	), s.scoreOutline)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) getProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p), nil
}

func (s *Server) listProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var status models.Status
	if s, err := req.RequireString("status"); err == nil {
		status = models.Status(s)
	}
	if status != "" && !status.Valid() {
		return mcp.NewToolResultError("unknown status value"), nil
	}
	rows, total, err := s.store.List(ctx, store.Filter{Status: status, Limit: 50})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"total": total, "projects": rows}), nil
}

func (s *Server) createProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	brand, err := req.RequireString("brand_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	keyword, err := req.RequireString("main_keyword")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := &models.Project{
		BrandName:   brand,
		MainKeyword: keyword,
	}
	if v, err := req.RequireString("lsi_keywords"); err == nil {
		p.LSIKeywords = v
	}
	if v, err := req.RequireString("output_language"); err == nil {
		p.OutputLanguage = v
	}
	if err := s.orch.CreateProject(ctx, p); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p), nil
}

func (s *Server) runPlanningWorkflow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.orch.RunPlanningWorkflow(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result), nil
}

func (s *Server) generateContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.orch.GenerateFullContent(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result), nil
}

func (s *Server) scoreOutline(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("outline")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(outline.Score(text)), nil
}
