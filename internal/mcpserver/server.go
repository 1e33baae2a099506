// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the SourceLens analysis tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sourcelens/sourcelens/internal/analysis"
	"github.com/sourcelens/sourcelens/internal/graphgen"
	"github.com/sourcelens/sourcelens/internal/library"
	"github.com/sourcelens/sourcelens/internal/models"
)

// Server wraps the MCP server with SourceLens tools.
type Server struct {
	mcp      *server.MCPServer
	analysis *analysis.Service
	graph    *graphgen.Generator
	lib      library.Store
}

// New creates a new MCP server with all SourceLens tools registered.
func New(an *analysis.Service, g *graphgen.Generator, lib library.Store) *Server {
	s := &Server{analysis: an, graph: g, lib: lib}

	s.mcp = server.NewMCPServer(
		"SourceLens",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("analyze_source",
		mcp.WithDescription("Run an interpretive analysis of a primary-source document: "+
			"summary, detailed analysis, and follow-up research questions."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Full text of the document")),
		mcp.WithString("title", mcp.Description("Document title, if known")),
		mcp.WithString("perspective", mcp.Description("Optional analytical lens (e.g. counter-narrative)")),
	), s.analyzeSource)

	s.mcp.AddTool(mcp.NewTool("find_connections",
		mcp.WithDescription("Identify entities (people, events, concepts, places) connected "+
			"to a primary source, as knowledge-graph nodes."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Full text of the document")),
		mcp.WithString("title", mcp.Description("Document title, if known")),
	), s.findConnections)

	s.mcp.AddTool(mcp.NewTool("summarize_text",
		mcp.WithDescription("Summarize a block of text into a titled research note."),
		mcp.WithString("content", mcp.Required(), mcp.Description("The text to summarize")),
	), s.summarizeText)

	s.mcp.AddTool(mcp.NewTool("list_saved_sources",
		mcp.WithDescription("List the sources saved in the library."),
	), s.listSavedSources)

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

func (s *Server) analyzeSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	md := &models.SourceMetadata{}
	if title, terr := req.RequireString("title"); terr == nil {
		md.Title = title
	}
	perspective := ""
	if p, perr := req.RequireString("perspective"); perr == nil {
		perspective = p
	}

	res, err := s.analysis.InitialAnalysis(ctx, analysis.InitialAnalysisInput{
		Source:      source,
		Metadata:    md,
		Perspective: perspective,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) findConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	md := &models.SourceMetadata{}
	if title, terr := req.RequireString("title"); terr == nil {
		md.Title = title
	}

	res, err := s.graph.Generate(ctx, source, md)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res.Nodes, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) summarizeText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.analysis.SummarizeText(ctx, analysis.SummarizeTextInput{Content: content})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res.Section, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listSavedSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.lib.GetItems(ctx, models.KindSource, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no saved sources"), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
