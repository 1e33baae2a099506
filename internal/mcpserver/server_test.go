package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sourcelens/sourcelens/internal/analysis"
	"github.com/sourcelens/sourcelens/internal/graphgen"
	"github.com/sourcelens/sourcelens/internal/llm"
	"github.com/sourcelens/sourcelens/internal/models"
	"github.com/sourcelens/sourcelens/internal/testutil"
)

const analysisResponse = `SUMMARY: A short summary.

ANALYSIS: A deeper reading.

FOLLOWUP QUESTIONS:
1. Why?`

func testServer(t *testing.T, modelResponse string) (*Server, *testutil.FakeProvider) {
	t.Helper()
	fake := testutil.NewFakeProvider(llm.ProviderGemini, modelResponse)
	registry := llm.NewRegistry(fake)
	store := testutil.TestLibrary(t)
	srv := New(analysis.NewService(registry), graphgen.NewGenerator(registry), store)
	return srv, fake
}

func toolReq(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestAnalyzeSourceTool(t *testing.T) {
	srv, _ := testServer(t, analysisResponse)

	r, err := srv.analyzeSource(context.Background(), toolReq("analyze_source", map[string]interface{}{
		"source": "Dear Sir, ...",
		"title":  "Mill Letter",
	}))
	if err != nil {
		t.Fatalf("analyze_source: %v", err)
	}
	text := resultText(r)
	if !strings.Contains(text, "A short summary.") {
		t.Errorf("result = %q", text)
	}
}

func TestAnalyzeSourceTool_MissingSource(t *testing.T) {
	srv, fake := testServer(t, analysisResponse)

	r, err := srv.analyzeSource(context.Background(), toolReq("analyze_source", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	if !r.IsError {
		t.Error("expected tool error for missing source")
	}
	if fake.Calls() != 0 {
		t.Error("provider called without required argument")
	}
}

func TestFindConnectionsTool(t *testing.T) {
	srv, _ := testServer(t, `[
		{"name": "First", "type": "person", "distance": 1},
		{"name": "Second", "type": "event", "distance": 2},
		{"name": "Third", "type": "place", "distance": 3},
		{"name": "Fourth", "type": "work", "distance": 3},
		{"name": "Fifth", "type": "concept", "distance": 4},
		{"name": "Sixth", "type": "fact", "distance": 4},
		{"name": "Seventh", "type": "person", "distance": 5},
		{"name": "Eighth", "type": "organization", "distance": 5}
	]`)

	r, err := srv.findConnections(context.Background(), toolReq("find_connections", map[string]interface{}{
		"source": "document text",
	}))
	if err != nil {
		t.Fatalf("find_connections: %v", err)
	}
	text := resultText(r)
	if !strings.Contains(text, `"First"`) || !strings.Contains(text, `"Eighth"`) {
		t.Errorf("result = %q", text)
	}
}

func TestSummarizeTextTool(t *testing.T) {
	srv, _ := testServer(t, `{"title": "Note", "summary": "A compact summary."}`)

	r, err := srv.summarizeText(context.Background(), toolReq("summarize_text", map[string]interface{}{
		"content": "Long text to be summarized.",
	}))
	if err != nil {
		t.Fatalf("summarize_text: %v", err)
	}
	text := resultText(r)
	if !strings.Contains(text, "A compact summary.") {
		t.Errorf("result = %q", text)
	}
	// Full text is preserved alongside the summary.
	if !strings.Contains(text, "Long text to be summarized.") {
		t.Errorf("fullText missing from %q", text)
	}
}

func TestListSavedSourcesTool(t *testing.T) {
	srv, _ := testServer(t, "")

	r, err := srv.listSavedSources(context.Background(), toolReq("list_saved_sources", nil))
	if err != nil {
		t.Fatalf("list_saved_sources: %v", err)
	}
	if resultText(r) != "no saved sources" {
		t.Errorf("empty library result = %q", resultText(r))
	}

	if _, err := srv.lib.SaveItem(context.Background(), models.SavedItem{
		Kind: models.KindSource,
		Data: map[string]any{"content": "imported text"},
	}); err != nil {
		t.Fatal(err)
	}

	r, err = srv.listSavedSources(context.Background(), toolReq("list_saved_sources", nil))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resultText(r), "imported text") {
		t.Errorf("result = %q", resultText(r))
	}
}
