package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sourcelens/sourcelens/internal/analysis"
	"github.com/sourcelens/sourcelens/internal/chat"
	"github.com/sourcelens/sourcelens/internal/graphgen"
	"github.com/sourcelens/sourcelens/internal/llm"
	"github.com/sourcelens/sourcelens/internal/models"
	"github.com/sourcelens/sourcelens/internal/testutil"
	"github.com/sourcelens/sourcelens/internal/wiki"
)

const analysisResponse = `SUMMARY: A short summary.

ANALYSIS: A deeper reading.

FOLLOWUP QUESTIONS:
1. Why?
2. When?`

const connectionsResponse = `[
  {"name": "First Entity", "type": "person", "relationship": "direct", "distance": 1},
  {"name": "Second Entity", "type": "event", "relationship": "indirect", "distance": 2},
  {"name": "Third Entity", "type": "concept", "distance": 3},
  {"name": "Fourth Entity", "type": "place", "distance": 3},
  {"name": "Fifth Entity", "type": "work", "distance": 4},
  {"name": "Sixth Entity", "type": "organization", "distance": 4},
  {"name": "Seventh Entity", "type": "fact", "distance": 5},
  {"name": "Eighth Entity", "type": "person", "distance": 5}
]`

// testEnv builds the full router over a fake model provider and a temp
// SQLite library. authToken="" means auth disabled.
func testEnv(t *testing.T, authToken, modelResponse string) (http.Handler, *testutil.FakeProvider, string) {
	t.Helper()

	fake := testutil.NewFakeProvider(llm.ProviderGemini, modelResponse)
	registry := llm.NewRegistry(fake)
	store := testutil.TestLibrary(t)
	dropDir := t.TempDir()

	h := NewHandler(
		analysis.NewService(registry),
		graphgen.NewGenerator(registry),
		chat.NewService(chat.NewStore(time.Hour), registry),
		wiki.NewService(registry),
		store,
		nil,
	)
	router := NewRouter(h, authToken != "", authToken, nil, dropDir)
	return router, fake, dropDir
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInitialAnalysisEndpoint(t *testing.T) {
	router, _, _ := testEnv(t, "", analysisResponse)

	w := doJSON(t, router, http.MethodPost, "/initial-analysis", map[string]any{
		"source":   "Dear Sir, ...",
		"metadata": map[string]string{"title": "Letter", "date": "1845"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var res struct {
		Summary            string   `json:"summary"`
		Analysis           string   `json:"analysis"`
		FollowupQuestions  []string `json:"followupQuestions"`
		ModelID            string   `json:"modelId"`
		OriginalTextLength int      `json:"originalTextLength"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Summary != "A short summary." {
		t.Errorf("summary = %q", res.Summary)
	}
	if len(res.FollowupQuestions) != 2 {
		t.Errorf("questions = %v", res.FollowupQuestions)
	}
	if res.ModelID == "" || res.OriginalTextLength == 0 {
		t.Errorf("meta missing: %+v", res)
	}
}

func TestInitialAnalysis_MissingSource(t *testing.T) {
	router, fake, _ := testEnv(t, "", analysisResponse)

	w := doJSON(t, router, http.MethodPost, "/initial-analysis", map[string]any{
		"metadata": map[string]string{"title": "Letter"},
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if fake.Calls() != 0 {
		t.Errorf("provider called %d times for invalid request", fake.Calls())
	}
}

func TestInitialAnalysis_InvalidBody(t *testing.T) {
	router, _, _ := testEnv(t, "", analysisResponse)

	req := httptest.NewRequest(http.MethodPost, "/initial-analysis", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestInitialAnalysis_ParseErrorTagged(t *testing.T) {
	router, _, _ := testEnv(t, "", "freeform text with no labels at all")

	w := doJSON(t, router, http.MethodPost, "/initial-analysis", map[string]any{
		"source":   "text",
		"metadata": map[string]string{},
	}, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var res errResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Type != "parsing_error" {
		t.Errorf("type = %q, want parsing_error", res.Type)
	}
}

func TestConnectionsEndpoint(t *testing.T) {
	router, _, _ := testEnv(t, "", connectionsResponse)

	w := doJSON(t, router, http.MethodPost, "/connections", map[string]any{
		"source":   "document text",
		"metadata": map[string]string{"title": "The Letter"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var res ConnectionsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.SourceNode == nil || res.SourceNode.ID != graphgen.SourceNodeID {
		t.Fatalf("sourceNode = %+v", res.SourceNode)
	}
	if res.SourceNode.Name != "The Letter" {
		t.Errorf("hub name = %q", res.SourceNode.Name)
	}
	if len(res.Nodes) != 8 || len(res.Edges) != 8 {
		t.Fatalf("nodes = %d, edges = %d", len(res.Nodes), len(res.Edges))
	}
	for _, e := range res.Edges {
		if e.Source != graphgen.SourceNodeID {
			t.Errorf("edge source = %q", e.Source)
		}
	}
}

func TestExpandEndpoint_RequiresNode(t *testing.T) {
	router, _, _ := testEnv(t, "", connectionsResponse)

	w := doJSON(t, router, http.MethodPost, "/connections/expand", map[string]any{
		"sourceTitle": "The Letter",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestExpandEndpoint(t *testing.T) {
	router, _, _ := testEnv(t, "", connectionsResponse)

	w := doJSON(t, router, http.MethodPost, "/connections/expand", map[string]any{
		"sourceTitle": "The Letter",
		"node":        models.Connection{Name: "First Entity", Type: models.NodePerson},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res ConnectionsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.SourceNode != nil {
		t.Error("expand should not return a hub node")
	}
	if len(res.Nodes) != 8 {
		t.Errorf("nodes = %d", len(res.Nodes))
	}
}

func TestChatEndpoint(t *testing.T) {
	router, _, _ := testEnv(t, "", "The letter is unsigned.")

	w := doJSON(t, router, http.MethodPost, "/chat", map[string]any{
		"message": "Who wrote this?",
		"source":  "An unsigned letter.",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res chat.SendResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.SessionID == "" || res.Reply != "The letter is unsigned." {
		t.Errorf("res = %+v", res)
	}

	// Second message continues the same session.
	w = doJSON(t, router, http.MethodPost, "/chat", map[string]any{
		"sessionId": res.SessionID,
		"message":   "Are you sure?",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("second status = %d", w.Code)
	}
	var res2 chat.SendResult
	_ = json.Unmarshal(w.Body.Bytes(), &res2)
	if res2.SessionID != res.SessionID {
		t.Errorf("session changed: %q vs %q", res2.SessionID, res.SessionID)
	}
}

func TestWikipedia_RequiresTitle(t *testing.T) {
	router, _, _ := testEnv(t, "", "")

	req := httptest.NewRequest(http.MethodGet, "/wikipedia", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUserDataCRUD(t *testing.T) {
	router, _, _ := testEnv(t, "", "")

	// Save.
	w := doJSON(t, router, http.MethodPost, "/user-data", SaveItemRequest{
		Type: models.KindReference,
		Data: map[string]any{"citation": "Marx, 1848"},
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body = %s", w.Code, w.Body.String())
	}
	var saved models.SavedItem
	_ = json.Unmarshal(w.Body.Bytes(), &saved)
	if saved.ID == "" || saved.DateAdded.IsZero() {
		t.Fatalf("envelope not generated: %+v", saved)
	}

	// List.
	req := httptest.NewRequest(http.MethodGet, "/user-data?type=references", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var listing ItemsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &listing)
	if len(listing.Items) != 1 || listing.Items[0].ID != saved.ID {
		t.Fatalf("items = %+v", listing.Items)
	}

	// Update.
	w = doJSON(t, router, http.MethodPatch, "/user-data", UpdateItemRequest{
		Type: models.KindReference,
		ID:   saved.ID,
		Data: map[string]any{"citation": "Marx & Engels, 1848"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	var updated models.SavedItem
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.LastEdited == nil {
		t.Error("lastEdited not stamped")
	}

	// Delete.
	req = httptest.NewRequest(http.MethodDelete, "/user-data?type=references&id="+saved.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}

	// Delete again → 404.
	req = httptest.NewRequest(http.MethodDelete, "/user-data?type=references&id="+saved.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestUserData_ScopedByUserHeader(t *testing.T) {
	router, _, _ := testEnv(t, "", "")

	alice := map[string]string{userIDHeader: "alice"}

	w := doJSON(t, router, http.MethodPost, "/user-data", SaveItemRequest{
		Type: models.KindDraft,
		Data: map[string]any{"text": "alice's draft"},
	}, alice)
	if w.Code != http.StatusCreated {
		t.Fatalf("save status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/user-data?type=drafts", nil)
	req.Header.Set(userIDHeader, "bob")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	var listing ItemsResponse
	_ = json.Unmarshal(w2.Body.Bytes(), &listing)
	if len(listing.Items) != 0 {
		t.Errorf("bob sees %d of alice's items", len(listing.Items))
	}

	// Alice still sees her own.
	req = httptest.NewRequest(http.MethodGet, "/user-data?type=drafts", nil)
	req.Header.Set(userIDHeader, alice[userIDHeader])
	w3 := httptest.NewRecorder()
	router.ServeHTTP(w3, req)
	_ = json.Unmarshal(w3.Body.Bytes(), &listing)
	if len(listing.Items) != 1 {
		t.Errorf("alice sees %d items, want 1", len(listing.Items))
	}
}

func TestUserData_UnknownKind(t *testing.T) {
	router, _, _ := testEnv(t, "", "")

	req := httptest.NewRequest(http.MethodGet, "/user-data?type=scrolls", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdate_RequiresID(t *testing.T) {
	router, _, _ := testEnv(t, "", "")

	w := doJSON(t, router, http.MethodPatch, "/user-data", UpdateItemRequest{
		Type: models.KindDraft,
		Data: map[string]any{},
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestMethodNotAllowedJSON(t *testing.T) {
	router, _, _ := testEnv(t, "", "")

	req := httptest.NewRequest(http.MethodGet, "/initial-analysis", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("content-type = %q", ct)
	}
}

func TestAuthMiddleware_TokenMode(t *testing.T) {
	router, _, _ := testEnv(t, "secret", "")

	// No header → 401.
	req := httptest.NewRequest(http.MethodGet, "/user-data?type=drafts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	// Wrong token → 401.
	req = httptest.NewRequest(http.MethodGet, "/user-data?type=drafts", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d, want 401", w.Code)
	}

	// Correct token → 200.
	req = httptest.NewRequest(http.MethodGet, "/user-data?type=drafts", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token status = %d, want 200", w.Code)
	}
}

func TestUploadEndpoint(t *testing.T) {
	router, _, dropDir := testEnv(t, "", "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "letter.txt")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("Dear Sir, ..."))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	data, err := os.ReadFile(filepath.Join(dropDir, "letter.txt"))
	if err != nil {
		t.Fatalf("uploaded file not in drop dir: %v", err)
	}
	if string(data) != "Dear Sir, ..." {
		t.Errorf("content = %q", data)
	}
}

func TestSafeName_RejectsTraversal(t *testing.T) {
	h := NewUploadHandler("/drop")
	for _, name := range []string{"", "../escape.txt", "a/b.txt", "..", "sub/../../etc/passwd"} {
		if _, err := h.safeName(name); err == nil {
			t.Errorf("safeName(%q) should fail", name)
		}
	}
	abs, err := h.safeName("letter.txt")
	if err != nil {
		t.Fatalf("safeName: %v", err)
	}
	if abs != filepath.Join("/drop", "letter.txt") {
		t.Errorf("abs = %q", abs)
	}
}
