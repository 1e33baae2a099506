package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// dropDir, if non-empty, enables the document upload endpoint.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler, dropDir string) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Wrong methods get a JSON 405, not chi's plain-text default.
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
	})

	// Analysis pipeline.
	r.Post("/initial-analysis", h.InitialAnalysis)
	r.Post("/connections", h.Connections)
	r.Post("/connections/expand", h.ExpandConnections)
	r.Post("/draft-assist", h.DraftAssist)
	r.Post("/summarize-text", h.SummarizeText)
	r.Post("/summarize-draft", h.SummarizeDraft)
	r.Post("/suggest-extraction", h.SuggestExtraction)
	r.Post("/chat", h.Chat)

	// Reference lookup.
	r.Get("/wikipedia", h.Wikipedia)

	// Library CRUD.
	r.Get("/user-data", h.GetItems)
	r.Post("/user-data", h.SaveItem)
	r.Patch("/user-data", h.UpdateItem)
	r.Delete("/user-data", h.DeleteItem)

	// Document upload into the drop directory.
	if dropDir != "" {
		uh := NewUploadHandler(dropDir)
		r.Post("/upload", uh.Upload)
	}

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
