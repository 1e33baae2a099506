package api

import (
	"encoding/json"
	"net/http"

	"github.com/sourcelens/sourcelens/internal/analysis"
	"github.com/sourcelens/sourcelens/internal/chat"
	"github.com/sourcelens/sourcelens/internal/graphgen"
	"github.com/sourcelens/sourcelens/internal/library"
	"github.com/sourcelens/sourcelens/internal/models"
	"github.com/sourcelens/sourcelens/internal/sse"
	"github.com/sourcelens/sourcelens/internal/wiki"
)

const maxBodyBytes = 10 << 20 // 10 MB

// Handler holds API route handlers.
type Handler struct {
	analysis *analysis.Service
	graph    *graphgen.Generator
	chat     *chat.Service
	wiki     *wiki.Service
	lib      library.Store
	broker   *sse.Broker
}

// NewHandler creates a new Handler. broker may be nil.
func NewHandler(an *analysis.Service, g *graphgen.Generator, c *chat.Service, wk *wiki.Service, lib library.Store, broker *sse.Broker) *Handler {
	return &Handler{analysis: an, graph: g, chat: c, wiki: wk, lib: lib, broker: broker}
}

// decode reads a JSON request body into v; a false return means the
// error response was already written.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// InitialAnalysis handles POST /api/initial-analysis.
func (h *Handler) InitialAnalysis(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.analysis.InitialAnalysis(r.Context(), analysis.InitialAnalysisInput{
		Source:      req.Source,
		Metadata:    req.Metadata,
		Perspective: req.Perspective,
		ModelID:     req.ModelID,
	})
	if err != nil {
		writeError(w, "initial-analysis", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Connections handles POST /api/connections.
func (h *Handler) Connections(w http.ResponseWriter, r *http.Request) {
	var req ConnectionsRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.graph.Generate(r.Context(), req.Source, req.Metadata)
	if err != nil {
		writeError(w, "connections", err)
		return
	}
	hub := graphgen.SourceNode(req.Metadata)
	writeJSON(w, http.StatusOK, ConnectionsResponse{
		SourceNode: &hub,
		Nodes:      res.Nodes,
		Edges:      res.Edges,
	})
}

// ExpandConnections handles POST /api/connections/expand.
// New nodes are returned as-is; the client concatenates them with the
// existing graph without deduplication.
func (h *Handler) ExpandConnections(w http.ResponseWriter, r *http.Request) {
	var req ExpandRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Node == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("node is required"))
		return
	}
	res, err := h.graph.Expand(r.Context(), req.SourceTitle, *req.Node)
	if err != nil {
		writeError(w, "connections/expand", err)
		return
	}
	writeJSON(w, http.StatusOK, ConnectionsResponse{Nodes: res.Nodes, Edges: res.Edges})
}

// DraftAssist handles POST /api/draft-assist.
func (h *Handler) DraftAssist(w http.ResponseWriter, r *http.Request) {
	var req DraftAssistRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.analysis.DraftAssist(r.Context(), analysis.DraftAssistInput{
		Draft:        req.Draft,
		SourceText:   req.SourceText,
		Instructions: req.Instructions,
		ModelID:      req.ModelID,
	})
	if err != nil {
		writeError(w, "draft-assist", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SummarizeText handles POST /api/summarize-text.
func (h *Handler) SummarizeText(w http.ResponseWriter, r *http.Request) {
	var req SummarizeTextRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.analysis.SummarizeText(r.Context(), analysis.SummarizeTextInput{
		Content: req.Content,
		ModelID: req.ModelID,
	})
	if err != nil {
		writeError(w, "summarize-text", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SummarizeDraft handles POST /api/summarize-draft.
func (h *Handler) SummarizeDraft(w http.ResponseWriter, r *http.Request) {
	var req SummarizeDraftRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.analysis.SummarizeDraft(r.Context(), analysis.SummarizeDraftInput{
		Draft:   req.Draft,
		Title:   req.Title,
		ModelID: req.ModelID,
	})
	if err != nil {
		writeError(w, "summarize-draft", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SuggestExtraction handles POST /api/suggest-extraction.
func (h *Handler) SuggestExtraction(w http.ResponseWriter, r *http.Request) {
	var req SuggestExtractionRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.analysis.SuggestExtraction(r.Context(), analysis.SuggestExtractionInput{
		Source:   req.Source,
		Metadata: req.Metadata,
		ModelID:  req.ModelID,
	})
	if err != nil {
		writeError(w, "suggest-extraction", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Chat handles POST /api/chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.chat.Send(r.Context(), chat.SendInput{
		SessionID: req.SessionID,
		Message:   req.Message,
		Source:    req.Source,
		ModelID:   req.ModelID,
	})
	if err != nil {
		writeError(w, "chat", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Wikipedia handles GET /api/wikipedia?title=...
func (h *Handler) Wikipedia(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	res, err := h.wiki.Get(r.Context(), title)
	if err != nil {
		writeError(w, "wikipedia", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetItems handles GET /api/user-data?type=...
func (h *Handler) GetItems(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	items, err := h.lib.GetItems(r.Context(), kind, userID(r))
	if err != nil {
		writeError(w, "user-data get", err)
		return
	}
	writeJSON(w, http.StatusOK, ItemsResponse{Items: items})
}

// SaveItem handles POST /api/user-data.
func (h *Handler) SaveItem(w http.ResponseWriter, r *http.Request) {
	var req SaveItemRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.lib.SaveItem(r.Context(), models.SavedItem{
		Kind:   req.Type,
		UserID: userID(r),
		Data:   req.Data,
	})
	if err != nil {
		writeError(w, "user-data save", err)
		return
	}
	if h.broker != nil {
		h.broker.PublishLibraryEvent("saved", req.Type, item.ID)
	}
	writeJSON(w, http.StatusCreated, item)
}

// UpdateItem handles PATCH /api/user-data.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	item, err := h.lib.UpdateItem(r.Context(), req.Type, userID(r), req.ID, req.Data)
	if err != nil {
		writeError(w, "user-data update", err)
		return
	}
	if h.broker != nil {
		h.broker.PublishLibraryEvent("updated", req.Type, item.ID)
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/user-data?type=...&id=...
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	if err := h.lib.DeleteItem(r.Context(), kind, userID(r), id); err != nil {
		writeError(w, "user-data delete", err)
		return
	}
	if h.broker != nil {
		h.broker.PublishLibraryEvent("deleted", kind, id)
	}
	w.WriteHeader(http.StatusNoContent)
}
