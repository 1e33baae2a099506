package api

import (
	"github.com/sourcelens/sourcelens/internal/models"
)

// AnalysisRequest is the body for POST /api/initial-analysis.
type AnalysisRequest struct {
	Source      string                 `json:"source"`
	Metadata    *models.SourceMetadata `json:"metadata"`
	Perspective string                 `json:"perspective,omitempty"`
	ModelID     string                 `json:"modelId,omitempty"`
}

// ConnectionsRequest is the body for POST /api/connections.
type ConnectionsRequest struct {
	Source   string                 `json:"source"`
	Metadata *models.SourceMetadata `json:"metadata"`
}

// ExpandRequest is the body for POST /api/connections/expand.
type ExpandRequest struct {
	SourceTitle string             `json:"sourceTitle,omitempty"`
	Node        *models.Connection `json:"node"`
}

// ConnectionsResponse carries a generated node batch. SourceNode is the
// hub all edges point to; clients concatenate Nodes across expand calls.
type ConnectionsResponse struct {
	SourceNode *models.Connection  `json:"sourceNode,omitempty"`
	Nodes      []models.Connection `json:"nodes"`
	Edges      []models.GraphEdge  `json:"edges"`
}

// DraftAssistRequest is the body for POST /api/draft-assist.
type DraftAssistRequest struct {
	Draft        string `json:"draft"`
	SourceText   string `json:"sourceText,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	ModelID      string `json:"modelId,omitempty"`
}

// SummarizeTextRequest is the body for POST /api/summarize-text.
type SummarizeTextRequest struct {
	Content string `json:"content"`
	ModelID string `json:"modelId,omitempty"`
}

// SummarizeDraftRequest is the body for POST /api/summarize-draft.
type SummarizeDraftRequest struct {
	Draft   string `json:"draft"`
	Title   string `json:"title,omitempty"`
	ModelID string `json:"modelId,omitempty"`
}

// SuggestExtractionRequest is the body for POST /api/suggest-extraction.
type SuggestExtractionRequest struct {
	Source   string                 `json:"source"`
	Metadata *models.SourceMetadata `json:"metadata"`
	ModelID  string                 `json:"modelId,omitempty"`
}

// ChatRequest is the body for POST /api/chat.
type ChatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
	Source    string `json:"source,omitempty"`
	ModelID   string `json:"modelId,omitempty"`
}

// SaveItemRequest is the body for POST /api/user-data.
type SaveItemRequest struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// UpdateItemRequest is the body for PATCH /api/user-data.
type UpdateItemRequest struct {
	Type string         `json:"type"`
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

// ItemsResponse wraps a library listing.
type ItemsResponse struct {
	Items []models.SavedItem `json:"items"`
}
