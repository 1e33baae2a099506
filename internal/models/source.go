// Package models defines the domain types for SourceLens.
package models

import "time"

// SourceMetadata carries the user-supplied context for a primary source.
type SourceMetadata struct {
	Title          string `json:"title,omitempty"`
	Author         string `json:"author,omitempty"`
	Date           string `json:"date,omitempty"`
	ResearchGoals  string `json:"researchGoals,omitempty"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}

// AnalysisResult is the structured output of an initial source analysis.
type AnalysisResult struct {
	Summary           string   `json:"summary"`
	Analysis          string   `json:"analysis"`
	FollowupQuestions []string `json:"followupQuestions"`
}

// Section is one summarized slice of a draft.
type Section struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	FullText string `json:"fullText"`
}

// ChatMessage is a single turn in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Item kinds accepted by the library store.
const (
	KindReference = "references"
	KindAnalysis  = "analyses"
	KindSource    = "sources"
	KindDraft     = "drafts"
)

// ValidKind reports whether kind names a library collection.
func ValidKind(kind string) bool {
	switch kind {
	case KindReference, KindAnalysis, KindSource, KindDraft:
		return true
	}
	return false
}

// SavedItem is a library entry. Data holds the entity payload verbatim;
// the store only interprets the envelope fields.
type SavedItem struct {
	ID         string         `json:"id"`
	Kind       string         `json:"-"`
	UserID     string         `json:"-"`
	Data       map[string]any `json:"data"`
	DateAdded  time.Time      `json:"dateAdded"`
	LastEdited *time.Time     `json:"lastEdited,omitempty"`
}
