// Package analysis implements the prompt/response pipeline shared by the
// interpretive endpoints: validate input, build a prompt, dispatch to a
// provider, parse the response into the caller's shape.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sourcelens/sourcelens/internal/apperr"
	"github.com/sourcelens/sourcelens/internal/llm"
	"github.com/sourcelens/sourcelens/internal/models"
	"github.com/sourcelens/sourcelens/internal/respparse"
)

// Service runs the analysis pipeline against configured providers.
type Service struct {
	registry *llm.Registry
}

// NewService creates an analysis service.
func NewService(registry *llm.Registry) *Service {
	return &Service{registry: registry}
}

// Meta describes how the input was handled; returned alongside every
// pipeline result so callers can report truncation.
type Meta struct {
	ModelID            string `json:"modelId"`
	Truncated          bool   `json:"truncated"`
	OriginalTextLength int    `json:"originalTextLength"`
}

// complete resolves the model, truncates the document text to the model's
// character budget, and runs the completion.
func (s *Service) complete(ctx context.Context, modelID, system, promptTemplate, text string, jsonMode bool, promptArgs ...any) (string, Meta, error) {
	provider, model, err := s.registry.ForModel(modelID)
	if err != nil {
		return "", Meta{}, err
	}

	truncated, wasCut := llm.Truncate(text, model.CharBudget)
	args := append(promptArgs, truncated)
	prompt := fmt.Sprintf(promptTemplate, args...)

	raw, err := provider.Complete(ctx, llm.Request{
		System:      system,
		Prompt:      prompt,
		Model:       model.APIModel,
		Temperature: model.Temperature,
		MaxTokens:   model.MaxTokens,
		JSONMode:    jsonMode,
	})
	meta := Meta{ModelID: model.ID, Truncated: wasCut, OriginalTextLength: len(text)}
	if err != nil {
		return "", meta, err
	}
	return raw, meta, nil
}

// formatMetadata renders source metadata as labeled lines for prompts.
func formatMetadata(md *models.SourceMetadata) string {
	var b strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}
	line("Title", md.Title)
	line("Author", md.Author)
	line("Date", md.Date)
	line("Research goals", md.ResearchGoals)
	line("Additional context", md.AdditionalInfo)
	if b.Len() == 0 {
		b.WriteString("(none provided)\n")
	}
	return b.String()
}

// InitialAnalysisInput is the request for InitialAnalysis.
type InitialAnalysisInput struct {
	Source      string
	Metadata    *models.SourceMetadata
	Perspective string
	ModelID     string
}

// InitialAnalysisResult bundles the parsed analysis with pipeline metadata.
type InitialAnalysisResult struct {
	models.AnalysisResult
	Meta
}

// InitialAnalysis produces a summary, interpretive analysis, and
// follow-up questions for a source, optionally through a named
// perspective (e.g. counter-narrative).
func (s *Service) InitialAnalysis(ctx context.Context, in InitialAnalysisInput) (*InitialAnalysisResult, error) {
	if strings.TrimSpace(in.Source) == "" {
		return nil, fmt.Errorf("source is required: %w", apperr.ErrInvalidInput)
	}
	if in.Metadata == nil {
		return nil, fmt.Errorf("metadata is required: %w", apperr.ErrInvalidInput)
	}

	var lens string
	if in.Perspective != "" {
		lens = fmt.Sprintf(" through the %q analytical lens", in.Perspective)
	}

	raw, meta, err := s.complete(ctx, in.ModelID, analysisSystem, analysisPrompt, in.Source, false,
		lens, formatMetadata(in.Metadata))
	if err != nil {
		return nil, err
	}

	fields := respparse.Labeled(raw, "SUMMARY", "ANALYSIS", "FOLLOWUP QUESTIONS")
	if fields["SUMMARY"] == "" && fields["ANALYSIS"] == "" {
		return nil, fmt.Errorf("analysis: response missing labeled fields: %w", apperr.ErrParse)
	}

	questions := respparse.List(fields["FOLLOWUP QUESTIONS"])
	if questions == nil {
		questions = []string{}
	}
	return &InitialAnalysisResult{
		AnalysisResult: models.AnalysisResult{
			Summary:           fields["SUMMARY"],
			Analysis:          fields["ANALYSIS"],
			FollowupQuestions: questions,
		},
		Meta: meta,
	}, nil
}

// DraftAssistInput is the request for DraftAssist.
type DraftAssistInput struct {
	Draft        string
	SourceText   string
	Instructions string
	ModelID      string
}

// DraftAssistResult is a revision suggestion for a draft.
type DraftAssistResult struct {
	Suggestion string `json:"suggestion"`
	Rationale  string `json:"rationale"`
	Meta
}

// DraftAssist suggests a revision or continuation of a draft, grounded
// in the provided source material.
func (s *Service) DraftAssist(ctx context.Context, in DraftAssistInput) (*DraftAssistResult, error) {
	if strings.TrimSpace(in.Draft) == "" {
		return nil, fmt.Errorf("draft is required: %w", apperr.ErrInvalidInput)
	}
	sourceText := in.SourceText
	if sourceText == "" {
		sourceText = "(no source material attached)"
	}
	instructions := in.Instructions
	if instructions == "" {
		instructions = "Improve clarity and flow."
	}

	raw, meta, err := s.complete(ctx, in.ModelID, draftAssistSystem, draftAssistPrompt, in.Draft, false,
		instructions, sourceText)
	if err != nil {
		return nil, err
	}

	fields := respparse.Labeled(raw, "SUGGESTION", "RATIONALE")
	if fields["SUGGESTION"] == "" {
		return nil, fmt.Errorf("draft-assist: response missing SUGGESTION: %w", apperr.ErrParse)
	}
	return &DraftAssistResult{
		Suggestion: fields["SUGGESTION"],
		Rationale:  fields["RATIONALE"],
		Meta:       meta,
	}, nil
}

// SummarizeTextInput is the request for SummarizeText.
type SummarizeTextInput struct {
	Content string
	ModelID string
}

// SummarizeTextResult is a summarized section of text.
type SummarizeTextResult struct {
	Section models.Section `json:"section"`
	Meta
}

// SummarizeText turns a block of text into a titled section summary.
// The full text is persisted verbatim in the returned section.
func (s *Service) SummarizeText(ctx context.Context, in SummarizeTextInput) (*SummarizeTextResult, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("content is required: %w", apperr.ErrInvalidInput)
	}

	raw, meta, err := s.complete(ctx, in.ModelID, "", summarizeTextPrompt, in.Content, true)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
	}
	if err := respparse.ExtractJSON(raw, &parsed); err != nil {
		return nil, err
	}
	if parsed.Summary == "" {
		return nil, fmt.Errorf("summarize: response missing summary: %w", apperr.ErrParse)
	}
	return &SummarizeTextResult{
		Section: models.Section{
			ID:       uuid.NewString(),
			Title:    parsed.Title,
			Summary:  parsed.Summary,
			FullText: in.Content,
		},
		Meta: meta,
	}, nil
}

// SummarizeDraftInput is the request for SummarizeDraft.
type SummarizeDraftInput struct {
	Draft   string
	Title   string
	ModelID string
}

// SummarizeDraftResult is an ordered list of summarized sections.
type SummarizeDraftResult struct {
	Sections []models.Section `json:"sections"`
	Meta
}

// SummarizeDraft splits a draft into ordered sections, each summarized.
func (s *Service) SummarizeDraft(ctx context.Context, in SummarizeDraftInput) (*SummarizeDraftResult, error) {
	if strings.TrimSpace(in.Draft) == "" {
		return nil, fmt.Errorf("draft is required: %w", apperr.ErrInvalidInput)
	}
	title := in.Title
	if title == "" {
		title = "Untitled draft"
	}

	raw, meta, err := s.complete(ctx, in.ModelID, "", summarizeDraftPrompt, in.Draft, true, title)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Sections []struct {
			Title    string `json:"title"`
			Summary  string `json:"summary"`
			FullText string `json:"fullText"`
		} `json:"sections"`
	}
	if err := respparse.ExtractJSON(raw, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Sections) == 0 {
		return nil, fmt.Errorf("summarize-draft: response missing sections: %w", apperr.ErrParse)
	}

	sections := make([]models.Section, len(parsed.Sections))
	for i, sec := range parsed.Sections {
		sections[i] = models.Section{
			ID:       uuid.NewString(),
			Title:    sec.Title,
			Summary:  sec.Summary,
			FullText: sec.FullText,
		}
	}
	return &SummarizeDraftResult{Sections: sections, Meta: meta}, nil
}

// SuggestExtractionInput is the request for SuggestExtraction.
type SuggestExtractionInput struct {
	Source   string
	Metadata *models.SourceMetadata
	ModelID  string
}

// ExtractField is one suggested table column.
type ExtractField struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SuggestExtractionResult is a suggested data-table shape for a source.
type SuggestExtractionResult struct {
	Title  string         `json:"title"`
	Fields []ExtractField `json:"fields"`
	Meta
}

// SuggestExtraction proposes table columns for extracting structured
// data from a source.
func (s *Service) SuggestExtraction(ctx context.Context, in SuggestExtractionInput) (*SuggestExtractionResult, error) {
	if strings.TrimSpace(in.Source) == "" {
		return nil, fmt.Errorf("source is required: %w", apperr.ErrInvalidInput)
	}
	if in.Metadata == nil {
		return nil, fmt.Errorf("metadata is required: %w", apperr.ErrInvalidInput)
	}

	raw, meta, err := s.complete(ctx, in.ModelID, "", suggestExtractionPrompt, in.Source, true,
		formatMetadata(in.Metadata))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Title  string         `json:"title"`
		Fields []ExtractField `json:"fields"`
	}
	if err := respparse.ExtractJSON(raw, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Fields) == 0 {
		return nil, fmt.Errorf("suggest-extraction: response missing fields: %w", apperr.ErrParse)
	}
	return &SuggestExtractionResult{Title: parsed.Title, Fields: parsed.Fields, Meta: meta}, nil
}
