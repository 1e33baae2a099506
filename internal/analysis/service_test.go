package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sourcelens/sourcelens/internal/apperr"
	"github.com/sourcelens/sourcelens/internal/llm"
	"github.com/sourcelens/sourcelens/internal/models"
	"github.com/sourcelens/sourcelens/internal/testutil"
)

const labeledResponse = `SUMMARY: A letter describing conditions in the mills.

ANALYSIS: The author writes from direct experience and addresses a sympathetic audience.

FOLLOWUP QUESTIONS:
1. Who was the intended recipient?
2. How representative are these conditions?
3. What happened after publication?`

func testService(provider llm.Provider) *Service {
	return NewService(llm.NewRegistry(provider))
}

func md() *models.SourceMetadata {
	return &models.SourceMetadata{Title: "Mill Letter", Author: "Anonymous", Date: "1845"}
}

func TestInitialAnalysis_ParsesLabeledResponse(t *testing.T) {
	fake := testutil.NewFakeProvider(llm.ProviderGemini, labeledResponse)
	svc := testService(fake)

	res, err := svc.InitialAnalysis(context.Background(), InitialAnalysisInput{
		Source:   "Dear Sir, the conditions here...",
		Metadata: md(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(res.Summary, "A letter describing") {
		t.Errorf("summary = %q", res.Summary)
	}
	if res.Analysis == "" {
		t.Error("analysis empty")
	}
	if len(res.FollowupQuestions) != 3 {
		t.Errorf("questions = %v", res.FollowupQuestions)
	}
	if res.ModelID != llm.DefaultModel {
		t.Errorf("modelId = %q, want default", res.ModelID)
	}
}

func TestInitialAnalysis_PerspectiveInPrompt(t *testing.T) {
	fake := testutil.NewFakeProvider(llm.ProviderGemini, labeledResponse)
	svc := testService(fake)

	_, err := svc.InitialAnalysis(context.Background(), InitialAnalysisInput{
		Source:      "text",
		Metadata:    md(),
		Perspective: "counter-narrative",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req := fake.LastRequest(); !strings.Contains(req.Prompt, "counter-narrative") {
		t.Errorf("perspective missing from prompt: %q", req.Prompt)
	}
}

func TestInitialAnalysis_MissingInputNoProviderCall(t *testing.T) {
	fake := testutil.NewFakeProvider(llm.ProviderGemini, labeledResponse)
	svc := testService(fake)

	if _, err := svc.InitialAnalysis(context.Background(), InitialAnalysisInput{Source: "  ", Metadata: md()}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("blank source err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.InitialAnalysis(context.Background(), InitialAnalysisInput{Source: "text"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("nil metadata err = %v, want ErrInvalidInput", err)
	}
	if fake.Calls() != 0 {
		t.Errorf("provider called %d times on invalid input", fake.Calls())
	}
}

func TestInitialAnalysis_UnlabeledResponseIsParseError(t *testing.T) {
	fake := testutil.NewFakeProvider(llm.ProviderGemini, "Sure! Here is my freeform take on the document.")
	svc := testService(fake)

	_, err := svc.InitialAnalysis(context.Background(), InitialAnalysisInput{Source: "text", Metadata: md()})
	if !errors.Is(err, apperr.ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
}

func TestInitialAnalysis_TruncationReported(t *testing.T) {
	fake := testutil.NewFakeProvider(llm.ProviderOpenAI, labeledResponse)
	svc := testService(fake)

	long := strings.Repeat("a", 9000) // over the 8000-char openai budget
	res, err := svc.InitialAnalysis(context.Background(), InitialAnalysisInput{
		Source:   long,
		Metadata: md(),
		ModelID:  "gpt-4o",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Truncated {
		t.Error("expected truncated=true")
	}
	if res.OriginalTextLength != 9000 {
		t.Errorf("originalTextLength = %d, want 9000", res.OriginalTextLength)
	}
	if req := fake.LastRequest(); strings.Contains(req.Prompt, strings.Repeat("a", 8001)) {
		t.Error("prompt carries more than the budget")
	}
}

func TestDraftAssist_Basic(t *testing.T) {
	fake := testutil.NewFakeProvider(llm.ProviderGemini,
		"SUGGESTION: A tighter opening paragraph.\n\nRATIONALE: The original buried the argument.")
	svc := testService(fake)

	res, err := svc.DraftAssist(context.Background(), DraftAssistInput{
		Draft:        "My essay begins...",
		SourceText:   "source excerpt",
		Instructions: "tighten the opening",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Suggestion != "A tighter opening paragraph." {
		t.Errorf("suggestion = %q", res.Suggestion)
	}
	if res.Rationale == "" {
		t.Error("rationale empty")
	}

	// The draft text is the truncation target, so it goes last.
	req := fake.LastRequest()
	if strings.Index(req.Prompt, "source excerpt") > strings.Index(req.Prompt, "My essay begins") {
		t.Error("draft should follow source material in prompt")
	}
}

func TestDraftAssist_RequiresDraft(t *testing.T) {
	svc := testService(testutil.NewFakeProvider(llm.ProviderGemini, ""))
	if _, err := svc.DraftAssist(context.Background(), DraftAssistInput{}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSummarizeText_KeepsFullTextVerbatim(t *testing.T) {
	fake := testutil.NewFakeProvider(llm.ProviderGemini,
		"```json\n{\"title\": \"Mill Conditions\", \"summary\": \"Describes factory conditions.\"}\n```")
	svc := testService(fake)

	content := "The mills ran fourteen hours a day..."
	res, err := svc.SummarizeText(context.Background(), SummarizeTextInput{Content: content})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Section.ID == "" {
		t.Error("section id not generated")
	}
	if res.Section.FullText != content {
		t.Errorf("fullText = %q, want input verbatim", res.Section.FullText)
	}
	if res.Section.Title != "Mill Conditions" {
		t.Errorf("title = %q", res.Section.Title)
	}
}

func TestSummarizeDraft_OrderedSections(t *testing.T) {
	fake := testutil.NewFakeProvider(llm.ProviderGemini,
		`{"sections": [{"title": "One", "summary": "s1", "fullText": "t1"}, {"title": "Two", "summary": "s2", "fullText": "t2"}]}`)
	svc := testService(fake)

	res, err := svc.SummarizeDraft(context.Background(), SummarizeDraftInput{Draft: "t1 t2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Sections) != 2 || res.Sections[0].Title != "One" || res.Sections[1].Title != "Two" {
		t.Errorf("sections = %+v", res.Sections)
	}
	if res.Sections[0].ID == res.Sections[1].ID {
		t.Error("section ids should differ")
	}
}

func TestSuggestExtraction_Basic(t *testing.T) {
	fake := testutil.NewFakeProvider(llm.ProviderGemini,
		`{"title": "Shipping Manifest", "fields": [{"name": "vessel", "description": "ship name"}, {"name": "cargo", "description": "goods carried"}]}`)
	svc := testService(fake)

	res, err := svc.SuggestExtraction(context.Background(), SuggestExtractionInput{Source: "manifest text", Metadata: md()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "Shipping Manifest" || len(res.Fields) != 2 {
		t.Errorf("res = %+v", res)
	}
}

func TestSuggestExtraction_NoFieldsIsParseError(t *testing.T) {
	fake := testutil.NewFakeProvider(llm.ProviderGemini, `{"title": "x", "fields": []}`)
	svc := testService(fake)

	if _, err := svc.SuggestExtraction(context.Background(), SuggestExtractionInput{Source: "text", Metadata: md()}); !errors.Is(err, apperr.ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
}
