// Package wiki serves encyclopedia context for graph nodes: a Wikipedia
// summary plus a model-written historian's overview.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sourcelens/sourcelens/internal/apperr"
	"github.com/sourcelens/sourcelens/internal/llm"
)

const summaryBaseURL = "https://en.wikipedia.org/api/rest_v1/page/summary/"

const overviewPrompt = `Write a concise historian's overview (2-3 paragraphs) of the topic below for a researcher studying primary sources. Focus on historical significance and context.

TOPIC: %s

WIKIPEDIA SUMMARY:
%s`

// Service fetches Wikipedia summaries and generates overviews.
type Service struct {
	registry *llm.Registry
	client   *http.Client
	baseURL  string
}

// NewService creates a wiki service.
func NewService(registry *llm.Registry) *Service {
	return &Service{
		registry: registry,
		client:   &http.Client{Timeout: 15 * time.Second},
		baseURL:  summaryBaseURL,
	}
}

// Overview is the combined Wikipedia + model response for a topic.
type Overview struct {
	Title    string `json:"title"`
	Extract  string `json:"extract"`
	URL      string `json:"url,omitempty"`
	Overview string `json:"overview"`
	Provider string `json:"provider"`
}

type wikiSummary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Content struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Get fetches the Wikipedia summary for title and asks a model for a
// historian's overview. This is the one endpoint with a provider
// fallback chain: Gemini first, then Anthropic.
func (s *Service) Get(ctx context.Context, title string) (*Overview, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required: %w", apperr.ErrInvalidInput)
	}

	summary, err := s.fetchSummary(ctx, title)
	if err != nil {
		return nil, err
	}

	out := &Overview{
		Title:   summary.Title,
		Extract: summary.Extract,
		URL:     summary.Content.Desktop.Page,
	}

	prompt := fmt.Sprintf(overviewPrompt, summary.Title, summary.Extract)
	overview, provider, err := s.generateWithFallback(ctx, prompt)
	if err != nil {
		return nil, err
	}
	out.Overview = overview
	out.Provider = provider
	return out, nil
}

func (s *Service) fetchSummary(ctx context.Context, title string) (*wikiSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+url.PathEscape(title), nil)
	if err != nil {
		return nil, fmt.Errorf("wiki: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wiki: fetch summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("wiki: no article for %q: %w", title, apperr.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wiki: summary status %d", resp.StatusCode)
	}

	var summary wikiSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("wiki: decode summary: %w", err)
	}
	return &summary, nil
}

// generateWithFallback tries Gemini, then Anthropic. Errors from the
// first attempt are carried into the final error when both fail.
func (s *Service) generateWithFallback(ctx context.Context, prompt string) (string, string, error) {
	chain := []struct {
		provider string
		model    string
	}{
		{llm.ProviderGemini, "gemini-flash"},
		{llm.ProviderAnthropic, "claude-haiku"},
	}

	var firstErr error
	for _, link := range chain {
		provider, err := s.registry.Provider(link.provider)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		model, err := llm.LookupModel(link.model)
		if err != nil {
			continue
		}
		text, err := provider.Complete(ctx, llm.Request{
			Prompt:      prompt,
			Model:       model.APIModel,
			Temperature: model.Temperature,
			MaxTokens:   model.MaxTokens,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return strings.TrimSpace(text), link.provider, nil
	}
	if firstErr == nil {
		firstErr = apperr.ErrConfig
	}
	return "", "", fmt.Errorf("wiki: overview generation failed: %w", firstErr)
}
