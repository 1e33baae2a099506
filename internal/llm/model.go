package llm

import (
	"fmt"

	"github.com/sourcelens/sourcelens/internal/apperr"
)

// Model describes one entry in the model configuration table.
type Model struct {
	// ID is the model identifier used in API requests.
	ID string
	// Provider names the backend serving this model.
	Provider string
	// APIModel is the provider-side model name.
	APIModel string
	// Temperature is the default sampling temperature.
	Temperature float64
	// MaxTokens is the default output cap.
	MaxTokens int
	// CharBudget is the input character budget; longer source text is
	// truncated before prompting.
	CharBudget int
}

// DefaultModel is used when a request does not name a model.
const DefaultModel = "gemini-flash"

// models is the model configuration lookup table. Character budgets are
// provider-specific: the OpenAI models get the tightest budget, Gemini
// the widest.
var models = map[string]Model{
	"gpt-4o": {
		ID: "gpt-4o", Provider: ProviderOpenAI, APIModel: "gpt-4o",
		Temperature: 0.7, MaxTokens: 2000, CharBudget: 8000,
	},
	"gpt-4o-mini": {
		ID: "gpt-4o-mini", Provider: ProviderOpenAI, APIModel: "gpt-4o-mini",
		Temperature: 0.7, MaxTokens: 2000, CharBudget: 8000,
	},
	"claude-sonnet": {
		ID: "claude-sonnet", Provider: ProviderAnthropic, APIModel: "claude-3-5-sonnet-20241022",
		Temperature: 0.7, MaxTokens: 4000, CharBudget: 180000,
	},
	"claude-haiku": {
		ID: "claude-haiku", Provider: ProviderAnthropic, APIModel: "claude-3-5-haiku-20241022",
		Temperature: 0.7, MaxTokens: 4000, CharBudget: 100000,
	},
	"gemini-flash": {
		ID: "gemini-flash", Provider: ProviderGemini, APIModel: "gemini-2.0-flash",
		Temperature: 0.7, MaxTokens: 8192, CharBudget: 300000,
	},
	"gemini-flash-lite": {
		ID: "gemini-flash-lite", Provider: ProviderGemini, APIModel: "gemini-2.0-flash-lite",
		Temperature: 0.7, MaxTokens: 8192, CharBudget: 300000,
	},
}

// LookupModel returns the configuration for modelID, falling back to
// DefaultModel when modelID is empty.
func LookupModel(modelID string) (Model, error) {
	if modelID == "" {
		modelID = DefaultModel
	}
	m, ok := models[modelID]
	if !ok {
		return Model{}, fmt.Errorf("llm: unknown model %q: %w", modelID, apperr.ErrConfig)
	}
	return m, nil
}
