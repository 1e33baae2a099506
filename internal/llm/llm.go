// Package llm provides a uniform client abstraction over the supported
// model providers (OpenAI, Anthropic, Google Gemini).
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcelens/sourcelens/internal/apperr"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Request describes a single completion call.
type Request struct {
	// System is the system instruction, may be empty.
	System string
	// Prompt is the user-turn content.
	Prompt string
	// Model is the provider-side model identifier.
	Model string
	// Temperature controls sampling randomness.
	Temperature float64
	// MaxTokens caps the generated output length.
	MaxTokens int
	// JSONMode requests a JSON-only response where the provider supports it.
	JSONMode bool
}

// Provider is a model backend that can serve completion requests.
type Provider interface {
	// Complete sends the request and returns the raw text response.
	Complete(ctx context.Context, req Request) (string, error)
	// Name returns the provider name.
	Name() string
}

// Registry maps provider names to configured clients.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a registry over the given providers. Nil entries
// are skipped so unconfigured providers simply stay unregistered.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// Provider returns the named provider, or apperr.ErrConfig when it has
// no configured client (typically a missing API key).
func (r *Registry) Provider(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("llm: provider %q: %w", name, apperr.ErrConfig)
	}
	return p, nil
}

// ForModel resolves the model id and returns its provider client.
func (r *Registry) ForModel(modelID string) (Provider, Model, error) {
	m, err := LookupModel(modelID)
	if err != nil {
		return nil, Model{}, err
	}
	p, err := r.Provider(m.Provider)
	if err != nil {
		return nil, Model{}, err
	}
	return p, m, nil
}

// truncationNotice is appended whenever input is cut to a model's budget.
const truncationNotice = "\n\n[Note: text truncated due to length]"

// Truncate cuts text to at most budget characters, appending a notice
// when a cut happened. It reports whether the text was truncated.
func Truncate(text string, budget int) (string, bool) {
	if budget <= 0 || len(text) <= budget {
		return text, false
	}
	cut := strings.ToValidUTF8(text[:budget], "")
	return cut + truncationNotice, true
}
