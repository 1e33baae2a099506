package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sourcelens/sourcelens/internal/apperr"
	"github.com/sourcelens/sourcelens/internal/llm"
	"github.com/sourcelens/sourcelens/internal/models"
)

const chatSystem = `You are a research assistant discussing a primary source with a historian. Answer from the source text where possible and say so when you are inferring beyond it.`

const chatPrompt = `SOURCE UNDER DISCUSSION:
%s

CONVERSATION SO FAR:
%s
Continue the conversation. Reply to the last researcher message only, without repeating the transcript.`

// Service answers chat messages with session history as context.
type Service struct {
	store    *Store
	registry *llm.Registry
}

// NewService creates a chat service over the given session store.
func NewService(store *Store, registry *llm.Registry) *Service {
	return &Service{store: store, registry: registry}
}

// SendInput is one researcher turn.
type SendInput struct {
	SessionID string
	Message   string
	Source    string
	ModelID   string
}

// SendResult is the assistant's reply.
type SendResult struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
	ModelID   string `json:"modelId"`
}

// Send appends the researcher's message to the session, prompts the
// model with the accumulated transcript, and records the reply.
func (s *Service) Send(ctx context.Context, in SendInput) (*SendResult, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, fmt.Errorf("message is required: %w", apperr.ErrInvalidInput)
	}

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	provider, model, err := s.registry.ForModel(in.ModelID)
	if err != nil {
		return nil, err
	}

	s.store.Append(sessionID, models.ChatMessage{Role: "user", Content: in.Message})

	source := in.Source
	if source == "" {
		source = "(no source attached)"
	}
	source, _ = llm.Truncate(source, model.CharBudget)

	raw, err := provider.Complete(ctx, llm.Request{
		System:      chatSystem,
		Prompt:      fmt.Sprintf(chatPrompt, source, transcript(s.store.History(sessionID))),
		Model:       model.APIModel,
		Temperature: model.Temperature,
		MaxTokens:   model.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	reply := strings.TrimSpace(raw)
	s.store.Append(sessionID, models.ChatMessage{Role: "assistant", Content: reply})

	return &SendResult{SessionID: sessionID, Reply: reply, ModelID: model.ID}, nil
}

func transcript(history []models.ChatMessage) string {
	var b strings.Builder
	for _, msg := range history {
		role := "Researcher"
		if msg.Role == "assistant" {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, msg.Content)
	}
	return b.String()
}
