package library

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/sourcelens/sourcelens/internal/apperr"
	"github.com/sourcelens/sourcelens/internal/models"
)

// Supabase is the authenticated-mode Store. Each item kind maps to its
// own table (references, analyses, sources, drafts), rows keyed by
// user_id. The service role key is used; user scoping is only the
// user_id filter.
type Supabase struct {
	client *supabase.Client
}

// NewSupabase creates a Supabase-backed store.
func NewSupabase(url, key string) (*Supabase, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("library: supabase url and key are required: %w", apperr.ErrConfig)
	}
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("library: supabase client: %w", err)
	}
	return &Supabase{client: client}, nil
}

// Close implements Store; the REST client holds no resources.
func (s *Supabase) Close() error { return nil }

// itemRow is the wire shape of a library table row.
type itemRow struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Data       map[string]any `json:"data"`
	DateAdded  string         `json:"date_added"`
	LastEdited *string        `json:"last_edited,omitempty"`
}

func (r itemRow) toItem(kind string) models.SavedItem {
	item := models.SavedItem{
		ID:     r.ID,
		Kind:   kind,
		UserID: r.UserID,
		Data:   r.Data,
	}
	item.DateAdded, _ = time.Parse(time.RFC3339, r.DateAdded)
	if r.LastEdited != nil {
		if t, err := time.Parse(time.RFC3339, *r.LastEdited); err == nil {
			item.LastEdited = &t
		}
	}
	return item
}

// SaveItem inserts a new row, generating ID and DateAdded when unset.
func (s *Supabase) SaveItem(_ context.Context, item models.SavedItem) (models.SavedItem, error) {
	if !models.ValidKind(item.Kind) {
		return models.SavedItem{}, fmt.Errorf("library: unknown kind %q: %w", item.Kind, apperr.ErrInvalidInput)
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.DateAdded.IsZero() {
		item.DateAdded = time.Now().UTC()
	}

	row := itemRow{
		ID:        item.ID,
		UserID:    item.UserID,
		Data:      item.Data,
		DateAdded: item.DateAdded.Format(time.RFC3339),
	}
	if _, _, err := s.client.From(item.Kind).Insert(row, false, "", "", "").Execute(); err != nil {
		return models.SavedItem{}, fmt.Errorf("library: supabase insert: %w", err)
	}
	return item, nil
}

// GetItems returns all rows of a kind for a user, newest first.
func (s *Supabase) GetItems(_ context.Context, kind, userID string) ([]models.SavedItem, error) {
	if !models.ValidKind(kind) {
		return nil, fmt.Errorf("library: unknown kind %q: %w", kind, apperr.ErrInvalidInput)
	}

	var rows []itemRow
	_, err := s.client.From(kind).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("date_added", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("library: supabase select: %w", err)
	}

	items := make([]models.SavedItem, len(rows))
	for i, r := range rows {
		items[i] = r.toItem(kind)
	}
	return items, nil
}

// UpdateItem replaces a row's payload and stamps last_edited.
func (s *Supabase) UpdateItem(_ context.Context, kind, userID, id string, data map[string]any) (models.SavedItem, error) {
	if !models.ValidKind(kind) {
		return models.SavedItem{}, fmt.Errorf("library: unknown kind %q: %w", kind, apperr.ErrInvalidInput)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	var rows []itemRow
	_, err := s.client.From(kind).
		Update(map[string]any{"data": data, "last_edited": now}, "representation", "").
		Eq("user_id", userID).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return models.SavedItem{}, fmt.Errorf("library: supabase update: %w", err)
	}
	if len(rows) == 0 {
		return models.SavedItem{}, apperr.ErrNotFound
	}
	return rows[0].toItem(kind), nil
}

// DeleteItem removes a row.
func (s *Supabase) DeleteItem(_ context.Context, kind, userID, id string) error {
	if !models.ValidKind(kind) {
		return fmt.Errorf("library: unknown kind %q: %w", kind, apperr.ErrInvalidInput)
	}
	if _, _, err := s.client.From(kind).
		Delete("", "").
		Eq("user_id", userID).
		Eq("id", id).
		Execute(); err != nil {
		return fmt.Errorf("library: supabase delete: %w", err)
	}
	return nil
}
