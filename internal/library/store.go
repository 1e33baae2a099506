// Package library implements the per-user saved-item store behind one
// CRUD interface, with a local SQLite backend for anonymous use and a
// Supabase backend for authenticated deployments.
package library

import (
	"context"

	"github.com/sourcelens/sourcelens/internal/models"
)

// Store is the CRUD interface over library collections
// (references, analyses, sources, drafts).
//
// No backend migrates data to another: items saved locally stay local.
// Concurrent writers are last-write-wins.
type Store interface {
	// SaveItem persists a new item, generating its ID and DateAdded
	// when unset, and returns the stored item.
	SaveItem(ctx context.Context, item models.SavedItem) (models.SavedItem, error)
	// GetItems returns all items of a kind for a user, newest first.
	GetItems(ctx context.Context, kind, userID string) ([]models.SavedItem, error)
	// UpdateItem replaces an item's payload and stamps LastEdited.
	UpdateItem(ctx context.Context, kind, userID, id string, data map[string]any) (models.SavedItem, error)
	// DeleteItem removes an item.
	DeleteItem(ctx context.Context, kind, userID, id string) error
	// Close releases backend resources.
	Close() error
}
