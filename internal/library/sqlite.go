package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sourcelens/sourcelens/internal/apperr"
	"github.com/sourcelens/sourcelens/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS items (
	kind        TEXT NOT NULL,
	user_id     TEXT NOT NULL DEFAULT '',
	id          TEXT NOT NULL,
	data        TEXT NOT NULL DEFAULT '{}',
	date_added  DATETIME NOT NULL,
	last_edited DATETIME,
	PRIMARY KEY (kind, user_id, id)
);

CREATE INDEX IF NOT EXISTS idx_items_kind_user ON items(kind, user_id);
`

// SQLite is the local-mode Store, one table for all item kinds.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the library database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("library: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("library: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("library: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// SaveItem inserts a new item, generating ID and DateAdded when unset.
func (s *SQLite) SaveItem(ctx context.Context, item models.SavedItem) (models.SavedItem, error) {
	if !models.ValidKind(item.Kind) {
		return models.SavedItem{}, fmt.Errorf("library: unknown kind %q: %w", item.Kind, apperr.ErrInvalidInput)
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.DateAdded.IsZero() {
		item.DateAdded = time.Now().UTC()
	}

	data, err := json.Marshal(item.Data)
	if err != nil {
		return models.SavedItem{}, fmt.Errorf("library: marshal data: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO items (kind, user_id, id, data, date_added) VALUES (?, ?, ?, ?, ?)`,
		item.Kind, item.UserID, item.ID, string(data), item.DateAdded)
	if err != nil {
		return models.SavedItem{}, fmt.Errorf("library: insert: %w", err)
	}
	return item, nil
}

// GetItems returns all items of a kind for a user, newest first.
func (s *SQLite) GetItems(ctx context.Context, kind, userID string) ([]models.SavedItem, error) {
	if !models.ValidKind(kind) {
		return nil, fmt.Errorf("library: unknown kind %q: %w", kind, apperr.ErrInvalidInput)
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, data, date_added, last_edited FROM items
		 WHERE kind = ? AND user_id = ? ORDER BY date_added DESC`,
		kind, userID)
	if err != nil {
		return nil, fmt.Errorf("library: query: %w", err)
	}
	defer rows.Close()

	items := []models.SavedItem{}
	for rows.Next() {
		var (
			item       models.SavedItem
			data       string
			lastEdited sql.NullTime
		)
		if err := rows.Scan(&item.ID, &data, &item.DateAdded, &lastEdited); err != nil {
			return nil, fmt.Errorf("library: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &item.Data); err != nil {
			return nil, fmt.Errorf("library: decode data: %w", err)
		}
		if lastEdited.Valid {
			t := lastEdited.Time
			item.LastEdited = &t
		}
		item.Kind = kind
		item.UserID = userID
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem replaces an item's payload and stamps LastEdited.
func (s *SQLite) UpdateItem(ctx context.Context, kind, userID, id string, data map[string]any) (models.SavedItem, error) {
	if !models.ValidKind(kind) {
		return models.SavedItem{}, fmt.Errorf("library: unknown kind %q: %w", kind, apperr.ErrInvalidInput)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return models.SavedItem{}, fmt.Errorf("library: marshal data: %w", err)
	}
	now := time.Now().UTC()

	res, err := s.conn.ExecContext(ctx,
		`UPDATE items SET data = ?, last_edited = ? WHERE kind = ? AND user_id = ? AND id = ?`,
		string(payload), now, kind, userID, id)
	if err != nil {
		return models.SavedItem{}, fmt.Errorf("library: update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.SavedItem{}, err
	}
	if affected == 0 {
		return models.SavedItem{}, apperr.ErrNotFound
	}

	var item models.SavedItem
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, data, date_added, last_edited FROM items WHERE kind = ? AND user_id = ? AND id = ?`,
		kind, userID, id)
	var (
		raw        string
		lastEdited sql.NullTime
	)
	if err := row.Scan(&item.ID, &raw, &item.DateAdded, &lastEdited); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SavedItem{}, apperr.ErrNotFound
		}
		return models.SavedItem{}, fmt.Errorf("library: reload: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &item.Data); err != nil {
		return models.SavedItem{}, fmt.Errorf("library: decode data: %w", err)
	}
	if lastEdited.Valid {
		t := lastEdited.Time
		item.LastEdited = &t
	}
	item.Kind = kind
	item.UserID = userID
	return item, nil
}

// DeleteItem removes an item; deleting a missing item is ErrNotFound.
func (s *SQLite) DeleteItem(ctx context.Context, kind, userID, id string) error {
	if !models.ValidKind(kind) {
		return fmt.Errorf("library: unknown kind %q: %w", kind, apperr.ErrInvalidInput)
	}

	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM items WHERE kind = ? AND user_id = ? AND id = ?`,
		kind, userID, id)
	if err != nil {
		return fmt.Errorf("library: delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
