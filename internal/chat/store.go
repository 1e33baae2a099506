// Package chat implements the conversational endpoint over an
// in-process session store.
//
// Sessions live in one process only: a multi-instance deployment will
// not share history, and a restart drops it. The janitor purges
// sessions idle longer than the TTL.
package chat

import (
	"context"
	"sync"
	"time"

	"github.com/sourcelens/sourcelens/internal/models"
)

type session struct {
	messages []models.ChatMessage
	lastUsed time.Time
}

// Store holds chat sessions keyed by id.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*session
}

// NewStore creates a session store with the given idle TTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*session),
	}
}

// Append adds a message to the session, creating it if needed.
func (s *Store) Append(id string, msg models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	sess.messages = append(sess.messages, msg)
	sess.lastUsed = time.Now()
}

// History returns a copy of the session's messages, oldest first.
func (s *Store) History(id string) []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	out := make([]models.ChatMessage, len(sess.messages))
	copy(out, sess.messages)
	return out
}

// Touch marks the session as used at the given time. Used by tests to
// forge idle timestamps.
func (s *Store) Touch(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.lastUsed = at
	}
}

// Cleanup removes sessions idle longer than the TTL as of now, and
// returns how many were purged.
func (s *Store) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed) > s.ttl {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Janitor runs Cleanup on the given interval until ctx is cancelled.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Cleanup(now)
		}
	}
}
