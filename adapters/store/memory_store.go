package store

import (
	"context"
	"sync"
	"time"

	"github.com/streamgate/streamgate/core"
	"github.com/streamgate/streamgate/ports"
)

// MemoryStore is an in-memory implementation of the SessionStore interface.
// Suitable for tests and single-node deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]core.Session
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() ports.SessionStore {
	return &MemoryStore{
		sessions: make(map[string]core.Session),
	}
}

// Create persists a new session record.
func (s *MemoryStore) Create(ctx context.Context, sess core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = sess
	return nil
}

// Get returns the session iff it exists and has not expired. Expired
// records are purged on lookup.
func (s *MemoryStore) Get(ctx context.Context, id string) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return core.Session{}, core.ErrSessionInvalid
	}
	if sess.Expired(time.Now()) {
		delete(s.sessions, id)
		return core.Session{}, core.ErrSessionInvalid
	}
	return sess, nil
}

// Revoke deletes a session; absent ids are not an error.
func (s *MemoryStore) Revoke(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// RevokeAllForSubject deletes every session owned by the subject.
func (s *MemoryStore) RevokeAllForSubject(ctx context.Context, subjectID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, sess := range s.sessions {
		if sess.SubjectID == subjectID {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}
