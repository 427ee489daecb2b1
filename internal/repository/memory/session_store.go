package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"omniai/internal/domain"
	"omniai/internal/repository"
)

// SessionStore keeps sessions in process memory. It backs the temporary chat
// and the memory storage backend; its contents are lost on restart.
type SessionStore[E any] struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session[E]
}

func NewSessionStore[E any]() *SessionStore[E] {
	return &SessionStore[E]{
		sessions: make(map[string]domain.Session[E]),
	}
}

func (s *SessionStore[E]) Create(_ context.Context, sess domain.Session[E]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return fmt.Errorf("memory: session %s already exists", sess.ID)
	}
	sess.Entries = cloneEntries(sess.Entries)
	s.sessions[sess.ID] = sess
	return nil
}

func (s *SessionStore[E]) Get(_ context.Context, sessionID, userID string) (domain.Session[E], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return domain.Session[E]{}, fmt.Errorf("memory: get %s: %w", sessionID, repository.ErrNotFound)
	}
	sess.Entries = cloneEntries(sess.Entries)
	return sess, nil
}

func (s *SessionStore[E]) Append(_ context.Context, sessionID, userID string, in repository.AppendInput[E]) (domain.Session[E], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return domain.Session[E]{}, fmt.Errorf("memory: append %s: %w", sessionID, repository.ErrNotFound)
	}
	sess.Entries = append(cloneEntries(sess.Entries), in.Entries...)
	if in.Title != "" {
		sess.Title = in.Title
	}
	sess.UpdatedAt = in.UpdatedAt
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = time.Now().UTC()
	}
	s.sessions[sessionID] = sess

	sess.Entries = cloneEntries(sess.Entries)
	return sess, nil
}

func (s *SessionStore[E]) Delete(_ context.Context, sessionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return fmt.Errorf("memory: delete %s: %w", sessionID, repository.ErrNotFound)
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *SessionStore[E]) List(_ context.Context, userID string) ([]domain.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.SessionSummary
	for _, sess := range s.sessions {
		if sess.UserID != userID {
			continue
		}
		result = append(result, domain.SessionSummary{
			ID:         sess.ID,
			Title:      sess.Title,
			EntryCount: len(sess.Entries),
			CreatedAt:  sess.CreatedAt,
			UpdatedAt:  sess.UpdatedAt,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func cloneEntries[E any](in []E) []E {
	if in == nil {
		return nil
	}
	out := make([]E, len(in))
	copy(out, in)
	return out
}
