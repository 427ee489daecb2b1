package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"omniai/internal/domain"
	"omniai/internal/repository"
)

// Titler produces a title from the first input of a session.
type Titler interface {
	Title(ctx context.Context, first string) string
}

// Sessions implements the create/get/record/delete/list lifecycle shared by
// every session-backed feature. Entries are opaque to it.
type Sessions[E any] struct {
	store        repository.Store[E]
	titles       Titler
	defaultTitle string
}

// NewSessions builds the helper. titles may be nil, in which case sessions
// keep defaultTitle forever.
func NewSessions[E any](store repository.Store[E], titles Titler, defaultTitle string) (*Sessions[E], error) {
	if store == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	return &Sessions[E]{store: store, titles: titles, defaultTitle: defaultTitle}, nil
}

func (s *Sessions[E]) Create(ctx context.Context, userID string) (domain.Session[E], error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Session[E]{}, invalidInput("missing_user_id", "user_id is required")
	}
	at := now()
	sess := domain.Session[E]{
		ID:        newUUID(),
		UserID:    userID,
		Title:     s.defaultTitle,
		Entries:   []E{},
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return domain.Session[E]{}, newError(ErrorInternal, "session_create_error", err)
	}
	return sess, nil
}

// Get returns the session only when it belongs to userID.
func (s *Sessions[E]) Get(ctx context.Context, sessionID, userID string) (domain.Session[E], error) {
	sessionID, userID, err := sessionKey(sessionID, userID)
	if err != nil {
		return domain.Session[E]{}, err
	}
	sess, err := s.store.Get(ctx, sessionID, userID)
	if err != nil {
		return domain.Session[E]{}, storeError("session_not_found", "session_read_error", err)
	}
	return sess, nil
}

// Record appends entries to sess. When sess had no entries yet, the default
// title is replaced by one derived from seed.
func (s *Sessions[E]) Record(ctx context.Context, sess domain.Session[E], seed string, entries ...E) (domain.Session[E], error) {
	var title string
	if len(sess.Entries) == 0 && s.titles != nil {
		title = s.titles.Title(ctx, seed)
	}
	updated, err := s.store.Append(ctx, sess.ID, sess.UserID, repository.AppendInput[E]{
		Entries:   entries,
		Title:     title,
		UpdatedAt: now(),
	})
	if err != nil {
		return domain.Session[E]{}, storeError("session_not_found", "session_write_error", err)
	}
	return updated, nil
}

func (s *Sessions[E]) Delete(ctx context.Context, sessionID, userID string) error {
	sessionID, userID, err := sessionKey(sessionID, userID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sessionID, userID); err != nil {
		return storeError("session_not_found", "session_delete_error", err)
	}
	return nil
}

// List returns the owner's sessions, most recently updated first.
func (s *Sessions[E]) List(ctx context.Context, userID string) ([]domain.SessionSummary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalidInput("missing_user_id", "user_id is required")
	}
	out, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, newError(ErrorInternal, "session_list_error", err)
	}
	return out, nil
}

func sessionKey(sessionID, userID string) (string, string, error) {
	sessionID = strings.TrimSpace(sessionID)
	userID = strings.TrimSpace(userID)
	if sessionID == "" {
		return "", "", invalidInput("missing_session_id", "session_id is required")
	}
	if userID == "" {
		return "", "", invalidInput("missing_user_id", "user_id is required")
	}
	return sessionID, userID, nil
}

// SessionRef identifies a session in tool requests.
type SessionRef struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

var newUUID = func() string {
	return uuid.NewString()
}

var now = func() time.Time {
	return time.Now().UTC()
}
