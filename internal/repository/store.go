package repository

import (
	"context"
	"errors"
	"time"

	"omniai/internal/domain"
)

// ErrNotFound is returned when a session or group does not exist, or when a
// session exists but belongs to a different owner.
var ErrNotFound = errors.New("repository: not found")

// Store persists the sessions of one feature collection. Every read and
// write is scoped to the (session id, owner id) pair.
type Store[E any] interface {
	Create(ctx context.Context, s domain.Session[E]) error
	Get(ctx context.Context, sessionID, userID string) (domain.Session[E], error)
	Append(ctx context.Context, sessionID, userID string, in AppendInput[E]) (domain.Session[E], error)
	Delete(ctx context.Context, sessionID, userID string) error
	List(ctx context.Context, userID string) ([]domain.SessionSummary, error)
}

// AppendInput describes one append. Title is only written when non-empty.
type AppendInput[E any] struct {
	Entries   []E
	Title     string
	UpdatedAt time.Time
}

// GroupStore persists group chat rooms.
type GroupStore interface {
	CreateGroup(ctx context.Context, g domain.Group) error
	GetGroup(ctx context.Context, groupID string) (domain.Group, error)
	AddMember(ctx context.Context, groupID, userID string) (domain.Group, error)
	AppendGroupMessage(ctx context.Context, groupID string, msg domain.GroupMessage) error
	DeleteGroup(ctx context.Context, groupID string) error
}
