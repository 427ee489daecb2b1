package domain

import "time"

// Collection names one feature's session collection. Each feature keeps its
// sessions apart from the others, whatever the backing store.
type Collection string

const (
	CollectionChat           Collection = "chat_sessions"
	CollectionTempChat       Collection = "temp_chat_sessions"
	CollectionBusiness       Collection = "business_sessions"
	CollectionSocial         Collection = "social_sessions"
	CollectionAgents         Collection = "agents_sessions"
	CollectionGroupChat      Collection = "group_chat_sessions"
	CollectionGroups         Collection = "groups"
	CollectionGlobalLanguage Collection = "global_language_sessions"
	CollectionStudent        Collection = "student_sessions"
)

// Session is an owner-scoped, append-only history of entries. E is the
// feature-specific entry type.
type Session[E any] struct {
	ID        string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Entries   []E       `json:"entries"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	ID         string    `json:"session_id"`
	Title      string    `json:"title"`
	EntryCount int       `json:"entry_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
