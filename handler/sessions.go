package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"omniai/internal/domain"
)

type sessionService[E any] interface {
	CreateSession(ctx context.Context, userID string) (domain.Session[E], error)
	History(ctx context.Context, sessionID, userID string) (domain.Session[E], error)
	DeleteSession(ctx context.Context, sessionID, userID string) error
}

type sessionLister interface {
	ListSessions(ctx context.Context, userID string) ([]domain.SessionSummary, error)
}

type sessionCreatedResponse struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionListResponse struct {
	UserID        string                  `json:"user_id"`
	TotalSessions int                     `json:"total_sessions"`
	Sessions      []domain.SessionSummary `json:"sessions"`
}

// sessionRoutes mounts create, history and delete for one feature, plus
// list when the service supports it. entriesKey names the history field
// ("messages" or "interactions").
func sessionRoutes[E any](r chi.Router, svc sessionService[E], entriesKey string, maxBytes int64) {
	r.Post("/session/create", func(w http.ResponseWriter, req *http.Request) {
		userID, err := userIDFrom(w, req, maxBytes)
		if err != nil {
			writeError(w, req, err)
			return
		}
		sess, err := svc.CreateSession(req.Context(), userID)
		if err != nil {
			writeError(w, req, err)
			return
		}
		writeJSON(w, http.StatusCreated, sessionCreatedResponse{
			SessionID: sess.ID,
			UserID:    sess.UserID,
			Title:     sess.Title,
			Message:   "Session created successfully",
			CreatedAt: sess.CreatedAt,
		})
	})

	r.Get("/history/{id}", func(w http.ResponseWriter, req *http.Request) {
		sess, err := svc.History(req.Context(), chi.URLParam(req, "id"), queryUserID(req))
		if err != nil {
			writeError(w, req, err)
			return
		}
		entries := sess.Entries
		if entries == nil {
			entries = []E{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"session_id": sess.ID,
			"user_id":    sess.UserID,
			"title":      sess.Title,
			entriesKey:   entries,
			"created_at": sess.CreatedAt,
			"updated_at": sess.UpdatedAt,
		})
	})

	r.Delete("/session/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		if err := svc.DeleteSession(req.Context(), id, queryUserID(req)); err != nil {
			writeError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, deleteResponse{Message: "Session deleted successfully", SessionID: id})
	})

	lister, ok := svc.(sessionLister)
	if !ok {
		return
	}
	r.Get("/sessions/list", func(w http.ResponseWriter, req *http.Request) {
		userID := queryUserID(req)
		sessions, err := lister.ListSessions(req.Context(), userID)
		if err != nil {
			writeError(w, req, err)
			return
		}
		if sessions == nil {
			sessions = []domain.SessionSummary{}
		}
		writeJSON(w, http.StatusOK, sessionListResponse{UserID: userID, TotalSessions: len(sessions), Sessions: sessions})
	})
}

func queryUserID(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("user_id"))
}
