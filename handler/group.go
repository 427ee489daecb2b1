package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"omniai/internal/domain"
	"omniai/internal/usecase"
)

type GroupUseCase interface {
	CreateSession(ctx context.Context, userID string) (domain.Session[domain.Interaction], error)
	CreateGroup(ctx context.Context, in usecase.CreateGroupInput) (domain.Group, error)
	JoinGroup(ctx context.Context, in usecase.JoinGroupInput) (domain.Group, error)
	SendMessage(ctx context.Context, in usecase.GroupMessageInput) (domain.GroupMessage, error)
	History(ctx context.Context, groupID, userID string) ([]domain.GroupMessage, error)
	DeleteGroup(ctx context.Context, groupID, userID string) error
}

type groupResponse struct {
	GroupID     string `json:"group_id"`
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"`
	MemberCount int    `json:"member_count"`
	Message     string `json:"message"`
}

type groupHistoryResponse struct {
	GroupID  string                `json:"group_id"`
	Messages []domain.GroupMessage `json:"messages"`
}

func groupRoutes(uc GroupUseCase, maxBytes int64) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/session/create", func(w http.ResponseWriter, req *http.Request) {
			userID, err := userIDFrom(w, req, maxBytes)
			if err != nil {
				writeError(w, req, err)
				return
			}
			sess, err := uc.CreateSession(req.Context(), userID)
			if err != nil {
				writeError(w, req, err)
				return
			}
			writeJSON(w, http.StatusCreated, sessionCreatedResponse{
				SessionID: sess.ID,
				UserID:    sess.UserID,
				Title:     sess.Title,
				Message:   "Group chat session created successfully",
				CreatedAt: sess.CreatedAt,
			})
		})

		r.Post("/group/create", func(w http.ResponseWriter, req *http.Request) {
			var in usecase.CreateGroupInput
			if err := decodeJSON(req, maxBytes, &in); err != nil {
				writeError(w, req, err)
				return
			}
			g, err := uc.CreateGroup(req.Context(), in)
			if err != nil {
				writeError(w, req, err)
				return
			}
			writeJSON(w, http.StatusCreated, groupResponse{
				GroupID:     g.ID,
				Name:        g.Name,
				Type:        g.Type,
				MemberCount: len(g.Members),
				Message:     "Group created successfully",
			})
		})

		r.Post("/group/join", func(w http.ResponseWriter, req *http.Request) {
			var in usecase.JoinGroupInput
			if err := decodeJSON(req, maxBytes, &in); err != nil {
				writeError(w, req, err)
				return
			}
			g, err := uc.JoinGroup(req.Context(), in)
			if err != nil {
				writeError(w, req, err)
				return
			}
			writeJSON(w, http.StatusOK, groupResponse{
				GroupID:     g.ID,
				MemberCount: len(g.Members),
				Message:     "Joined group successfully",
			})
		})

		r.Post("/group/message", jsonTool(uc.SendMessage, nil, maxBytes))

		r.Get("/group/history/{id}", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			msgs, err := uc.History(req.Context(), id, queryUserID(req))
			if err != nil {
				writeError(w, req, err)
				return
			}
			writeJSON(w, http.StatusOK, groupHistoryResponse{GroupID: id, Messages: msgs})
		})

		r.Delete("/group/{id}", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			if err := uc.DeleteGroup(req.Context(), id, queryUserID(req)); err != nil {
				writeError(w, req, err)
				return
			}
			writeJSON(w, http.StatusOK, deleteResponse{Message: "Group deleted successfully", GroupID: id})
		})
	}
}
