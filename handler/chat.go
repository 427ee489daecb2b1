package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"omniai/internal/domain"
	"omniai/internal/usecase"
)

type ChatUseCase interface {
	sessionService[domain.Message]
	Send(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

type VoiceUseCase interface {
	Transcribe(ctx context.Context, audio *usecase.Upload) (usecase.TranscribeOutput, error)
}

type transcribeResponse struct {
	usecase.TranscribeOutput
	Success bool `json:"success"`
}

func chatRoutes(uc ChatUseCase, maxBytes int64) func(chi.Router) {
	return func(r chi.Router) {
		sessionRoutes[domain.Message](r, uc, "messages", maxBytes)
		r.Post("/message", func(w http.ResponseWriter, req *http.Request) {
			in, err := chatInputFrom(w, req, maxBytes)
			if err != nil {
				writeError(w, req, err)
				return
			}
			out, err := uc.Send(req.Context(), in)
			if err != nil {
				writeError(w, req, err)
				return
			}
			writeJSON(w, http.StatusOK, out)
		})
	}
}

func chatInputFrom(w http.ResponseWriter, r *http.Request, maxBytes int64) (usecase.ChatInput, error) {
	if err := parseForm(w, r, maxBytes); err != nil {
		return usecase.ChatInput{}, err
	}
	audio, err := formUpload(r, "audio")
	if err != nil {
		return usecase.ChatInput{}, err
	}
	image, err := formUpload(r, "image")
	if err != nil {
		return usecase.ChatInput{}, err
	}
	return usecase.ChatInput{
		UserID:    r.FormValue("user_id"),
		SessionID: r.FormValue("session_id"),
		Message:   r.FormValue("message"),
		Audio:     audio,
		Image:     image,
	}, nil
}

func voiceRoutes(uc VoiceUseCase, maxBytes int64) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/transcribe", func(w http.ResponseWriter, req *http.Request) {
			if err := parseForm(w, req, maxBytes); err != nil {
				writeError(w, req, err)
				return
			}
			audio, err := formUpload(req, "audio")
			if err != nil {
				writeError(w, req, err)
				return
			}
			out, err := uc.Transcribe(req.Context(), audio)
			if err != nil {
				writeError(w, req, err)
				return
			}
			writeJSON(w, http.StatusOK, transcribeResponse{TranscribeOutput: out, Success: true})
		})
	}
}
