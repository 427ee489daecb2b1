package handler

import (
	"context"
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"omniai/internal/domain"
	"omniai/internal/usecase"
)

type LanguageUseCase interface {
	sessionService[domain.LanguageInteraction]
	Voice(ctx context.Context, in usecase.LanguageVoiceInput) (usecase.LanguageVoiceOutput, error)
	Chat(ctx context.Context, in usecase.LanguageChatInput) (usecase.LanguageChatOutput, error)
}

type StudentUseCase interface {
	sessionService[domain.StudentInteraction]
	Homework(ctx context.Context, in usecase.HomeworkRequest) (usecase.StudentOutput, error)
	Essay(ctx context.Context, in usecase.EssayRequest) (usecase.StudentOutput, error)
	Math(ctx context.Context, in usecase.MathRequest) (usecase.StudentOutput, error)
	Study(ctx context.Context, in usecase.StudyRequest) (usecase.StudentOutput, error)
	Flashcards(ctx context.Context, in usecase.FlashcardsRequest) (usecase.StudentOutput, error)
	Summary(ctx context.Context, in usecase.SummaryRequest) (usecase.StudentOutput, error)
}

type languageVoiceResponse struct {
	Transcription  string `json:"transcription"`
	ResponseText   string `json:"response_text"`
	AudioBase64    string `json:"audio_base64"`
	TargetLanguage string `json:"target_language"`
}

func languageRoutes(uc LanguageUseCase, maxBytes int64) func(chi.Router) {
	voice := func(w http.ResponseWriter, r *http.Request, delivery string) (usecase.LanguageVoiceOutput, bool) {
		if err := parseForm(w, r, maxBytes); err != nil {
			writeError(w, r, err)
			return usecase.LanguageVoiceOutput{}, false
		}
		audio, err := formUpload(r, "audio_file")
		if err != nil {
			writeError(w, r, err)
			return usecase.LanguageVoiceOutput{}, false
		}
		out, err := uc.Voice(r.Context(), usecase.LanguageVoiceInput{
			SessionRef:     usecase.SessionRef{UserID: r.FormValue("user_id"), SessionID: r.FormValue("session_id")},
			TargetLanguage: r.FormValue("target_language"),
			Audio:          audio,
			Delivery:       delivery,
		})
		if err != nil {
			writeError(w, r, err)
			return usecase.LanguageVoiceOutput{}, false
		}
		return out, true
	}

	return func(r chi.Router) {
		sessionRoutes[domain.LanguageInteraction](r, uc, "interactions", maxBytes)
		r.Post("/chat", jsonTool(uc.Chat, nil, maxBytes))

		r.Post("/voice", func(w http.ResponseWriter, req *http.Request) {
			out, ok := voice(w, req, domain.AudioDeliveryBase64)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, languageVoiceResponse{
				Transcription:  out.Transcription,
				ResponseText:   out.ResponseText,
				AudioBase64:    base64.StdEncoding.EncodeToString(out.Audio),
				TargetLanguage: out.TargetLanguage,
			})
		})

		r.Post("/voice/file", func(w http.ResponseWriter, req *http.Request) {
			out, ok := voice(w, req, domain.AudioDeliveryFile)
			if !ok {
				return
			}
			w.Header().Set("Content-Type", "audio/mpeg")
			w.Header().Set("Content-Disposition", "attachment; filename=response.mp3")
			w.Header().Set("Content-Length", strconv.Itoa(len(out.Audio)))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(out.Audio)
		})
	}
}

func studentRoutes(uc StudentUseCase, maxBytes int64) func(chi.Router) {
	return func(r chi.Router) {
		sessionRoutes[domain.StudentInteraction](r, uc, "interactions", maxBytes)
		r.Post("/homework", jsonTool(uc.Homework, nil, maxBytes))
		r.Post("/essay", jsonTool(uc.Essay, nil, maxBytes))
		r.Post("/math", jsonTool(uc.Math, nil, maxBytes))
		r.Post("/study", jsonTool(uc.Study, nil, maxBytes))
		r.Post("/flashcards", jsonTool(uc.Flashcards, nil, maxBytes))
		r.Post("/summary", jsonTool(uc.Summary, nil, maxBytes))
	}
}
