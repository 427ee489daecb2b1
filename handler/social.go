package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"omniai/internal/domain"
	"omniai/internal/usecase"
)

type SocialUseCase interface {
	sessionService[domain.Interaction]
	Caption(ctx context.Context, in usecase.CaptionRequest) (usecase.CaptionResult, error)
	Hashtags(ctx context.Context, in usecase.HashtagsRequest) (usecase.HashtagsResult, error)
	ContentIdeas(ctx context.Context, in usecase.ContentIdeasRequest) (usecase.ContentIdeasResult, error)
	VideoTitle(ctx context.Context, in usecase.VideoTitleRequest) (usecase.VideoTitleResult, error)
	VideoDescription(ctx context.Context, in usecase.VideoDescriptionRequest) (usecase.VideoDescriptionResult, error)
	VideoTags(ctx context.Context, in usecase.VideoTagsRequest) (usecase.VideoTagsResult, error)
}

type AgentsUseCase interface {
	sessionService[domain.Interaction]
	Types() []usecase.AgentType
	Suggest(ctx context.Context, in usecase.SuggestionRequest) (usecase.SuggestionResult, error)
}

func socialRoutes(uc SocialUseCase, maxBytes int64) func(chi.Router) {
	return func(r chi.Router) {
		sessionRoutes[domain.Interaction](r, uc, "interactions", maxBytes)
		r.Post("/caption", jsonTool(uc.Caption, nil, maxBytes))
		r.Post("/hashtags", jsonTool(uc.Hashtags, nil, maxBytes))
		r.Post("/content-ideas", jsonTool(uc.ContentIdeas, nil, maxBytes))
		r.Post("/video/title", jsonTool(uc.VideoTitle, nil, maxBytes))
		r.Post("/video/description", jsonTool(uc.VideoDescription, nil, maxBytes))
		r.Post("/video/tags", jsonTool(uc.VideoTags, nil, maxBytes))
	}
}

func agentsRoutes(uc AgentsUseCase, maxBytes int64) func(chi.Router) {
	return func(r chi.Router) {
		sessionRoutes[domain.Interaction](r, uc, "interactions", maxBytes)
		r.Post("/suggestions", jsonTool(uc.Suggest, nil, maxBytes))
		r.Get("/types", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"agent_types": uc.Types()})
		})
	}
}
