package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const defaultMaxUploadBytes = 25 << 20

// Services holds one use case per feature. Features left nil are not
// mounted.
type Services struct {
	Chat     ChatUseCase
	TempChat ChatUseCase
	Voice    VoiceUseCase
	Business BusinessUseCase
	Social   SocialUseCase
	Agents   AgentsUseCase
	Group    GroupUseCase
	Language LanguageUseCase
	Student  StudentUseCase
}

type Options struct {
	AppName        string
	AppVersion     string
	CORSOrigins    []string
	MaxUploadBytes int64
}

type rootResponse struct {
	App      string            `json:"app"`
	Version  string            `json:"version"`
	Status   string            `json:"status"`
	Features map[string]string `json:"features"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// NewRouter builds the HTTP API over the given services.
func NewRouter(svc Services, opts Options) http.Handler {
	maxBytes := opts.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(withCorrelation)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(withCORS(opts.CORSOrigins))

	features := map[string]string{}
	mount := func(name, prefix string, enabled bool, routes func(chi.Router)) {
		if !enabled {
			return
		}
		features[name] = prefix
		r.Route(prefix, routes)
	}

	mount("chat", "/api/chat", svc.Chat != nil, chatRoutes(svc.Chat, maxBytes))
	mount("temp_chat", "/api/temp-chat", svc.TempChat != nil, chatRoutes(svc.TempChat, maxBytes))
	mount("voice", "/api/voice", svc.Voice != nil, voiceRoutes(svc.Voice, maxBytes))
	mount("business", "/api/business", svc.Business != nil, businessRoutes(svc.Business, maxBytes))
	mount("social", "/api/social", svc.Social != nil, socialRoutes(svc.Social, maxBytes))
	mount("agents", "/api/agents", svc.Agents != nil, agentsRoutes(svc.Agents, maxBytes))
	mount("group_chat", "/api/group-chat", svc.Group != nil, groupRoutes(svc.Group, maxBytes))
	mount("global_language", "/api/global-language", svc.Language != nil, languageRoutes(svc.Language, maxBytes))
	mount("student", "/api/student", svc.Student != nil, studentRoutes(svc.Student, maxBytes))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, rootResponse{
			App:      opts.AppName,
			Version:  opts.AppVersion,
			Status:   "running",
			Features: features,
		})
	})
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Service: opts.AppName, Version: opts.AppVersion})
	})
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "NOT_FOUND", Reason: "route_not_found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "METHOD_NOT_ALLOWED", Reason: "method_not_allowed"})
	})
	return r
}
