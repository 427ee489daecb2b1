package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"omniai/handler"
	appconfig "omniai/internal/config"
	"omniai/internal/domain"
	"omniai/internal/integrations/gemini"
	"omniai/internal/integrations/openai"
	"omniai/internal/integrations/paramstore"
	"omniai/internal/observability"
	"omniai/internal/usecase"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("omniai stopped", "err", err)
		os.Exit(1)
	}
}

// run wires the service and blocks until it stops. Everything it opens is
// released through cleanup before it returns.
func run(ctx context.Context) error {
	cleanup := &shutdown{}
	defer cleanup.run()

	// ---- Configuration (read only here) ----
	cfg, err := appconfig.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	observability.Init(cfg.LogLevel)

	// ---- AWS SDK config ----
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return fmt.Errorf("create SSM client: %w", err)
	}

	st, err := openStores(ctx, cfg, awsCfg, ssmClient)
	if err != nil {
		return fmt.Errorf("open %s stores: %w", cfg.StoreBackend, err)
	}
	cleanup.add("stores", st.close)

	openaiClient, err := openai.NewClient(ssmClient, cfg.ParamPrefix,
		openai.WithAPIKey(cfg.OpenAIAPIKey),
		openai.WithBaseURL(cfg.OpenAIBaseURL),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.OpenAITimeout}),
	)
	if err != nil {
		return fmt.Errorf("create OpenAI client: %w", err)
	}

	var llm usecase.LLMClient = openaiClient
	models := usecase.ModelConfig{
		GenerationModel: cfg.OpenAIModel,
		ChatModel:       cfg.OpenAIChatModel,
		TitleModel:      cfg.OpenAITitleModel,
		MaxTokens:       cfg.OpenAIMaxTokens,
		Temperature:     cfg.OpenAITemperature,
	}
	if cfg.LLMProvider == appconfig.ProviderGemini {
		key, err := paramstore.Resolve(ctx, ssmClient, cfg.GeminiAPIKey, cfg.ParamPrefix, "/gemini-api-key")
		if err != nil {
			return fmt.Errorf("resolve Gemini API key: %w", err)
		}
		geminiClient, err := gemini.NewClient(ctx, key, cfg.GeminiModel)
		if err != nil {
			return fmt.Errorf("create Gemini client: %w", err)
		}
		cleanup.add("gemini", func(context.Context) error { return geminiClient.Close() })
		llm = geminiClient
		models.GenerationModel = cfg.GeminiModel
		models.ChatModel = cfg.GeminiModel
		models.TitleModel = cfg.GeminiModel
	}

	// ---- Use cases ----
	gen, err := usecase.NewGenerator(llm, models)
	if err != nil {
		return fmt.Errorf("create generator: %w", err)
	}
	services, err := newServices(st, gen, openaiClient, cfg.ChatHistoryLimit)
	if err != nil {
		return fmt.Errorf("create services: %w", err)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(handler.NewRouter(services, handler.Options{
		AppName:        cfg.AppName,
		AppVersion:     cfg.AppVersion,
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}))
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		// Start never returns. Lambda sends SIGTERM before shutting the
		// sandbox down when an extension is registered.
		lambda.StartWithOptions(h.Handle, lambda.WithEnableSIGTERM(cleanup.run))
		return nil
	}
	if err := serve(h, cfg.Port); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// shutdown runs release steps in reverse order of registration, once.
type shutdown struct {
	once  sync.Once
	steps []shutdownStep
}

type shutdownStep struct {
	name string
	fn   func(context.Context) error
}

func (s *shutdown) add(name string, fn func(context.Context) error) {
	s.steps = append(s.steps, shutdownStep{name: name, fn: fn})
}

func (s *shutdown) run() {
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for i := len(s.steps) - 1; i >= 0; i-- {
			if err := s.steps[i].fn(ctx); err != nil {
				slog.Warn("failed to release resource", "resource", s.steps[i].name, "err", err)
			}
		}
	})
}

func newServices(st stores, gen *usecase.Generator, speech usecase.SpeechClient, historyLimit int) (handler.Services, error) {
	var errs []error
	check := func(err error) {
		errs = append(errs, err)
	}

	chatSessions, err := usecase.NewSessions(st.chat, gen, usecase.TitleChat)
	check(err)
	tempSessions, err := usecase.NewSessions(st.tempChat, gen, usecase.TitleTempChat)
	check(err)
	businessSessions, err := usecase.NewSessions(st.business, gen, usecase.TitleBusiness)
	check(err)
	socialSessions, err := usecase.NewSessions(st.social, gen, usecase.TitleSocial)
	check(err)
	agentsSessions, err := usecase.NewSessions(st.agents, gen, usecase.TitleAgents)
	check(err)
	groupSessions, err := usecase.NewSessions[domain.Interaction](st.groupChat, nil, usecase.TitleGroupChat)
	check(err)
	languageSessions, err := usecase.NewSessions(st.language, gen, usecase.TitleGlobalLanguage)
	check(err)
	studentSessions, err := usecase.NewSessions(st.student, gen, usecase.TitleStudent)
	check(err)
	if err := errors.Join(errs...); err != nil {
		return handler.Services{}, err
	}

	chat, err := usecase.NewChatService(chatSessions, gen, speech, historyLimit)
	check(err)
	tempChat, err := usecase.NewChatService(tempSessions, gen, speech, historyLimit)
	check(err)
	voice, err := usecase.NewVoiceService(speech)
	check(err)
	business, err := usecase.NewBusinessService(businessSessions, gen)
	check(err)
	social, err := usecase.NewSocialService(socialSessions, gen)
	check(err)
	agents, err := usecase.NewAgentsService(agentsSessions, gen)
	check(err)
	group, err := usecase.NewGroupService(groupSessions, st.groups, gen)
	check(err)
	language, err := usecase.NewLanguageService(languageSessions, gen, speech)
	check(err)
	student, err := usecase.NewStudentService(studentSessions, gen)
	check(err)
	if err := errors.Join(errs...); err != nil {
		return handler.Services{}, err
	}

	return handler.Services{
		Chat:     chat,
		TempChat: tempChat,
		Voice:    voice,
		Business: business,
		Social:   social,
		Agents:   agents,
		Group:    group,
		Language: language,
		Student:  student,
	}, nil
}

// serve runs the HTTP server until SIGINT or SIGTERM, then drains in-flight
// requests.
func serve(h http.Handler, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      h,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
