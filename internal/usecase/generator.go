package usecase

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"omniai/internal/domain"
	"omniai/internal/observability"
)

const (
	defaultGenerationModel = "gpt-4o-mini"
	defaultChatModel       = "gpt-4o"
	defaultTitleModel      = "gpt-3.5-turbo"
	defaultMaxTokens       = 2048
	defaultTemperature     = 0.7

	titleDirectMax = 40
	titleMax       = 50
	titleMaxTokens = 20
)

var errEmptyCompletion = errors.New("usecase: empty completion")

// LLMClient is satisfied by both the OpenAI and the Gemini clients.
type LLMClient interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

type SpeechClient interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// ModelConfig selects the models and sampling defaults for a Generator.
// Zero values fall back to the defaults above.
type ModelConfig struct {
	GenerationModel string
	ChatModel       string
	TitleModel      string
	MaxTokens       int
	Temperature     float64
}

// Generator is the single entry point the feature services use to talk to
// the language model.
type Generator struct {
	llm LLMClient
	cfg ModelConfig
}

func NewGenerator(llm LLMClient, cfg ModelConfig) (*Generator, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if strings.TrimSpace(cfg.GenerationModel) == "" {
		cfg.GenerationModel = defaultGenerationModel
	}
	if strings.TrimSpace(cfg.ChatModel) == "" {
		cfg.ChatModel = defaultChatModel
	}
	if strings.TrimSpace(cfg.TitleModel) == "" {
		cfg.TitleModel = defaultTitleModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	return &Generator{llm: llm, cfg: cfg}, nil
}

// Complete sends a single system/user exchange to the generation model.
// maxTokens <= 0 uses the configured default.
func (g *Generator) Complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	messages := make([]domain.ChatMessage, 0, 2)
	if s := strings.TrimSpace(system); s != "" {
		messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: s})
	}
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: prompt})
	return g.complete(ctx, g.cfg.GenerationModel, messages, maxTokens)
}

// Chat sends a full conversation to the chat model.
func (g *Generator) Chat(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (string, error) {
	return g.complete(ctx, g.cfg.ChatModel, messages, maxTokens)
}

func (g *Generator) complete(ctx context.Context, model string, messages []domain.ChatMessage, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = g.cfg.MaxTokens
	}
	out, err := g.llm.Complete(ctx, domain.CompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errEmptyCompletion
	}
	return out, nil
}

// Title derives a short session title from the first input. It never fails:
// provider errors fall back to truncating the input.
func (g *Generator) Title(ctx context.Context, first string) string {
	first = strings.TrimSpace(first)
	if first == "" {
		return ""
	}
	if utf8.RuneCountInString(first) <= titleDirectMax {
		return first
	}

	out, err := g.llm.Complete(ctx, domain.CompletionRequest{
		Model: g.cfg.TitleModel,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: titleSystemPrompt()},
			{Role: domain.RoleUser, Content: "Generate a short title for this conversation: " + first},
		},
		MaxTokens:   titleMaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("title generation failed", "err", err)
		return truncateTitle(first)
	}
	title := strings.Trim(strings.TrimSpace(out), "\"'")
	title = strings.TrimSpace(title)
	if title == "" {
		return truncateTitle(first)
	}
	if utf8.RuneCountInString(title) > titleMax {
		return truncateRunes(title, titleMax-3) + "..."
	}
	return title
}

func truncateTitle(s string) string {
	if utf8.RuneCountInString(s) <= titleDirectMax {
		return s
	}
	return strings.TrimSpace(truncateRunes(s, titleDirectMax)) + "..."
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
