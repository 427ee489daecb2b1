package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendMongoDB  = "mongodb"
	BackendMemory   = "memory"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Port        string
	LogLevel    string
	AppName     string
	AppVersion  string
	CORSOrigins []string

	StoreBackend string
	StateTable   string
	OwnerIndex   string
	SessionTTL   time.Duration
	MongoURI     string
	DatabaseName string

	LLMProvider       string
	ParamPrefix       string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAIChatModel   string
	OpenAITitleModel  string
	OpenAIMaxTokens   int
	OpenAITemperature float64
	OpenAITimeout     time.Duration
	GeminiAPIKey      string
	GeminiModel       string

	ChatHistoryLimit int
	MaxUploadBytes   int64
}

// Load reads .env when present and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", "err", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "8000"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		AppName:     getEnv("APP_NAME", "OmniAI"),
		AppVersion:  getEnv("APP_VERSION", "1.0.0"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendDynamoDB)),
		StateTable:   getEnv("STATE_TABLE", ""),
		OwnerIndex:   getEnv("OWNER_INDEX", "owner-index"),
		SessionTTL:   time.Duration(getEnvAsInt("SESSION_TTL_DAYS", 0)) * 24 * time.Hour,
		MongoURI:     getEnv("MONGODB_URI", ""),
		DatabaseName: getEnv("DATABASE_NAME", "chatgpt_clone"),

		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		ParamPrefix:       strings.TrimRight(getEnv("PARAM_PREFIX", ""), "/"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIChatModel:   getEnv("OPENAI_CHAT_MODEL", "gpt-4o"),
		OpenAITitleModel:  getEnv("OPENAI_TITLE_MODEL", "gpt-3.5-turbo"),
		OpenAIMaxTokens:   getEnvAsInt("OPENAI_MAX_TOKENS", 2048),
		OpenAITemperature: getEnvAsFloat("OPENAI_TEMPERATURE", 0.7),
		OpenAITimeout:     time.Duration(getEnvAsInt("OPENAI_TIMEOUT_SECONDS", 60)) * time.Second,
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-1.5-flash-latest"),

		ChatHistoryLimit: getEnvAsInt("CHAT_HISTORY_LIMIT", 20),
		MaxUploadBytes:   int64(getEnvAsInt("MAX_UPLOAD_MB", 25)) << 20,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendDynamoDB:
		if c.StateTable == "" {
			return errors.New("config: STATE_TABLE is required for the dynamodb backend")
		}
	case BackendMongoDB:
		if c.MongoURI == "" && c.ParamPrefix == "" {
			return errors.New("config: MONGODB_URI or PARAM_PREFIX is required for the mongodb backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("config: unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	// Speech always goes through OpenAI, so a key source is needed either way.
	if c.OpenAIAPIKey == "" && c.ParamPrefix == "" {
		return errors.New("config: OPENAI_API_KEY or PARAM_PREFIX is required")
	}
	if c.LLMProvider == ProviderGemini && c.GeminiAPIKey == "" && c.ParamPrefix == "" {
		return errors.New("config: GEMINI_API_KEY or PARAM_PREFIX is required for the gemini provider")
	}

	if c.OpenAIMaxTokens <= 0 {
		return errors.New("config: OPENAI_MAX_TOKENS must be positive")
	}
	if c.OpenAITimeout <= 0 {
		return errors.New("config: OPENAI_TIMEOUT_SECONDS must be positive")
	}
	if c.ChatHistoryLimit <= 0 {
		return errors.New("config: CHAT_HISTORY_LIMIT must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("config: MAX_UPLOAD_MB must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
