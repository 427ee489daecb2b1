package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable FromEnv reads so the host environment does
// not leak into the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "APP_NAME", "APP_VERSION", "CORS_ORIGINS",
		"STORE_BACKEND", "STATE_TABLE", "OWNER_INDEX", "SESSION_TTL_DAYS", "MONGODB_URI", "DATABASE_NAME",
		"LLM_PROVIDER", "PARAM_PREFIX", "OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
		"OPENAI_CHAT_MODEL", "OPENAI_TITLE_MODEL", "OPENAI_MAX_TOKENS", "OPENAI_TEMPERATURE",
		"OPENAI_TIMEOUT_SECONDS", "GEMINI_API_KEY", "GEMINI_MODEL", "CHAT_HISTORY_LIMIT", "MAX_UPLOAD_MB",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STATE_TABLE", "omniai-state")
	t.Setenv("PARAM_PREFIX", "/omniai/")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "8000", cfg.Port)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "OmniAI", cfg.AppName)
	require.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.Equal(t, BackendDynamoDB, cfg.StoreBackend)
	require.Equal(t, "owner-index", cfg.OwnerIndex)
	require.Zero(t, cfg.SessionTTL)
	require.Equal(t, "chatgpt_clone", cfg.DatabaseName)
	require.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	require.Equal(t, "/omniai", cfg.ParamPrefix)
	require.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	require.Equal(t, "gpt-4o", cfg.OpenAIChatModel)
	require.Equal(t, "gpt-3.5-turbo", cfg.OpenAITitleModel)
	require.Equal(t, 2048, cfg.OpenAIMaxTokens)
	require.InDelta(t, 0.7, cfg.OpenAITemperature, 1e-9)
	require.Equal(t, 60*time.Second, cfg.OpenAITimeout)
	require.Equal(t, 20, cfg.ChatHistoryLimit)
	require.Equal(t, int64(25<<20), cfg.MaxUploadBytes)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "MongoDB")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SESSION_TTL_DAYS", "7")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")
	t.Setenv("CHAT_HISTORY_LIMIT", "not-a-number")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, BackendMongoDB, cfg.StoreBackend)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	require.InDelta(t, 0.2, cfg.OpenAITemperature, 1e-9)
	require.Equal(t, 20, cfg.ChatHistoryLimit)
}

func TestFromEnv_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{name: "dynamodb without table", env: map[string]string{"OPENAI_API_KEY": "k"}, msg: "STATE_TABLE"},
		{name: "mongodb without uri", env: map[string]string{"STORE_BACKEND": "mongodb", "OPENAI_API_KEY": "k"}, msg: "MONGODB_URI"},
		{name: "unknown backend", env: map[string]string{"STORE_BACKEND": "redis", "OPENAI_API_KEY": "k"}, msg: "STORE_BACKEND"},
		{name: "unknown provider", env: map[string]string{"STORE_BACKEND": "memory", "OPENAI_API_KEY": "k", "LLM_PROVIDER": "llama"}, msg: "LLM_PROVIDER"},
		{name: "no openai key source", env: map[string]string{"STORE_BACKEND": "memory"}, msg: "OPENAI_API_KEY"},
		{name: "gemini without key", env: map[string]string{"STORE_BACKEND": "memory", "OPENAI_API_KEY": "k", "LLM_PROVIDER": "gemini"}, msg: "GEMINI_API_KEY"},
		{name: "non-positive tokens", env: map[string]string{"STORE_BACKEND": "memory", "OPENAI_API_KEY": "k", "OPENAI_MAX_TOKENS": "0"}, msg: "OPENAI_MAX_TOKENS"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestSplitList(t *testing.T) {
	require.Nil(t, splitList(" , "))
	require.Equal(t, []string{"a", "b"}, splitList("a,,b"))
}
