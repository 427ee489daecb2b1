package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"omniai/internal/domain"
)

// ---------------------------------------------------------------------------
// endpointURL helper
// ---------------------------------------------------------------------------

func TestEndpointURL(t *testing.T) {
	cases := []struct {
		base string
		path string
		want string
	}{
		{"https://api.openai.com/v1", "/chat/completions", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/", "/chat/completions", "https://api.openai.com/v1/chat/completions"},
		{"http://localhost:8080", "/audio/speech", "http://localhost:8080/v1/audio/speech"},
		{"", "/audio/transcriptions", "https://api.openai.com/v1/audio/transcriptions"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, endpointURL(tc.base, tc.path), "base=%q", tc.base)
	}
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_NilGetter(t *testing.T) {
	_, err := NewClient(nil, "/omniai")
	require.Error(t, err)
	require.Contains(t, err.Error(), "nil")
}

func TestNewClient_EmptyPrefix(t *testing.T) {
	_, err := NewClient(&fakeGetter{}, " / ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "prefix")
}

func TestNewClient_Valid(t *testing.T) {
	g := &fakeGetter{}
	c, err := NewClient(g, "/omniai")
	require.NoError(t, err)
	require.Equal(t, defaultBaseURL, c.baseURL)
	require.NotNil(t, c.getter)
}

func TestNewClient_StaticKeyNeedsNoGetter(t *testing.T) {
	c, err := NewClient(nil, "", WithAPIKey(" sk-static "))
	require.NoError(t, err)

	key, err := c.resolveAPIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk-static", key)
}

// ---------------------------------------------------------------------------
// resolveAPIKey: SSM caching behaviour
// ---------------------------------------------------------------------------

func TestResolveAPIKey_FetchedOnFirstCall(t *testing.T) {
	calls := 0
	g := &fakeGetter{val: `{"token":"sk-from-ssm"}`}
	g.onCall = func() { calls++ }
	c, err := NewClient(g, "/omniai")
	require.NoError(t, err)

	key, err := c.resolveAPIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk-from-ssm", key)
	require.Equal(t, 1, calls)

	// subsequent calls must never hit SSM again
	_, _ = c.resolveAPIKey(context.Background())
	_, _ = c.resolveAPIKey(context.Background())
	require.Equal(t, 1, calls, "SSM must only be called once per process lifetime")
}

func TestResolveAPIKey_UsesPrefixedName(t *testing.T) {
	g := &fakeGetter{val: `{"token":"sk"}`}
	c, err := NewClient(g, "/omniai/")
	require.NoError(t, err)
	_, err = c.resolveAPIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/omniai/open-ai-token", g.lastName)
}

// ---------------------------------------------------------------------------
// fetchAPIKeyFromParamStore
// ---------------------------------------------------------------------------

// fakeGetter is a minimal paramstore.Getter stub for use within this package.
type fakeGetter struct {
	val      string
	err      error
	lastName string
	onCall   func() // optional; called on each GetParameter invocation
}

func (f *fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	f.lastName = name
	if f.onCall != nil {
		f.onCall()
	}
	return f.val, f.err
}

func TestFetchAPIKey_JSONToken(t *testing.T) {
	g := &fakeGetter{val: `{"token":"sk-from-json"}`}
	key, err := fetchAPIKeyFromParamStore(context.Background(), g, "/omniai/open-ai-token")
	require.NoError(t, err)
	require.Equal(t, "sk-from-json", key)
}

func TestFetchAPIKey_JSONMissingTokenField(t *testing.T) {
	g := &fakeGetter{val: `{"other":"value"}`}
	_, err := fetchAPIKeyFromParamStore(context.Background(), g, "/omniai/open-ai-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "API token is empty")
}

func TestFetchAPIKey_MalformedJSON(t *testing.T) {
	g := &fakeGetter{val: `{"broken`}
	_, err := fetchAPIKeyFromParamStore(context.Background(), g, "/omniai/open-ai-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unmarshal")
}

func TestFetchAPIKey_GetterError(t *testing.T) {
	g := &fakeGetter{err: errors.New("ssm unavailable")}
	_, err := fetchAPIKeyFromParamStore(context.Background(), g, "/omniai/open-ai-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "ssm unavailable")
}

func TestFetchAPIKey_NilGetter(t *testing.T) {
	_, err := fetchAPIKeyFromParamStore(context.Background(), nil, "/omniai/open-ai-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "nil")
}

func TestFetchAPIKey_EmptyName(t *testing.T) {
	g := &fakeGetter{val: `{"token":"sk-from-json"}`}
	_, err := fetchAPIKeyFromParamStore(context.Background(), g, " ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty")
}

// ---------------------------------------------------------------------------
// Client.Complete
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(
		&fakeGetter{val: `{"token":"sk-test"}`},
		"/omniai",
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
	require.NoError(t, err)
	return c
}

func TestClient_Complete_HappyPath(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		reqBody, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(reqBody, &got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-123",
			"object": "chat.completion",
			"created": 1670000000,
			"choices": [{
				"index": 0,
				"message": { "role": "assistant", "content": "Hello from mock" }
			}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	resp, err := c.Complete(context.Background(), domain.CompletionRequest{
		Model:       "gpt-mock",
		Messages:    []domain.ChatMessage{{Role: "system", Content: "be nice"}, {Role: "user", Content: "hi"}},
		MaxTokens:   300,
		Temperature: 0.7,
	})
	require.NoError(t, err)
	require.Equal(t, "Hello from mock", resp)

	require.Equal(t, "gpt-mock", got["model"])
	require.EqualValues(t, 300, got["max_tokens"])
	require.InDelta(t, 0.7, got["temperature"], 1e-9)
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	require.Equal(t, "hi", msgs[1].(map[string]any)["content"])
}

func TestClient_Complete_OmitsZeroTemperature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqBody, _ := io.ReadAll(r.Body)
		require.NotContains(t, string(reqBody), "temperature")
		require.NotContains(t, string(reqBody), "max_tokens")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Complete(context.Background(), domain.CompletionRequest{Model: "gpt-mock"})
	require.NoError(t, err)
}

func TestClient_Complete_ImagesBecomeContentParts(t *testing.T) {
	var got chatRequestEcho
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"a cat"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Complete(context.Background(), domain.CompletionRequest{
		Model: "gpt-mock",
		Messages: []domain.ChatMessage{{
			Role:    "user",
			Content: "what is this?",
			Images:  []string{"data:image/png;base64,AAAA"},
		}},
	})
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	require.Equal(t, "text", got.Messages[0].Content[0].Type)
	require.Equal(t, "what is this?", got.Messages[0].Content[0].Text)
	require.Equal(t, "image_url", got.Messages[0].Content[1].Type)
	require.Equal(t, "data:image/png;base64,AAAA", got.Messages[0].Content[1].ImageURL.URL)
}

// chatRequestEcho decodes a multimodal request as seen by the server.
type chatRequestEcho struct {
	Messages []struct {
		Role    string        `json:"role"`
		Content []contentPart `json:"content"`
	} `json:"messages"`
}

func TestClient_Complete_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		_, _ = w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Complete(context.Background(), domain.CompletionRequest{Model: "gpt-mock"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status")
	require.Contains(t, err.Error(), "400")
}

func TestClient_Complete_429ExposesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(429)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Complete(context.Background(), domain.CompletionRequest{Model: "gpt-mock"})
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, 429, statusErr.HTTPStatusCode())
}

func TestClient_Complete_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`not-a-json`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Complete(context.Background(), domain.CompletionRequest{Model: "gpt-mock"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestClient_Complete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Complete(context.Background(), domain.CompletionRequest{Model: "gpt-mock"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no choices")
}

func TestClient_Complete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}
	_, err := c.Complete(context.Background(), domain.CompletionRequest{Model: "gpt-mock"})
	require.Error(t, err)
}

func TestClient_Complete_NetworkError(t *testing.T) {
	c, err := NewClient(&fakeGetter{val: `{"token":"sk-test"}`}, "/omniai")
	require.NoError(t, err)
	c.baseURL = "http://127.0.0.1:1"
	c.httpClient = &http.Client{Timeout: 100 * time.Millisecond}

	_, err = c.Complete(context.Background(), domain.CompletionRequest{Model: "gpt-mock"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed")
}

func TestClient_Complete_EmptyModel(t *testing.T) {
	c, err := NewClient(&fakeGetter{val: `{"token":"sk-test"}`}, "/omniai")
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), domain.CompletionRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "model")
}

func TestClient_Complete_KeyError(t *testing.T) {
	c, err := NewClient(&fakeGetter{err: errors.New("ssm down")}, "/omniai")
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), domain.CompletionRequest{Model: "gpt-mock"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "ssm down")
}
