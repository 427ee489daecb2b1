package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"omniai/internal/domain"
	"omniai/internal/repository"
	"omniai/internal/repository/memory"
)

type llmResponse struct {
	answer string
	err    error
}

// mockLLM answers by model first and falls back to the ordered responses.
type mockLLM struct {
	mu        sync.Mutex
	byModel   map[string]llmResponse
	responses []llmResponse
	calls     []domain.CompletionRequest
	seq       int
}

func (m *mockLLM) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if r, ok := m.byModel[req.Model]; ok {
		return r.answer, r.err
	}
	if len(m.responses) == 0 {
		return "", errors.New("no llm response configured")
	}
	idx := m.seq
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.seq++
	return m.responses[idx].answer, m.responses[idx].err
}

func (m *mockLLM) callsFor(model string) []domain.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CompletionRequest
	for _, c := range m.calls {
		if c.Model == model {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockLLM) lastCall(t *testing.T) domain.CompletionRequest {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.calls)
	return m.calls[len(m.calls)-1]
}

func answers(texts ...string) *mockLLM {
	m := &mockLLM{}
	for _, t := range texts {
		m.responses = append(m.responses, llmResponse{answer: t})
	}
	return m
}

func failing(err error) *mockLLM {
	return &mockLLM{responses: []llmResponse{{err: err}}}
}

// withTitle makes the title model answer title.
func (m *mockLLM) withTitle(title string) *mockLLM {
	if m.byModel == nil {
		m.byModel = map[string]llmResponse{}
	}
	m.byModel[defaultTitleModel] = llmResponse{answer: title}
	return m
}

type mockSpeech struct {
	transcript    string
	transcribeErr error
	audio         []byte
	synthErr      error

	transcribeCalls int
	lastFilename    string
	lastText        string
}

func (m *mockSpeech) Transcribe(_ context.Context, _ []byte, filename string) (string, error) {
	m.transcribeCalls++
	m.lastFilename = filename
	return m.transcript, m.transcribeErr
}

func (m *mockSpeech) Synthesize(_ context.Context, text, _ string) ([]byte, error) {
	m.lastText = text
	return m.audio, m.synthErr
}

// failingStore fails every call with err.
type failingStore[E any] struct{ err error }

func (f failingStore[E]) Create(context.Context, domain.Session[E]) error { return f.err }
func (f failingStore[E]) Get(context.Context, string, string) (domain.Session[E], error) {
	return domain.Session[E]{}, f.err
}
func (f failingStore[E]) Append(context.Context, string, string, repository.AppendInput[E]) (domain.Session[E], error) {
	return domain.Session[E]{}, f.err
}
func (f failingStore[E]) Delete(context.Context, string, string) error { return f.err }
func (f failingStore[E]) List(context.Context, string) ([]domain.SessionSummary, error) {
	return nil, f.err
}

func newTestGenerator(t *testing.T, llm LLMClient) *Generator {
	t.Helper()
	g, err := NewGenerator(llm, ModelConfig{})
	require.NoError(t, err)
	return g
}

func newTestSessions[E any](t *testing.T, titles Titler, title string) *Sessions[E] {
	t.Helper()
	s, err := NewSessions[E](memory.NewSessionStore[E](), titles, title)
	require.NoError(t, err)
	return s
}

func expectError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}
