package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"omniai/internal/domain"
	"omniai/internal/integrations/gemini"
	"omniai/internal/integrations/openai"
)

func newTestChat(t *testing.T, llm *mockLLM, speech *mockSpeech, historyLimit int) *ChatService {
	t.Helper()
	gen := newTestGenerator(t, llm)
	svc, err := NewChatService(newTestSessions[domain.Message](t, gen, TitleChat), gen, speech, historyLimit)
	require.NoError(t, err)
	return svc
}

func TestNewChatService_ValidatesDependencies(t *testing.T) {
	gen := newTestGenerator(t, answers("x"))
	sessions := newTestSessions[domain.Message](t, gen, TitleChat)

	_, err := NewChatService(nil, gen, &mockSpeech{}, 0)
	require.Error(t, err)
	_, err = NewChatService(sessions, nil, &mockSpeech{}, 0)
	require.Error(t, err)
	_, err = NewChatService(sessions, gen, nil, 0)
	require.Error(t, err)

	svc, err := NewChatService(sessions, gen, &mockSpeech{}, 0)
	require.NoError(t, err)
	require.Equal(t, defaultHistoryLimit, svc.historyLimit)
}

func TestChat_SendHappyPath(t *testing.T) {
	llm := answers("Hi! How can I help?")
	svc := newTestChat(t, llm, &mockSpeech{}, 0)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, TitleChat, sess.Title)

	out, err := svc.Send(ctx, ChatInput{UserID: "alice", SessionID: sess.ID, Message: "Hello there"})
	require.NoError(t, err)
	require.Equal(t, sess.ID, out.SessionID)
	require.Equal(t, "Hello there", out.Title)
	require.Equal(t, "Hi! How can I help?", out.Message)
	require.False(t, out.Timestamp.IsZero())

	call := llm.lastCall(t)
	require.Equal(t, defaultChatModel, call.Model)
	require.Equal(t, chatMaxTokens, call.MaxTokens)
	require.Equal(t, domain.RoleSystem, call.Messages[0].Role)
	require.Equal(t, "Hello there", call.Messages[len(call.Messages)-1].Content)

	hist, err := svc.History(ctx, sess.ID, "alice")
	require.NoError(t, err)
	require.Len(t, hist.Entries, 2)
	require.Equal(t, domain.RoleUser, hist.Entries[0].Role)
	require.Equal(t, domain.RoleAssistant, hist.Entries[1].Role)
}

func TestChat_SendAppendsTranscription(t *testing.T) {
	llm := answers("reply")
	speech := &mockSpeech{transcript: "from the recording"}
	svc := newTestChat(t, llm, speech, 0)
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "alice")
	require.NoError(t, err)

	_, err = svc.Send(ctx, ChatInput{
		UserID:    "alice",
		SessionID: sess.ID,
		Message:   "typed",
		Audio:     &Upload{Data: []byte("RIFF")},
	})
	require.NoError(t, err)
	require.Equal(t, defaultAudioName, speech.lastFilename)

	hist, err := svc.History(ctx, sess.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, "typed from the recording", hist.Entries[0].Content)
}

func TestChat_SendTranscriptionFailureIsInvalidInput(t *testing.T) {
	svc := newTestChat(t, answers("reply"), &mockSpeech{transcribeErr: errors.New("bad audio")}, 0)
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "alice")
	require.NoError(t, err)

	_, err = svc.Send(ctx, ChatInput{UserID: "alice", SessionID: sess.ID, Audio: &Upload{Filename: "a.mp3", Data: []byte("x")}})
	expectError(t, err, ErrorInvalidInput, "transcription_failed")
}

func TestChat_SendRequiresSomeInput(t *testing.T) {
	svc := newTestChat(t, answers("reply"), &mockSpeech{}, 0)
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "alice")
	require.NoError(t, err)

	_, err = svc.Send(ctx, ChatInput{UserID: "alice", SessionID: sess.ID, Message: "   ", Image: &Upload{}})
	expectError(t, err, ErrorInvalidInput, "empty_message")
}

func TestChat_SendImageOnly(t *testing.T) {
	llm := answers("A cat on a sofa.")
	svc := newTestChat(t, llm, &mockSpeech{}, 0)
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "alice")
	require.NoError(t, err)

	out, err := svc.Send(ctx, ChatInput{
		UserID:    "alice",
		SessionID: sess.ID,
		Image:     &Upload{ContentType: "image/png", Data: []byte("hello")},
	})
	require.NoError(t, err)
	require.Equal(t, imageOnlyTitleSeed, out.Title)

	last := llm.lastCall(t).Messages
	require.Equal(t, []string{"data:image/png;base64,aGVsbG8="}, last[len(last)-1].Images)

	hist, err := svc.History(ctx, sess.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, "data:image/png;base64,aGVsbG8=", hist.Entries[0].ImageURL)
}

func TestChat_SendRejectsOversizedImageBeforeModelCall(t *testing.T) {
	llm := answers("A photo.")
	speech := &mockSpeech{transcript: "hi"}
	svc := newTestChat(t, llm, speech, 0)
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "alice")
	require.NoError(t, err)

	_, err = svc.Send(ctx, ChatInput{
		UserID:    "alice",
		SessionID: sess.ID,
		Message:   "what is this?",
		Audio:     &Upload{Data: []byte("RIFF")},
		Image:     &Upload{ContentType: "image/jpeg", Data: make([]byte, maxImageBytes+1)},
	})
	expectError(t, err, ErrorInvalidInput, "image_too_large")
	require.Empty(t, llm.calls)
	require.Zero(t, speech.transcribeCalls)

	hist, err := svc.History(ctx, sess.ID, "alice")
	require.NoError(t, err)
	require.Empty(t, hist.Entries)

	_, err = svc.Send(ctx, ChatInput{
		UserID:    "alice",
		SessionID: sess.ID,
		Image:     &Upload{ContentType: "image/jpeg", Data: make([]byte, maxImageBytes)},
	})
	require.NoError(t, err)
}

func TestChat_SendLimitsHistory(t *testing.T) {
	llm := answers("ok")
	svc := newTestChat(t, llm, &mockSpeech{}, 3)
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "alice")
	require.NoError(t, err)

	for _, m := range []string{"one", "two", "three"} {
		_, err = svc.Send(ctx, ChatInput{UserID: "alice", SessionID: sess.ID, Message: m})
		require.NoError(t, err)
	}
	// system prompt plus the three most recent messages
	msgs := llm.lastCall(t).Messages
	require.Len(t, msgs, 4)
	require.Equal(t, "two", msgs[1].Content)
	require.Equal(t, "ok", msgs[2].Content)
	require.Equal(t, "three", msgs[3].Content)
}

func TestChat_SendErrors(t *testing.T) {
	ctx := context.Background()

	svc := newTestChat(t, failing(&openai.HTTPStatusError{StatusCode: http.StatusTooManyRequests}), &mockSpeech{}, 0)
	sess, err := svc.CreateSession(ctx, "alice")
	require.NoError(t, err)
	_, err = svc.Send(ctx, ChatInput{UserID: "alice", SessionID: sess.ID, Message: "hi"})
	expectError(t, err, ErrorRateLimited, "chat_completion_error_rate_limited")

	svc = newTestChat(t, failing(&openai.HTTPStatusError{StatusCode: http.StatusBadGateway}), &mockSpeech{}, 0)
	sess, err = svc.CreateSession(ctx, "alice")
	require.NoError(t, err)
	_, err = svc.Send(ctx, ChatInput{UserID: "alice", SessionID: sess.ID, Message: "hi"})
	expectError(t, err, ErrorUpstream, "chat_completion_error")

	_, err = svc.Send(ctx, ChatInput{UserID: "bob", SessionID: sess.ID, Message: "hi"})
	expectError(t, err, ErrorNotFound, "session_not_found")
}

func TestChat_SendGeminiRateLimitIsRateLimited(t *testing.T) {
	ctx := context.Background()
	svc := newTestChat(t, failing(&gemini.StatusError{StatusCode: http.StatusTooManyRequests, Err: errors.New("quota")}), &mockSpeech{}, 0)
	sess, err := svc.CreateSession(ctx, "alice")
	require.NoError(t, err)

	_, err = svc.Send(ctx, ChatInput{UserID: "alice", SessionID: sess.ID, Message: "hi"})
	expectError(t, err, ErrorRateLimited, "chat_completion_error_rate_limited")
}

func TestChat_DeleteAndList(t *testing.T) {
	svc := newTestChat(t, answers("ok"), &mockSpeech{}, 0)
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "alice")
	require.NoError(t, err)

	list, err := svc.ListSessions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.DeleteSession(ctx, sess.ID, "alice"))
	expectError(t, svc.DeleteSession(ctx, sess.ID, "alice"), ErrorNotFound, "session_not_found")

	_, err = svc.History(ctx, sess.ID, "alice")
	expectError(t, err, ErrorNotFound, "session_not_found")
}

func TestLastN(t *testing.T) {
	require.Equal(t, []int{3, 4}, lastN([]int{1, 2, 3, 4}, 2))
	require.Equal(t, []int{1}, lastN([]int{1}, 5))
	require.Empty(t, lastN([]int{1}, 0))

	src := []int{1, 2, 3}
	out := lastN(src, 2)
	out[0] = 99
	require.Equal(t, 2, src[1])
}
