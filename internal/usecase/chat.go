package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"omniai/internal/domain"
)

const (
	defaultHistoryLimit = 20
	chatMaxTokens       = 2000
	defaultImageType    = "image/jpeg"
	defaultAudioName    = "recording.webm"
	imageOnlyTitleSeed  = "Image conversation"

	// maxImageBytes keeps a stored message, with the image inlined as a
	// base64 data URI, under DynamoDB's 400 KB item limit.
	maxImageBytes = 256 << 10
)

// Upload is a file received with a request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (u *Upload) present() bool {
	return u != nil && len(u.Data) > 0
}

type ChatInput struct {
	UserID    string
	SessionID string
	Message   string
	Audio     *Upload
	Image     *Upload
}

type ChatOutput struct {
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatService serves both persistent and temporary chat. The two differ only
// in the store behind sessions.
type ChatService struct {
	sessions     *Sessions[domain.Message]
	gen          *Generator
	speech       SpeechClient
	historyLimit int
}

func NewChatService(sessions *Sessions[domain.Message], gen *Generator, speech SpeechClient, historyLimit int) (*ChatService, error) {
	if sessions == nil {
		return nil, errors.New("usecase: chat sessions must not be nil")
	}
	if gen == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	if speech == nil {
		return nil, errors.New("usecase: speech client must not be nil")
	}
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &ChatService{sessions: sessions, gen: gen, speech: speech, historyLimit: historyLimit}, nil
}

func (s *ChatService) CreateSession(ctx context.Context, userID string) (domain.Session[domain.Message], error) {
	return s.sessions.Create(ctx, userID)
}

func (s *ChatService) History(ctx context.Context, sessionID, userID string) (domain.Session[domain.Message], error) {
	return s.sessions.Get(ctx, sessionID, userID)
}

func (s *ChatService) DeleteSession(ctx context.Context, sessionID, userID string) error {
	return s.sessions.Delete(ctx, sessionID, userID)
}

func (s *ChatService) ListSessions(ctx context.Context, userID string) ([]domain.SessionSummary, error) {
	return s.sessions.List(ctx, userID)
}

// Send handles one user turn. Audio is transcribed and appended to the text,
// an image is attached as a data URI, and the reply is generated from the
// most recent history.
func (s *ChatService) Send(ctx context.Context, in ChatInput) (ChatOutput, error) {
	sess, err := s.sessions.Get(ctx, in.SessionID, in.UserID)
	if err != nil {
		return ChatOutput{}, err
	}

	if in.Image.present() && len(in.Image.Data) > maxImageBytes {
		return ChatOutput{}, invalidInput("image_too_large", fmt.Sprintf("image must be at most %d KB", maxImageBytes>>10))
	}

	text := strings.TrimSpace(in.Message)
	if in.Audio.present() {
		filename := defaultString(in.Audio.Filename, defaultAudioName)
		transcript, err := s.speech.Transcribe(ctx, in.Audio.Data, filename)
		if err != nil {
			return ChatOutput{}, newError(ErrorInvalidInput, "transcription_failed", err)
		}
		text = strings.TrimSpace(text + " " + transcript)
	}
	var image string
	if in.Image.present() {
		image = dataURI(in.Image.ContentType, in.Image.Data)
	}
	if text == "" && image == "" {
		return ChatOutput{}, invalidInput("empty_message", "at least one of message, audio, or image must be provided")
	}

	userMsg := domain.Message{Role: domain.RoleUser, Content: text, ImageURL: image, Timestamp: now()}
	history := append(lastN(sess.Entries, s.historyLimit-1), userMsg)
	reply, err := s.gen.Chat(ctx, buildChatMessages(history), chatMaxTokens)
	if err != nil {
		return ChatOutput{}, upstreamError("chat_completion_error", err)
	}
	assistantMsg := domain.Message{Role: domain.RoleAssistant, Content: reply, Timestamp: now()}

	seed := text
	if seed == "" {
		seed = imageOnlyTitleSeed
	}
	updated, err := s.sessions.Record(ctx, sess, seed, userMsg, assistantMsg)
	if err != nil {
		return ChatOutput{}, err
	}
	return ChatOutput{
		SessionID: updated.ID,
		Title:     updated.Title,
		Message:   reply,
		Timestamp: assistantMsg.Timestamp,
	}, nil
}

func dataURI(contentType string, data []byte) string {
	contentType = defaultString(contentType, defaultImageType)
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// lastN returns at most the n most recent entries as a fresh slice.
func lastN[E any](entries []E, n int) []E {
	if n <= 0 {
		return []E{}
	}
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	out := make([]E, len(entries), len(entries)+1)
	copy(out, entries)
	return out
}
