package usecase

import (
	"context"
	"errors"
	"strings"

	"omniai/internal/domain"
)

const (
	defaultTargetLanguage = "English"
	defaultVoiceFilename  = "voice.webm"
	voiceReplyMaxTokens   = 300
	chatReplyMaxTokens    = 500
	unheardReply          = "I couldn't hear you clearly. Could you please repeat that?"
)

type LanguageVoiceInput struct {
	SessionRef
	TargetLanguage string
	Audio          *Upload
	// Delivery is recorded with the interaction: base64 or file.
	Delivery string
}

type LanguageVoiceOutput struct {
	Transcription  string
	ResponseText   string
	Audio          []byte
	TargetLanguage string
}

type LanguageChatInput struct {
	SessionRef
	Message        string `json:"message"`
	TargetLanguage string `json:"target_language"`
}

type LanguageChatOutput struct {
	ResponseText   string `json:"response_text"`
	TargetLanguage string `json:"target_language"`
}

type LanguageService struct {
	sessions *Sessions[domain.LanguageInteraction]
	gen      *Generator
	speech   SpeechClient
}

func NewLanguageService(sessions *Sessions[domain.LanguageInteraction], gen *Generator, speech SpeechClient) (*LanguageService, error) {
	if sessions == nil {
		return nil, errors.New("usecase: language sessions must not be nil")
	}
	if gen == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	if speech == nil {
		return nil, errors.New("usecase: speech client must not be nil")
	}
	return &LanguageService{sessions: sessions, gen: gen, speech: speech}, nil
}

func (s *LanguageService) CreateSession(ctx context.Context, userID string) (domain.Session[domain.LanguageInteraction], error) {
	return s.sessions.Create(ctx, userID)
}

func (s *LanguageService) History(ctx context.Context, sessionID, userID string) (domain.Session[domain.LanguageInteraction], error) {
	return s.sessions.Get(ctx, sessionID, userID)
}

func (s *LanguageService) DeleteSession(ctx context.Context, sessionID, userID string) error {
	return s.sessions.Delete(ctx, sessionID, userID)
}

// Voice transcribes the audio, answers in the target language and speaks the
// answer. Silence gets a canned request to repeat without calling the model.
func (s *LanguageService) Voice(ctx context.Context, in LanguageVoiceInput) (LanguageVoiceOutput, error) {
	if !in.Audio.present() {
		return LanguageVoiceOutput{}, invalidInput("missing_audio", "audio_file is required")
	}
	target := defaultString(in.TargetLanguage, defaultTargetLanguage)
	sess, err := s.sessions.Get(ctx, in.SessionID, in.UserID)
	if err != nil {
		return LanguageVoiceOutput{}, err
	}

	transcription, err := s.speech.Transcribe(ctx, in.Audio.Data, defaultString(in.Audio.Filename, defaultVoiceFilename))
	if err != nil {
		return LanguageVoiceOutput{}, upstreamError("transcription_error", err)
	}
	transcription = strings.TrimSpace(transcription)

	reply := unheardReply
	if transcription != "" {
		reply, err = s.gen.Chat(ctx, []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: languageSystemPrompt(target, true)},
			{Role: domain.RoleUser, Content: transcription},
		}, voiceReplyMaxTokens)
		if err != nil {
			return LanguageVoiceOutput{}, upstreamError("chat_completion_error", err)
		}
	}

	audio, err := s.speech.Synthesize(ctx, reply, "")
	if err != nil {
		return LanguageVoiceOutput{}, upstreamError("speech_error", err)
	}

	delivery := defaultString(in.Delivery, domain.AudioDeliveryBase64)
	if _, err := s.record(ctx, sess, domain.LanguageInteraction{
		Type:           domain.LanguageInteractionVoice,
		UserInput:      transcription,
		AIResponse:     reply,
		TargetLanguage: target,
		AudioDelivery:  delivery,
	}); err != nil {
		return LanguageVoiceOutput{}, err
	}
	return LanguageVoiceOutput{
		Transcription:  transcription,
		ResponseText:   reply,
		Audio:          audio,
		TargetLanguage: target,
	}, nil
}

func (s *LanguageService) Chat(ctx context.Context, in LanguageChatInput) (LanguageChatOutput, error) {
	message := strings.TrimSpace(in.Message)
	if err := requireFields(field{"message", message}); err != nil {
		return LanguageChatOutput{}, err
	}
	target := defaultString(in.TargetLanguage, defaultTargetLanguage)
	sess, err := s.sessions.Get(ctx, in.SessionID, in.UserID)
	if err != nil {
		return LanguageChatOutput{}, err
	}

	reply, err := s.gen.Chat(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: languageSystemPrompt(target, false)},
		{Role: domain.RoleUser, Content: message},
	}, chatReplyMaxTokens)
	if err != nil {
		return LanguageChatOutput{}, upstreamError("chat_completion_error", err)
	}

	if _, err := s.record(ctx, sess, domain.LanguageInteraction{
		Type:           domain.LanguageInteractionChat,
		UserInput:      message,
		AIResponse:     reply,
		TargetLanguage: target,
	}); err != nil {
		return LanguageChatOutput{}, err
	}
	return LanguageChatOutput{ResponseText: reply, TargetLanguage: target}, nil
}

func (s *LanguageService) record(ctx context.Context, sess domain.Session[domain.LanguageInteraction], it domain.LanguageInteraction) (domain.Session[domain.LanguageInteraction], error) {
	it.ID = newUUID()
	it.Timestamp = now()
	seed := it.UserInput
	if seed == "" {
		seed = it.AIResponse
	}
	return s.sessions.Record(ctx, sess, seed, it)
}
