package usecase

import (
	"context"
	"errors"
)

const defaultTranscribeName = "audio.wav"

type TranscribeOutput struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

type VoiceService struct {
	speech SpeechClient
}

func NewVoiceService(speech SpeechClient) (*VoiceService, error) {
	if speech == nil {
		return nil, errors.New("usecase: speech client must not be nil")
	}
	return &VoiceService{speech: speech}, nil
}

func (s *VoiceService) Transcribe(ctx context.Context, audio *Upload) (TranscribeOutput, error) {
	if !audio.present() {
		return TranscribeOutput{}, invalidInput("missing_audio", "audio file is required")
	}
	filename := defaultString(audio.Filename, defaultTranscribeName)
	text, err := s.speech.Transcribe(ctx, audio.Data, filename)
	if err != nil {
		return TranscribeOutput{}, upstreamError("transcription_error", err)
	}
	return TranscribeOutput{Text: text, Filename: filename}, nil
}
