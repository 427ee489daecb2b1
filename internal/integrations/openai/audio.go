package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
)

const (
	TranscriptionModel = "whisper-1"
	SpeechModel        = "tts-1"
	DefaultVoice       = "alloy"
)

type transcriptionResponse struct {
	Text string `json:"text"`
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Transcribe uploads audio to the transcriptions endpoint and returns the
// recognised text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("openai: audio must not be empty")
	}
	if strings.TrimSpace(filename) == "" {
		filename = "audio.wav"
	}

	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model", TranscriptionModel); err != nil {
		return "", fmt.Errorf("openai: write model field: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("openai: create file part: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("openai: write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("openai: close multipart body: %w", err)
	}

	url := endpointURL(c.baseURL, "/audio/transcriptions")
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if reqErr != nil {
		return "", fmt.Errorf("openai: create transcription request: %w", reqErr)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+apiKey)

	raw, err := c.doRequest(req, url, maxJSONResponse)
	if err != nil {
		return "", fmt.Errorf("openai: transcription request failed: %w", err)
	}
	var out transcriptionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("openai: decode transcription response: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}

// Synthesize converts text to mp3 speech.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("openai: speech input must not be empty")
	}
	if voice == "" {
		voice = DefaultVoice
	}

	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(speechRequest{
		Model:          SpeechModel,
		Input:          text,
		Voice:          voice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("openai: marshal speech request: %w", err)
	}

	url := endpointURL(c.baseURL, "/audio/speech")
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return nil, fmt.Errorf("openai: create speech request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	audio, err := c.doRequest(req, url, maxAudioResponse)
	if err != nil {
		return nil, fmt.Errorf("openai: speech request failed: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("openai: empty speech response")
	}
	return audio, nil
}
