// Package gemini is a text completion provider backed by the Gemini API. It
// serves the same completion contract as the OpenAI client so the usecases
// can run on either.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"omniai/internal/domain"
)

const DefaultModel = "gemini-1.5-flash-latest"

// StatusError is a failed Gemini call that carried an HTTP status.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini: status %d: %v", e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// statusError lifts the HTTP status out of a Google API error.
func statusError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return &StatusError{StatusCode: apiErr.Code, Err: fmt.Errorf("%s: %w", op, err)}
	}
	return fmt.Errorf("gemini: %s: %w", op, err)
}

type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key must not be empty")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Complete runs the conversation as a chat session: system messages become
// the system instruction, earlier turns the history, and the final user turn
// is sent. The request's model name is ignored in favour of the configured
// Gemini model.
func (c *Client) Complete(ctx context.Context, in domain.CompletionRequest) (string, error) {
	system, history, last, err := splitMessages(in.Messages)
	if err != nil {
		return "", err
	}

	model := c.client.GenerativeModel(c.model)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	if in.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(in.MaxTokens))
	}
	if in.Temperature != 0 {
		model.SetTemperature(float32(in.Temperature))
	}

	cs := model.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, last...)
	if err != nil {
		return "", statusError("send message", err)
	}
	return responseText(resp)
}

func splitMessages(msgs []domain.ChatMessage) (string, []*genai.Content, []genai.Part, error) {
	var system []string
	var turns []*genai.Content
	for _, m := range msgs {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: toParts(m)})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: toParts(m)})
		}
	}
	if len(turns) == 0 {
		return "", nil, nil, errors.New("gemini: no user message to send")
	}
	last := turns[len(turns)-1]
	if last.Role != "user" {
		return "", nil, nil, errors.New("gemini: conversation must end with a user message")
	}
	return strings.Join(system, "\n\n"), turns[:len(turns)-1], last.Parts, nil
}

func toParts(m domain.ChatMessage) []genai.Part {
	var parts []genai.Part
	if m.Content != "" {
		parts = append(parts, genai.Text(m.Content))
	}
	for _, img := range m.Images {
		if mime, data, ok := decodeDataURI(img); ok {
			parts = append(parts, genai.Blob{MIMEType: mime, Data: data})
			continue
		}
		parts = append(parts, genai.Text("Image: "+img))
	}
	return parts
}

// decodeDataURI splits a base64 data URI into its MIME type and payload.
func decodeDataURI(s string) (string, []byte, bool) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, false
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mime == "" {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return mime, data, true
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: no candidates in response")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("gemini: empty text in response")
	}
	return sb.String(), nil
}
