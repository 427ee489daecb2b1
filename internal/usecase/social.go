package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"omniai/internal/domain"
)

const (
	defaultHashtagCount = 10
	defaultIdeaCount    = 5
	defaultTagCount     = 15
	minPlatformLen      = 2
	maxPlatformLen      = 50
	socialMaxTokens     = 1000
)

var (
	captionTones  = []string{"casual", "professional", "energetic", "friendly", "humorous", "inspirational", "educational"}
	contentLength = []string{"short", "medium", "long"}
)

type CaptionRequest struct {
	SessionRef
	Platform string `json:"platform"`
	Topic    string `json:"topic"`
	Tone     string `json:"tone"`
	Length   string `json:"length"`
}

type HashtagsRequest struct {
	SessionRef
	Platform string `json:"platform"`
	Topic    string `json:"topic"`
	Count    int    `json:"count"`
}

type ContentIdeasRequest struct {
	SessionRef
	Platform string `json:"platform"`
	Niche    string `json:"niche"`
	Count    int    `json:"count"`
}

type VideoTitleRequest struct {
	SessionRef
	Platform string `json:"platform"`
	Topic    string `json:"topic"`
	Style    string `json:"style"`
}

type VideoDescriptionRequest struct {
	SessionRef
	Platform   string `json:"platform"`
	Topic      string `json:"topic"`
	VideoTitle string `json:"video_title"`
	Length     string `json:"length"`
}

type VideoTagsRequest struct {
	SessionRef
	Platform string `json:"platform"`
	Topic    string `json:"topic"`
	Count    int    `json:"count"`
}

type CaptionResult struct {
	Caption  string `json:"caption"`
	Platform string `json:"platform"`
	Title    string `json:"title"`
}

type HashtagsResult struct {
	Hashtags []string `json:"hashtags"`
	Count    int      `json:"count"`
	Platform string   `json:"platform"`
	Title    string   `json:"title"`
}

type ContentIdeasResult struct {
	Ideas    []string `json:"ideas"`
	Count    int      `json:"count"`
	Platform string   `json:"platform"`
	Title    string   `json:"title"`
}

type VideoTitleResult struct {
	VideoTitle string `json:"video_title"`
	Platform   string `json:"platform"`
	Title      string `json:"title"`
}

type VideoDescriptionResult struct {
	Description string `json:"description"`
	Platform    string `json:"platform"`
	Title       string `json:"title"`
}

type VideoTagsResult struct {
	Tags     []string `json:"tags"`
	Count    int      `json:"count"`
	Platform string   `json:"platform"`
	Title    string   `json:"title"`
}

type SocialService struct {
	sessions *Sessions[domain.Interaction]
	gen      *Generator
}

func NewSocialService(sessions *Sessions[domain.Interaction], gen *Generator) (*SocialService, error) {
	if sessions == nil {
		return nil, errors.New("usecase: social sessions must not be nil")
	}
	if gen == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	return &SocialService{sessions: sessions, gen: gen}, nil
}

func (s *SocialService) CreateSession(ctx context.Context, userID string) (domain.Session[domain.Interaction], error) {
	return s.sessions.Create(ctx, userID)
}

func (s *SocialService) History(ctx context.Context, sessionID, userID string) (domain.Session[domain.Interaction], error) {
	return s.sessions.Get(ctx, sessionID, userID)
}

func (s *SocialService) DeleteSession(ctx context.Context, sessionID, userID string) error {
	return s.sessions.Delete(ctx, sessionID, userID)
}

func (s *SocialService) ListSessions(ctx context.Context, userID string) ([]domain.SessionSummary, error) {
	return s.sessions.List(ctx, userID)
}

func (s *SocialService) Caption(ctx context.Context, in CaptionRequest) (CaptionResult, error) {
	in.Tone = defaultString(in.Tone, "casual")
	in.Length = defaultString(in.Length, "medium")
	if err := validatePlatform(in.Platform); err != nil {
		return CaptionResult{}, err
	}
	if err := requireFields(field{"topic", in.Topic}); err != nil {
		return CaptionResult{}, err
	}
	if err := oneOf("tone", in.Tone, captionTones); err != nil {
		return CaptionResult{}, err
	}
	if err := oneOf("length", in.Length, contentLength); err != nil {
		return CaptionResult{}, err
	}
	out, title, err := s.run(ctx, in.SessionRef, "Caption", in.Platform, in.Topic, in, captionPrompt(in))
	if err != nil {
		return CaptionResult{}, err
	}
	return CaptionResult{Caption: out, Platform: in.Platform, Title: title}, nil
}

func (s *SocialService) Hashtags(ctx context.Context, in HashtagsRequest) (HashtagsResult, error) {
	if in.Count == 0 {
		in.Count = defaultHashtagCount
	}
	if err := validatePlatform(in.Platform); err != nil {
		return HashtagsResult{}, err
	}
	if err := requireFields(field{"topic", in.Topic}); err != nil {
		return HashtagsResult{}, err
	}
	if err := inRange("count", in.Count, 5, 30); err != nil {
		return HashtagsResult{}, err
	}
	out, title, err := s.run(ctx, in.SessionRef, "Hashtags", in.Platform, in.Topic, in, hashtagsPrompt(in))
	if err != nil {
		return HashtagsResult{}, err
	}
	tags := parseHashtags(out, in.Count)
	return HashtagsResult{Hashtags: tags, Count: len(tags), Platform: in.Platform, Title: title}, nil
}

func (s *SocialService) ContentIdeas(ctx context.Context, in ContentIdeasRequest) (ContentIdeasResult, error) {
	if in.Count == 0 {
		in.Count = defaultIdeaCount
	}
	if err := validatePlatform(in.Platform); err != nil {
		return ContentIdeasResult{}, err
	}
	if err := requireFields(field{"niche", in.Niche}); err != nil {
		return ContentIdeasResult{}, err
	}
	if err := inRange("count", in.Count, 3, 10); err != nil {
		return ContentIdeasResult{}, err
	}
	out, title, err := s.run(ctx, in.SessionRef, "Content Ideas", in.Platform, in.Niche, in, contentIdeasPrompt(in))
	if err != nil {
		return ContentIdeasResult{}, err
	}
	ideas := parseLines(out, in.Count)
	return ContentIdeasResult{Ideas: ideas, Count: len(ideas), Platform: in.Platform, Title: title}, nil
}

func (s *SocialService) VideoTitle(ctx context.Context, in VideoTitleRequest) (VideoTitleResult, error) {
	in.Style = defaultString(in.Style, "clickable")
	if err := validatePlatform(in.Platform); err != nil {
		return VideoTitleResult{}, err
	}
	if err := requireFields(field{"topic", in.Topic}); err != nil {
		return VideoTitleResult{}, err
	}
	out, title, err := s.run(ctx, in.SessionRef, "Video Title", in.Platform, in.Topic, in, videoTitlePrompt(in))
	if err != nil {
		return VideoTitleResult{}, err
	}
	return VideoTitleResult{VideoTitle: strings.Trim(out, "\"'"), Platform: in.Platform, Title: title}, nil
}

func (s *SocialService) VideoDescription(ctx context.Context, in VideoDescriptionRequest) (VideoDescriptionResult, error) {
	in.Length = defaultString(in.Length, "medium")
	if err := validatePlatform(in.Platform); err != nil {
		return VideoDescriptionResult{}, err
	}
	if err := requireFields(field{"topic", in.Topic}); err != nil {
		return VideoDescriptionResult{}, err
	}
	if err := oneOf("length", in.Length, contentLength); err != nil {
		return VideoDescriptionResult{}, err
	}
	out, title, err := s.run(ctx, in.SessionRef, "Video Description", in.Platform, in.Topic, in, videoDescriptionPrompt(in))
	if err != nil {
		return VideoDescriptionResult{}, err
	}
	return VideoDescriptionResult{Description: out, Platform: in.Platform, Title: title}, nil
}

func (s *SocialService) VideoTags(ctx context.Context, in VideoTagsRequest) (VideoTagsResult, error) {
	if in.Count == 0 {
		in.Count = defaultTagCount
	}
	if err := validatePlatform(in.Platform); err != nil {
		return VideoTagsResult{}, err
	}
	if err := requireFields(field{"topic", in.Topic}); err != nil {
		return VideoTagsResult{}, err
	}
	if err := inRange("count", in.Count, 5, 30); err != nil {
		return VideoTagsResult{}, err
	}
	out, title, err := s.run(ctx, in.SessionRef, "Video Tags", in.Platform, in.Topic, in, videoTagsPrompt(in))
	if err != nil {
		return VideoTagsResult{}, err
	}
	tags := parseTags(out, in.Count)
	return VideoTagsResult{Tags: tags, Count: len(tags), Platform: in.Platform, Title: title}, nil
}

// run generates the content and records it. It returns the raw output and
// the session title after the call.
func (s *SocialService) run(ctx context.Context, ref SessionRef, tool, platform, subject string, req any, prompt string) (string, string, error) {
	sess, err := s.sessions.Get(ctx, ref.SessionID, ref.UserID)
	if err != nil {
		return "", "", err
	}
	out, err := s.gen.Complete(ctx, socialSystemPrompt(platform), prompt, socialMaxTokens)
	if err != nil {
		return "", "", upstreamError("generation_error", err)
	}
	updated, err := recordInteraction(ctx, s.sessions, sess, toolKey(tool), req, map[string]any{"content": out}, func(string) string {
		return fmt.Sprintf("%s %s: %s", platform, tool, strings.TrimSpace(subject))
	})
	if err != nil {
		return "", "", err
	}
	return out, updated.Title, nil
}

// toolKey turns a display name like "Video Title" into "video_title".
func toolKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

func validatePlatform(platform string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(platform))
	if n < minPlatformLen || n > maxPlatformLen {
		return invalidInput("invalid_platform", "platform must be between 2 and 50 characters")
	}
	return nil
}

func oneOf(name, value string, allowed []string) error {
	if !slices.Contains(allowed, value) {
		return invalidInput("invalid_"+name, fmt.Sprintf("%s must be one of %s", name, strings.Join(allowed, ", ")))
	}
	return nil
}

func inRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return invalidInput("invalid_"+name, fmt.Sprintf("%s must be between %d and %d", name, lo, hi))
	}
	return nil
}
