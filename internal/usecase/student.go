package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"omniai/internal/domain"
)

const (
	toolHomework   = "homework"
	toolEssay      = "essay"
	toolMath       = "math"
	toolStudy      = "study"
	toolFlashcards = "flashcards"
	toolSummary    = "summary"

	flashcardsPairs = "pairs"
	flashcardsCloze = "cloze"

	summaryConcise      = "concise"
	summaryDetailed     = "detailed"
	summaryBulletPoints = "bullet_points"

	studyContextMessages = 4
	flashcardsInputLen   = 100
)

var (
	essayLengthWords = map[string]int{"short": 300, "medium": 600, "long": 1000}
	essayTones       = []string{"academic", "persuasive", "narrative", "descriptive"}
	summaryDetails   = []string{summaryConcise, summaryDetailed, summaryBulletPoints}
	flashcardFormats = []string{flashcardsPairs, flashcardsCloze}
)

type HomeworkRequest struct {
	SessionRef
	Subject  string `json:"subject"`
	Question string `json:"question"`
}

type EssayRequest struct {
	SessionRef
	Topic  string `json:"topic"`
	Length string `json:"length"`
	Tone   string `json:"tone"`
}

type MathRequest struct {
	SessionRef
	Problem string `json:"problem"`
}

type StudyRequest struct {
	SessionRef
	Topic    string `json:"topic"`
	Question string `json:"question"`
}

type FlashcardsRequest struct {
	SessionRef
	Content string `json:"content"`
	Format  string `json:"format"`
}

type SummaryRequest struct {
	SessionRef
	Content string `json:"content"`
	Detail  string `json:"detail"`
}

type StudentOutput struct {
	InteractionID string    `json:"interaction_id"`
	AIResponse    string    `json:"ai_response"`
	Timestamp     time.Time `json:"timestamp"`
}

type StudentService struct {
	sessions *Sessions[domain.StudentInteraction]
	gen      *Generator
}

func NewStudentService(sessions *Sessions[domain.StudentInteraction], gen *Generator) (*StudentService, error) {
	if sessions == nil {
		return nil, errors.New("usecase: student sessions must not be nil")
	}
	if gen == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	return &StudentService{sessions: sessions, gen: gen}, nil
}

func (s *StudentService) CreateSession(ctx context.Context, userID string) (domain.Session[domain.StudentInteraction], error) {
	return s.sessions.Create(ctx, userID)
}

func (s *StudentService) History(ctx context.Context, sessionID, userID string) (domain.Session[domain.StudentInteraction], error) {
	return s.sessions.Get(ctx, sessionID, userID)
}

func (s *StudentService) DeleteSession(ctx context.Context, sessionID, userID string) error {
	return s.sessions.Delete(ctx, sessionID, userID)
}

func (s *StudentService) Homework(ctx context.Context, in HomeworkRequest) (StudentOutput, error) {
	if err := requireFields(field{"subject", in.Subject}, field{"question", in.Question}); err != nil {
		return StudentOutput{}, err
	}
	subject := strings.TrimSpace(in.Subject)
	question := strings.TrimSpace(in.Question)
	return s.run(ctx, in.SessionRef, studentCall{
		tool:     toolHomework,
		system:   homeworkSystemPrompt(subject),
		prompt:   question,
		input:    "[" + subject + "] " + question,
		metadata: map[string]string{"subject": subject},
	})
}

func (s *StudentService) Essay(ctx context.Context, in EssayRequest) (StudentOutput, error) {
	in.Length = defaultString(in.Length, "medium")
	in.Tone = defaultString(in.Tone, "academic")
	if err := requireFields(field{"topic", in.Topic}); err != nil {
		return StudentOutput{}, err
	}
	if _, ok := essayLengthWords[in.Length]; !ok {
		return StudentOutput{}, invalidInput("invalid_length", "length must be short, medium or long")
	}
	if err := oneOf("tone", in.Tone, essayTones); err != nil {
		return StudentOutput{}, err
	}
	in.Topic = strings.TrimSpace(in.Topic)
	return s.run(ctx, in.SessionRef, studentCall{
		tool:     toolEssay,
		system:   essaySystemPrompt(),
		prompt:   essayPrompt(in),
		input:    in.Topic,
		metadata: map[string]string{"length": in.Length, "tone": in.Tone},
	})
}

func (s *StudentService) Math(ctx context.Context, in MathRequest) (StudentOutput, error) {
	if err := requireFields(field{"problem", in.Problem}); err != nil {
		return StudentOutput{}, err
	}
	problem := strings.TrimSpace(in.Problem)
	return s.run(ctx, in.SessionRef, studentCall{
		tool:   toolMath,
		system: mathSystemPrompt(),
		prompt: "Solve step by step: " + problem,
		input:  problem,
	})
}

// Study continues a study conversation on topic, using the most recent study
// exchanges of the session as context.
func (s *StudentService) Study(ctx context.Context, in StudyRequest) (StudentOutput, error) {
	if err := requireFields(field{"topic", in.Topic}); err != nil {
		return StudentOutput{}, err
	}
	topic := strings.TrimSpace(in.Topic)
	question := strings.TrimSpace(in.Question)
	if question == "" {
		question = "I want to start studying " + topic
	}
	return s.run(ctx, in.SessionRef, studentCall{
		tool:     toolStudy,
		system:   studySystemPrompt(topic),
		prompt:   question,
		input:    question,
		metadata: map[string]string{"topic": topic},
		history:  studyHistory,
	})
}

func (s *StudentService) Flashcards(ctx context.Context, in FlashcardsRequest) (StudentOutput, error) {
	in.Format = defaultString(in.Format, flashcardsPairs)
	if err := requireFields(field{"content", in.Content}); err != nil {
		return StudentOutput{}, err
	}
	if err := oneOf("format", in.Format, flashcardFormats); err != nil {
		return StudentOutput{}, err
	}
	in.Content = strings.TrimSpace(in.Content)
	return s.run(ctx, in.SessionRef, studentCall{
		tool:     toolFlashcards,
		system:   flashcardsSystemPrompt(),
		prompt:   flashcardsPrompt(in),
		input:    truncateRunes(in.Content, flashcardsInputLen) + "...",
		metadata: map[string]string{"format": in.Format},
	})
}

func (s *StudentService) Summary(ctx context.Context, in SummaryRequest) (StudentOutput, error) {
	in.Detail = defaultString(in.Detail, summaryDetailed)
	if err := requireFields(field{"content", in.Content}); err != nil {
		return StudentOutput{}, err
	}
	if err := oneOf("detail", in.Detail, summaryDetails); err != nil {
		return StudentOutput{}, err
	}
	in.Content = strings.TrimSpace(in.Content)
	return s.run(ctx, in.SessionRef, studentCall{
		tool:     toolSummary,
		system:   summarySystemPrompt(),
		prompt:   summaryPrompt(in),
		input:    truncateRunes(in.Content, flashcardsInputLen) + "...",
		metadata: map[string]string{"detail": in.Detail},
	})
}

type studentCall struct {
	tool     string
	system   string
	prompt   string
	input    string
	metadata map[string]string
	history  func([]domain.StudentInteraction) []domain.ChatMessage
}

func (s *StudentService) run(ctx context.Context, ref SessionRef, c studentCall) (StudentOutput, error) {
	sess, err := s.sessions.Get(ctx, ref.SessionID, ref.UserID)
	if err != nil {
		return StudentOutput{}, err
	}

	messages := []domain.ChatMessage{{Role: domain.RoleSystem, Content: c.system}}
	if c.history != nil {
		messages = append(messages, c.history(sess.Entries)...)
	}
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: c.prompt})

	reply, err := s.gen.Chat(ctx, messages, 0)
	if err != nil {
		return StudentOutput{}, upstreamError("chat_completion_error", err)
	}

	it := domain.StudentInteraction{
		ID:         newUUID(),
		ToolType:   c.tool,
		UserInput:  c.input,
		AIResponse: reply,
		Metadata:   c.metadata,
		Timestamp:  now(),
	}
	if _, err := s.sessions.Record(ctx, sess, c.tool+": "+c.input, it); err != nil {
		return StudentOutput{}, err
	}
	return StudentOutput{InteractionID: it.ID, AIResponse: reply, Timestamp: it.Timestamp}, nil
}

// studyHistory replays the last study exchanges as chat messages.
func studyHistory(entries []domain.StudentInteraction) []domain.ChatMessage {
	var messages []domain.ChatMessage
	for _, e := range entries {
		if e.ToolType != toolStudy {
			continue
		}
		messages = append(messages,
			domain.ChatMessage{Role: domain.RoleUser, Content: e.UserInput},
			domain.ChatMessage{Role: domain.RoleAssistant, Content: e.AIResponse},
		)
	}
	return lastN(messages, studyContextMessages)
}
