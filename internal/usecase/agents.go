package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"omniai/internal/domain"
)

const (
	agentSuggestionCount = 4
	agentMaxTokens       = 800
)

// AgentType describes one suggestion agent.
type AgentType struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Context string `json:"default_context"`
}

var agentTypes = []AgentType{
	{Type: "marketing", Name: "Marketing", Context: "general marketing strategy"},
	{Type: "restaurant", Name: "Restaurant", Context: "restaurant operations"},
	{Type: "real_estate", Name: "Real Estate", Context: "real estate business"},
	{Type: "legal", Name: "Legal", Context: "legal practice"},
	{Type: "teacher", Name: "Teacher", Context: "teaching and education"},
	{Type: "fitness", Name: "Fitness", Context: "fitness and wellness"},
	{Type: "business_plan_builder", Name: "Business Plan Builder", Context: "business planning"},
	{Type: "financial_forecasts", Name: "Financial Forecasts", Context: "financial forecasting"},
	{Type: "industry_research", Name: "Industry Research", Context: "industry research"},
	{Type: "liveplan_assistant", Name: "LivePlan Assistant", Context: "business plan development"},
}

func lookupAgent(t string) (AgentType, bool) {
	for _, a := range agentTypes {
		if a.Type == t {
			return a, true
		}
	}
	return AgentType{}, false
}

type SuggestionRequest struct {
	SessionRef
	AgentType string `json:"agent_type"`
	UserInput string `json:"user_input"`
}

type SuggestionResult struct {
	AgentType   string   `json:"agent_type"`
	Suggestions []string `json:"suggestions"`
	Title       string   `json:"title"`
}

type AgentsService struct {
	sessions *Sessions[domain.Interaction]
	gen      *Generator
}

func NewAgentsService(sessions *Sessions[domain.Interaction], gen *Generator) (*AgentsService, error) {
	if sessions == nil {
		return nil, errors.New("usecase: agents sessions must not be nil")
	}
	if gen == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	return &AgentsService{sessions: sessions, gen: gen}, nil
}

// Types lists the supported agents in a stable order.
func (s *AgentsService) Types() []AgentType {
	out := make([]AgentType, len(agentTypes))
	copy(out, agentTypes)
	return out
}

func (s *AgentsService) CreateSession(ctx context.Context, userID string) (domain.Session[domain.Interaction], error) {
	return s.sessions.Create(ctx, userID)
}

func (s *AgentsService) History(ctx context.Context, sessionID, userID string) (domain.Session[domain.Interaction], error) {
	return s.sessions.Get(ctx, sessionID, userID)
}

func (s *AgentsService) DeleteSession(ctx context.Context, sessionID, userID string) error {
	return s.sessions.Delete(ctx, sessionID, userID)
}

func (s *AgentsService) ListSessions(ctx context.Context, userID string) ([]domain.SessionSummary, error) {
	return s.sessions.List(ctx, userID)
}

func (s *AgentsService) Suggest(ctx context.Context, in SuggestionRequest) (SuggestionResult, error) {
	in.AgentType = strings.TrimSpace(in.AgentType)
	in.UserInput = strings.TrimSpace(in.UserInput)
	agent, ok := lookupAgent(in.AgentType)
	if !ok {
		return SuggestionResult{}, invalidInput("invalid_agent_type", fmt.Sprintf("unknown agent type %q", in.AgentType))
	}
	sess, err := s.sessions.Get(ctx, in.SessionID, in.UserID)
	if err != nil {
		return SuggestionResult{}, err
	}

	out, err := s.gen.Complete(ctx, agentSystemPrompt(agent), agentPrompt(agent, in.UserInput), agentMaxTokens)
	if err != nil {
		return SuggestionResult{}, upstreamError("generation_error", err)
	}
	suggestions := parseSuggestions(out, agentSuggestionCount)

	updated, err := recordInteraction(ctx, s.sessions, sess, agent.Type, in, map[string]any{"suggestions": suggestions}, func(string) string {
		if in.UserInput == "" {
			return agent.Type + " Agent Session"
		}
		return agent.Type + " Agent: " + in.UserInput
	})
	if err != nil {
		return SuggestionResult{}, err
	}
	return SuggestionResult{AgentType: agent.Type, Suggestions: suggestions, Title: updated.Title}, nil
}
