package usecase

import (
	"context"
	"errors"
	"strings"

	"omniai/internal/domain"
	"omniai/internal/observability"
	"omniai/internal/repository"
)

const (
	groupContextMessages = 10
	groupMaxTokens       = 500
	groupFallbackReply   = "I'm having trouble connecting right now. Please try again later."
)

type CreateGroupInput struct {
	SessionRef
	Name string `json:"name"`
	Type string `json:"type"`
}

type JoinGroupInput struct {
	SessionRef
	GroupID string `json:"group_id"`
}

type GroupMessageInput struct {
	SessionRef
	GroupID string `json:"group_id"`
	Content string `json:"content"`
}

// GroupService manages group chat rooms. Group-chat sessions carry no
// entries; they only authorize the (session, user) pair on each action.
type GroupService struct {
	sessions *Sessions[domain.Interaction]
	groups   repository.GroupStore
	gen      *Generator
}

func NewGroupService(sessions *Sessions[domain.Interaction], groups repository.GroupStore, gen *Generator) (*GroupService, error) {
	if sessions == nil {
		return nil, errors.New("usecase: group chat sessions must not be nil")
	}
	if groups == nil {
		return nil, errors.New("usecase: group store must not be nil")
	}
	if gen == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	return &GroupService{sessions: sessions, groups: groups, gen: gen}, nil
}

func (s *GroupService) CreateSession(ctx context.Context, userID string) (domain.Session[domain.Interaction], error) {
	return s.sessions.Create(ctx, userID)
}

func (s *GroupService) CreateGroup(ctx context.Context, in CreateGroupInput) (domain.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = defaultString(in.Type, domain.GroupTypeGeneral)
	if err := requireFields(field{"name", in.Name}); err != nil {
		return domain.Group{}, err
	}
	if !domain.ValidGroupType(in.Type) {
		return domain.Group{}, invalidInput("invalid_group_type", "type must be student, business or general")
	}
	sess, err := s.sessions.Get(ctx, in.SessionID, in.UserID)
	if err != nil {
		return domain.Group{}, err
	}

	at := now()
	g := domain.Group{
		ID:        newUUID(),
		Name:      in.Name,
		Type:      in.Type,
		CreatorID: sess.UserID,
		Members:   []string{sess.UserID},
		Messages:  []domain.GroupMessage{},
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := s.groups.CreateGroup(ctx, g); err != nil {
		return domain.Group{}, newError(ErrorInternal, "group_create_error", err)
	}
	return g, nil
}

// JoinGroup adds the user to the group. Joining twice is a no-op.
func (s *GroupService) JoinGroup(ctx context.Context, in JoinGroupInput) (domain.Group, error) {
	if err := requireFields(field{"group_id", in.GroupID}); err != nil {
		return domain.Group{}, err
	}
	sess, err := s.sessions.Get(ctx, in.SessionID, in.UserID)
	if err != nil {
		return domain.Group{}, err
	}
	g, err := s.groups.AddMember(ctx, strings.TrimSpace(in.GroupID), sess.UserID)
	if err != nil {
		return domain.Group{}, storeError("group_not_found", "group_write_error", err)
	}
	return g, nil
}

// SendMessage posts the user's message and then the generated reply, and
// returns the reply. A model failure still posts a fallback reply.
func (s *GroupService) SendMessage(ctx context.Context, in GroupMessageInput) (domain.GroupMessage, error) {
	content := strings.TrimSpace(in.Content)
	if err := requireFields(field{"group_id", in.GroupID}, field{"content", content}); err != nil {
		return domain.GroupMessage{}, err
	}
	sess, err := s.sessions.Get(ctx, in.SessionID, in.UserID)
	if err != nil {
		return domain.GroupMessage{}, err
	}
	g, err := s.memberGroup(ctx, in.GroupID, sess.UserID)
	if err != nil {
		return domain.GroupMessage{}, err
	}

	userMsg := domain.GroupMessage{ID: newUUID(), UserID: sess.UserID, Content: content, Timestamp: now()}
	if err := s.groups.AppendGroupMessage(ctx, g.ID, userMsg); err != nil {
		return domain.GroupMessage{}, storeError("group_not_found", "group_write_error", err)
	}

	history := append(lastN(g.Messages, groupContextMessages-1), userMsg)
	reply, err := s.gen.Chat(ctx, buildGroupMessages(g.Type, history), groupMaxTokens)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("group reply generation failed",
			"group_id", g.ID,
			"err", err,
		)
		reply = groupFallbackReply
	}

	aiMsg := domain.GroupMessage{ID: newUUID(), UserID: domain.GroupAIUserID, Content: reply, IsAI: true, Timestamp: now()}
	if err := s.groups.AppendGroupMessage(ctx, g.ID, aiMsg); err != nil {
		return domain.GroupMessage{}, storeError("group_not_found", "group_write_error", err)
	}
	return aiMsg, nil
}

// History returns the group's messages in arrival order. Only members may
// read them.
func (s *GroupService) History(ctx context.Context, groupID, userID string) ([]domain.GroupMessage, error) {
	userID = strings.TrimSpace(userID)
	if err := requireFields(field{"group_id", groupID}, field{"user_id", userID}); err != nil {
		return nil, err
	}
	g, err := s.memberGroup(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if g.Messages == nil {
		return []domain.GroupMessage{}, nil
	}
	return g.Messages, nil
}

// DeleteGroup removes the group. Only the creator may delete it.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID, userID string) error {
	userID = strings.TrimSpace(userID)
	if err := requireFields(field{"group_id", groupID}, field{"user_id", userID}); err != nil {
		return err
	}
	g, err := s.groups.GetGroup(ctx, strings.TrimSpace(groupID))
	if err != nil {
		return storeError("group_not_found", "group_read_error", err)
	}
	if g.CreatorID != userID {
		return newError(ErrorForbidden, "not_group_creator", errors.New("only the group creator can delete the group"))
	}
	if err := s.groups.DeleteGroup(ctx, g.ID); err != nil {
		return storeError("group_not_found", "group_delete_error", err)
	}
	return nil
}

func (s *GroupService) memberGroup(ctx context.Context, groupID, userID string) (domain.Group, error) {
	g, err := s.groups.GetGroup(ctx, strings.TrimSpace(groupID))
	if err != nil {
		return domain.Group{}, storeError("group_not_found", "group_read_error", err)
	}
	if !g.IsMember(userID) {
		return domain.Group{}, newError(ErrorForbidden, "not_group_member", errors.New("user is not a member of this group"))
	}
	return g, nil
}
