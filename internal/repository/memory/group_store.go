package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"omniai/internal/domain"
	"omniai/internal/repository"
)

type GroupStore struct {
	mu     sync.RWMutex
	groups map[string]domain.Group
}

func NewGroupStore() *GroupStore {
	return &GroupStore{
		groups: make(map[string]domain.Group),
	}
}

func (s *GroupStore) CreateGroup(_ context.Context, g domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[g.ID]; exists {
		return fmt.Errorf("memory: group %s already exists", g.ID)
	}
	s.groups[g.ID] = cloneGroup(g)
	return nil
}

func (s *GroupStore) GetGroup(_ context.Context, groupID string) (domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return domain.Group{}, fmt.Errorf("memory: get group %s: %w", groupID, repository.ErrNotFound)
	}
	return cloneGroup(g), nil
}

func (s *GroupStore) AddMember(_ context.Context, groupID, userID string) (domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return domain.Group{}, fmt.Errorf("memory: add member %s: %w", groupID, repository.ErrNotFound)
	}
	if !g.IsMember(userID) {
		g = cloneGroup(g)
		g.Members = append(g.Members, userID)
		s.groups[groupID] = g
	}
	return cloneGroup(g), nil
}

func (s *GroupStore) AppendGroupMessage(_ context.Context, groupID string, msg domain.GroupMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return fmt.Errorf("memory: append message %s: %w", groupID, repository.ErrNotFound)
	}
	g = cloneGroup(g)
	g.Messages = append(g.Messages, msg)
	g.UpdatedAt = msg.Timestamp
	s.groups[groupID] = g
	return nil
}

func (s *GroupStore) DeleteGroup(_ context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupID]; !ok {
		return fmt.Errorf("memory: delete group %s: %w", groupID, repository.ErrNotFound)
	}
	delete(s.groups, groupID)
	return nil
}

func cloneGroup(g domain.Group) domain.Group {
	g.Members = slices.Clone(g.Members)
	g.Messages = slices.Clone(g.Messages)
	return g
}
