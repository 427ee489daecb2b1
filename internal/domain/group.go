package domain

import (
	"slices"
	"time"
)

const (
	GroupTypeStudent  = "student"
	GroupTypeBusiness = "business"
	GroupTypeGeneral  = "general"

	// GroupAIUserID is the author id of generated replies.
	GroupAIUserID = "AI"
)

// Group is a shared chat room. Members always contains the creator.
type Group struct {
	ID        string         `json:"group_id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	CreatorID string         `json:"creator_id"`
	Members   []string       `json:"members"`
	Messages  []GroupMessage `json:"messages"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (g Group) IsMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}

// GroupMessage is one message posted to a group.
type GroupMessage struct {
	ID        string    `json:"message_id" bson:"message_id" dynamodbav:"message_id"`
	UserID    string    `json:"user_id" bson:"user_id" dynamodbav:"user_id"`
	Content   string    `json:"content" bson:"content" dynamodbav:"content"`
	IsAI      bool      `json:"is_ai" bson:"is_ai" dynamodbav:"is_ai"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp" dynamodbav:"timestamp"`
}

func ValidGroupType(t string) bool {
	switch t {
	case GroupTypeStudent, GroupTypeBusiness, GroupTypeGeneral:
		return true
	}
	return false
}
