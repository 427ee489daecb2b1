package domain

import "time"

// Message is one turn of a chat or temporary chat session.
type Message struct {
	Role      string    `json:"role" bson:"role" dynamodbav:"role"`
	Content   string    `json:"content" bson:"content" dynamodbav:"content"`
	ImageURL  string    `json:"image_url,omitempty" bson:"image_url,omitempty" dynamodbav:"image_url,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp" dynamodbav:"timestamp"`
}

// Interaction records one tool invocation of the business, social and agents
// features.
type Interaction struct {
	Tool      string         `json:"tool" bson:"tool" dynamodbav:"tool"`
	Request   map[string]any `json:"request" bson:"request" dynamodbav:"request"`
	Response  map[string]any `json:"response" bson:"response" dynamodbav:"response"`
	Timestamp time.Time      `json:"timestamp" bson:"timestamp" dynamodbav:"timestamp"`
}

const (
	LanguageInteractionVoice = "voice"
	LanguageInteractionChat  = "chat"

	AudioDeliveryBase64 = "base64"
	AudioDeliveryFile   = "file"
)

// LanguageInteraction records one exchange of the global language feature.
type LanguageInteraction struct {
	ID             string    `json:"interaction_id" bson:"interaction_id" dynamodbav:"interaction_id"`
	Type           string    `json:"type" bson:"type" dynamodbav:"type"`
	UserInput      string    `json:"user_input" bson:"user_input" dynamodbav:"user_input"`
	AIResponse     string    `json:"ai_response" bson:"ai_response" dynamodbav:"ai_response"`
	TargetLanguage string    `json:"target_language" bson:"target_language" dynamodbav:"target_language"`
	AudioDelivery  string    `json:"audio_delivery,omitempty" bson:"audio_delivery,omitempty" dynamodbav:"audio_delivery,omitempty"`
	Timestamp      time.Time `json:"timestamp" bson:"timestamp" dynamodbav:"timestamp"`
}

// StudentInteraction records one student tool invocation.
type StudentInteraction struct {
	ID         string            `json:"interaction_id" bson:"interaction_id" dynamodbav:"interaction_id"`
	ToolType   string            `json:"tool_type" bson:"tool_type" dynamodbav:"tool_type"`
	UserInput  string            `json:"user_input" bson:"user_input" dynamodbav:"user_input"`
	AIResponse string            `json:"ai_response" bson:"ai_response" dynamodbav:"ai_response"`
	Metadata   map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty" dynamodbav:"metadata,omitempty"`
	Timestamp  time.Time         `json:"timestamp" bson:"timestamp" dynamodbav:"timestamp"`
}
