package domain

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape used by the usecases
// and LLM integrations. Images holds http(s) URLs or data URIs attached to a
// user turn.
type ChatMessage struct {
	Role    string
	Content string
	Images  []string
}

// CompletionRequest is a single call to a language model. A zero Temperature
// leaves the provider default in place.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}
