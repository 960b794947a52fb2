package entity

import "time"

// ChatRequest is one user turn sent to the assistant.
type ChatRequest struct {
	UserID         string `json:"-"`
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`

	// Filled by the metadata extractor, e.g. {"topic": "loan"}.
	Metadata map[string]string `json:"-"`
}

// AIResponse is a completion from the generative-language provider.
type AIResponse struct {
	Content        string         `json:"content"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Cached         bool           `json:"cached"` // served from the semantic cache
	Score          float32        `json:"score"`  // similarity of the cache hit
	Model          string         `json:"model"`
	TokenCount     int            `json:"token_count"`
	Latency        int64          `json:"latency_ms"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// ChatMessage is one row of chat_messages.
type ChatMessage struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
