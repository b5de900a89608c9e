package models

// Roles understood by every completion backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single role-tagged instruction sent to a backend.
type Message struct {
	Role    string
	Content string
}

// ChatRequest is the backend-neutral representation of a chat completion call.
type ChatRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// ChatResponse captures the first choice of a backend response.
type ChatResponse struct {
	ID           string
	Content      string
	FinishReason string
	Usage        Usage
}

// Usage records token accounting information.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
