package llm

import "context"

// Role is the message role used in chat exchanges.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage represents a single message exchanged with the model.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the input for chat providers.
type ChatRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatResponse is the result of a non-streaming chat completion.
type ChatResponse struct {
	Message      ChatMessage
	FinishReason string
	ProviderName string
	Model        string
}

// StreamChunk is emitted during streaming responses. Chunks arrive in
// generation order; concatenating every Content yields the full reply.
type StreamChunk struct {
	Content      string
	FinishReason string
}

// Provider defines the contract for generative backends.
//
// Stream returns a chunk channel and an error channel. Both are closed when
// the reply ends; the error channel carries at most one value, sent after the
// last chunk. Callers must drain the chunk channel.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	Stream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, <-chan error)
}
