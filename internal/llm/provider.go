package llm

import "context"

// ChatMessage is one turn of conversation history sent to a provider
type ChatMessage struct {
	Role    string
	Content string
}

// Response contains a provider's chat completion result
type Response struct {
	Content    string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for chat backends
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Chat generates the next assistant reply for the given history.
	// The history always carries the system preamble as its first entry.
	Chat(ctx context.Context, messages []ChatMessage, model string) (*Response, error)
}
