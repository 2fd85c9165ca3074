package llm

import (
	"context"
	"errors"
)

// ErrRateLimited marks a provider rejection due to rate or quota limits.
// The router treats it as exhaustion: no retry against the same backend.
var ErrRateLimited = errors.New("provider rate limited")

// ErrTransient marks a transport or provider-side failure that is worth
// a bounded retry.
var ErrTransient = errors.New("transient provider failure")

// Provider defines the interface for reasoning backends. Implementations
// must classify failures as ErrRateLimited or ErrTransient (wrapped), the
// two-way distinction the model router depends on.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete generates a completion for the given request
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one reasoning call
type CompletionRequest struct {
	// System is the system prompt (optional)
	System string

	// Prompt is the user-facing prompt payload
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// CompletionResponse contains the reasoning output
type CompletionResponse struct {
	// Text is the generated completion
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds reasoning backend configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   30,
		MaxTokens: 1000,
	}
}
