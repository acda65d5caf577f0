// Package ai abstracts the LLM backend behind a small provider
// interface and ships the Gemini HTTP implementation.
package ai

import "context"

// Message is one turn of conversation passed to the backend.
type Message struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// GenOptions are per-call generation parameters, resolved from config
// defaults and per-user tuning state.
type GenOptions struct {
	Model           string
	Temperature     float64
	TopP            float64
	MaxOutputTokens int
}

// Provider generates a reply for the given conversation. A non-nil
// error means the caller should surface a short apology to the user;
// retry policy lives inside the provider.
type Provider interface {
	Generate(ctx context.Context, messages []Message, opts GenOptions) (string, error)
}
