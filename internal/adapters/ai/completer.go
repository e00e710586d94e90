package ai

import "context"

// Completer is the one capability the workflows need from an LLM:
// given a prompt and a maximum output length in tokens, return text or fail.
//
// Implementations classify failures: errors.ErrTimeout and errors.ErrUnavailable
// are transient, anything else is definitive.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxLen int) (string, error)
}

// CompleterFunc adapts a function to Completer
type CompleterFunc func(ctx context.Context, prompt string, maxLen int) (string, error)

// Complete calls f
func (f CompleterFunc) Complete(ctx context.Context, prompt string, maxLen int) (string, error) {
	return f(ctx, prompt, maxLen)
}

// ProviderName identifies an LLM provider
type ProviderName string

const (
	ProviderNameOpenAI ProviderName = "openai"
	ProviderNameGoogle ProviderName = "gemini"
)

// String returns the provider name
func (p ProviderName) String() string {
	return string(p)
}
