// File path: internal/llm/providers/provider.go
package providers

import (
	"context"
)

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// Options tune one completion request. Temperature defaults to 0 for
// near-deterministic SQL generation.
type Options struct {
	Temperature float64
	MaxTokens   int64
	Stop        []string
}

// Completion carries the model text plus token accounting.
type Completion struct {
	Content          string
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Provider is the language-model collaborator contract.
type Provider interface {
	Complete(ctx context.Context, messages []Message, opts Options) (Completion, error)
	Name() string
}
