package analyzer

import (
	"context"
)

// Image is an inline image attached to a prompt.
type Image struct {
	MediaType string
	Data      []byte
}

type Prompt struct {
	System string
	User   string
	Image  *Image
}

type GenerateOptions struct {
	// Structured asks the model for a single JSON object.
	Structured  bool
	MaxTokens   int
	Temperature float32
}

// TokenStream is a finite, non-restartable sequence of text increments.
// Next returns io.EOF once the upstream finished normally. Close must be
// called in every case and abandons any generation still in flight.
type TokenStream interface {
	Next() (string, error)
	Close() error
}

// Model is the hosted language-model capability.
type Model interface {
	Generate(ctx context.Context, prompt Prompt, opts GenerateOptions) (string, error)
	GenerateStream(ctx context.Context, prompt Prompt) (TokenStream, error)
}
