package llm

import (
	"context"
)

type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

// LLMClient is the text-generation collaborator. Streaming delivers
// incremental chunks to fn; fn returning an error aborts the stream.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	GenerateStream(ctx context.Context, prompt string, opts GenerateOptions, fn func(chunk string) error) error
	Available(ctx context.Context) bool
	HasModel(ctx context.Context) bool
	ModelName() string
}

type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
