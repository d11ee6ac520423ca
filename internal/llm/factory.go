package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/mnfctr/datasheet-rag/internal/config"
)

// NewClient builds the generation and embedding clients for the configured
// provider. Claude has no embedding API, so its embedder is nil and callers
// must degrade gracefully.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, EmbedderClient, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "openai":
		c := NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.EmbeddingModel, cfg.BaseURL)
		return c, c, nil

	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil

	case "claude":
		c := NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
		return c, nil, nil

	case "ollama":
		// Ollama speaks the OpenAI-compatible API under /v1.
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}

		// Ollama ignores the API key but the client requires one.
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}

		c := NewOpenAIClient(apiKey, cfg.Model, cfg.EmbeddingModel, baseURL)
		return c, c, nil

	default:
		return nil, nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
