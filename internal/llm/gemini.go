package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
}

func NewGeminiClient(ctx context.Context, apiKey, model, embeddingModel string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if embeddingModel == "" {
		embeddingModel = "text-embedding-004"
	}
	return &GeminiClient{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
	}, nil
}

func (c *GeminiClient) ModelName() string {
	return c.model
}

func (c *GeminiClient) generativeModel(opts GenerateOptions) *genai.GenerativeModel {
	model := c.client.GenerativeModel(c.model)
	if opts.Temperature > 0 {
		model.SetTemperature(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	return model
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	resp, err := c.generativeModel(opts).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		if txt, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
			return string(txt), nil
		}
	}

	return "", fmt.Errorf("no response candidates or content")
}

func (c *GeminiClient) GenerateStream(ctx context.Context, prompt string, opts GenerateOptions, fn func(chunk string) error) error {
	iter := c.generativeModel(opts).GenerateContentStream(ctx, genai.Text(prompt))
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if txt, ok := part.(genai.Text); ok {
					if err := fn(string(txt)); err != nil {
						return err
					}
				}
			}
		}
	}
}

func (c *GeminiClient) Available(ctx context.Context) bool {
	iter := c.client.ListModels(ctx)
	_, err := iter.Next()
	return err == nil || errors.Is(err, iterator.Done)
}

func (c *GeminiClient) HasModel(ctx context.Context) bool {
	iter := c.client.ListModels(ctx)
	for {
		info, err := iter.Next()
		if err != nil {
			return false
		}
		if info.Name == c.model || info.Name == "models/"+c.model {
			return true
		}
	}
}

func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	embedModel := c.client.EmbeddingModel(c.embeddingModel)
	res, err := embedModel.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if res.Embedding != nil {
		return res.Embedding.Values, nil
	}
	return nil, fmt.Errorf("no embedding values")
}
