package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client         *openai.Client
	model          string
	embeddingModel string
}

func NewOpenAIClient(apiKey, model, embeddingModel, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAIClient{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
	}
}

func (c *OpenAIClient) ModelName() string {
	return c.model
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) > 0 {
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("no response choices")
}

func (c *OpenAIClient) GenerateStream(ctx context.Context, prompt string, opts GenerateOptions, fn func(chunk string) error) error {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      true,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}
	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			if err := fn(delta); err != nil {
				return err
			}
		}
	}
}

func (c *OpenAIClient) Available(ctx context.Context) bool {
	_, err := c.client.ListModels(ctx)
	return err == nil
}

func (c *OpenAIClient) HasModel(ctx context.Context) bool {
	models, err := c.client.ListModels(ctx)
	if err != nil {
		return false
	}
	for _, m := range models.Models {
		if strings.Contains(m.ID, c.model) {
			return true
		}
	}
	return false
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	model := openai.EmbeddingModel(c.embeddingModel)
	if c.embeddingModel == "" {
		model = openai.SmallEmbedding3
	}
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: model,
	}
	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) > 0 {
		return resp.Data[0].Embedding, nil
	}
	return nil, fmt.Errorf("no embedding data")
}
