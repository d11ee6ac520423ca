package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

type ClaudeClient struct {
	client *anthropic.Client
	apiKey string
	model  string
}

func NewClaudeClient(apiKey string, model string, baseURL string) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}

	client := anthropic.NewClient(apiKey, opts...)

	return &ClaudeClient{
		client: client,
		apiKey: apiKey,
		model:  model,
	}
}

func (c *ClaudeClient) ModelName() string {
	return c.model
}

func (c *ClaudeClient) messagesRequest(prompt string, opts GenerateOptions) anthropic.MessagesRequest {
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}
	req := anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens: maxTokens,
	}
	if opts.Temperature > 0 {
		t := opts.Temperature
		req.Temperature = &t
	}
	return req
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	resp, err := c.client.CreateMessages(ctx, c.messagesRequest(prompt, opts))
	if err != nil {
		return "", err
	}

	if len(resp.Content) > 0 && resp.Content[0].Text != nil {
		return *resp.Content[0].Text, nil
	}
	return "", fmt.Errorf("no response content")
}

func (c *ClaudeClient) GenerateStream(ctx context.Context, prompt string, opts GenerateOptions, fn func(chunk string) error) error {
	var cbErr error
	_, err := c.client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
		MessagesRequest: c.messagesRequest(prompt, opts),
		OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
			if cbErr != nil || data.Delta.Text == nil {
				return
			}
			cbErr = fn(*data.Delta.Text)
		},
	})
	if err != nil {
		return err
	}
	return cbErr
}

// Available has no cheap probe endpoint; a configured key is treated as available.
func (c *ClaudeClient) Available(ctx context.Context) bool {
	return c.apiKey != ""
}

func (c *ClaudeClient) HasModel(ctx context.Context) bool {
	return c.model != ""
}
