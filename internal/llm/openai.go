package llm

import (
	"context"
	"fmt"

	"api-doc-explorer/internal/logger"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a technical writer documenting HTTP APIs. Answer with plain text only, no markdown headings."

// OpenAIClient implements the LLMClient interface using OpenAI's API
type OpenAIClient struct {
	*BaseClient
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(config *Config, logger *logger.Logger) *OpenAIClient {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	c := &OpenAIClient{client: openai.NewClientWithConfig(clientConfig)}
	c.BaseClient = NewBaseClient(config, logger, c.callLLM)
	return c
}

// callLLM implements the actual LLM API call for OpenAI
func (c *OpenAIClient) callLLM(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       c.config.Model,
			Temperature: float32(c.config.Temperature),
			MaxTokens:   c.config.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)

	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}
