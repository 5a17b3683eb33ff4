package llm

import (
	"fmt"

	"api-doc-explorer/internal/logger"
)

// NewClient creates a new LLM client based on the provider
func NewClient(config *Config, logger *logger.Logger) (LLMClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid LLM config: %w", err)
	}
	switch config.Provider {
	case "openai":
		logger.Debug("creating OpenAI client", "model", config.Model, "base_url", config.BaseURL)
		return NewOpenAIClient(config, logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.Provider)
	}
}
