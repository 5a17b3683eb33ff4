package llm

import (
	"context"
	"fmt"
	"strings"

	"api-doc-explorer/internal/logger"
)

// noAnswer is the sentinel the model is told to use when it cannot help
const noAnswer = "NONE"

// BaseClient builds prompts and post-processes completions; the provider
// only supplies the call
type BaseClient struct {
	config *Config
	logger *logger.Logger
	call   CallFunc
}

// NewBaseClient creates a new base LLM client
func NewBaseClient(config *Config, logger *logger.Logger, call CallFunc) *BaseClient {
	return &BaseClient{
		config: config,
		logger: logger,
		call:   call,
	}
}

// DescribeParameter implements the LLMClient interface
func (c *BaseClient) DescribeParameter(ctx context.Context, param ParameterContext) (string, error) {
	typeHint := ""
	if param.Type != "" {
		typeHint = fmt.Sprintf(" of type %s", param.Type)
	}
	summary := ""
	if param.Summary != "" {
		summary = fmt.Sprintf("\nThe operation is summarized as: %s", param.Summary)
	}

	prompt := fmt.Sprintf(`Describe the %s parameter "%s"%s (location %s) of the endpoint %s %s.%s

Write one or two sentences explaining what the parameter controls and any likely constraints.
If you cannot infer anything meaningful, answer exactly %s.`,
		param.Location, param.Name, typeHint, param.Pointer, param.Method, param.Path, summary, noAnswer)

	return c.complete(ctx, "DescribeParameter", param, prompt)
}

// DescribeOperation implements the LLMClient interface
func (c *BaseClient) DescribeOperation(ctx context.Context, op OperationContext) (string, error) {
	params := "none"
	if len(op.Parameters) > 0 {
		params = strings.Join(op.Parameters, ", ")
	}
	id := ""
	if op.OperationID != "" {
		id = fmt.Sprintf(" (operationId %s)", op.OperationID)
	}

	prompt := fmt.Sprintf(`Summarize what the endpoint %s %s%s does in one sentence.
Parameters: %s
If you cannot infer anything meaningful, answer exactly %s.`,
		op.Method, op.Path, id, params, noAnswer)

	return c.complete(ctx, "DescribeOperation", op, prompt)
}

func (c *BaseClient) complete(ctx context.Context, operation string, input interface{}, prompt string) (string, error) {
	if c.call == nil {
		err := fmt.Errorf("no LLM provider configured")
		c.logger.LogInteraction(operation, input, nil, err)
		return "", err
	}

	response, err := c.call(ctx, prompt)
	if err != nil {
		c.logger.LogInteraction(operation, input, nil, err)
		return "", fmt.Errorf("failed to %s: %w", strings.ToLower(operation), err)
	}

	text := strings.TrimSpace(response)
	if strings.EqualFold(text, noAnswer) {
		text = ""
	}
	c.logger.LogInteraction(operation, input, text, nil)
	return text, nil
}
