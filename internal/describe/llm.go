package describe

import (
	"context"
	"fmt"

	"api-doc-explorer/internal/llm"
)

// LLMSource drafts descriptions with a language model. Operation targets
// are summarized; parameter targets are described individually.
type LLMSource struct {
	client llm.LLMClient
}

// NewLLMSource wraps an LLM client.
func NewLLMSource(client llm.LLMClient) *LLMSource {
	return &LLMSource{client: client}
}

func (s *LLMSource) Describe(ctx context.Context, target Target) (*string, error) {
	var (
		text string
		err  error
	)
	if target.Location == "" {
		text, err = s.client.DescribeOperation(ctx, llm.OperationContext{
			Method: target.Method,
			Path:   target.Route,
		})
	} else {
		text, err = s.client.DescribeParameter(ctx, llm.ParameterContext{
			Method:   target.Method,
			Path:     target.Route,
			Summary:  target.Summary,
			Location: string(target.Location),
			Pointer:  target.Pointer(),
			Name:     target.Name,
			Type:     target.VarType,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return textOrNil(text), nil
}
