package llm

import (
	"context"
)

// ParameterContext describes the parameter an LLM is asked to document
type ParameterContext struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Summary  string `json:"summary,omitempty"`
	Location string `json:"location"`
	Pointer  string `json:"pointer"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
}

// OperationContext describes the operation an LLM is asked to summarize
type OperationContext struct {
	Method      string   `json:"method"`
	Path        string   `json:"path"`
	OperationID string   `json:"operationId,omitempty"`
	Parameters  []string `json:"parameters,omitempty"`
}

// CallFunc sends a single prompt and returns the raw completion
type CallFunc func(ctx context.Context, prompt string) (string, error)

// LLMClient defines the interface for LLM interactions
type LLMClient interface {
	// DescribeParameter drafts documentation for one parameter. An empty
	// result means the model had nothing useful to say.
	DescribeParameter(ctx context.Context, param ParameterContext) (string, error)

	// DescribeOperation drafts a short summary of an operation
	DescribeOperation(ctx context.Context, op OperationContext) (string, error)
}
