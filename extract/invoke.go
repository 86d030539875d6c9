package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/calebchiang/repcoach_server/apperr"
	"github.com/calebchiang/repcoach_server/llm"
)

// Invoke forces the contract's tool over messages, validates the arguments and
// decodes them into T. LLM call failures come back as UpstreamGenerationError,
// missing/wrong tool calls and non-JSON arguments as MalformedModelOutputError,
// contract violations as SchemaValidationError. Nothing is partially accepted.
func Invoke[T any](ctx context.Context, client llm.Client, c Contract, messages []llm.Message) (*T, error) {
	call, err := client.CompleteWithTool(ctx, messages, c.Tool(), c.Name)
	if err != nil {
		return nil, &apperr.UpstreamGenerationError{Op: c.Name, Err: err}
	}

	obj, err := c.Parse(call)
	if err != nil {
		return nil, err
	}

	// Re-encode the validated object so numbers like 34.0 decode into ints.
	normalized, err := json.Marshal(obj)
	if err != nil {
		return nil, &apperr.SchemaValidationError{Contract: c.Name, Problems: []string{err.Error()}}
	}

	var out T
	if err := json.Unmarshal(normalized, &out); err != nil {
		return nil, &apperr.SchemaValidationError{Contract: c.Name, Problems: []string{err.Error()}}
	}

	return &out, nil
}

// Parse checks a raw tool call against the contract and returns the decoded
// arguments.
func (c Contract) Parse(call *llm.ToolCall) (map[string]any, error) {
	if call == nil {
		return nil, &apperr.MalformedModelOutputError{Contract: c.Name, Reason: "no tool call in response"}
	}
	if call.Name != c.Name {
		return nil, &apperr.MalformedModelOutputError{Contract: c.Name, Reason: "unexpected tool " + call.Name}
	}
	if strings.TrimSpace(call.Arguments) == "" {
		return nil, &apperr.MalformedModelOutputError{Contract: c.Name, Reason: "empty tool arguments"}
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &obj); err != nil {
		return nil, &apperr.MalformedModelOutputError{Contract: c.Name, Reason: "arguments are not a JSON object: " + err.Error()}
	}
	if obj == nil {
		return nil, &apperr.MalformedModelOutputError{Contract: c.Name, Reason: "arguments are null"}
	}

	if problems := c.Validate(obj); len(problems) > 0 {
		return nil, &apperr.SchemaValidationError{Contract: c.Name, Problems: problems}
	}

	return obj, nil
}
