// Package llm defines the chat-completion collaborator and its providers.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when the provider answers without any text,
// for example after a content filter or when the token limit is hit first.
var ErrEmptyCompletion = errors.New("model returned an empty reply")

type Message struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

// Schema is a provider-neutral JSON schema subset used for tool parameters.
type Schema struct {
	Type        string             `json:"type"` // object | array | string | number | integer | boolean
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
}

type Tool struct {
	Name        string
	Description string
	Parameters  *Schema
}

// ToolCall is the raw invocation returned by the model. Arguments is the JSON
// text exactly as the provider delivered it.
type ToolCall struct {
	Name      string
	Arguments string
}

// Client is the LLM collaborator.
type Client interface {
	// Complete returns free text for the given messages. A blank reply is
	// ErrEmptyCompletion.
	Complete(ctx context.Context, messages []Message) (string, error)
	// CompleteWithTool forces a call to the named tool. A nil ToolCall with a
	// nil error means the model answered without calling any tool.
	CompleteWithTool(ctx context.Context, messages []Message, tool Tool, forced string) (*ToolCall, error)
}

// Options are the sampling knobs shared by every provider.
type Options struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	// BaseURL overrides the provider endpoint, used by tests and proxies.
	BaseURL string
}
