package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

type OpenAI struct {
	client *openai.Client
	opts   Options
}

func NewOpenAI(opts Options) *OpenAI {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}

	return &OpenAI{client: openai.NewClientWithConfig(cfg), opts: opts}
}

func (o *OpenAI) request(messages []Message) openai.ChatCompletionRequest {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	return openai.ChatCompletionRequest{
		Model:       o.opts.Model,
		Temperature: o.opts.Temperature,
		MaxTokens:   o.opts.MaxTokens,
		Messages:    out,
	}
}

func (o *OpenAI) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.request(messages))
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	choice := resp.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", fmt.Errorf("%w (finish reason %q)", ErrEmptyCompletion, choice.FinishReason)
	}
	return choice.Message.Content, nil
}

func (o *OpenAI) CompleteWithTool(ctx context.Context, messages []Message, tool Tool, forced string) (*ToolCall, error) {
	req := o.request(messages)
	req.Tools = []openai.Tool{{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toJSONSchema(tool.Parameters),
		},
	}}
	req.ToolChoice = openai.ToolChoice{
		Type:     openai.ToolTypeFunction,
		Function: openai.ToolFunction{Name: forced},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return nil, nil
	}

	call := resp.Choices[0].Message.ToolCalls[0]
	return &ToolCall{Name: call.Function.Name, Arguments: call.Function.Arguments}, nil
}

func toJSONSchema(s *Schema) jsonschema.Definition {
	if s == nil {
		return jsonschema.Definition{Type: jsonschema.Object, Properties: map[string]jsonschema.Definition{}}
	}

	def := jsonschema.Definition{
		Type:        jsonschema.DataType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}
	if s.Items != nil {
		items := toJSONSchema(s.Items)
		def.Items = &items
	}
	if len(s.Properties) > 0 {
		def.Properties = make(map[string]jsonschema.Definition, len(s.Properties))
		for name, prop := range s.Properties {
			def.Properties[name] = toJSONSchema(prop)
		}
	}

	return def
}
