package llm

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"google.golang.org/genai"
)

type Gemini struct {
	client *genai.Client
	opts   Options
}

func NewGemini(ctx context.Context, opts Options) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}

	if opts.Model == "" {
		opts.Model = "gemini-2.5-flash"
	}

	return &Gemini{client: client, opts: opts}, nil
}

// contents splits system messages into the system instruction; Gemini has no
// system role inside the conversation.
func (g *Gemini) contents(messages []Message) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.opts.Temperature),
		MaxOutputTokens: int32(g.opts.MaxTokens),
	}

	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	return contents, config
}

func (g *Gemini) Complete(ctx context.Context, messages []Message) (string, error) {
	contents, config := g.contents(messages)

	res, err := g.client.Models.GenerateContent(ctx, g.opts.Model, contents, config)
	if err != nil {
		return "", err
	}

	text := res.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

func (g *Gemini) CompleteWithTool(ctx context.Context, messages []Message, tool Tool, forced string) (*ToolCall, error) {
	contents, config := g.contents(messages)
	config.Tools = []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toGenaiSchema(tool.Parameters),
		}},
	}}
	config.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode:                 genai.FunctionCallingConfigModeAny,
			AllowedFunctionNames: []string{forced},
		},
	}

	res, err := g.client.Models.GenerateContent(ctx, g.opts.Model, contents, config)
	if err != nil {
		return nil, err
	}

	calls := res.FunctionCalls()
	if len(calls) == 0 {
		return nil, nil
	}

	args, err := json.Marshal(calls[0].Args)
	if err != nil {
		return nil, err
	}

	return &ToolCall{Name: calls[0].Name, Arguments: string(args)}, nil
}

var genaiTypes = map[string]genai.Type{
	"object":  genai.TypeObject,
	"array":   genai.TypeArray,
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        genaiTypes[s.Type],
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Items:       toGenaiSchema(s.Items),
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
		out.PropertyOrdering = propertyOrder(s)
	}

	return out
}

// propertyOrder lists required fields first, in declared order, then the rest
// alphabetically.
func propertyOrder(s *Schema) []string {
	order := make([]string, 0, len(s.Properties))
	seen := make(map[string]bool, len(s.Properties))
	for _, name := range s.Required {
		if _, ok := s.Properties[name]; ok && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}

	var rest []string
	for name := range s.Properties {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)

	return append(order, rest...)
}
