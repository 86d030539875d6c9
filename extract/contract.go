// Package extract declares the tool contracts used for structured generation
// and validates what the model sends back against them.
package extract

import (
	"github.com/calebchiang/repcoach_server/llm"
	"github.com/calebchiang/repcoach_server/models"
)

const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Field describes one parameter. Fields are kept in declaration order so the
// tool schema and validation messages are deterministic.
type Field struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Enum        []string
	Minimum     *float64
	Maximum     *float64
	Items       *Field  // element shape for arrays
	Fields      []Field // properties for objects
}

// Contract is a forced tool: name, description and parameter schema.
type Contract struct {
	Name        string
	Description string
	Fields      []Field
}

// Tool converts the contract into the LLM collaborator's tool schema.
func (c Contract) Tool() llm.Tool {
	return llm.Tool{
		Name:        c.Name,
		Description: c.Description,
		Parameters:  objectSchema("", c.Fields),
	}
}

func objectSchema(description string, fields []Field) *llm.Schema {
	s := &llm.Schema{
		Type:        TypeObject,
		Description: description,
		Properties:  make(map[string]*llm.Schema, len(fields)),
	}
	for _, f := range fields {
		s.Properties[f.Name] = f.schema()
		if f.Required {
			s.Required = append(s.Required, f.Name)
		}
	}
	return s
}

func (f Field) schema() *llm.Schema {
	if f.Type == TypeObject {
		return objectSchema(f.Description, f.Fields)
	}

	s := &llm.Schema{
		Type:        f.Type,
		Description: f.Description,
		Enum:        f.Enum,
		Minimum:     f.Minimum,
		Maximum:     f.Maximum,
	}
	if f.Items != nil {
		s.Items = f.Items.schema()
	}
	return s
}

func bound(v float64) *float64 { return &v }

func str(name, description string) Field {
	return Field{Name: name, Type: TypeString, Description: description, Required: true}
}

var titledItem = Field{
	Type: TypeObject,
	Fields: []Field{
		str("title", "Short heading"),
		str("description", "One or two sentences of detail"),
	},
}

// Persona is the contract for generating a colleague profile.
var Persona = Contract{
	Name:        "generate_persona",
	Description: "Generate a fictional UK worker for a trade union representative to talk to.",
	Fields: []Field{
		str("name", "Full name"),
		str("segment", "The worker's current relationship with the union"),
		{Name: "age", Type: TypeNumber, Description: "Age in years", Required: true, Minimum: bound(16), Maximum: bound(100)},
		str("gender", "Gender"),
		str("family_status", "Family status, e.g. single, married with children"),
		str("uk_party_affiliation", "UK political party they support, or none"),
		str("workplace", "Where they work"),
		str("job", "Their job title"),
		{
			Name:        "busyness_level",
			Type:        TypeString,
			Description: "How busy they are at work",
			Required:    true,
			Enum:        []string{models.BusynessLow, models.BusynessMedium, models.BusynessHigh},
		},
		str("major_issues_in_workplace", "The main problems they face at work"),
		str("personality_traits", "Personality traits"),
		str("emotional_conditions", "Emotional conditions relevant to union support"),
	},
}

// Feedback is the contract for scoring a finished conversation.
var Feedback = Contract{
	Name:        "generate_feedback",
	Description: "Give structured feedback on how the representative handled the conversation.",
	Fields: []Field{
		{Name: "score", Type: TypeNumber, Description: "Overall score from 1 to 5", Required: true, Minimum: bound(1), Maximum: bound(5)},
		str("summary", "Summary of how the conversation went"),
		{Name: "strengths", Type: TypeArray, Description: "What the representative did well", Required: true, Items: &titledItem},
		{Name: "areas_for_improvement", Type: TypeArray, Description: "What the representative should work on", Required: true, Items: &titledItem},
	},
}
