package extract

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebchiang/repcoach_server/apperr"
	"github.com/calebchiang/repcoach_server/llm"
	"github.com/calebchiang/repcoach_server/models"
)

type toolStub struct {
	call      *llm.ToolCall
	err       error
	gotTool   llm.Tool
	gotForced string
}

func (s *toolStub) Complete(context.Context, []llm.Message) (string, error) {
	return "", errors.New("not used")
}

func (s *toolStub) CompleteWithTool(_ context.Context, _ []llm.Message, tool llm.Tool, forced string) (*llm.ToolCall, error) {
	s.gotTool = tool
	s.gotForced = forced
	return s.call, s.err
}

const validPersona = `{
	"name": "Priya Shah", "segment": "potential member", "age": 34, "gender": "Female",
	"family_status": "Single", "uk_party_affiliation": "Labour", "workplace": "Leeds depot",
	"job": "Driver", "busyness_level": "high", "major_issues_in_workplace": "Unpaid overtime",
	"personality_traits": "Direct", "emotional_conditions": "Sceptical after a bad grievance"
}`

const validFeedback = `{
	"score": 3,
	"summary": "Friendly opening, weak close.",
	"strengths": [{"title": "Rapport", "description": "Asked about her shift."}],
	"areas_for_improvement": [{"title": "Ask", "description": "Never asked her to join."}]
}`

func TestPersonaContractTool(t *testing.T) {
	tool := Persona.Tool()

	assert.Equal(t, "generate_persona", tool.Name)
	require.NotNil(t, tool.Parameters)
	assert.Equal(t, []string{
		"name", "segment", "age", "gender", "family_status", "uk_party_affiliation", "workplace",
		"job", "busyness_level", "major_issues_in_workplace", "personality_traits", "emotional_conditions",
	}, tool.Parameters.Required)
	assert.Equal(t, []string{"low", "medium", "high"}, tool.Parameters.Properties["busyness_level"].Enum)
	assert.Equal(t, TypeNumber, tool.Parameters.Properties["age"].Type)
}

func TestFeedbackContractTool(t *testing.T) {
	tool := Feedback.Tool()

	strengths := tool.Parameters.Properties["strengths"]
	require.NotNil(t, strengths.Items)
	assert.Equal(t, TypeArray, strengths.Type)
	assert.Equal(t, []string{"title", "description"}, strengths.Items.Required)
}

func TestInvokePersona(t *testing.T) {
	stub := &toolStub{call: &llm.ToolCall{Name: "generate_persona", Arguments: validPersona}}

	p, err := Invoke[models.Persona](context.Background(), stub, Persona, []llm.Message{{Role: "user", Content: "go"}})
	require.NoError(t, err)

	assert.Equal(t, "generate_persona", stub.gotForced)
	assert.Equal(t, "Priya Shah", p.Name)
	assert.Equal(t, 34, p.Age)
	assert.Equal(t, "high", p.BusynessLevel)
	assert.Equal(t, "Labour", p.UKPartyAffiliation)
}

func TestInvokeAcceptsFloatAge(t *testing.T) {
	// Some providers spell whole numbers as 52.0.
	args := strings.Replace(validPersona, `"age": 34`, `"age": 52.0`, 1)
	stub := &toolStub{call: &llm.ToolCall{Name: "generate_persona", Arguments: args}}

	p, err := Invoke[models.Persona](context.Background(), stub, Persona, nil)
	require.NoError(t, err)
	assert.Equal(t, 52, p.Age)
}

func TestInvokeMalformedOutput(t *testing.T) {
	tests := []struct {
		name string
		call *llm.ToolCall
	}{
		{"no tool call", nil},
		{"wrong tool", &llm.ToolCall{Name: "something_else", Arguments: validPersona}},
		{"empty arguments", &llm.ToolCall{Name: "generate_persona", Arguments: "  "}},
		{"not json", &llm.ToolCall{Name: "generate_persona", Arguments: "name: Priya"}},
		{"json array", &llm.ToolCall{Name: "generate_persona", Arguments: "[1,2]"}},
		{"json null", &llm.ToolCall{Name: "generate_persona", Arguments: "null"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &toolStub{call: tt.call}
			p, err := Invoke[models.Persona](context.Background(), stub, Persona, nil)

			assert.Nil(t, p)
			require.Error(t, err)
			assert.True(t, apperr.IsMalformedModelOutput(err), "got %v", err)
		})
	}
}

func TestInvokeUpstreamFailure(t *testing.T) {
	stub := &toolStub{err: context.DeadlineExceeded}

	_, err := Invoke[models.Persona](context.Background(), stub, Persona, nil)
	require.Error(t, err)
	assert.True(t, apperr.IsUpstreamGeneration(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInvokeSchemaValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]any)
		problem string
	}{
		{"missing required", func(o map[string]any) { delete(o, "job") }, "job is required"},
		{"wrong type", func(o map[string]any) { o["age"] = "thirty" }, "age must be number, got string"},
		{"enum", func(o map[string]any) { o["busyness_level"] = "frantic" }, "busyness_level must be one of"},
		{"null required", func(o map[string]any) { o["name"] = nil }, "name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var obj map[string]any
			require.NoError(t, json.Unmarshal([]byte(validPersona), &obj))
			tt.mutate(obj)
			raw, _ := json.Marshal(obj)

			stub := &toolStub{call: &llm.ToolCall{Name: "generate_persona", Arguments: string(raw)}}
			_, err := Invoke[models.Persona](context.Background(), stub, Persona, nil)

			var sv *apperr.SchemaValidationError
			require.ErrorAs(t, err, &sv)
			assert.Contains(t, sv.Error(), tt.problem)
		})
	}
}

func TestFeedbackMissingAreasForImprovement(t *testing.T) {
	var obj map[string]any
	require.NoError(t, json.Unmarshal([]byte(validFeedback), &obj))
	delete(obj, "areas_for_improvement")
	raw, _ := json.Marshal(obj)

	stub := &toolStub{call: &llm.ToolCall{Name: "generate_feedback", Arguments: string(raw)}}
	_, err := Invoke[models.FeedbackResult](context.Background(), stub, Feedback, nil)

	require.Error(t, err)
	assert.True(t, apperr.IsSchemaValidation(err))
	assert.Contains(t, err.Error(), "areas_for_improvement is required")
}

func TestFeedbackNestedItemsAndRange(t *testing.T) {
	stub := &toolStub{call: &llm.ToolCall{Name: "generate_feedback", Arguments: `{
		"score": 7, "summary": "s",
		"strengths": [{"title": "t"}],
		"areas_for_improvement": ["plain string"]
	}`}}

	_, err := Invoke[models.FeedbackResult](context.Background(), stub, Feedback, nil)

	var sv *apperr.SchemaValidationError
	require.ErrorAs(t, err, &sv)
	assert.Contains(t, sv.Problems, "score must be at most 5, got 7")
	assert.Contains(t, sv.Problems, "strengths[0].description is required")
	assert.Contains(t, sv.Problems, "areas_for_improvement[0] must be object, got string")
}

func TestFeedbackRoundTrip(t *testing.T) {
	stub := &toolStub{call: &llm.ToolCall{Name: "generate_feedback", Arguments: validFeedback}}

	fb, err := Invoke[models.FeedbackResult](context.Background(), stub, Feedback, nil)
	require.NoError(t, err)

	want := models.FeedbackResult{
		Score:               3,
		Summary:             "Friendly opening, weak close.",
		Strengths:           []models.FeedbackItem{{Title: "Rapport", Description: "Asked about her shift."}},
		AreasForImprovement: []models.FeedbackItem{{Title: "Ask", Description: "Never asked her to join."}},
	}
	if diff := cmp.Diff(want, *fb); diff != "" {
		t.Fatalf("parsed feedback mismatch (-want +got):\n%s", diff)
	}

	// Serialize and parse again through the contract.
	raw, err := json.Marshal(fb)
	require.NoError(t, err)
	stub.call = &llm.ToolCall{Name: "generate_feedback", Arguments: string(raw)}

	again, err := Invoke[models.FeedbackResult](context.Background(), stub, Feedback, nil)
	require.NoError(t, err)
	if diff := cmp.Diff(*fb, *again); diff != "" {
		t.Fatalf("round trip mismatch (-first +second):\n%s", diff)
	}
}
