package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonaDerivedID(t *testing.T) {
	p := Persona{Name: "Sam O'Neill", Job: "Care Assistant", Age: 42, Gender: "Female"}
	assert.Equal(t, "sam-o-neill-care-assistant-42-female", p.DerivedID())

	// Same inputs, same identifier.
	assert.Equal(t, p.DerivedID(), Persona{Name: "sam o'neill", Job: "care assistant", Age: 42, Gender: "female"}.DerivedID())
}

func TestScenarioJSONFlattensObjectives(t *testing.T) {
	s := Scenario{
		ID:    "recruit",
		Title: "Recruiting a colleague",
		Objectives: []Objective{
			{Position: 0, Text: "Build rapport"},
			{Position: 1, Text: "Explain the benefits"},
		},
	}

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "recruit", decoded["id"])
	assert.Equal(t, []any{"Build rapport", "Explain the benefits"}, decoded["objectives"])
}

func TestValidPromptKind(t *testing.T) {
	assert.True(t, ValidPromptKind(PromptKindSystem))
	assert.True(t, ValidPromptKind(PromptKindFeedback))
	assert.False(t, ValidPromptKind("admin"))
}
