package prompt

import (
	"fmt"
	"strings"

	"github.com/calebchiang/repcoach_server/logger"
	"github.com/calebchiang/repcoach_server/models"
)

type Composer struct {
	log *logger.Logger
}

func NewComposer(log *logger.Logger) *Composer {
	return &Composer{log: log.Component("composer")}
}

// ComposeSystemPrompt renders raw with scenario and persona values. Scenario
// title and description, persona gender and family status are lower-cased so
// they read naturally mid-sentence. Any failure is logged and the raw template
// is returned instead.
func (c *Composer) ComposeSystemPrompt(persona *models.Persona, scenario *models.Scenario, raw string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("system prompt composition failed, using raw template")
			out = raw
		}
	}()

	if persona == nil || scenario == nil {
		c.log.Warn().
			Bool("persona", persona != nil).
			Bool("scenario", scenario != nil).
			Msg("composing without full context, using raw template")
		return raw
	}

	return Render(raw, Values(persona, scenario))
}

// Values flattens a scenario and persona into the placeholder record. Keys are
// offered in snake_case and camelCase since templates are hand-written.
func Values(persona *models.Persona, scenario *models.Scenario) map[string]any {
	objectives := scenario.ObjectiveTexts()
	bullets := make([]string, len(objectives))
	for i, o := range objectives {
		bullets[i] = "- " + o
	}

	v := map[string]any{
		"title":       strings.ToLower(scenario.Title),
		"description": strings.ToLower(scenario.Description),
		"context":     scenario.Context,
		"objectives":  strings.Join(bullets, "\n"),

		"name":                      persona.Name,
		"segment":                   persona.Segment,
		"age":                       persona.Age,
		"gender":                    strings.ToLower(persona.Gender),
		"family_status":             strings.ToLower(persona.FamilyStatus),
		"uk_party_affiliation":      persona.UKPartyAffiliation,
		"workplace":                 persona.Workplace,
		"job":                       persona.Job,
		"busyness_level":            persona.BusynessLevel,
		"major_issues_in_workplace": persona.MajorIssuesInWorkplace,
		"personality_traits":        persona.PersonalityTraits,
		"emotional_conditions":      persona.EmotionalConditions,
	}

	for _, key := range []string{
		"family_status", "uk_party_affiliation", "busyness_level",
		"major_issues_in_workplace", "personality_traits", "emotional_conditions",
	} {
		v[camel(key)] = v[key]
	}

	return v
}

func camel(snake string) string {
	parts := strings.Split(snake, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// TurnAnnotation grounds the model in how far the conversation has got.
func TurnAnnotation(turn int) string {
	return fmt.Sprintf("This is turn %d of the conversation.", turn)
}
