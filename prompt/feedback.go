package prompt

import (
	"fmt"
	"strings"

	"github.com/calebchiang/repcoach_server/models"
)

// Transcript renders messages as "role: content" lines in the order given.
// Callers pass messages already sorted by creation time.
func Transcript(messages []models.Message) string {
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = fmt.Sprintf("%s: %s", m.Role, m.Content)
	}
	return strings.Join(lines, "\n")
}

// FeedbackPrompt concatenates the feedback template, scenario, persona summary
// and transcript. Section order and labels are fixed.
func FeedbackPrompt(template string, scenario *models.Scenario, persona *models.Persona, messages []models.Message) string {
	var b strings.Builder

	b.WriteString(template)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Scenario: %s\n", scenario.Title)
	fmt.Fprintf(&b, "Description: %s\n", scenario.Description)
	if objectives := scenario.ObjectiveTexts(); len(objectives) > 0 {
		b.WriteString("Objectives:\n")
		for _, o := range objectives {
			fmt.Fprintf(&b, "- %s\n", o)
		}
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Persona: %s, %d, %s\n", persona.Name, persona.Age, persona.Job)
	fmt.Fprintf(&b, "Personality traits: %s\n", persona.PersonalityTraits)
	fmt.Fprintf(&b, "Emotional conditions relevant to union support: %s\n", persona.EmotionalConditions)
	b.WriteString("\n")

	b.WriteString("Conversation:\n")
	b.WriteString(Transcript(messages))
	b.WriteString("\n\n")

	b.WriteString("Provide feedback based on the conversation above.")

	return b.String()
}
