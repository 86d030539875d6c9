package models

import "time"

// Conversation links a user to the scenario, persona and prompt templates a
// training chat was started with. It is never updated after creation.
type Conversation struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID           string    `gorm:"type:varchar(255);not null;index" json:"user_id"`
	ScenarioID       string    `gorm:"type:varchar(255);not null;index" json:"scenario_id"`
	PersonaID        string    `gorm:"type:varchar(255);not null;index" json:"persona_id"`
	SystemPromptID   string    `gorm:"type:varchar(255)" json:"system_prompt_id"`
	FeedbackPromptID string    `gorm:"type:varchar(255)" json:"feedback_prompt_id"`
	CreatedAt        time.Time `json:"created_at"`

	Scenario *Scenario `gorm:"foreignKey:ScenarioID;constraint:OnDelete:RESTRICT" json:"scenario,omitempty"`
	Persona  *Persona  `gorm:"foreignKey:PersonaID;constraint:OnDelete:RESTRICT" json:"persona,omitempty"`
	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	// RoleSystem only appears on outbound LLM requests, never in storage.
	RoleSystem = "system"
)

// Message is one stored turn. Messages are append-only and ordered by
// CreatedAt within their conversation.
type Message struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ConversationID string    `gorm:"type:varchar(36);not null;index:idx_messages_conversation_created,priority:1" json:"conversation_id"`
	Role           string    `gorm:"type:varchar(20);not null" json:"role"` // user | assistant
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_created,priority:2" json:"created_at"`
}
