package models

import "time"

const (
	PromptKindSystem   = "system"
	PromptKindPersona  = "persona"
	PromptKindFeedback = "feedback"

	// DefaultScope marks the scenario-independent template of a kind.
	DefaultScope = "default"
)

// PromptTemplate holds raw template text with {{name}} placeholders. ScopeID is
// a scenario id, a persona id, or DefaultScope.
type PromptTemplate struct {
	ID        string    `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Kind      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_prompt_kind_scope,priority:1" json:"kind"`
	ScopeID   string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_prompt_kind_scope,priority:2" json:"scope_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ValidPromptKind(kind string) bool {
	switch kind {
	case PromptKindSystem, PromptKindPersona, PromptKindFeedback:
		return true
	}
	return false
}
