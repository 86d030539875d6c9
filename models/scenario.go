package models

import (
	"encoding/json"
	"time"
)

// Scenario is a training situation. Objectives are replaced wholesale, never
// patched.
type Scenario struct {
	ID          string      `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Title       string      `gorm:"type:varchar(255);not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Context     string      `gorm:"type:text" json:"context"`
	Objectives  []Objective `gorm:"foreignKey:ScenarioID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
}

type Objective struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	ScenarioID string `gorm:"type:varchar(255);not null;index" json:"-"`
	Position   int    `gorm:"not null" json:"-"`
	Text       string `gorm:"type:text;not null" json:"text"`
}

// ObjectiveTexts returns the objectives in display order.
func (s Scenario) ObjectiveTexts() []string {
	out := make([]string, len(s.Objectives))
	for i, o := range s.Objectives {
		out[i] = o.Text
	}
	return out
}

// MarshalJSON flattens objectives to the ordered list of strings the API
// exposes.
func (s Scenario) MarshalJSON() ([]byte, error) {
	type scenario Scenario
	return json.Marshal(struct {
		scenario
		Objectives []string `json:"objectives"`
	}{scenario(s), s.ObjectiveTexts()})
}
