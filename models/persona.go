package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	BusynessLow    = "low"
	BusynessMedium = "medium"
	BusynessHigh   = "high"
)

// Persona is the fictional colleague the model plays. Personas are upserted
// by ID, never duplicated.
type Persona struct {
	ID                     string    `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Name                   string    `gorm:"type:varchar(255);not null" json:"name"`
	Segment                string    `gorm:"type:varchar(100)" json:"segment"`
	Age                    int       `gorm:"not null" json:"age"`
	Gender                 string    `gorm:"type:varchar(50)" json:"gender"`
	FamilyStatus           string    `gorm:"type:varchar(100)" json:"family_status"`
	UKPartyAffiliation     string    `gorm:"type:varchar(100)" json:"uk_party_affiliation"`
	Workplace              string    `gorm:"type:varchar(255)" json:"workplace"`
	Job                    string    `gorm:"type:varchar(255)" json:"job"`
	BusynessLevel          string    `gorm:"type:varchar(10)" json:"busyness_level"` // low | medium | high
	MajorIssuesInWorkplace string    `gorm:"type:text" json:"major_issues_in_workplace"`
	PersonalityTraits      string    `gorm:"type:text" json:"personality_traits"`
	EmotionalConditions    string    `gorm:"type:text" json:"emotional_conditions"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// DerivedID builds a stable identifier from name, job, age and gender for
// personas supplied without one.
func (p Persona) DerivedID() string {
	raw := fmt.Sprintf("%s-%s-%d-%s", p.Name, p.Job, p.Age, p.Gender)
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
