package database

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/calebchiang/repcoach_server/extract"
	"github.com/calebchiang/repcoach_server/models"
)

// SeedFile is the YAML layout accepted by `repcoach seed`.
type SeedFile struct {
	Scenarios []SeedScenario `yaml:"scenarios"`
	Templates []SeedTemplate `yaml:"templates"`
	Personas  []SeedPersona  `yaml:"personas"`
}

type SeedScenario struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Context     string   `yaml:"context"`
	Objectives  []string `yaml:"objectives"`
}

type SeedTemplate struct {
	Kind    string `yaml:"kind"`
	Scope   string `yaml:"scope"`
	Content string `yaml:"content"`
}

type SeedPersona struct {
	ID                     string `yaml:"id"`
	Name                   string `yaml:"name"`
	Segment                string `yaml:"segment"`
	Age                    int    `yaml:"age"`
	Gender                 string `yaml:"gender"`
	FamilyStatus           string `yaml:"family_status"`
	UKPartyAffiliation     string `yaml:"uk_party_affiliation"`
	Workplace              string `yaml:"workplace"`
	Job                    string `yaml:"job"`
	BusynessLevel          string `yaml:"busyness_level"`
	MajorIssuesInWorkplace string `yaml:"major_issues_in_workplace"`
	PersonalityTraits      string `yaml:"personality_traits"`
	EmotionalConditions    string `yaml:"emotional_conditions"`
}

// LoadSeedFile reads and decodes a seed file from disk.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	if err := seed.validate(); err != nil {
		return nil, fmt.Errorf("invalid seed file %s: %w", path, err)
	}
	return &seed, nil
}

func (f *SeedFile) validate() error {
	for i, s := range f.Scenarios {
		if s.ID == "" || s.Title == "" {
			return fmt.Errorf("scenario %d needs an id and a title", i)
		}
	}
	for i, t := range f.Templates {
		if !models.ValidPromptKind(t.Kind) {
			return fmt.Errorf("template %d has unknown kind %q", i, t.Kind)
		}
		if t.Content == "" {
			return fmt.Errorf("template %d has no content", i)
		}
	}
	for i, p := range f.Personas {
		if problems := extract.Persona.Validate(p.contractFields()); len(problems) > 0 {
			return fmt.Errorf("persona %d (%s): %s", i, p.Name, strings.Join(problems, "; "))
		}
	}
	return nil
}

// Apply upserts everything in the seed file. Templates without a scope go to
// defaultScope. Running it twice leaves the database unchanged.
func (s *Store) Apply(ctx context.Context, seed *SeedFile, defaultScope string) error {
	if defaultScope == "" {
		defaultScope = models.DefaultScope
	}

	for _, sc := range seed.Scenarios {
		scenario := &models.Scenario{
			ID:          sc.ID,
			Title:       sc.Title,
			Description: sc.Description,
			Context:     sc.Context,
		}
		if err := s.SaveScenario(ctx, scenario, sc.Objectives); err != nil {
			return err
		}
	}

	for _, t := range seed.Templates {
		scope := t.Scope
		if scope == "" {
			scope = defaultScope
		}
		tmpl := &models.PromptTemplate{Kind: t.Kind, ScopeID: scope, Content: t.Content}
		if err := s.SavePromptTemplate(ctx, tmpl); err != nil {
			return err
		}
	}

	for _, sp := range seed.Personas {
		p := sp.persona()
		if p.ID == "" {
			p.ID = p.DerivedID()
		}
		if err := s.UpsertPersona(ctx, p); err != nil {
			return err
		}
	}

	s.log.Info().
		Int("scenarios", len(seed.Scenarios)).
		Int("templates", len(seed.Templates)).
		Int("personas", len(seed.Personas)).
		Str("default_scope", defaultScope).
		Msg("seed applied")
	return nil
}

func (sp SeedPersona) persona() *models.Persona {
	return &models.Persona{
		ID:                     sp.ID,
		Name:                   sp.Name,
		Segment:                sp.Segment,
		Age:                    sp.Age,
		Gender:                 sp.Gender,
		FamilyStatus:           sp.FamilyStatus,
		UKPartyAffiliation:     sp.UKPartyAffiliation,
		Workplace:              sp.Workplace,
		Job:                    sp.Job,
		BusynessLevel:          sp.BusynessLevel,
		MajorIssuesInWorkplace: sp.MajorIssuesInWorkplace,
		PersonalityTraits:      sp.PersonalityTraits,
		EmotionalConditions:    sp.EmotionalConditions,
	}
}

// contractFields lays the persona out the way the model would send it, leaving
// out blank fields so they count as missing.
func (sp SeedPersona) contractFields() map[string]any {
	fields := map[string]any{}
	for key, v := range map[string]string{
		"name":                      sp.Name,
		"segment":                   sp.Segment,
		"gender":                    sp.Gender,
		"family_status":             sp.FamilyStatus,
		"uk_party_affiliation":      sp.UKPartyAffiliation,
		"workplace":                 sp.Workplace,
		"job":                       sp.Job,
		"busyness_level":            sp.BusynessLevel,
		"major_issues_in_workplace": sp.MajorIssuesInWorkplace,
		"personality_traits":        sp.PersonalityTraits,
		"emotional_conditions":      sp.EmotionalConditions,
	} {
		if strings.TrimSpace(v) != "" {
			fields[key] = v
		}
	}
	if sp.Age != 0 {
		fields["age"] = float64(sp.Age)
	}
	return fields
}
