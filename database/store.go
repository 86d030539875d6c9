package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/calebchiang/repcoach_server/apperr"
	"github.com/calebchiang/repcoach_server/logger"
	"github.com/calebchiang/repcoach_server/models"
)

// Store is the gorm-backed storage collaborator. Every failure is returned as
// apperr.StorageError, missing rows as apperr.NotFoundError.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStore(db *gorm.DB, log *logger.Logger) *Store {
	return &Store{db: db, log: log}
}

func (s *Store) fail(op string, err error) error {
	s.log.DbLogger(op).Error().Err(err).Msg("storage operation failed")
	return &apperr.StorageError{Op: op, Err: err}
}

func (s *Store) lookup(op, entity, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperr.NotFoundError{Entity: entity, ID: id}
	}
	return s.fail(op, err)
}

func orderedObjectives(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func orderedMessages(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

// ========== Scenarios ==========

func (s *Store) GetScenario(ctx context.Context, id string) (*models.Scenario, error) {
	var scenario models.Scenario
	err := s.db.WithContext(ctx).
		Preload("Objectives", orderedObjectives).
		First(&scenario, "id = ?", id).Error
	if err != nil {
		return nil, s.lookup("get_scenario", "scenario", id, err)
	}
	return &scenario, nil
}

func (s *Store) ListScenarios(ctx context.Context) ([]models.Scenario, error) {
	var scenarios []models.Scenario
	err := s.db.WithContext(ctx).
		Preload("Objectives", orderedObjectives).
		Order("title ASC").
		Find(&scenarios).Error
	if err != nil {
		return nil, s.fail("list_scenarios", err)
	}
	return scenarios, nil
}

// SaveScenario inserts or updates the scenario and replaces its objectives in
// one transaction.
func (s *Store) SaveScenario(ctx context.Context, scenario *models.Scenario, objectives []string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.Scenario{
			ID:          scenario.ID,
			Title:       scenario.Title,
			Description: scenario.Description,
			Context:     scenario.Context,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "context"}),
		}).Omit("Objectives").Create(&row).Error
		if err != nil {
			return err
		}

		scenario.Objectives, err = replaceObjectives(tx, scenario.ID, objectives)
		return err
	})
	if err != nil {
		return s.fail("save_scenario", err)
	}
	return nil
}

// ReplaceObjectives deletes the scenario's objectives and inserts the new list.
func (s *Store) ReplaceObjectives(ctx context.Context, scenarioID string, objectives []string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Scenario{}, "id = ?", scenarioID).Error; err != nil {
			return err
		}
		_, err := replaceObjectives(tx, scenarioID, objectives)
		return err
	})
	if err != nil {
		return s.lookup("replace_objectives", "scenario", scenarioID, err)
	}
	return nil
}

func replaceObjectives(tx *gorm.DB, scenarioID string, texts []string) ([]models.Objective, error) {
	if err := tx.Where("scenario_id = ?", scenarioID).Delete(&models.Objective{}).Error; err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}

	rows := make([]models.Objective, len(texts))
	for i, text := range texts {
		rows[i] = models.Objective{ScenarioID: scenarioID, Position: i, Text: text}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteScenario removes the objectives first, then the scenario. Scenarios
// still referenced by conversations are refused by the foreign key.
func (s *Store) DeleteScenario(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scenario_id = ?", id).Delete(&models.Objective{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Scenario{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return s.lookup("delete_scenario", "scenario", id, err)
	}
	return nil
}

// ========== Personas ==========

func (s *Store) GetPersona(ctx context.Context, id string) (*models.Persona, error) {
	var persona models.Persona
	if err := s.db.WithContext(ctx).First(&persona, "id = ?", id).Error; err != nil {
		return nil, s.lookup("get_persona", "persona", id, err)
	}
	return &persona, nil
}

var personaColumns = []string{
	"name", "segment", "age", "gender", "family_status", "uk_party_affiliation",
	"workplace", "job", "busyness_level", "major_issues_in_workplace",
	"personality_traits", "emotional_conditions", "updated_at",
}

// UpsertPersona inserts the persona or replaces every field of the existing
// row with the same id.
func (s *Store) UpsertPersona(ctx context.Context, persona *models.Persona) error {
	if persona.ID == "" {
		return s.fail("upsert_persona", errors.New("persona id is empty"))
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(personaColumns),
	}).Create(persona).Error
	if err != nil {
		return s.fail("upsert_persona", err)
	}
	return nil
}

// ========== Conversations ==========

func (s *Store) InsertConversation(ctx context.Context, conv *models.Conversation) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(conv).Error; err != nil {
		return s.fail("insert_conversation", err)
	}
	return nil
}

func (s *Store) GetConversationMeta(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.db.WithContext(ctx).First(&conv, "id = ?", id).Error; err != nil {
		return nil, s.lookup("get_conversation", "conversation", id, err)
	}
	return &conv, nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, s.fail("list_conversations", err)
	}
	return convs, nil
}

// GetConversationWithRelations loads the conversation with its scenario
// (and objectives), persona and messages in ascending time order.
func (s *Store) GetConversationWithRelations(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.WithContext(ctx).
		Preload("Scenario").
		Preload("Scenario.Objectives", orderedObjectives).
		Preload("Persona").
		Preload("Messages", orderedMessages).
		First(&conv, "id = ?", id).Error
	if err != nil {
		return nil, s.lookup("get_conversation_with_relations", "conversation", id, err)
	}
	return &conv, nil
}

// ========== Messages ==========

func (s *Store) GetMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var msgs []models.Message
	err := orderedMessages(s.db.WithContext(ctx)).
		Where("conversation_id = ?", conversationID).
		Find(&msgs).Error
	if err != nil {
		return nil, s.fail("get_messages", err)
	}
	return msgs, nil
}

// InsertMessages appends messages to a conversation in a single transaction.
// Missing ids and timestamps are filled in; system messages are refused.
func (s *Store) InsertMessages(ctx context.Context, conversationID string, msgs []models.Message) error {
	for i := range msgs {
		switch msgs[i].Role {
		case models.RoleUser, models.RoleAssistant:
		default:
			return &apperr.StorageError{
				Op:        "insert_messages",
				Attempted: len(msgs),
				Err:       fmt.Errorf("role %q cannot be stored", msgs[i].Role),
			}
		}
		msgs[i].ConversationID = conversationID
		if msgs[i].ID == "" {
			msgs[i].ID = uuid.NewString()
		}
		if msgs[i].CreatedAt.IsZero() {
			msgs[i].CreatedAt = time.Now().UTC()
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Conversation{}, "id = ?", conversationID).Error; err != nil {
			return err
		}
		return tx.Create(&msgs).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperr.NotFoundError{Entity: "conversation", ID: conversationID}
	}
	if err != nil {
		s.log.DbLogger("insert_messages").Error().
			Err(err).
			Str("conversation_id", conversationID).
			Int("attempted", len(msgs)).
			Msg("message insert rolled back")
		// The transaction rolled back, so nothing was written.
		return &apperr.StorageError{Op: "insert_messages", Attempted: len(msgs), Err: err}
	}
	return nil
}

// ========== Prompt templates ==========

func (s *Store) GetPromptTemplate(ctx context.Context, kind, scopeID string) (*models.PromptTemplate, error) {
	var tmpl models.PromptTemplate
	err := s.db.WithContext(ctx).
		Where("kind = ? AND scope_id = ?", kind, scopeID).
		First(&tmpl).Error
	if err != nil {
		return nil, s.lookup("get_prompt_template", kind+" prompt template", scopeID, err)
	}
	return &tmpl, nil
}

func (s *Store) GetPromptTemplateByID(ctx context.Context, id string) (*models.PromptTemplate, error) {
	var tmpl models.PromptTemplate
	if err := s.db.WithContext(ctx).First(&tmpl, "id = ?", id).Error; err != nil {
		return nil, s.lookup("get_prompt_template", "prompt template", id, err)
	}
	return &tmpl, nil
}

// SavePromptTemplate edits the template for (kind, scope) in place, creating
// it when absent. New templates get the id "kind:scope".
func (s *Store) SavePromptTemplate(ctx context.Context, tmpl *models.PromptTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = tmpl.Kind + ":" + tmpl.ScopeID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}, {Name: "scope_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
		}).Create(tmpl).Error
		if err != nil {
			return err
		}
		// Reload so the caller sees the id of a pre-existing row.
		var stored models.PromptTemplate
		if err := tx.Where("kind = ? AND scope_id = ?", tmpl.Kind, tmpl.ScopeID).First(&stored).Error; err != nil {
			return err
		}
		*tmpl = stored
		return nil
	})
	if err != nil {
		return s.fail("save_prompt_template", err)
	}
	return nil
}

// EnsurePromptTemplate stores tmpl only when its (kind, scope) slot is empty.
// It reports whether a row was created.
func (s *Store) EnsurePromptTemplate(ctx context.Context, tmpl *models.PromptTemplate) (bool, error) {
	if tmpl.ID == "" {
		tmpl.ID = tmpl.Kind + ":" + tmpl.ScopeID
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(tmpl)
	if res.Error != nil {
		return false, s.fail("ensure_prompt_template", res.Error)
	}
	return res.RowsAffected > 0, nil
}
