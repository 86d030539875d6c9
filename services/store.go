package services

import (
	"context"
	"time"

	"github.com/calebchiang/repcoach_server/config"
	"github.com/calebchiang/repcoach_server/models"
)

// Store is the storage collaborator the services depend on. database.Store
// satisfies it; tests may substitute their own.
type Store interface {
	GetScenario(ctx context.Context, id string) (*models.Scenario, error)
	GetPersona(ctx context.Context, id string) (*models.Persona, error)
	UpsertPersona(ctx context.Context, persona *models.Persona) error
	InsertConversation(ctx context.Context, conv *models.Conversation) error
	GetConversationMeta(ctx context.Context, id string) (*models.Conversation, error)
	GetMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	InsertMessages(ctx context.Context, conversationID string, msgs []models.Message) error
	GetPromptTemplate(ctx context.Context, kind, scopeID string) (*models.PromptTemplate, error)
	GetPromptTemplateByID(ctx context.Context, id string) (*models.PromptTemplate, error)
	GetConversationWithRelations(ctx context.Context, id string) (*models.Conversation, error)
}

// Options are the operational knobs shared by the services.
type Options struct {
	// LLMTimeout bounds each LLM call. Zero means no limit.
	LLMTimeout     time.Duration
	ApologyMessage string
	DefaultScope   string
}

func (o Options) withDefaults() Options {
	if o.DefaultScope == "" {
		o.DefaultScope = models.DefaultScope
	}
	if o.ApologyMessage == "" {
		o.ApologyMessage = config.DefaultApology
	}
	return o
}

func (o Options) llmContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.LLMTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.LLMTimeout)
}
