package controllers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calebchiang/repcoach_server/apperr"
	"github.com/calebchiang/repcoach_server/logger"
	"github.com/calebchiang/repcoach_server/models"
	"github.com/calebchiang/repcoach_server/services"
)

type Conversations interface {
	CreateConversation(ctx context.Context, in services.CreateConversationInput) (*services.CreateConversationResult, error)
	PostMessage(ctx context.Context, conversationID, content string) (string, error)
}

type PersonaGenerator interface {
	Generate(ctx context.Context) (*models.Persona, error)
}

type FeedbackGenerator interface {
	Generate(ctx context.Context, conversationID string) (*models.FeedbackResult, error)
}

type VoiceTurns interface {
	PostAudio(ctx context.Context, conversationID string, audio *multipart.FileHeader) (*services.VoiceReply, error)
}

// Store is the read and admin side of storage used directly by handlers.
type Store interface {
	GetScenario(ctx context.Context, id string) (*models.Scenario, error)
	ListScenarios(ctx context.Context) ([]models.Scenario, error)
	SaveScenario(ctx context.Context, scenario *models.Scenario, objectives []string) error
	ReplaceObjectives(ctx context.Context, scenarioID string, objectives []string) error
	DeleteScenario(ctx context.Context, id string) error

	GetPersona(ctx context.Context, id string) (*models.Persona, error)
	UpsertPersona(ctx context.Context, persona *models.Persona) error

	GetConversationMeta(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	GetMessages(ctx context.Context, conversationID string) ([]models.Message, error)

	GetPromptTemplate(ctx context.Context, kind, scopeID string) (*models.PromptTemplate, error)
	SavePromptTemplate(ctx context.Context, tmpl *models.PromptTemplate) error
}

// Controller holds the gin handlers. Voice is nil when spoken turns are
// disabled. DefaultScope is where prompt templates without a scope are read
// and written; it must match the services' scope.
type Controller struct {
	Conversations Conversations
	Personas      PersonaGenerator
	Feedback      FeedbackGenerator
	Voice         VoiceTurns
	Store         Store
	DefaultScope  string
	Log           *logger.Logger
}

func (ctl *Controller) defaultScope() string {
	if ctl.DefaultScope == "" {
		return models.DefaultScope
	}
	return ctl.DefaultScope
}

// respondError maps the error taxonomy onto HTTP statuses.
func (ctl *Controller) respondError(c *gin.Context, err error) {
	var (
		status = http.StatusInternalServerError
		msg    = "Internal server error"
	)

	switch {
	case apperr.IsNotFound(err):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrEmptyMessage):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrEmptyTranscript):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case apperr.IsSchemaValidation(err), apperr.IsMalformedModelOutput(err):
		status, msg = http.StatusBadGateway, err.Error()
	case apperr.IsUpstreamGeneration(err):
		status, msg = http.StatusBadGateway, "Language model unavailable, try again"
	case apperr.IsStorage(err):
		msg = "Storage failure"
	}

	if status >= http.StatusInternalServerError {
		ctl.Log.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Int("status", status).
			Msg("request failed")
	}

	c.JSON(status, gin.H{"error": msg})
}
