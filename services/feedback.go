package services

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/calebchiang/repcoach_server/apperr"
	"github.com/calebchiang/repcoach_server/extract"
	"github.com/calebchiang/repcoach_server/llm"
	"github.com/calebchiang/repcoach_server/logger"
	"github.com/calebchiang/repcoach_server/metrics"
	"github.com/calebchiang/repcoach_server/models"
	"github.com/calebchiang/repcoach_server/prompt"
)

// FeedbackGenerator scores a finished conversation. Results are computed on
// demand and never stored.
type FeedbackGenerator struct {
	store   Store
	llm     llm.Client
	metrics *metrics.Metrics
	opts    Options
	log     *logger.Logger
}

func NewFeedbackGenerator(store Store, client llm.Client, m *metrics.Metrics, opts Options, log *logger.Logger) *FeedbackGenerator {
	return &FeedbackGenerator{
		store:   store,
		llm:     client,
		metrics: m,
		opts:    opts.withDefaults(),
		log:     log.Component("feedback_generator"),
	}
}

// Generate builds the feedback prompt from the global feedback template and
// the conversation transcript. Every failure is returned as is.
func (f *FeedbackGenerator) Generate(ctx context.Context, conversationID string) (*models.FeedbackResult, error) {
	var (
		conv *models.Conversation
		tmpl *models.PromptTemplate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		conv, err = f.store.GetConversationWithRelations(gctx, conversationID)
		return err
	})
	g.Go(func() error {
		var err error
		tmpl, err = f.store.GetPromptTemplate(gctx, models.PromptKindFeedback, f.opts.DefaultScope)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := checkFeedbackInputs(conv, tmpl); err != nil {
		return nil, err
	}

	content := prompt.FeedbackPrompt(tmpl.Content, conv.Scenario, conv.Persona, conv.Messages)

	ctx, cancel := f.opts.llmContext(ctx)
	defer cancel()

	result, err := extract.Invoke[models.FeedbackResult](ctx, f.llm, extract.Feedback, []llm.Message{
		{Role: models.RoleUser, Content: content},
	})
	if err != nil {
		recordExtractionFailure(f.metrics, extract.Feedback.Name, err)
		f.log.Error().Err(err).Str("conversation_id", conversationID).Msg("feedback generation failed")
		return nil, err
	}

	f.log.Info().
		Str("conversation_id", conversationID).
		Float64("score", result.Score).
		Int("messages", len(conv.Messages)).
		Msg("feedback generated")
	return result, nil
}

func checkFeedbackInputs(conv *models.Conversation, tmpl *models.PromptTemplate) error {
	if conv.Scenario == nil {
		return &apperr.NotFoundError{Entity: "scenario", ID: conv.ScenarioID}
	}
	if conv.Persona == nil {
		return &apperr.NotFoundError{Entity: "persona", ID: conv.PersonaID}
	}

	var problems []string
	if strings.TrimSpace(tmpl.Content) == "" {
		problems = append(problems, "content is required")
	}
	if tmpl.Kind != models.PromptKindFeedback {
		problems = append(problems, "kind must be "+models.PromptKindFeedback+", got "+tmpl.Kind)
	}
	if len(problems) > 0 {
		return &apperr.SchemaValidationError{Contract: "feedback_template", Problems: problems}
	}
	return nil
}
