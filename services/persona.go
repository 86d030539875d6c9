package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/calebchiang/repcoach_server/apperr"
	"github.com/calebchiang/repcoach_server/extract"
	"github.com/calebchiang/repcoach_server/llm"
	"github.com/calebchiang/repcoach_server/logger"
	"github.com/calebchiang/repcoach_server/metrics"
	"github.com/calebchiang/repcoach_server/models"
)

type PersonaGenerator struct {
	assembler *ContextAssembler
	llm       llm.Client
	metrics   *metrics.Metrics
	opts      Options
	log       *logger.Logger
}

func NewPersonaGenerator(assembler *ContextAssembler, client llm.Client, m *metrics.Metrics, opts Options, log *logger.Logger) *PersonaGenerator {
	return &PersonaGenerator{
		assembler: assembler,
		llm:       client,
		metrics:   m,
		opts:      opts.withDefaults(),
		log:       log.Component("persona_generator"),
	}
}

// Generate invents a persona. The returned persona always carries a fresh
// id, whatever the model put in its output. It is not stored.
func (g *PersonaGenerator) Generate(ctx context.Context) (*models.Persona, error) {
	tmpl, err := g.assembler.ResolveTemplate(ctx, models.PromptKindPersona)
	if err != nil {
		return nil, err
	}

	ctx, cancel := g.opts.llmContext(ctx)
	defer cancel()

	persona, err := extract.Invoke[models.Persona](ctx, g.llm, extract.Persona, []llm.Message{
		{Role: models.RoleUser, Content: tmpl.Content},
	})
	if err != nil {
		recordExtractionFailure(g.metrics, extract.Persona.Name, err)
		g.log.Error().Err(err).Msg("persona generation failed")
		return nil, err
	}

	persona.ID = uuid.NewString()
	g.log.Info().Str("persona_id", persona.ID).Str("job", persona.Job).Msg("persona generated")
	return persona, nil
}

func recordExtractionFailure(m *metrics.Metrics, contract string, err error) {
	reason := "other"
	switch {
	case apperr.IsUpstreamGeneration(err):
		reason = "upstream"
	case apperr.IsMalformedModelOutput(err):
		reason = "malformed"
	case apperr.IsSchemaValidation(err):
		reason = "schema"
	}
	m.ExtractionFailures.WithLabelValues(contract, reason).Inc()
}
