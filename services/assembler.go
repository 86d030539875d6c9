package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/calebchiang/repcoach_server/apperr"
	"github.com/calebchiang/repcoach_server/logger"
	"github.com/calebchiang/repcoach_server/models"
	"github.com/calebchiang/repcoach_server/prompt"
)

// ConversationContext is everything needed to compose a system prompt for a
// conversation.
type ConversationContext struct {
	Conversation   *models.Conversation
	Scenario       *models.Scenario
	Persona        *models.Persona
	SystemTemplate string
}

type ContextAssembler struct {
	store Store
	opts  Options
	log   *logger.Logger
}

func NewContextAssembler(store Store, opts Options, log *logger.Logger) *ContextAssembler {
	return &ContextAssembler{store: store, opts: opts.withDefaults(), log: log.Component("assembler")}
}

// GetContext reads the conversation, then fetches its scenario, persona and
// system template concurrently. It never writes.
func (a *ContextAssembler) GetContext(ctx context.Context, conversationID string) (*ConversationContext, error) {
	conv, err := a.store.GetConversationMeta(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	out := &ConversationContext{Conversation: conv}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		scenario, err := a.store.GetScenario(gctx, conv.ScenarioID)
		out.Scenario = scenario
		return err
	})
	g.Go(func() error {
		persona, err := a.store.GetPersona(gctx, conv.PersonaID)
		out.Persona = persona
		return err
	})
	g.Go(func() error {
		tmpl, err := a.systemTemplate(gctx, conv)
		if err != nil {
			return err
		}
		out.SystemTemplate = tmpl.Content
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// systemTemplate prefers the template recorded on the conversation, then the
// usual scope fallback.
func (a *ContextAssembler) systemTemplate(ctx context.Context, conv *models.Conversation) (*models.PromptTemplate, error) {
	if conv.SystemPromptID != "" {
		tmpl, err := a.store.GetPromptTemplateByID(ctx, conv.SystemPromptID)
		if err == nil {
			return tmpl, nil
		}
		if !apperr.IsNotFound(err) {
			return nil, err
		}
		a.log.Warn().
			Str("conversation_id", conv.ID).
			Str("template_id", conv.SystemPromptID).
			Msg("recorded system template is gone, falling back")
	}
	return a.ResolveTemplate(ctx, models.PromptKindSystem, conv.PersonaID, conv.ScenarioID)
}

// ResolveTemplate returns the first template of kind found for the given
// scopes, then the default scope, then the built-in text. The built-in
// fallback has an empty ID.
func (a *ContextAssembler) ResolveTemplate(ctx context.Context, kind string, scopes ...string) (*models.PromptTemplate, error) {
	scopes = append(scopes, a.opts.DefaultScope)
	for _, scope := range scopes {
		if scope == "" {
			continue
		}
		tmpl, err := a.store.GetPromptTemplate(ctx, kind, scope)
		if err == nil {
			return tmpl, nil
		}
		if !apperr.IsNotFound(err) {
			return nil, err
		}
	}

	a.log.Warn().Str("kind", kind).Msg("no stored template, using built-in")
	return &models.PromptTemplate{Kind: kind, ScopeID: a.opts.DefaultScope, Content: builtinTemplate(kind)}, nil
}

func builtinTemplate(kind string) string {
	switch kind {
	case models.PromptKindPersona:
		return prompt.GenericPersona
	case models.PromptKindFeedback:
		return prompt.DefaultFeedback
	default:
		return prompt.DefaultSystem
	}
}
