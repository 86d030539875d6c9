package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calebchiang/repcoach_server/apperr"
	"github.com/calebchiang/repcoach_server/llm"
	"github.com/calebchiang/repcoach_server/logger"
	"github.com/calebchiang/repcoach_server/metrics"
	"github.com/calebchiang/repcoach_server/models"
	"github.com/calebchiang/repcoach_server/prompt"
)

// ErrEmptyMessage is returned for blank user turns.
var ErrEmptyMessage = errors.New("message content is empty")

// Pipeline runs conversation turns: compose, complete, persist.
type Pipeline struct {
	store     Store
	assembler *ContextAssembler
	composer  *prompt.Composer
	llm       llm.Client
	metrics   *metrics.Metrics
	opts      Options
	log       *logger.Logger

	now func() time.Time
}

func NewPipeline(store Store, assembler *ContextAssembler, client llm.Client, m *metrics.Metrics, opts Options, log *logger.Logger) *Pipeline {
	log = log.Component("pipeline")
	return &Pipeline{
		store:     store,
		assembler: assembler,
		composer:  prompt.NewComposer(log),
		llm:       client,
		metrics:   m,
		opts:      opts.withDefaults(),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PostMessage answers one user turn. The user message and the reply are
// stored together, and only once the model has answered; an LLM failure
// leaves the conversation untouched.
func (p *Pipeline) PostMessage(ctx context.Context, conversationID, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyMessage
	}

	cc, err := p.assembler.GetContext(ctx, conversationID)
	if err != nil {
		return "", err
	}

	history, err := p.store.GetMessages(ctx, conversationID)
	if err != nil {
		return "", err
	}

	system := p.composer.ComposeSystemPrompt(cc.Persona, cc.Scenario, cc.SystemTemplate) +
		"\n\n" + prompt.TurnAnnotation(len(history)+1)

	outbound := make([]llm.Message, 0, len(history)+2)
	outbound = append(outbound, llm.Message{Role: models.RoleSystem, Content: system})
	for _, m := range history {
		outbound = append(outbound, llm.Message{Role: m.Role, Content: m.Content})
	}
	outbound = append(outbound, llm.Message{Role: models.RoleUser, Content: content})

	userAt := p.now()
	reply, err := p.complete(ctx, outbound)
	if err != nil {
		p.log.Error().
			Err(err).
			Str("conversation_id", conversationID).
			Int("turn", len(history)+1).
			Msg("LLM call failed, nothing persisted")
		return "", err
	}

	replyAt := p.now()
	if !replyAt.After(userAt) {
		replyAt = userAt.Add(time.Millisecond)
	}

	pair := []models.Message{
		{ID: uuid.NewString(), Role: models.RoleUser, Content: content, CreatedAt: userAt},
		{ID: uuid.NewString(), Role: models.RoleAssistant, Content: reply, CreatedAt: replyAt},
	}
	if err := p.store.InsertMessages(ctx, conversationID, pair); err != nil {
		p.reportWriteFailure(conversationID, err)
		return "", err
	}

	p.metrics.MessagesPersistedTotal.Add(float64(len(pair)))
	return reply, nil
}

func (p *Pipeline) complete(ctx context.Context, messages []llm.Message) (string, error) {
	ctx, cancel := p.opts.llmContext(ctx)
	defer cancel()

	reply, err := p.llm.Complete(ctx, messages)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = llm.ErrEmptyCompletion
	}
	if err != nil {
		return "", &apperr.UpstreamGenerationError{Op: "complete", Err: err}
	}
	return reply, nil
}

func (p *Pipeline) reportWriteFailure(conversationID string, err error) {
	var se *apperr.StorageError
	if errors.As(err, &se) && se.Partial() {
		p.metrics.PartialWritesTotal.Inc()
		p.log.Error().
			Err(err).
			Bool("consistency_hazard", true).
			Str("conversation_id", conversationID).
			Int("attempted", se.Attempted).
			Int("written", se.Written).
			Msg("message pair only partially stored")
		return
	}

	p.log.Error().
		Err(err).
		Str("conversation_id", conversationID).
		Msg("failed to store message pair")
}

// CreateConversationInput mirrors the createConversation request.
type CreateConversationInput struct {
	UserID         string
	ScenarioID     string
	Persona        models.Persona
	InitialMessage string
}

type CreateConversationResult struct {
	ConversationID string  `json:"conversation_id"`
	AssistantReply *string `json:"assistant_reply,omitempty"`
}

// CreateConversation stores the persona and a new conversation, then answers
// the optional opening message. If the model fails on that first turn the
// configured apology is returned as the reply and the conversation still
// exists; other failures are returned as errors.
func (p *Pipeline) CreateConversation(ctx context.Context, in CreateConversationInput) (*CreateConversationResult, error) {
	if _, err := p.store.GetScenario(ctx, in.ScenarioID); err != nil {
		return nil, err
	}

	persona := in.Persona
	if persona.ID == "" {
		persona.ID = persona.DerivedID()
	}
	if err := p.store.UpsertPersona(ctx, &persona); err != nil {
		return nil, err
	}

	system, err := p.assembler.ResolveTemplate(ctx, models.PromptKindSystem, persona.ID, in.ScenarioID)
	if err != nil {
		return nil, err
	}
	feedback, err := p.assembler.ResolveTemplate(ctx, models.PromptKindFeedback)
	if err != nil {
		return nil, err
	}

	conv := &models.Conversation{
		ID:               uuid.NewString(),
		UserID:           in.UserID,
		ScenarioID:       in.ScenarioID,
		PersonaID:        persona.ID,
		SystemPromptID:   system.ID,
		FeedbackPromptID: feedback.ID,
	}
	if err := p.store.InsertConversation(ctx, conv); err != nil {
		return nil, err
	}

	p.log.Info().
		Str("conversation_id", conv.ID).
		Str("scenario_id", conv.ScenarioID).
		Str("persona_id", conv.PersonaID).
		Msg("conversation created")

	result := &CreateConversationResult{ConversationID: conv.ID}
	if strings.TrimSpace(in.InitialMessage) == "" {
		return result, nil
	}

	reply, err := p.PostMessage(ctx, conv.ID, in.InitialMessage)
	if apperr.IsUpstreamGeneration(err) {
		p.metrics.ApologyRepliesTotal.Inc()
		p.log.Warn().
			Err(err).
			Str("conversation_id", conv.ID).
			Msg("opening turn failed, replying with apology")
		reply, err = p.opts.ApologyMessage, nil
	}
	if err != nil {
		return result, err
	}

	result.AssistantReply = &reply
	return result, nil
}
