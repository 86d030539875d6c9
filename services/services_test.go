package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/calebchiang/repcoach_server/apperr"
	"github.com/calebchiang/repcoach_server/config"
	"github.com/calebchiang/repcoach_server/database"
	"github.com/calebchiang/repcoach_server/llm"
	"github.com/calebchiang/repcoach_server/logger"
	"github.com/calebchiang/repcoach_server/metrics"
	"github.com/calebchiang/repcoach_server/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

const apology = "Sorry, say that again?"

type stubLLM struct {
	mu    sync.Mutex
	reply string
	err   error
	call  *llm.ToolCall
	block bool
	seen  [][]llm.Message
}

func (s *stubLLM) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	s.mu.Lock()
	s.seen = append(s.seen, messages)
	block, reply, err := s.block, s.reply, s.err
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply, err
}

func (s *stubLLM) CompleteWithTool(_ context.Context, messages []llm.Message, _ llm.Tool, _ string) (*llm.ToolCall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, messages)
	return s.call, s.err
}

func (s *stubLLM) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *stubLLM) last() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[len(s.seen)-1]
}

type testEnv struct {
	store     *database.Store
	metrics   *metrics.Metrics
	assembler *ContextAssembler
	pipeline  *Pipeline
	llm       *stubLLM
	opts      Options
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Connect("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared&_foreign_keys=1", logger.Nop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := logger.Nop()
	store := database.NewStore(db, log)
	m := metrics.New()
	stub := &stubLLM{reply: "Hiya, what's this about?"}
	opts := Options{LLMTimeout: time.Second, ApologyMessage: apology, DefaultScope: models.DefaultScope}
	assembler := NewContextAssembler(store, opts, log)

	require.NoError(t, store.SaveScenario(context.Background(), &models.Scenario{
		ID:          "joining",
		Title:       "Joining THE Union",
		Description: "A New Starter On Nights",
	}, []string{"Explain what the union does", "Ask them to join"}))

	return &testEnv{
		store:     store,
		metrics:   m,
		assembler: assembler,
		pipeline:  NewPipeline(store, assembler, stub, m, opts, log),
		llm:       stub,
		opts:      opts,
	}
}

func testPersona() models.Persona {
	return models.Persona{
		Name:                "Dana Okafor",
		Age:                 41,
		Gender:              "Female",
		FamilyStatus:        "Married, Two Kids",
		Workplace:           "Central Hospital",
		Job:                 "Porter",
		BusynessLevel:       models.BusynessHigh,
		PersonalityTraits:   "Warm but guarded",
		EmotionalConditions: "Wary after a union rep ignored her grievance",
	}
}

func (e *testEnv) startConversation(t *testing.T, opening string) string {
	t.Helper()
	res, err := e.pipeline.CreateConversation(context.Background(), CreateConversationInput{
		UserID:         "rep-1",
		ScenarioID:     "joining",
		Persona:        testPersona(),
		InitialMessage: opening,
	})
	require.NoError(t, err)
	return res.ConversationID
}

func (e *testEnv) messageCount(t *testing.T, conversationID string) int {
	t.Helper()
	msgs, err := e.store.GetMessages(context.Background(), conversationID)
	require.NoError(t, err)
	return len(msgs)
}

func TestCreateConversationDegradesToApology(t *testing.T) {
	env := newTestEnv(t)
	env.llm.fail(errors.New("provider down"))

	res, err := env.pipeline.CreateConversation(context.Background(), CreateConversationInput{
		UserID:         "rep-1",
		ScenarioID:     "joining",
		Persona:        testPersona(),
		InitialMessage: "Hi",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ConversationID)
	require.NotNil(t, res.AssistantReply)
	assert.Equal(t, apology, *res.AssistantReply)
	assert.Equal(t, 0, env.messageCount(t, res.ConversationID))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ApologyRepliesTotal))

	// The conversation itself exists.
	_, err = env.store.GetConversationMeta(context.Background(), res.ConversationID)
	assert.NoError(t, err)
}

func TestCreateConversationWithoutOpening(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.pipeline.CreateConversation(context.Background(), CreateConversationInput{
		UserID:     "rep-1",
		ScenarioID: "joining",
		Persona:    testPersona(),
	})
	require.NoError(t, err)
	assert.Nil(t, res.AssistantReply)
	assert.Equal(t, 0, env.messageCount(t, res.ConversationID))

	conv, err := env.store.GetConversationMeta(context.Background(), res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "dana-okafor-porter-41-female", conv.PersonaID)
}

func TestCreateConversationUnknownScenario(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.pipeline.CreateConversation(context.Background(), CreateConversationInput{
		UserID:     "rep-1",
		ScenarioID: "nope",
		Persona:    testPersona(),
	})
	assert.True(t, apperr.IsNotFound(err))
}

func TestPostMessageMidConversationFailure(t *testing.T) {
	env := newTestEnv(t)
	convID := env.startConversation(t, "Hi")
	require.Equal(t, 2, env.messageCount(t, convID))

	env.llm.fail(errors.New("provider down"))
	reply, err := env.pipeline.PostMessage(context.Background(), convID, "follow up")

	assert.Empty(t, reply)
	assert.True(t, apperr.IsUpstreamGeneration(err), "got %v", err)
	assert.Equal(t, 2, env.messageCount(t, convID))
}

func TestPostMessageBuildsOutboundList(t *testing.T) {
	env := newTestEnv(t)
	convID := env.startConversation(t, "Hi")

	reply, err := env.pipeline.PostMessage(context.Background(), convID, "Have you got a minute?")
	require.NoError(t, err)
	assert.Equal(t, "Hiya, what's this about?", reply)

	sent := env.llm.last()
	require.Len(t, sent, 4)

	assert.Equal(t, models.RoleSystem, sent[0].Role)
	assert.Contains(t, sent[0].Content, "speaking to you about joining the union")
	assert.Contains(t, sent[0].Content, "married, two kids")
	assert.True(t, strings.HasSuffix(sent[0].Content, "This is turn 3 of the conversation."))

	assert.Equal(t, llm.Message{Role: models.RoleUser, Content: "Hi"}, sent[1])
	assert.Equal(t, models.RoleAssistant, sent[2].Role)
	assert.Equal(t, llm.Message{Role: models.RoleUser, Content: "Have you got a minute?"}, sent[3])

	msgs, err := env.store.GetMessages(context.Background(), convID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "Have you got a minute?", msgs[2].Content)
	assert.True(t, msgs[3].CreatedAt.After(msgs[2].CreatedAt))
	assert.Equal(t, 4.0, testutil.ToFloat64(env.metrics.MessagesPersistedTotal))
}

func TestPostMessageTimeoutIsUpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	convID := env.startConversation(t, "")

	env.llm.block = true
	env.pipeline.opts.LLMTimeout = 20 * time.Millisecond

	_, err := env.pipeline.PostMessage(context.Background(), convID, "anyone there?")
	assert.True(t, apperr.IsUpstreamGeneration(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, env.messageCount(t, convID))
}

func TestPostMessageEmptyReplyIsUpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	convID := env.startConversation(t, "")

	env.llm.reply = "  \n"
	reply, err := env.pipeline.PostMessage(context.Background(), convID, "hello?")

	assert.Empty(t, reply)
	assert.True(t, apperr.IsUpstreamGeneration(err))
	assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
	assert.Equal(t, 0, env.messageCount(t, convID))
}

// failingWrites keeps the real reads but fails every message insert.
type failingWrites struct {
	*database.Store
	err error
}

func (f failingWrites) InsertMessages(context.Context, string, []models.Message) error {
	return f.err
}

func TestPostMessageSurfacesWriteFailure(t *testing.T) {
	tests := []struct {
		name        string
		written     int
		wantPartial float64
		wantHazard  bool
	}{
		{name: "nothing written", written: 0, wantPartial: 0, wantHazard: false},
		{name: "user message only", written: 1, wantPartial: 1, wantHazard: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			convID := env.startConversation(t, "")

			var buf bytes.Buffer
			log := logger.New(logger.Config{Level: "debug", Output: &buf})
			storeErr := &apperr.StorageError{Op: "insert_messages", Attempted: 2, Written: tt.written, Err: errors.New("disk full")}
			store := failingWrites{Store: env.store, err: storeErr}
			pipeline := NewPipeline(store, env.assembler, env.llm, env.metrics, env.opts, log)

			reply, err := pipeline.PostMessage(context.Background(), convID, "Have you got a minute?")

			assert.Empty(t, reply)
			var se *apperr.StorageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.written, se.Written)
			assert.Equal(t, tt.wantPartial, testutil.ToFloat64(env.metrics.PartialWritesTotal))
			assert.Zero(t, testutil.ToFloat64(env.metrics.MessagesPersistedTotal))
			assert.Contains(t, buf.String(), "disk full")
			if tt.wantHazard {
				assert.Contains(t, buf.String(), `"consistency_hazard":true`)
			} else {
				assert.NotContains(t, buf.String(), "consistency_hazard")
			}
		})
	}
}

func TestCreateConversationWriteFailureIsNotAnApology(t *testing.T) {
	env := newTestEnv(t)
	store := failingWrites{Store: env.store, err: &apperr.StorageError{Op: "insert_messages", Attempted: 2, Err: errors.New("disk full")}}
	pipeline := NewPipeline(store, env.assembler, env.llm, env.metrics, env.opts, logger.Nop())

	res, err := pipeline.CreateConversation(context.Background(), CreateConversationInput{
		UserID:         "rep-1",
		ScenarioID:     "joining",
		Persona:        testPersona(),
		InitialMessage: "Hi",
	})
	assert.True(t, apperr.IsStorage(err))
	require.NotNil(t, res)
	assert.Nil(t, res.AssistantReply)
	assert.Zero(t, testutil.ToFloat64(env.metrics.ApologyRepliesTotal))
}

func TestApologyDefaultsWhenUnset(t *testing.T) {
	env := newTestEnv(t)
	env.llm.fail(errors.New("provider down"))
	pipeline := NewPipeline(env.store, env.assembler, env.llm, env.metrics, Options{}, logger.Nop())

	res, err := pipeline.CreateConversation(context.Background(), CreateConversationInput{
		UserID:         "rep-1",
		ScenarioID:     "joining",
		Persona:        testPersona(),
		InitialMessage: "Hi",
	})
	require.NoError(t, err)
	require.NotNil(t, res.AssistantReply)
	assert.Equal(t, config.DefaultApology, *res.AssistantReply)
}

func TestPostMessageRejectsBlank(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.pipeline.PostMessage(context.Background(), "whatever", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestPostMessageUnknownConversation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.pipeline.PostMessage(context.Background(), "missing", "hello")
	assert.True(t, apperr.IsNotFound(err))
}

func TestResolveTemplateFallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	got, err := env.assembler.ResolveTemplate(ctx, models.PromptKindSystem, "persona-x", "joining")
	require.NoError(t, err)
	assert.Empty(t, got.ID, "built-in template has no id")
	assert.Contains(t, got.Content, "{{title}}")

	save := func(scope, content string) {
		require.NoError(t, env.store.SavePromptTemplate(ctx, &models.PromptTemplate{
			Kind: models.PromptKindSystem, ScopeID: scope, Content: content,
		}))
	}

	save(models.DefaultScope, "default")
	got, err = env.assembler.ResolveTemplate(ctx, models.PromptKindSystem, "persona-x", "joining")
	require.NoError(t, err)
	assert.Equal(t, "default", got.Content)

	save("joining", "scenario")
	got, err = env.assembler.ResolveTemplate(ctx, models.PromptKindSystem, "persona-x", "joining")
	require.NoError(t, err)
	assert.Equal(t, "scenario", got.Content)

	save("persona-x", "persona")
	got, err = env.assembler.ResolveTemplate(ctx, models.PromptKindSystem, "persona-x", "joining")
	require.NoError(t, err)
	assert.Equal(t, "persona", got.Content)
}

func TestGetContextUsesRecordedTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.SavePromptTemplate(ctx, &models.PromptTemplate{
		Kind: models.PromptKindSystem, ScopeID: "joining", Content: "You are {{name}}.",
	}))
	convID := env.startConversation(t, "")

	cc, err := env.assembler.GetContext(ctx, convID)
	require.NoError(t, err)
	assert.Equal(t, "You are {{name}}.", cc.SystemTemplate)
	assert.Equal(t, "Dana Okafor", cc.Persona.Name)
	assert.Equal(t, []string{"Explain what the union does", "Ask them to join"}, cc.Scenario.ObjectiveTexts())
}

const personaArgs = `{
	"id": "made-up-by-model",
	"name": "Tom Reilly", "segment": "lapsed member", "age": 58, "gender": "Male",
	"family_status": "Widowed", "uk_party_affiliation": "None", "workplace": "Royal Mail, Hull",
	"job": "Postman", "busyness_level": "medium", "major_issues_in_workplace": "Route changes",
	"personality_traits": "Dry humour", "emotional_conditions": "Left after the last strike"
}`

func TestGeneratePersonaAssignsFreshID(t *testing.T) {
	env := newTestEnv(t)
	env.llm.call = &llm.ToolCall{Name: "generate_persona", Arguments: personaArgs}
	gen := NewPersonaGenerator(env.assembler, env.llm, env.metrics, env.opts, logger.Nop())

	p, err := gen.Generate(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, "made-up-by-model", p.ID)
	_, err = uuid.Parse(p.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Tom Reilly", p.Name)
	assert.Equal(t, 58, p.Age)

	sent := env.llm.last()
	require.Len(t, sent, 1)
	assert.Equal(t, models.RoleUser, sent[0].Role)
}

func TestGeneratePersonaPropagatesMalformedOutput(t *testing.T) {
	env := newTestEnv(t)
	env.llm.call = &llm.ToolCall{Name: "something_else", Arguments: personaArgs}
	gen := NewPersonaGenerator(env.assembler, env.llm, env.metrics, env.opts, logger.Nop())

	p, err := gen.Generate(context.Background())
	assert.Nil(t, p)
	assert.True(t, apperr.IsMalformedModelOutput(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ExtractionFailures.WithLabelValues("generate_persona", "malformed")))
}

const feedbackArgs = `{
	"score": 4,
	"summary": "Good rapport, clear ask.",
	"strengths": [{"title": "Listening", "description": "Picked up on the grievance."}],
	"areas_for_improvement": [{"title": "Follow-up", "description": "Agree a next step."}]
}`

func TestGenerateFeedback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	convID := env.startConversation(t, "Hi")

	require.NoError(t, env.store.SavePromptTemplate(ctx, &models.PromptTemplate{
		Kind: models.PromptKindFeedback, ScopeID: models.DefaultScope, Content: "Coach the rep.",
	}))
	env.llm.call = &llm.ToolCall{Name: "generate_feedback", Arguments: feedbackArgs}
	gen := NewFeedbackGenerator(env.store, env.llm, env.metrics, env.opts, logger.Nop())

	fb, err := gen.Generate(ctx, convID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, fb.Score)
	require.Len(t, fb.Strengths, 1)

	sent := env.llm.last()
	require.Len(t, sent, 1)
	content := sent[0].Content
	assert.True(t, strings.HasPrefix(content, "Coach the rep.\n\n"))
	assert.Contains(t, content, "Persona: Dana Okafor, 41, Porter")
	assert.Contains(t, content, "Conversation:\nuser: Hi\nassistant: Hiya, what's this about?")
	assert.True(t, strings.HasSuffix(content, "Provide feedback based on the conversation above."))
}

func TestGenerateFeedbackWithConfiguredScope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	convID := env.startConversation(t, "Hi")

	seed := &database.SeedFile{Templates: []database.SeedTemplate{
		{Kind: models.PromptKindFeedback, Content: "Coach the rep."},
	}}
	require.NoError(t, env.store.Apply(ctx, seed, "global"))

	env.llm.call = &llm.ToolCall{Name: "generate_feedback", Arguments: feedbackArgs}
	opts := env.opts
	opts.DefaultScope = "global"
	gen := NewFeedbackGenerator(env.store, env.llm, env.metrics, opts, logger.Nop())

	fb, err := gen.Generate(ctx, convID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, fb.Score)
	assert.True(t, strings.HasPrefix(env.llm.last()[0].Content, "Coach the rep.\n\n"))
}

func TestGenerateFeedbackNeedsTemplate(t *testing.T) {
	env := newTestEnv(t)
	convID := env.startConversation(t, "Hi")
	gen := NewFeedbackGenerator(env.store, env.llm, env.metrics, env.opts, logger.Nop())

	_, err := gen.Generate(context.Background(), convID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestGenerateFeedbackRejectsBadOutput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	convID := env.startConversation(t, "Hi")

	require.NoError(t, env.store.SavePromptTemplate(ctx, &models.PromptTemplate{
		Kind: models.PromptKindFeedback, ScopeID: models.DefaultScope, Content: "Coach the rep.",
	}))
	env.llm.call = &llm.ToolCall{Name: "generate_feedback", Arguments: `{"score": 3, "summary": "ok", "strengths": []}`}
	gen := NewFeedbackGenerator(env.store, env.llm, env.metrics, env.opts, logger.Nop())

	fb, err := gen.Generate(ctx, convID)
	assert.Nil(t, fb)
	assert.True(t, apperr.IsSchemaValidation(err))
}

func TestCheckFeedbackInputs(t *testing.T) {
	tmpl := &models.PromptTemplate{Kind: models.PromptKindFeedback, Content: "x"}

	err := checkFeedbackInputs(&models.Conversation{ScenarioID: "s", Persona: &models.Persona{}}, tmpl)
	assert.True(t, apperr.IsNotFound(err))

	conv := &models.Conversation{Scenario: &models.Scenario{}, Persona: &models.Persona{}}
	err = checkFeedbackInputs(conv, &models.PromptTemplate{Kind: models.PromptKindFeedback, Content: "  "})
	assert.True(t, apperr.IsSchemaValidation(err))

	assert.NoError(t, checkFeedbackInputs(conv, tmpl))
}

type stubNormalizer struct {
	dir  string
	path string
	err  error
}

func (s *stubNormalizer) Normalize(context.Context, *multipart.FileHeader) (*Recording, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.path = filepath.Join(s.dir, "normalized.m4a")
	if err := os.WriteFile(s.path, []byte("audio"), 0o644); err != nil {
		return nil, err
	}
	return &Recording{Path: s.path}, nil
}

type stubTranscriber struct {
	text string
	err  error
}

func (s stubTranscriber) Transcribe(context.Context, string) (*TranscriptionResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &TranscriptionResult{Text: s.text, Duration: 2.5}, nil
}

func TestVoiceTurn(t *testing.T) {
	env := newTestEnv(t)
	convID := env.startConversation(t, "")
	norm := &stubNormalizer{dir: t.TempDir()}
	voice := NewVoiceService(norm, stubTranscriber{text: "  Got a minute?  "}, env.pipeline, env.opts, logger.Nop())

	out, err := voice.PostAudio(context.Background(), convID, &multipart.FileHeader{Filename: "clip.webm"})
	require.NoError(t, err)
	assert.Equal(t, "Got a minute?", out.Transcript)
	assert.Equal(t, "Hiya, what's this about?", out.AssistantReply)
	assert.Equal(t, 2, env.messageCount(t, convID))

	_, statErr := os.Stat(norm.path)
	assert.True(t, os.IsNotExist(statErr), "normalized audio should be removed")
}

func TestVoiceTurnFailures(t *testing.T) {
	env := newTestEnv(t)
	convID := env.startConversation(t, "")

	t.Run("silence", func(t *testing.T) {
		voice := NewVoiceService(&stubNormalizer{dir: t.TempDir()}, stubTranscriber{text: " "}, env.pipeline, env.opts, logger.Nop())
		_, err := voice.PostAudio(context.Background(), convID, &multipart.FileHeader{})
		assert.ErrorIs(t, err, ErrEmptyTranscript)
	})

	t.Run("transcription error", func(t *testing.T) {
		voice := NewVoiceService(&stubNormalizer{dir: t.TempDir()}, stubTranscriber{err: errors.New("429")}, env.pipeline, env.opts, logger.Nop())
		_, err := voice.PostAudio(context.Background(), convID, &multipart.FileHeader{})
		assert.True(t, apperr.IsUpstreamGeneration(err))
	})

	assert.Equal(t, 0, env.messageCount(t, convID))
}

// uploadedFile builds a FileHeader the way gin hands one to a handler.
func uploadedFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("audio", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["audio"][0]
}

func TestMediaServiceMissingFFmpeg(t *testing.T) {
	uploads := t.TempDir()
	m := NewMediaService(uploads, filepath.Join(t.TempDir(), "no-such-ffmpeg"))

	rec, err := m.Normalize(context.Background(), uploadedFile(t, "clip.WEBM", []byte("not audio")))
	assert.Nil(t, rec)
	assert.ErrorContains(t, err, "ffmpeg")

	entries, err := os.ReadDir(uploads)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed uploads leave nothing behind")
}

func TestStageUploadKeepsExtension(t *testing.T) {
	dir := t.TempDir()

	path, err := stageUpload(dir, uploadedFile(t, "Clip.M4A", []byte("audio bytes")))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "upload.m4a"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "audio bytes", string(data))
}

func TestRecordingRemoveClearsStagingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "turn-1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	rec := &Recording{Path: filepath.Join(dir, "speech.m4a"), dir: dir}
	require.NoError(t, os.WriteFile(rec.Path, []byte("audio"), 0o644))

	require.NoError(t, rec.Remove())
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	var missing *Recording
	assert.NoError(t, missing.Remove())
}
