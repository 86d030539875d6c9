package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/calebchiang/repcoach_server/apperr"
	"github.com/calebchiang/repcoach_server/logger"
)

// ErrEmptyTranscript is returned when a recording contains no speech.
var ErrEmptyTranscript = errors.New("no speech found in recording")

type VoiceReply struct {
	Transcript     string `json:"transcript"`
	AssistantReply string `json:"assistant_reply"`
}

// VoiceService answers spoken turns by transcribing them and running the
// text through the pipeline.
type VoiceService struct {
	media       AudioNormalizer
	transcriber Transcriber
	pipeline    *Pipeline
	opts        Options
	log         *logger.Logger
}

func NewVoiceService(media AudioNormalizer, transcriber Transcriber, pipeline *Pipeline, opts Options, log *logger.Logger) *VoiceService {
	return &VoiceService{
		media:       media,
		transcriber: transcriber,
		pipeline:    pipeline,
		opts:        opts.withDefaults(),
		log:         log.Component("voice"),
	}
}

func (v *VoiceService) PostAudio(ctx context.Context, conversationID string, audio *multipart.FileHeader) (*VoiceReply, error) {
	rec, err := v.media.Normalize(ctx, audio)
	if err != nil {
		v.log.Error().Err(err).Str("conversation_id", conversationID).Msg("audio normalization failed")
		return nil, err
	}
	defer func() {
		if err := rec.Remove(); err != nil {
			v.log.Warn().Err(err).Str("path", rec.Path).Msg("failed to remove recording")
		}
	}()

	tctx, cancel := v.opts.llmContext(ctx)
	transcript, err := v.transcriber.Transcribe(tctx, rec.Path)
	cancel()
	if err != nil {
		return nil, &apperr.UpstreamGenerationError{Op: "transcribe", Err: err}
	}

	text := strings.TrimSpace(transcript.Text)
	if text == "" {
		return nil, ErrEmptyTranscript
	}

	v.log.Debug().
		Str("conversation_id", conversationID).
		Float64("duration", transcript.Duration).
		Int("segments", len(transcript.Segments)).
		Msg("audio transcribed")

	reply, err := v.pipeline.PostMessage(ctx, conversationID, text)
	if err != nil {
		return nil, err
	}
	return &VoiceReply{Transcript: text, AssistantReply: reply}, nil
}
