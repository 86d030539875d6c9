package services

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

type TranscriptionSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type TranscriptionResult struct {
	Text     string                 `json:"text"`
	Language string                 `json:"language,omitempty"`
	Duration float64                `json:"duration,omitempty"`
	Segments []TranscriptionSegment `json:"segments,omitempty"`
}

// Transcriber turns a normalized audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (*TranscriptionResult, error)
}

// WhisperTranscriber uses the OpenAI audio transcription endpoint.
type WhisperTranscriber struct {
	client *openai.Client
	model  string
}

func NewWhisperTranscriber(apiKey, model, baseURL string) *WhisperTranscriber {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperTranscriber{client: openai.NewClientWithConfig(cfg), model: model}
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, filePath string) (*TranscriptionResult, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: filePath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		return nil, err
	}

	result := &TranscriptionResult{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
		Segments: make([]TranscriptionSegment, len(resp.Segments)),
	}
	for i, s := range resp.Segments {
		result.Segments[i] = TranscriptionSegment{ID: s.ID, Start: s.Start, End: s.End, Text: s.Text}
	}
	return result, nil
}
