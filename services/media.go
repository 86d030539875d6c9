package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Recording is a speech-ready copy of an uploaded clip. Remove deletes it
// together with anything staged alongside it.
type Recording struct {
	Path string
	dir  string
}

func (r *Recording) Remove() error {
	if r == nil {
		return nil
	}
	if r.dir != "" {
		return os.RemoveAll(r.dir)
	}
	return os.Remove(r.Path)
}

// AudioNormalizer turns an uploaded clip into a Recording the transcriber
// accepts.
type AudioNormalizer interface {
	Normalize(ctx context.Context, fileHeader *multipart.FileHeader) (*Recording, error)
}

// MediaService stages each upload in its own directory under uploadDir and
// transcodes it with ffmpeg.
type MediaService struct {
	uploadDir  string
	ffmpegPath string
	timeout    time.Duration
}

func NewMediaService(uploadDir, ffmpegPath string) *MediaService {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &MediaService{
		uploadDir:  uploadDir,
		ffmpegPath: ffmpegPath,
		timeout:    60 * time.Second,
	}
}

func (m *MediaService) Normalize(ctx context.Context, fileHeader *multipart.FileHeader) (*Recording, error) {
	if err := os.MkdirAll(m.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	dir, err := os.MkdirTemp(m.uploadDir, "turn-")
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	rec := &Recording{Path: filepath.Join(dir, "speech.m4a"), dir: dir}

	staged, err := stageUpload(dir, fileHeader)
	if err == nil {
		err = m.transcode(ctx, staged, rec.Path)
	}
	if err != nil {
		_ = rec.Remove()
		return nil, err
	}

	_ = os.Remove(staged)
	return rec, nil
}

func stageUpload(dir string, fileHeader *multipart.FileHeader) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	path := filepath.Join(dir, "upload"+strings.ToLower(filepath.Ext(fileHeader.Filename)))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("stage upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	return path, nil
}

// transcode writes mono 16kHz AAC, which Whisper handles reliably.
func (m *MediaService) transcode(ctx context.Context, in, out string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.ffmpegPath,
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", in,
		"-vn", "-ac", "1", "-ar", "16000",
		"-c:a", "aac", "-b:a", "96k",
		out,
	)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(out)
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
