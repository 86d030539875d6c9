// Package logger provides structured logging for the server
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with component-scoped helpers
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // console output for development
	Output     io.Writer
	WithCaller bool
}

// New creates a structured logger
func New(cfg Config) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", "repcoach").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything, for tests.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

func (l *Logger) Info() *zerolog.Event  { return l.zlog.Info() }
func (l *Logger) Debug() *zerolog.Event { return l.zlog.Debug() }
func (l *Logger) Warn() *zerolog.Event  { return l.zlog.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zlog.Error() }

// Component returns a logger tagged with a component name
func (l *Logger) Component(name string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", name).Logger()}
}

// DbLogger returns a logger for database operations
func (l *Logger) DbLogger(operation string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "database").
			Str("operation", operation).
			Logger(),
	}
}

// LogHTTPRequest logs a completed HTTP request
func (l *Logger) LogHTTPRequest(method, path string, status int, duration time.Duration) {
	event := l.zlog.Info()
	if status >= 500 {
		event = l.zlog.Error()
	}

	event.
		Str("component", "http").
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("duration_ms", duration).
		Msg("request completed")
}

// LogLLMCall logs an LLM collaborator call
func (l *Logger) LogLLMCall(op string, duration time.Duration, err error) {
	event := l.zlog.Debug()
	if err != nil {
		event = l.zlog.Error().Err(err)
	}

	event.
		Str("component", "llm").
		Str("op", op).
		Dur("duration_ms", duration).
		Msg("llm call completed")
}

// LogServerStart logs server startup
func (l *Logger) LogServerStart(port, driver, provider string) {
	l.zlog.Info().
		Str("event", "server_start").
		Str("port", port).
		Str("database", driver).
		Str("llm_provider", provider).
		Msg("server starting")
}
