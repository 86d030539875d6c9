package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const DefaultApology = "Sorry, I couldn't respond just now. Could you say that again?"

type Config struct {
	Port string

	DatabaseDriver string // postgres | sqlite
	DatabaseURL    string

	LLM LLMConfig

	JWTSecret string

	LogLevel  string
	LogPretty bool
	LogCaller bool

	// DefaultTemplateScope is the scope id used when no scenario or persona
	// specific template exists.
	DefaultTemplateScope string
	ApologyMessage       string

	Voice VoiceConfig
}

// VoiceConfig controls spoken turns. Transcription always goes through the
// OpenAI audio endpoint, so it is disabled without an OpenAI key.
type VoiceConfig struct {
	APIKey     string
	Model      string
	UploadDir  string
	FFmpegPath string
}

func (v VoiceConfig) Enabled() bool {
	return v.APIKey != ""
}

type LLMConfig struct {
	Provider    string // openai | gemini
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	RateLimit   float64 // requests per second, 0 disables limiting
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:                 getenv("PORT", "8080"),
		DatabaseDriver:       getenv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		DefaultTemplateScope: getenv("DEFAULT_TEMPLATE_SCOPE", "default"),
		ApologyMessage:       getenv("APOLOGY_MESSAGE", DefaultApology),
		LLM: LLMConfig{
			Provider: getenv("LLM_PROVIDER", "openai"),
			Model:    os.Getenv("LLM_MODEL"),
		},
		Voice: VoiceConfig{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			Model:      getenv("TRANSCRIBE_MODEL", "whisper-1"),
			UploadDir:  getenv("UPLOAD_DIR", "/tmp/uploads"),
			FFmpegPath: getenv("FFMPEG_PATH", "ffmpeg"),
		},
	}

	var err error
	if cfg.LogPretty, err = parseBool("LOG_PRETTY", false); err != nil {
		return cfg, err
	}
	if cfg.LogCaller, err = parseBool("LOG_CALLER", false); err != nil {
		return cfg, err
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return cfg, fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseDriver != "sqlite" {
			return cfg, fmt.Errorf("DATABASE_URL not set")
		}
		cfg.DatabaseURL = "repcoach.db"
	}

	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = "gpt-4o-mini"
		}
	case "gemini":
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = "gemini-2.5-flash"
		}
	default:
		return cfg, fmt.Errorf("LLM_PROVIDER must be openai or gemini, got %q", cfg.LLM.Provider)
	}
	temperature, err := parseFloat("LLM_TEMPERATURE", 0.8)
	if err != nil {
		return cfg, err
	}
	cfg.LLM.Temperature = float32(temperature)

	if cfg.LLM.MaxTokens, err = parseInt("LLM_MAX_TOKENS", 1024); err != nil {
		return cfg, err
	}
	if cfg.LLM.Timeout, err = parseDuration("LLM_TIMEOUT", 120*time.Second); err != nil {
		return cfg, err
	}
	if cfg.LLM.RateLimit, err = parseFloat("LLM_RATE_LIMIT", 2); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ValidateLLM reports a missing provider key. Only commands that call the
// model need it.
func (c Config) ValidateLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("API key for LLM provider %s not set", c.LLM.Provider)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func parseInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
