package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/calebchiang/repcoach_server/config"
	"github.com/calebchiang/repcoach_server/controllers"
	"github.com/calebchiang/repcoach_server/database"
	"github.com/calebchiang/repcoach_server/llm"
	"github.com/calebchiang/repcoach_server/logger"
	"github.com/calebchiang/repcoach_server/metrics"
	"github.com/calebchiang/repcoach_server/middleware"
	"github.com/calebchiang/repcoach_server/models"
	"github.com/calebchiang/repcoach_server/prompt"
	"github.com/calebchiang/repcoach_server/routes"
	"github.com/calebchiang/repcoach_server/services"
)

var rootCmd = &cobra.Command{
	Use:           "repcoach",
	Short:         "Training server for union representative conversations",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables and install the built-in prompt templates",
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Load scenarios, templates and personas from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Print a signed API token for a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 30*24*time.Hour, "token lifetime")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup() (config.Config, *logger.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, nil, err
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, WithCaller: cfg.LogCaller})

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, log)
	if err != nil {
		return cfg, log, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return cfg, log, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return cfg, log, db, nil
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	opts := llm.Options{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	switch cfg.Provider {
	case "gemini":
		return llm.NewGemini(ctx, opts)
	default:
		return llm.NewOpenAI(opts), nil
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, db, err := setup()
	if err != nil {
		return err
	}
	if err := cfg.ValidateLLM(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newLLMClient(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	m := metrics.New()
	var limiter *rate.Limiter
	if cfg.LLM.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.LLM.RateLimit), 1)
	}
	client = llm.WithMetrics(llm.WithRateLimit(client, limiter), m, log)

	store := database.NewStore(db, log)
	opts := services.Options{
		LLMTimeout:     cfg.LLM.Timeout,
		ApologyMessage: cfg.ApologyMessage,
		DefaultScope:   cfg.DefaultTemplateScope,
	}
	assembler := services.NewContextAssembler(store, opts, log)
	pipeline := services.NewPipeline(store, assembler, client, m, opts, log)

	ctl := &controllers.Controller{
		Conversations: pipeline,
		Personas:      services.NewPersonaGenerator(assembler, client, m, opts, log),
		Feedback:      services.NewFeedbackGenerator(store, client, m, opts, log),
		Store:         store,
		DefaultScope:  cfg.DefaultTemplateScope,
		Log:           log.Component("http"),
	}
	if cfg.Voice.Enabled() {
		media := services.NewMediaService(cfg.Voice.UploadDir, cfg.Voice.FFmpegPath)
		transcriber := services.NewWhisperTranscriber(cfg.Voice.APIKey, cfg.Voice.Model, "")
		ctl.Voice = services.NewVoiceService(media, transcriber, pipeline, opts, log)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.Setup(ctl, cfg.JWTSecret, m, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.LogServerStart(cfg.Port, cfg.DatabaseDriver, cfg.LLM.Provider)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.LLM.Timeout+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, db, err := setup()
	if err != nil {
		return err
	}

	store := database.NewStore(db, log)
	builtins := map[string]string{
		models.PromptKindSystem:   prompt.DefaultSystem,
		models.PromptKindPersona:  prompt.GenericPersona,
		models.PromptKindFeedback: prompt.DefaultFeedback,
	}
	for kind, content := range builtins {
		created, err := store.EnsurePromptTemplate(cmd.Context(), &models.PromptTemplate{
			Kind:    kind,
			ScopeID: cfg.DefaultTemplateScope,
			Content: content,
		})
		if err != nil {
			return err
		}
		if created {
			log.Info().Str("kind", kind).Msg("installed built-in prompt template")
		}
	}

	log.Info().Str("driver", cfg.DatabaseDriver).Msg("migration complete")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, log, db, err := setup()
	if err != nil {
		return err
	}

	seed, err := database.LoadSeedFile(args[0])
	if err != nil {
		return err
	}

	return database.NewStore(db, log).Apply(cmd.Context(), seed, cfg.DefaultTemplateScope)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	token, err := middleware.IssueToken(cfg.JWTSecret, args[0], tokenTTL)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
