package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aviary-ai/aviary/db"
	"github.com/aviary-ai/aviary/internal/agent"
	"github.com/aviary-ai/aviary/internal/api"
	"github.com/aviary-ai/aviary/internal/auth"
	"github.com/aviary-ai/aviary/internal/chat"
	"github.com/aviary-ai/aviary/internal/config"
	"github.com/aviary-ai/aviary/internal/conversation"
	"github.com/aviary-ai/aviary/internal/database"
	"github.com/aviary-ai/aviary/internal/files"
	"github.com/aviary-ai/aviary/internal/llm"
	"github.com/aviary-ai/aviary/internal/mail"
	"github.com/aviary-ai/aviary/internal/postgres"
	"github.com/aviary-ai/aviary/internal/project"
	"github.com/aviary-ai/aviary/internal/prompt"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // SSE delivery needs longer timeout
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

// parseRateBurst reads AVIARY_RATE_BURST from the environment.
// Returns 0 (use default) if unset or invalid.
func parseRateBurst() int {
	v := os.Getenv("AVIARY_RATE_BURST")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// runServe initializes and starts the HTTP API server.
func runServe(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if err = cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	addr, err := parseServeAddr(cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting aviary", "version", AppVersion)

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Connect(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	queries := postgres.New(pool)

	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret))

	var mailer auth.Mailer
	sender, err := mail.NewSender(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, logger)
	switch {
	case err == nil:
		mailer = sender
	case errors.Is(err, mail.ErrNotConfigured):
		logger.Warn("smtp not configured, password reset links will be logged")
	default:
		return fmt.Errorf("initializing mail sender: %w", err)
	}

	authSvc := auth.NewService(queries, issuer, mailer, auth.Config{
		TokenTTL:     cfg.TokenTTL(),
		ResetTTL:     cfg.ResetTokenTTL(),
		ResetURLBase: cfg.ResetURLBase,
	}, logger)

	agents := agent.NewStore(queries)
	projects := project.NewStore(queries)
	prompts := prompt.NewStore(queries)
	conversations := conversation.NewStore(queries, cfg.ContextWindow)

	gateway := llm.NewGateway(llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.CompletionTimeout(),
	}, logger)

	orchestrator := chat.NewOrchestrator(agents, conversations, prompts, gateway, logger)

	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	fileSvc := files.NewService(openai.NewClientWithConfig(clientCfg), logger)

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:        logger,
		AuthService:   authSvc,
		Projects:      projects,
		Agents:        agents,
		Prompts:       prompts,
		Conversations: conversations,
		Orchestrator:  orchestrator,
		Files:         fileSvc,
		Pool:          pool,
		CORSOrigins:   cfg.CORSOrigins,
		IsDev:         cfg.PostgresSSLMode == "disable",
		TrustProxy:    cfg.TrustProxy,
		RateBurst:     parseRateBurst(),
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", addr,
		"api", "/api/*",
		"health", "/health, /ready",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
