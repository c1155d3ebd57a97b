package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/studykit/studykit/internal/auth"
	"github.com/studykit/studykit/internal/auth/jwt"
	"github.com/studykit/studykit/internal/config"
	"github.com/studykit/studykit/internal/dashboard"
	"github.com/studykit/studykit/internal/db/repository"
	"github.com/studykit/studykit/internal/generate"
	"github.com/studykit/studykit/internal/logging"
	"github.com/studykit/studykit/internal/result"
	"github.com/studykit/studykit/internal/scoring"
	"github.com/studykit/studykit/internal/server"
	"github.com/studykit/studykit/internal/session"
	"github.com/studykit/studykit/internal/summarize"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
}

// New bootstraps configs, logger, Postgres, Redis and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	if cfg.Security.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be configured")
	}

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	userRepo := repository.NewUserRepository(pool)
	testRepo := repository.NewTestRepository(pool)
	setRepo := repository.NewMCQSetRepository(pool)

	authSvc := auth.NewService(userRepo, jwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		Issuer: cfg.Name,
	}, logger)
	authHandlers := auth.NewHTTPHandlers(authSvc, logger)

	llmClient := generate.NewClient(generate.ClientConfig{
		BaseURL: cfg.Generator.BaseURL,
		APIKey:  cfg.Generator.APIKey,
		Model:   cfg.Generator.Model,
		Timeout: cfg.Generator.HTTPTimeout,
	}, logger)

	generateSvc := generate.NewService(llmClient, setRepo, generate.Options{
		DefaultCount: cfg.Test.DefaultQuestionCount,
		MaxCount:     cfg.Test.MaxQuestions,
	}, logger)
	generateHandler := generate.NewHTTPHandler(generateSvc, logger)

	summarizeSvc := summarize.NewService(llmClient, logger)
	summarizeHandler := summarize.NewHTTPHandler(summarizeSvc, logger)

	scoringSvc := scoring.NewService(testRepo, logger)

	specStore := session.NewSpecStore(redisClient, cfg.Test.SpecTTL)
	registry := session.NewRegistry(scoringSvc, logger)
	attemptHandler := session.NewHandler(registry, specStore, authSvc, logger)
	testHandler := session.NewHTTPHandler(specStore, generateSvc, scoringSvc, session.CreateLimits{
		DefaultQuestionCount: cfg.Test.DefaultQuestionCount,
		DefaultTimeMinutes:   cfg.Test.DefaultTimeMinutes,
		MaxQuestions:         cfg.Test.MaxQuestions,
	}, logger)

	assembler := result.NewAssembler(testRepo)
	resultHandler := result.NewHTTPHandler(assembler, logger)

	dashboardSvc := dashboard.NewService(testRepo, setRepo, assembler)
	dashboardHandler := dashboard.NewHTTPHandler(dashboardSvc, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, authSvc, server.Handlers{
		Auth:      authHandlers,
		Generate:  generateHandler,
		Summarize: summarizeHandler,
		Result:    resultHandler,
		Dashboard: dashboardHandler,
		Tests: server.TestHandlers{
			Create:  testHandler.HandleCreate,
			GetSpec: testHandler.HandleGetSpec,
			Submit:  testHandler.HandleSubmit,
		},
		AttemptWS: attemptHandler.HandleWebSocket,
	})

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		http:   apiServer,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
