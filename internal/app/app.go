package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/trivia-rush/server/internal/adhoc"
	"github.com/trivia-rush/server/internal/challenge"
	"github.com/trivia-rush/server/internal/config"
	"github.com/trivia-rush/server/internal/db/repository"
	"github.com/trivia-rush/server/internal/economy"
	"github.com/trivia-rush/server/internal/gemini"
	"github.com/trivia-rush/server/internal/logging"
	"github.com/trivia-rush/server/internal/scores"
	"github.com/trivia-rush/server/internal/server"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	tickWorker *challenge.TickWorker
	bgCancels  []context.CancelFunc
}

// New bootstraps configs, logger, Postgres, Redis and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

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

	loc, err := time.LoadLocation(cfg.Challenge.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Challenge.Timezone, err)
	}

	challengeRepo := repository.NewChallengeRepository(pool)
	scoreRepo := repository.NewScoreRepository(pool)
	statsRepo := repository.NewPlayerStatsRepository(pool)

	geminiClient := gemini.NewClient(gemini.Config{
		BaseURL:     cfg.Gemini.BaseURL,
		APIKeys:     cfg.Gemini.APIKeys,
		Models:      cfg.Gemini.Models,
		Timeout:     cfg.Gemini.HTTPTimeout,
		MaxRetries:  cfg.Gemini.MaxRetries,
		BackoffBase: cfg.Gemini.BackoffBase,
	}, logger)

	builder, err := challenge.NewBuilder(challengeRepo, geminiClient, cfg.Challenge, logger)
	if err != nil {
		return nil, fmt.Errorf("init challenge builder: %w", err)
	}

	poolCache := challenge.NewPoolCache(redisClient, 0)
	dailyBoard := scores.NewDailyBoard(redisClient)

	economySvc := economy.NewService(statsRepo, scoreRepo, loc, logger)
	scoresSvc := scores.NewService(scoreRepo, dailyBoard, loc, cfg.Scores.TopN, logger)

	handlers := server.Handlers{
		Challenge: challenge.NewHTTPHandler(builder, challengeRepo, poolCache, logger),
		Economy:   economy.NewHTTPHandler(economySvc, logger),
		Scores:    scores.NewHTTPHandler(scoresSvc, logger),
		Adhoc:     adhoc.NewHTTPHandler(geminiClient, logger),
	}

	var tickWorker *challenge.TickWorker
	if interval := cfg.Challenge.TickInterval; interval > 0 {
		tickWorker = challenge.NewTickWorker(builder, interval, logger)
	}

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, handlers)

	return &Application{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		redis:      redisClient,
		http:       apiServer,
		tickWorker: tickWorker,
		bgCancels:  make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

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

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.tickWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.tickWorker.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("challenge tick worker stopped")
			}
		}()
	}
}
