package server

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/trivia-rush/server/internal/adhoc"
	"github.com/trivia-rush/server/internal/challenge"
	"github.com/trivia-rush/server/internal/config"
	"github.com/trivia-rush/server/internal/economy"
	"github.com/trivia-rush/server/internal/logging"
	"github.com/trivia-rush/server/internal/scores"
	httperrors "github.com/trivia-rush/server/pkg/http/errors"
)

// Handlers groups the per-domain HTTP handlers wired by the app.
type Handlers struct {
	Challenge *challenge.HTTPHandler
	Economy   *economy.HTTPHandler
	Scores    *scores.HTTPHandler
	Adhoc     *adhoc.HTTPHandler
}

// NewHTTPServer wires health, metrics, and the v1 API routes.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, rdb *redis.Client, h Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "route not found")
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, rdb); err != nil {
			reqLogger := logging.FromContext(r.Context())
			reqLogger.Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "dependency unavailable")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	mux.HandleFunc("/v1/cron/daily-challenge", h.Challenge.HandleTrigger)
	mux.HandleFunc("/v1/daily-challenge", h.Challenge.HandleGet)
	mux.HandleFunc("/v1/daily-challenge/attempt", h.Economy.HandleAttempt)
	mux.HandleFunc("/v1/shop", h.Economy.HandleShop)
	mux.HandleFunc("/v1/high-scores", h.Scores.HandleScores)
	mux.HandleFunc("/v1/generate", h.Adhoc.HandleGenerate)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: withRequestLogger(logger, mux),
	}
}

// withRequestLogger stamps a request-scoped logger into the context so
// handlers can log with the method and path attached, and records each
// request once it completes.
func withRequestLogger(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLogger := logger.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(logging.IntoContext(r.Context(), reqLogger)))
		reqLogger.Debug().Dur("elapsed", time.Since(start)).Msg("request handled")
	})
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}
