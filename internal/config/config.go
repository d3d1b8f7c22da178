package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"trivia-rush"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres  Postgres
	Redis     Redis
	Gemini    Gemini
	Challenge Challenge
	Scores    Scores
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds cache configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Gemini configures the text-generation client: ordered API keys, ordered
// model fallbacks, and the retry budget applied per (key, model) pair.
type Gemini struct {
	APIKeys     []string      `env:"GEMINI_API_KEYS" envSeparator:","`
	Models      []string      `env:"GEMINI_MODELS" envSeparator:"," envDefault:"gemini-2.5-flash,gemini-2.5-flash-preview-09-2025,gemini-2.5-flash-lite"`
	BaseURL     string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	HTTPTimeout time.Duration `env:"GEMINI_HTTP_TIMEOUT" envDefault:"40s"`
	MaxRetries  int           `env:"GEMINI_MAX_RETRIES" envDefault:"3"`
	BackoffBase time.Duration `env:"GEMINI_BACKOFF_BASE" envDefault:"5s"`
}

// Challenge groups the daily question-pool builder knobs.
type Challenge struct {
	TotalTarget       int           `env:"CHALLENGE_TOTAL_TARGET" envDefault:"50"`
	MaxBatches        int           `env:"CHALLENGE_MAX_BATCHES" envDefault:"2"`
	BatchCooldown     time.Duration `env:"CHALLENGE_BATCH_COOLDOWN" envDefault:"10m"`
	RetryDelay        time.Duration `env:"CHALLENGE_RETRY_DELAY" envDefault:"2m"`
	RefillDelay       time.Duration `env:"CHALLENGE_REFILL_DELAY" envDefault:"3s"`
	PreGenerateHour   int           `env:"CHALLENGE_PREGENERATE_HOUR" envDefault:"21"`
	HistoryWindowDays int           `env:"CHALLENGE_HISTORY_DAYS" envDefault:"3"`
	JudgeSampleSize   int           `env:"CHALLENGE_JUDGE_SAMPLE" envDefault:"30"`
	Timezone          string        `env:"CHALLENGE_TIMEZONE" envDefault:"Asia/Jerusalem"`
	TickInterval      time.Duration `env:"CHALLENGE_TICK_INTERVAL" envDefault:"0"`
}

// Scores governs leaderboard reads and the Redis daily board.
type Scores struct {
	TopN int `env:"SCORES_TOP_N" envDefault:"20"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Challenge.PreGenerateHour < 0 || cfg.Challenge.PreGenerateHour > 23 {
		return nil, fmt.Errorf("CHALLENGE_PREGENERATE_HOUR out of range: %d", cfg.Challenge.PreGenerateHour)
	}
	return cfg, nil
}
