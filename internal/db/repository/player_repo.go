package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/trivia-rush/server/internal/economy"
)

// PlayerStatsRepository persists the per-user per-day attempt counters.
type PlayerStatsRepository struct {
	db querier
}

func NewPlayerStatsRepository(db querier) *PlayerStatsRepository {
	return &PlayerStatsRepository{db: db}
}

func (r *PlayerStatsRepository) Get(ctx context.Context, userID, date string) (*economy.DayStats, error) {
	var stats economy.DayStats
	var playDate string
	err := r.db.QueryRow(ctx,
		`SELECT user_id, play_date::text, attempts, has_retry_pass
		   FROM daily_player_stats
		  WHERE user_id = $1 AND play_date = $2`,
		userID, date).Scan(&stats.UserID, &playDate, &stats.Attempts, &stats.HasRetryPass)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select day stats %s/%s: %w", userID, date, err)
	}
	stats.PlayDate = playDate
	return &stats, nil
}

func (r *PlayerStatsRepository) Create(ctx context.Context, stats *economy.DayStats) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO daily_player_stats (user_id, play_date, attempts, has_retry_pass)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, play_date) DO NOTHING`,
		stats.UserID, stats.PlayDate, stats.Attempts, stats.HasRetryPass)
	if err != nil {
		return fmt.Errorf("insert day stats %s/%s: %w", stats.UserID, stats.PlayDate, err)
	}
	return nil
}

func (r *PlayerStatsRepository) IncrementAttempts(ctx context.Context, userID, date string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE daily_player_stats SET attempts = attempts + 1
		  WHERE user_id = $1 AND play_date = $2`,
		userID, date)
	if err != nil {
		return fmt.Errorf("increment attempts %s/%s: %w", userID, date, err)
	}
	return nil
}

// GrantRetryPass flips the pass flag, creating today's row when the user has
// not played yet.
func (r *PlayerStatsRepository) GrantRetryPass(ctx context.Context, userID, date string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO daily_player_stats (user_id, play_date, attempts, has_retry_pass)
		 VALUES ($1, $2, 0, TRUE)
		 ON CONFLICT (user_id, play_date) DO UPDATE SET has_retry_pass = TRUE`,
		userID, date)
	if err != nil {
		return fmt.Errorf("grant retry pass %s/%s: %w", userID, date, err)
	}
	return nil
}
