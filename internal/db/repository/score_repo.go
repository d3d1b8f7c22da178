package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/trivia-rush/server/internal/scores"
)

// ScoreRepository persists game results and the accumulated per-user rows.
type ScoreRepository struct {
	db querier
}

func NewScoreRepository(db querier) *ScoreRepository {
	return &ScoreRepository{db: db}
}

const entryColumns = `id, user_id, player_name, masked_id, score, money, stage, correct_count, wrong_count, achievements, created_at`

func (r *ScoreRepository) InsertEntry(ctx context.Context, e *scores.Entry) error {
	achievements, err := json.Marshal(emptyIfNil(e.Achievements))
	if err != nil {
		return fmt.Errorf("marshal achievements: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO high_scores (`+entryColumns+`)
		 VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.UserID, e.PlayerName, e.MaskedID, e.Score, e.Money, e.Stage,
		e.CorrectCount, e.WrongCount, achievements, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert score entry: %w", err)
	}
	return nil
}

// TopSince returns the highest-scoring games recorded at or after the cutoff.
func (r *ScoreRepository) TopSince(ctx context.Context, since time.Time, limit int) ([]scores.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+entryColumns+` FROM high_scores
		  WHERE created_at >= $1
		  ORDER BY score DESC
		  LIMIT $2`,
		since, limit)
	if err != nil {
		return nil, fmt.Errorf("list daily scores: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *ScoreRepository) TopByUser(ctx context.Context, userID string, limit int) ([]scores.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+entryColumns+` FROM high_scores
		  WHERE user_id = $1
		  ORDER BY score DESC
		  LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list personal scores: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

const profileColumns = `user_id, player_name, masked_id, best_score, total_money, total_correct, total_wrong, achievements, inventory, active_theme, golden_name_expires_at, last_played_at`

func (r *ScoreRepository) TopProfiles(ctx context.Context, limit int) ([]scores.Profile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+profileColumns+` FROM user_best_scores
		  ORDER BY best_score DESC
		  LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list accumulated scores: %w", err)
	}
	defer rows.Close()

	var profiles []scores.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (r *ScoreRepository) GetProfile(ctx context.Context, userID string) (*scores.Profile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_best_scores WHERE user_id = $1`, userID)

	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select profile %s: %w", userID, err)
	}
	return p, nil
}

func (r *ScoreRepository) CreateProfile(ctx context.Context, p *scores.Profile) error {
	achievements, inventory, err := marshalProfileLists(p)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO user_best_scores (`+profileColumns+`)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.UserID, p.PlayerName, p.MaskedID, p.BestScore, p.TotalMoney, p.TotalCorrect,
		p.TotalWrong, achievements, inventory, p.ActiveTheme, p.GoldenNameExpiresAt, p.LastPlayedAt)
	if err != nil {
		return fmt.Errorf("insert profile %s: %w", p.UserID, err)
	}
	return nil
}

func (r *ScoreRepository) UpdateProfile(ctx context.Context, p *scores.Profile) error {
	achievements, inventory, err := marshalProfileLists(p)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`UPDATE user_best_scores
		    SET player_name = $2, masked_id = NULLIF($3, ''), best_score = $4,
		        total_money = $5, total_correct = $6, total_wrong = $7,
		        achievements = $8, inventory = $9, active_theme = $10,
		        golden_name_expires_at = $11, last_played_at = $12
		  WHERE user_id = $1`,
		p.UserID, p.PlayerName, p.MaskedID, p.BestScore, p.TotalMoney, p.TotalCorrect,
		p.TotalWrong, achievements, inventory, p.ActiveTheme, p.GoldenNameExpiresAt, p.LastPlayedAt)
	if err != nil {
		return fmt.Errorf("update profile %s: %w", p.UserID, err)
	}
	return nil
}

func collectEntries(rows pgx.Rows) ([]scores.Entry, error) {
	var entries []scores.Entry
	for rows.Next() {
		var (
			e            scores.Entry
			userID       *string
			maskedID     *string
			achievements []byte
		)
		if err := rows.Scan(&e.ID, &userID, &e.PlayerName, &maskedID, &e.Score, &e.Money,
			&e.Stage, &e.CorrectCount, &e.WrongCount, &achievements, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		if userID != nil {
			e.UserID = *userID
		}
		if maskedID != nil {
			e.MaskedID = *maskedID
		}
		if len(achievements) > 0 {
			if err := json.Unmarshal(achievements, &e.Achievements); err != nil {
				return nil, fmt.Errorf("decode achievements: %w", err)
			}
		}
		if e.Achievements == nil {
			e.Achievements = []string{}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanProfile(row pgx.Row) (*scores.Profile, error) {
	var (
		p            scores.Profile
		maskedID     *string
		achievements []byte
		inventory    []byte
	)
	if err := row.Scan(&p.UserID, &p.PlayerName, &maskedID, &p.BestScore, &p.TotalMoney,
		&p.TotalCorrect, &p.TotalWrong, &achievements, &inventory, &p.ActiveTheme,
		&p.GoldenNameExpiresAt, &p.LastPlayedAt); err != nil {
		return nil, err
	}
	if maskedID != nil {
		p.MaskedID = *maskedID
	}
	if len(achievements) > 0 {
		if err := json.Unmarshal(achievements, &p.Achievements); err != nil {
			return nil, fmt.Errorf("decode achievements: %w", err)
		}
	}
	if len(inventory) > 0 {
		if err := json.Unmarshal(inventory, &p.Inventory); err != nil {
			return nil, fmt.Errorf("decode inventory: %w", err)
		}
	}
	if p.Achievements == nil {
		p.Achievements = []string{}
	}
	if p.Inventory == nil {
		p.Inventory = []string{}
	}
	return &p, nil
}

func marshalProfileLists(p *scores.Profile) (achievements, inventory []byte, err error) {
	achievements, err = json.Marshal(emptyIfNil(p.Achievements))
	if err != nil {
		return nil, nil, fmt.Errorf("marshal achievements: %w", err)
	}
	inventory, err = json.Marshal(emptyIfNil(p.Inventory))
	if err != nil {
		return nil, nil, fmt.Errorf("marshal inventory: %w", err)
	}
	return achievements, inventory, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
