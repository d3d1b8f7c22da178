package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trivia-rush/server/internal/challenge"
)

// querier is satisfied by *pgxpool.Pool and by pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ChallengeRepository persists daily challenge records. It implements
// challenge.Store.
type ChallengeRepository struct {
	db querier
}

func NewChallengeRepository(db querier) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

const challengeColumns = `challenge_date, questions, status, current_batch, next_batch_at, last_log`

func (r *ChallengeRepository) Get(ctx context.Context, date string) (*challenge.Record, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM daily_challenges WHERE challenge_date = $1`, date)

	rec, err := scanChallenge(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select challenge %s: %w", date, err)
	}
	return rec, nil
}

func (r *ChallengeRepository) Create(ctx context.Context, rec *challenge.Record) error {
	questions, err := json.Marshal(rec.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO daily_challenges (`+challengeColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.Date, questions, string(rec.Status), rec.BatchNumber, rec.NextEligibleAt, rec.Log)
	if err != nil {
		return fmt.Errorf("insert challenge %s: %w", rec.Date, err)
	}
	return nil
}

// Update overwrites the mutable columns. The condition on status keeps a
// completed day immutable even if two builder invocations race.
func (r *ChallengeRepository) Update(ctx context.Context, rec *challenge.Record) error {
	questions, err := json.Marshal(rec.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`UPDATE daily_challenges
		    SET questions = $2, status = $3, current_batch = $4, next_batch_at = $5, last_log = $6
		  WHERE challenge_date = $1 AND status <> $7`,
		rec.Date, questions, string(rec.Status), rec.BatchNumber, rec.NextEligibleAt, rec.Log,
		string(challenge.StatusComplete))
	if err != nil {
		return fmt.Errorf("update challenge %s: %w", rec.Date, err)
	}
	return nil
}

func (r *ChallengeRepository) NudgeNextRun(ctx context.Context, date string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE daily_challenges SET next_batch_at = $2 WHERE challenge_date = $1 AND status <> $3`,
		date, at, string(challenge.StatusComplete))
	if err != nil {
		return fmt.Errorf("nudge challenge %s: %w", date, err)
	}
	return nil
}

func (r *ChallengeRepository) ListWindow(ctx context.Context, from, exclude string) ([]challenge.Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+challengeColumns+`
		   FROM daily_challenges
		  WHERE challenge_date >= $1 AND challenge_date <> $2
		  ORDER BY challenge_date`,
		from, exclude)
	if err != nil {
		return nil, fmt.Errorf("list challenge window: %w", err)
	}
	defer rows.Close()

	var records []challenge.Record
	for rows.Next() {
		rec, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan challenge row: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanChallenge(row pgx.Row) (*challenge.Record, error) {
	var (
		rec      challenge.Record
		date     time.Time
		raw      []byte
		status   string
		eligible time.Time
	)
	if err := row.Scan(&date, &raw, &status, &rec.BatchNumber, &eligible, &rec.Log); err != nil {
		return nil, err
	}
	rec.Date = date.Format("2006-01-02")
	rec.Status = challenge.Status(status)
	rec.NextEligibleAt = eligible
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec.Questions); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
	}
	if rec.Questions == nil {
		rec.Questions = []challenge.Question{}
	}
	return &rec, nil
}
