package scores

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// The ZSET outlives its day by enough to cover late reads around midnight.
const boardTTL = 48 * time.Hour

// DailyBoard mirrors the day's best scores into a Redis sorted set. It is a
// best-effort view; Postgres stays the source of truth.
type DailyBoard struct {
	client *redis.Client
}

func NewDailyBoard(client *redis.Client) *DailyBoard {
	return &DailyBoard{client: client}
}

func (b *DailyBoard) key(date string) string {
	return "scores:daily:" + date
}

// Record keeps the member's highest score for the day.
func (b *DailyBoard) Record(ctx context.Context, date, member string, score int) error {
	key := b.key(date)
	pipe := b.client.Pipeline()
	pipe.ZAddGT(ctx, key, redis.Z{Score: float64(score), Member: member})
	pipe.Expire(ctx, key, boardTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// BoardEntry is one row of the mirrored daily board.
type BoardEntry struct {
	Member string `json:"member"`
	Score  int    `json:"score"`
}

// Top returns the day's best members, highest first.
func (b *DailyBoard) Top(ctx context.Context, date string, n int) ([]BoardEntry, error) {
	rows, err := b.client.ZRevRangeWithScores(ctx, b.key(date), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]BoardEntry, 0, len(rows))
	for _, z := range rows {
		member, _ := z.Member.(string)
		entries = append(entries, BoardEntry{Member: member, Score: int(z.Score)})
	}
	return entries, nil
}
