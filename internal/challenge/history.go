package challenge

import (
	"context"
	"time"
)

// Store is the persistence boundary for daily challenge rows.
type Store interface {
	// Get returns the record for a date, or nil when none exists.
	Get(ctx context.Context, date string) (*Record, error)
	// Create inserts a freshly seeded record.
	Create(ctx context.Context, rec *Record) error
	// Update overwrites the record's mutable fields. The write must be a
	// no-op when the stored row is already complete.
	Update(ctx context.Context, rec *Record) error
	// NudgeNextRun moves only the next-eligible timestamp, used after a
	// failed generation so the next tick retries instead of hot-looping.
	NudgeNextRun(ctx context.Context, date string, at time.Time) error
	// ListWindow returns records with date >= from, excluding one date.
	ListWindow(ctx context.Context, from, exclude string) ([]Record, error)
}

// loadCorpus builds the dedup corpus from the trailing history window plus
// the questions already accepted for the target date.
func (b *Builder) loadCorpus(ctx context.Context, target *Record) (*Corpus, error) {
	from := b.now().In(b.loc).AddDate(0, 0, -b.cfg.HistoryWindowDays).Format(dateLayout)

	history, err := b.store.ListWindow(ctx, from, target.Date)
	if err != nil {
		return nil, err
	}

	corpus := NewCorpus()
	for _, rec := range history {
		for _, q := range rec.Questions {
			if q.Text == "" {
				continue
			}
			corpus.Exact.Add(q.Text)
			diff := q.Difficulty
			if _, ok := corpus.ByDifficulty[diff]; !ok {
				diff = DifficultyMedium
			}
			corpus.ByDifficulty[diff] = append(corpus.ByDifficulty[diff], q.Text)
		}
	}

	// Same-day questions guard against duplicates across batches; they stay
	// out of the judge context, which only covers prior days.
	for _, q := range target.Questions {
		corpus.Exact.Add(q.Text)
	}

	b.logger.Info().
		Int("window_days", b.cfg.HistoryWindowDays).
		Int("exact_entries", len(corpus.Exact)).
		Msg("dedup corpus loaded")
	return corpus, nil
}
