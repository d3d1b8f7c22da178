package scores

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is the persistence boundary for game results and profiles.
type Store interface {
	InsertEntry(ctx context.Context, e *Entry) error
	TopSince(ctx context.Context, since time.Time, limit int) ([]Entry, error)
	TopByUser(ctx context.Context, userID string, limit int) ([]Entry, error)
	TopProfiles(ctx context.Context, limit int) ([]Profile, error)
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	CreateProfile(ctx context.Context, p *Profile) error
	UpdateProfile(ctx context.Context, p *Profile) error
}

// board is the optional Redis mirror; nil disables it.
type board interface {
	Record(ctx context.Context, date, member string, score int) error
}

// Service records game results and serves the leaderboards.
type Service struct {
	store  Store
	board  board
	loc    *time.Location
	topN   int
	logger zerolog.Logger

	now func() time.Time
}

func NewService(store Store, b *DailyBoard, loc *time.Location, topN int, logger zerolog.Logger) *Service {
	s := &Service{
		store:  store,
		loc:    loc,
		topN:   topN,
		logger: logger.With().Str("component", "scores").Logger(),
		now:    time.Now,
	}
	if b != nil {
		s.board = b
	}
	return s
}

// Submit records one finished game: an immutable history row, a fold into
// the player's accumulated row, and a best-effort mirror into the Redis
// daily board.
func (s *Service) Submit(ctx context.Context, e *Entry) error {
	now := s.now()
	e.ID = uuid.New()
	e.CreatedAt = now
	if e.Achievements == nil {
		e.Achievements = []string{}
	}

	if err := s.store.InsertEntry(ctx, e); err != nil {
		return fmt.Errorf("record game: %w", err)
	}

	if e.UserID != "" {
		if err := s.fold(ctx, e, now); err != nil {
			return fmt.Errorf("fold into profile: %w", err)
		}
	}

	if s.board != nil {
		member := e.UserID
		if member == "" {
			member = e.PlayerName
		}
		date := now.In(s.loc).Format("2006-01-02")
		if err := s.board.Record(ctx, date, member, e.Score); err != nil {
			s.logger.Warn().Err(err).Msg("daily board mirror failed")
		}
	}
	return nil
}

// fold accumulates the game into the user's profile. Totals always grow;
// the best score and its achievement snapshot move only on a new best.
func (s *Service) fold(ctx context.Context, e *Entry, now time.Time) error {
	profile, err := s.store.GetProfile(ctx, e.UserID)
	if err != nil {
		return err
	}

	if profile == nil {
		return s.store.CreateProfile(ctx, &Profile{
			UserID:       e.UserID,
			PlayerName:   e.PlayerName,
			MaskedID:     e.MaskedID,
			BestScore:    e.Score,
			TotalMoney:   int64(e.Money),
			TotalCorrect: e.CorrectCount,
			TotalWrong:   e.WrongCount,
			Achievements: e.Achievements,
			ActiveTheme:  "default",
			LastPlayedAt: now,
		})
	}

	profile.PlayerName = e.PlayerName
	profile.MaskedID = e.MaskedID
	profile.LastPlayedAt = now
	profile.TotalMoney += int64(e.Money)
	profile.TotalCorrect += e.CorrectCount
	profile.TotalWrong += e.WrongCount
	if e.Score > profile.BestScore {
		profile.BestScore = e.Score
		profile.Achievements = e.Achievements
	}
	return s.store.UpdateProfile(ctx, profile)
}

// Daily returns today's best games, where "today" starts at local midnight
// in the configured timezone.
func (s *Service) Daily(ctx context.Context) ([]Entry, error) {
	now := s.now().In(s.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	entries, err := s.store.TopSince(ctx, midnight, s.topN)
	if entries == nil {
		entries = []Entry{}
	}
	return entries, err
}

// Personal returns the user's own best games.
func (s *Service) Personal(ctx context.Context, userID string) ([]Entry, error) {
	if userID == "" {
		return []Entry{}, nil
	}
	entries, err := s.store.TopByUser(ctx, userID, s.topN)
	if entries == nil {
		entries = []Entry{}
	}
	return entries, err
}

// Accumulated returns the all-time board built from the profile rows.
func (s *Service) Accumulated(ctx context.Context) ([]Profile, error) {
	profiles, err := s.store.TopProfiles(ctx, s.topN)
	if profiles == nil {
		profiles = []Profile{}
	}
	return profiles, err
}
