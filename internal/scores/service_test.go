package scores

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 8, 29, 22, 30, 0, 0, time.UTC)

type stubStore struct {
	entries  []Entry
	profiles map[string]*Profile
	created  int
	updated  int

	lastSince time.Time
	lastLimit int
}

func newStubStore() *stubStore {
	return &stubStore{profiles: map[string]*Profile{}}
}

func (s *stubStore) InsertEntry(_ context.Context, e *Entry) error {
	s.entries = append(s.entries, *e)
	return nil
}

func (s *stubStore) TopSince(_ context.Context, since time.Time, limit int) ([]Entry, error) {
	s.lastSince = since
	s.lastLimit = limit
	return s.entries, nil
}

func (s *stubStore) TopByUser(_ context.Context, userID string, limit int) ([]Entry, error) {
	s.lastLimit = limit
	var out []Entry
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubStore) TopProfiles(_ context.Context, limit int) ([]Profile, error) {
	s.lastLimit = limit
	var out []Profile
	for _, p := range s.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubStore) GetProfile(_ context.Context, userID string) (*Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *stubStore) CreateProfile(_ context.Context, p *Profile) error {
	s.created++
	cp := *p
	s.profiles[p.UserID] = &cp
	return nil
}

func (s *stubStore) UpdateProfile(_ context.Context, p *Profile) error {
	s.updated++
	cp := *p
	s.profiles[p.UserID] = &cp
	return nil
}

type stubBoard struct {
	date   string
	member string
	score  int
	calls  int
}

func (b *stubBoard) Record(_ context.Context, date, member string, score int) error {
	b.calls++
	b.date = date
	b.member = member
	b.score = score
	return nil
}

func newTestService(store *stubStore, b board) *Service {
	svc := NewService(store, nil, time.UTC, 20, zerolog.Nop())
	svc.board = b
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestSubmitRecordsHistoryRow(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, nil)

	err := svc.Submit(context.Background(), &Entry{PlayerName: "guest", Score: 1200})
	require.NoError(t, err)

	require.Len(t, store.entries, 1)
	saved := store.entries[0]
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.Equal(t, fixedNow, saved.CreatedAt)
	assert.NotNil(t, saved.Achievements)
	assert.Equal(t, 0, store.created, "guest games never create profiles")
}

func TestSubmitCreatesProfileOnFirstGame(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, nil)

	err := svc.Submit(context.Background(), &Entry{
		UserID: "u1", PlayerName: "dana", Score: 900, Money: 300,
		CorrectCount: 8, WrongCount: 2, Achievements: []string{"streak_5"},
	})
	require.NoError(t, err)

	p := store.profiles["u1"]
	require.NotNil(t, p)
	assert.Equal(t, 900, p.BestScore)
	assert.Equal(t, int64(300), p.TotalMoney)
	assert.Equal(t, 8, p.TotalCorrect)
	assert.Equal(t, []string{"streak_5"}, p.Achievements)
	assert.Equal(t, "default", p.ActiveTheme)
}

func TestSubmitFoldAccumulatesTotals(t *testing.T) {
	store := newStubStore()
	store.profiles["u1"] = &Profile{
		UserID: "u1", PlayerName: "dana", BestScore: 2000,
		TotalMoney: 1000, TotalCorrect: 20, TotalWrong: 5,
		Achievements: []string{"perfect_round"},
	}
	svc := newTestService(store, nil)

	// Lower score than the best: totals grow, best and achievements stay.
	err := svc.Submit(context.Background(), &Entry{
		UserID: "u1", PlayerName: "dana", Score: 800, Money: 400,
		CorrectCount: 6, WrongCount: 4, Achievements: []string{"comeback"},
	})
	require.NoError(t, err)

	p := store.profiles["u1"]
	assert.Equal(t, 2000, p.BestScore)
	assert.Equal(t, []string{"perfect_round"}, p.Achievements)
	assert.Equal(t, int64(1400), p.TotalMoney)
	assert.Equal(t, 26, p.TotalCorrect)
	assert.Equal(t, 9, p.TotalWrong)
}

func TestSubmitFoldReplacesBestOnNewRecord(t *testing.T) {
	store := newStubStore()
	store.profiles["u1"] = &Profile{
		UserID: "u1", PlayerName: "dana", BestScore: 1000,
		Achievements: []string{"old_badge"},
	}
	svc := newTestService(store, nil)

	err := svc.Submit(context.Background(), &Entry{
		UserID: "u1", PlayerName: "dana", Score: 1500,
		Achievements: []string{"new_badge"},
	})
	require.NoError(t, err)

	p := store.profiles["u1"]
	assert.Equal(t, 1500, p.BestScore)
	assert.Equal(t, []string{"new_badge"}, p.Achievements, "achievement snapshot follows the best game")
}

func TestSubmitMirrorsToDailyBoard(t *testing.T) {
	store := newStubStore()
	b := &stubBoard{}
	svc := newTestService(store, b)

	err := svc.Submit(context.Background(), &Entry{UserID: "u1", PlayerName: "dana", Score: 700})
	require.NoError(t, err)

	assert.Equal(t, 1, b.calls)
	assert.Equal(t, "2026-08-29", b.date)
	assert.Equal(t, "u1", b.member)
	assert.Equal(t, 700, b.score)
}

func TestSubmitBoardMemberFallsBackToName(t *testing.T) {
	b := &stubBoard{}
	svc := newTestService(newStubStore(), b)

	err := svc.Submit(context.Background(), &Entry{PlayerName: "guest", Score: 300})
	require.NoError(t, err)
	assert.Equal(t, "guest", b.member)
}

func TestDailyCutoffIsLocalMidnight(t *testing.T) {
	store := newStubStore()
	loc, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)
	svc := NewService(store, nil, loc, 20, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow } // 2026-08-30 01:30 in Jerusalem

	_, err = svc.Daily(context.Background())
	require.NoError(t, err)

	// Midnight of the local day the query runs in, expressed in that zone.
	want := time.Date(2026, 8, 30, 0, 0, 0, 0, loc)
	assert.True(t, store.lastSince.Equal(want), "cutoff %s, want %s", store.lastSince, want)
	assert.Equal(t, 20, store.lastLimit)
}

func TestPersonalWithoutUserIsEmpty(t *testing.T) {
	svc := newTestService(newStubStore(), nil)

	entries, err := svc.Personal(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
