package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trivia-rush/server/internal/config"
	"github.com/trivia-rush/server/internal/gemini"
)

var fixedNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

type stubStore struct {
	mu      sync.Mutex
	records map[string]*Record
	created int
	updated int
	nudged  int
	nudgeAt time.Time
}

func newStubStore() *stubStore {
	return &stubStore{records: map[string]*Record{}}
}

func (s *stubStore) Get(_ context.Context, date string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[date]
	if !ok {
		return nil, nil
	}
	cp := *rec
	cp.Questions = append([]Question(nil), rec.Questions...)
	return &cp, nil
}

func (s *stubStore) Create(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++
	cp := *rec
	s.records[rec.Date] = &cp
	return nil
}

func (s *stubStore) Update(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[rec.Date]; ok && existing.Status == StatusComplete {
		return nil
	}
	s.updated++
	cp := *rec
	cp.Questions = append([]Question(nil), rec.Questions...)
	s.records[rec.Date] = &cp
	return nil
}

func (s *stubStore) NudgeNextRun(_ context.Context, date string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nudged++
	s.nudgeAt = at
	if rec, ok := s.records[date]; ok {
		rec.NextEligibleAt = at
	}
	return nil
}

func (s *stubStore) ListWindow(_ context.Context, from, exclude string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for date, rec := range s.records {
		if date >= from && date != exclude {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *stubStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created + s.updated + s.nudged
}

type genReply struct {
	text string
	err  error
}

type stubGen struct {
	mu      sync.Mutex
	prompts []string
	replies []genReply
}

func (g *stubGen) Generate(_ context.Context, req gemini.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, req.Prompt)
	if len(g.replies) == 0 {
		return "", errors.New("stub generator exhausted")
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r.text, r.err
}

func (g *stubGen) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func (g *stubGen) prompt(i int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompts[i]
}

func candidatesJSON(t *testing.T, prefix string, counts BucketCounts) string {
	t.Helper()
	var qs []Question
	for _, d := range []struct {
		name string
		n    int
	}{
		{DifficultyEasy, counts.Easy},
		{DifficultyMedium, counts.Medium},
		{DifficultyHard, counts.Hard},
	} {
		for i := 0; i < d.n; i++ {
			qs = append(qs, Question{
				Text:         fmt.Sprintf("%s %s candidate %d?", prefix, d.name, i),
				Options:      []string{"a", "b", "c"},
				CorrectIndex: 0,
				Category:     DefaultCategory,
				Difficulty:   d.name,
			})
		}
	}
	data, err := json.Marshal(qs)
	require.NoError(t, err)
	return string(data)
}

func newTestBuilder(t *testing.T, store Store, gen textGenerator) *Builder {
	t.Helper()
	b, err := NewBuilder(store, gen, config.Challenge{
		TotalTarget:       50,
		MaxBatches:        2,
		BatchCooldown:     10 * time.Minute,
		RetryDelay:        2 * time.Minute,
		RefillDelay:       0,
		PreGenerateHour:   21,
		HistoryWindowDays: 3,
		JudgeSampleSize:   30,
		Timezone:          "UTC",
	}, zerolog.Nop())
	require.NoError(t, err)
	b.now = func() time.Time { return fixedNow }
	b.sleep = func(context.Context, time.Duration) {}
	return b
}

func TestRunOnceFirstBatchFillsQuotas(t *testing.T) {
	store := newStubStore()
	gen := &stubGen{replies: []genReply{
		{text: candidatesJSON(t, "b1", BucketCounts{Easy: 20, Medium: 20})},
	}}
	b := newTestBuilder(t, store, gen)

	result, err := b.RunOnce(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Batch)
	assert.Equal(t, 25, result.Added)
	require.NotNil(t, result.Stats)
	assert.Equal(t, BucketCounts{Easy: 15, Medium: 10, Hard: 0}, *result.Stats)

	rec := store.records["2026-08-29"]
	require.NotNil(t, rec)
	assert.Equal(t, StatusProcessing, rec.Status)
	assert.Equal(t, 1, rec.BatchNumber)
	assert.Len(t, rec.Questions, 25)
	assert.Equal(t, fixedNow.Add(10*time.Minute), rec.NextEligibleAt)
	// empty history: no semantic judge call, no shortfall: no refill
	assert.Equal(t, 1, gen.calls())
}

func TestRunOnceTooEarlyToPreGenerate(t *testing.T) {
	store := newStubStore()
	store.records["2026-08-29"] = &Record{Date: "2026-08-29", Status: StatusComplete}
	gen := &stubGen{}
	b := newTestBuilder(t, store, gen)

	result, err := b.RunOnce(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.NotNil(t, result.Hour)
	require.NotNil(t, result.Threshold)
	assert.Equal(t, 12, *result.Hour)
	assert.Equal(t, 21, *result.Threshold)
	assert.Equal(t, 0, gen.calls())
	assert.Equal(t, 0, store.writes())
}

func TestRunOncePreGeneratesTomorrowAfterThreshold(t *testing.T) {
	store := newStubStore()
	store.records["2026-08-29"] = &Record{Date: "2026-08-29", Status: StatusComplete}
	gen := &stubGen{replies: []genReply{
		{text: candidatesJSON(t, "tomorrow", BucketCounts{Easy: 20, Medium: 20})},
	}}
	b := newTestBuilder(t, store, gen)
	b.now = func() time.Time { return time.Date(2026, 8, 29, 22, 0, 0, 0, time.UTC) }

	result, err := b.RunOnce(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Success)
	rec := store.records["2026-08-30"]
	require.NotNil(t, rec, "tomorrow's record should have been created")
	assert.Equal(t, 1, rec.BatchNumber)
}

func TestRunOnceAlreadyCompleteTomorrow(t *testing.T) {
	store := newStubStore()
	store.records["2026-08-29"] = &Record{Date: "2026-08-29", Status: StatusComplete}
	store.records["2026-08-30"] = &Record{Date: "2026-08-30", Status: StatusComplete}
	gen := &stubGen{}
	b := newTestBuilder(t, store, gen)
	b.now = func() time.Time { return time.Date(2026, 8, 29, 22, 0, 0, 0, time.UTC) }

	result, err := b.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Contains(t, result.Message, "already complete")
	assert.Equal(t, 0, gen.calls())
}

func TestRunOnceWaitsOnCooldown(t *testing.T) {
	store := newStubStore()
	store.records["2026-08-29"] = &Record{
		Date:           "2026-08-29",
		Status:         StatusProcessing,
		BatchNumber:    1,
		NextEligibleAt: fixedNow.Add(5 * time.Minute),
	}
	gen := &stubGen{}
	b := newTestBuilder(t, store, gen)

	result, err := b.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Contains(t, result.Message, "Waiting")
	assert.Equal(t, 0, gen.calls())
	assert.Equal(t, 0, store.writes())
	assert.Equal(t, 1, store.records["2026-08-29"].BatchNumber)
}

func TestRunOnceBypassesCooldownOnFirstBatch(t *testing.T) {
	store := newStubStore()
	store.records["2026-08-29"] = &Record{
		Date:           "2026-08-29",
		Status:         StatusProcessing,
		BatchNumber:    0,
		NextEligibleAt: fixedNow.Add(5 * time.Minute),
	}
	gen := &stubGen{replies: []genReply{
		{text: candidatesJSON(t, "b1", BucketCounts{Easy: 20, Medium: 20})},
	}}
	b := newTestBuilder(t, store, gen)

	result, err := b.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success, "batch 0 must not deadlock on its own cooldown")
}

func TestRunOnceSafetyCompletesPastMaxBatches(t *testing.T) {
	store := newStubStore()
	store.records["2026-08-29"] = &Record{
		Date:           "2026-08-29",
		Status:         StatusProcessing,
		BatchNumber:    2,
		NextEligibleAt: fixedNow.Add(-time.Minute),
	}
	gen := &stubGen{}
	b := newTestBuilder(t, store, gen)

	result, err := b.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Contains(t, result.Message, "Safety")
	assert.Equal(t, StatusComplete, store.records["2026-08-29"].Status)
	assert.Equal(t, 0, gen.calls())
}

func TestRunOnceSecondBatchCompletes(t *testing.T) {
	store := newStubStore()
	existing := makeQuestions(DifficultyEasy, 15)
	existing = append(existing, makeQuestions(DifficultyMedium, 10)...)
	store.records["2026-08-29"] = &Record{
		Date:           "2026-08-29",
		Status:         StatusProcessing,
		BatchNumber:    1,
		Questions:      existing,
		NextEligibleAt: fixedNow.Add(-time.Minute),
	}
	gen := &stubGen{replies: []genReply{
		{text: candidatesJSON(t, "b2", BucketCounts{Medium: 15, Hard: 20})},
	}}
	b := newTestBuilder(t, store, gen)

	result, err := b.RunOnce(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Batch)
	assert.Equal(t, BucketCounts{Easy: 0, Medium: 10, Hard: 15}, *result.Stats)

	rec := store.records["2026-08-29"]
	assert.Equal(t, StatusComplete, rec.Status)
	assert.Len(t, rec.Questions, 50)
	assert.GreaterOrEqual(t, len(rec.Questions), len(existing), "question list only grows")
	assert.Contains(t, rec.Log, "READY")
}

func TestRunOnceRefillRequestsExactShortfall(t *testing.T) {
	store := newStubStore()
	gen := &stubGen{replies: []genReply{
		{text: candidatesJSON(t, "thin", BucketCounts{Easy: 10, Medium: 8})},
		{text: candidatesJSON(t, "refill", BucketCounts{Easy: 10, Medium: 10})},
	}}
	b := newTestBuilder(t, store, gen)

	result, err := b.RunOnce(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, gen.calls())
	refillPrompt := gen.prompt(1)
	assert.Contains(t, refillPrompt, "Easy: 5")
	assert.Contains(t, refillPrompt, "Medium: 2")
	assert.Contains(t, refillPrompt, "Hard: 0")

	assert.Equal(t, 25, result.Added)
	assert.Equal(t, BucketCounts{Easy: 15, Medium: 10, Hard: 0}, *result.Stats)
}

func TestRunOnceRefillFailureIsNonFatal(t *testing.T) {
	store := newStubStore()
	gen := &stubGen{replies: []genReply{
		{text: candidatesJSON(t, "thin", BucketCounts{Easy: 10, Medium: 8})},
		{err: errors.New("upstream down")},
	}}
	b := newTestBuilder(t, store, gen)

	result, err := b.RunOnce(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 18, result.Added)
	assert.Len(t, store.records["2026-08-29"].Questions, 18)
}

func TestRunOnceGenerationFailureNudgesCooldown(t *testing.T) {
	store := newStubStore()
	gen := &stubGen{replies: []genReply{
		{err: errors.New("all models exhausted")},
	}}
	b := newTestBuilder(t, store, gen)

	_, err := b.RunOnce(context.Background())
	require.Error(t, err)

	assert.Equal(t, 1, store.nudged)
	assert.Equal(t, fixedNow.Add(2*time.Minute), store.nudgeAt)
	assert.Equal(t, 0, store.updated, "failed batch must not persist questions")
}

func TestRunOnceParseFailureNudgesCooldown(t *testing.T) {
	store := newStubStore()
	gen := &stubGen{replies: []genReply{
		{text: "sorry, I cannot produce JSON today"},
	}}
	b := newTestBuilder(t, store, gen)

	_, err := b.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, store.nudged)
}

func TestRunOnceDropsHistoryDuplicates(t *testing.T) {
	store := newStubStore()
	dup := Question{
		Text:       "easy candidate 0?",
		Options:    []string{"a", "b"},
		Category:   DefaultCategory,
		Difficulty: DifficultyEasy,
	}
	store.records["2026-08-28"] = &Record{
		Date:      "2026-08-28",
		Status:    StatusComplete,
		Questions: []Question{dup},
	}

	// Primary returns 16 easy questions where one collides with history.
	// The judge runs (history exists) and rejects nothing; refill covers the
	// lost slot plus the unfilled medium quota.
	var primary []Question
	primary = append(primary, Question{Text: "dup easy candidate 0?", Options: []string{"a", "b"}, CorrectIndex: 0, Difficulty: DifficultyEasy})
	primary = append(primary, makeQuestions(DifficultyEasy, 15)...)
	primary[0].Text = dup.Text
	primaryJSON, err := json.Marshal(primary)
	require.NoError(t, err)

	gen := &stubGen{replies: []genReply{
		{text: string(primaryJSON)},
		{text: "[]"}, // judge finds no semantic duplicates
		{text: candidatesJSON(t, "refill", BucketCounts{Easy: 5, Medium: 10})},
	}}
	b := newTestBuilder(t, store, gen)

	result, err := b.RunOnce(context.Background())
	require.NoError(t, err)

	require.Equal(t, 3, gen.calls())
	assert.Contains(t, gen.prompt(1), "NEW CANDIDATES", "judge prompt expected when history exists")

	rec := store.records["2026-08-29"]
	for _, q := range rec.Questions {
		if Normalize(q.Text) == Normalize(dup.Text) {
			t.Fatalf("history duplicate was accepted: %q", q.Text)
		}
	}
	assert.True(t, result.Success)
}

func TestRunOnceHonorsSemanticRejections(t *testing.T) {
	store := newStubStore()
	store.records["2026-08-28"] = &Record{
		Date:      "2026-08-28",
		Status:    StatusComplete,
		Questions: makeQuestions(DifficultyEasy, 3),
	}

	gen := &stubGen{replies: []genReply{
		{text: candidatesJSON(t, "cand", BucketCounts{Easy: 16})},
		{text: "[0, 1]"}, // judge rejects the first two candidates
		{err: errors.New("refill down")},
	}}
	b := newTestBuilder(t, store, gen)

	result, err := b.RunOnce(context.Background())
	require.NoError(t, err)

	rec := store.records["2026-08-29"]
	for _, q := range rec.Questions {
		assert.NotEqual(t, "cand easy candidate 0?", q.Text)
		assert.NotEqual(t, "cand easy candidate 1?", q.Text)
	}
	assert.Equal(t, 14, result.Stats.Easy)
}
