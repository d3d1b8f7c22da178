package challenge

import (
	"time"
)

// Difficulty constants for readability.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// DefaultCategory replaces a missing category on generated questions.
const DefaultCategory = "general"

// Status tracks a daily challenge through its lifecycle. Transitions are
// monotonic: not_started -> processing -> complete, never backwards.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
)

// Question is one accepted trivia question. The JSON field names are the wire
// format shared with the client and the generation prompt.
type Question struct {
	Text         string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Category     string   `json:"category"`
	Difficulty   string   `json:"difficulty"`
}

// Record is one calendar day's challenge row, keyed by date (YYYY-MM-DD in
// the configured local timezone).
type Record struct {
	Date           string
	Questions      []Question
	Status         Status
	BatchNumber    int
	NextEligibleAt time.Time
	Log            string
}

// BucketCounts carries a per-difficulty tally. It doubles as the quota table
// entry and as the accepted/shortfall stats.
type BucketCounts struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

func (b BucketCounts) Total() int {
	return b.Easy + b.Medium + b.Hard
}

func (b BucketCounts) Get(difficulty string) int {
	switch difficulty {
	case DifficultyEasy:
		return b.Easy
	case DifficultyMedium:
		return b.Medium
	case DifficultyHard:
		return b.Hard
	}
	return 0
}

func (b *BucketCounts) Add(difficulty string) {
	switch difficulty {
	case DifficultyEasy:
		b.Easy++
	case DifficultyMedium:
		b.Medium++
	case DifficultyHard:
		b.Hard++
	}
}

// batchQuotas is the per-batch acceptance target. Batch 1 skews easy/medium,
// batch 2 skews medium/hard; together they fill the 50-question day.
var batchQuotas = map[int]BucketCounts{
	1: {Easy: 15, Medium: 10, Hard: 0},
	2: {Easy: 0, Medium: 10, Hard: 15},
}

// QuotaForBatch returns the quota row for a batch number. Batch numbers past
// the table reuse the final row so a raised max-batch config stays sane.
func QuotaForBatch(n int) BucketCounts {
	if q, ok := batchQuotas[n]; ok {
		return q
	}
	return batchQuotas[2]
}
