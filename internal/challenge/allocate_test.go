package challenge

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeQuestions(difficulty string, n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{
			Text:         fmt.Sprintf("%s question number %d?", difficulty, i),
			Options:      []string{"a", "b", "c"},
			CorrectIndex: 0,
			Category:     DefaultCategory,
			Difficulty:   difficulty,
		}
	}
	return qs
}

func TestAllocateFillsQuotasInOrder(t *testing.T) {
	// 20 easy + 20 medium candidates against the batch-1 quota.
	candidates := append(makeQuestions(DifficultyEasy, 20), makeQuestions(DifficultyMedium, 20)...)
	quota := BucketCounts{Easy: 15, Medium: 10, Hard: 0}

	out := allocate(candidates, nil, quota, NewExactSet())

	assert.Equal(t, BucketCounts{Easy: 15, Medium: 10, Hard: 0}, out.Counts)
	assert.Equal(t, BucketCounts{}, out.Shortfall)
	assert.Len(t, out.Accepted, 25)
}

func TestAllocateNeverExceedsQuota(t *testing.T) {
	candidates := append(makeQuestions(DifficultyEasy, 50), makeQuestions(DifficultyHard, 50)...)
	quota := BucketCounts{Easy: 3, Medium: 0, Hard: 2}

	out := allocate(candidates, nil, quota, NewExactSet())

	assert.LessOrEqual(t, out.Counts.Easy, quota.Easy)
	assert.LessOrEqual(t, out.Counts.Medium, quota.Medium)
	assert.LessOrEqual(t, out.Counts.Hard, quota.Hard)
	assert.Len(t, out.Accepted, 5)
}

func TestAllocateNoCrossBucketSubstitution(t *testing.T) {
	// Plenty of easy spare, but the hard quota must stay unfilled.
	candidates := makeQuestions(DifficultyEasy, 30)
	quota := BucketCounts{Easy: 5, Medium: 0, Hard: 10}

	out := allocate(candidates, nil, quota, NewExactSet())

	assert.Equal(t, 5, out.Counts.Easy)
	assert.Equal(t, 0, out.Counts.Hard)
	assert.Equal(t, 10, out.Shortfall.Hard)
}

func TestAllocateSkipsRejectedIndices(t *testing.T) {
	candidates := makeQuestions(DifficultyEasy, 5)
	rejected := map[int]struct{}{0: {}, 3: {}}

	out := allocate(candidates, rejected, BucketCounts{Easy: 5}, NewExactSet())

	require.Len(t, out.Accepted, 3)
	for _, q := range out.Accepted {
		assert.NotEqual(t, candidates[0].Text, q.Text)
		assert.NotEqual(t, candidates[3].Text, q.Text)
	}
}

func TestAllocateDropsDuplicateWithinBatch(t *testing.T) {
	dup := Question{Text: "Tallest building in the world?", Options: []string{"a", "b"}, Difficulty: DifficultyEasy}
	rephrased := Question{Text: "  tallest building in the WORLD  ", Options: []string{"a", "b"}, Difficulty: DifficultyEasy}
	candidates := []Question{dup, rephrased}

	out := allocate(candidates, nil, BucketCounts{Easy: 5}, NewExactSet())

	require.Len(t, out.Accepted, 1)
	assert.Equal(t, dup.Text, out.Accepted[0].Text, "first occurrence wins")
}

func TestAllocateAcceptedTextsPairwiseDistinct(t *testing.T) {
	candidates := append(makeQuestions(DifficultyEasy, 10), makeQuestions(DifficultyEasy, 10)...)

	out := allocate(candidates, nil, BucketCounts{Easy: 20}, NewExactSet())

	seen := map[string]bool{}
	for _, q := range out.Accepted {
		norm := Normalize(q.Text)
		assert.False(t, seen[norm], "duplicate accepted: %q", q.Text)
		seen[norm] = true
	}
	assert.Len(t, out.Accepted, 10)
}

func TestAllocateShortfall(t *testing.T) {
	candidates := append(makeQuestions(DifficultyEasy, 10), makeQuestions(DifficultyMedium, 8)...)
	quota := BucketCounts{Easy: 15, Medium: 10, Hard: 0}

	out := allocate(candidates, nil, quota, NewExactSet())

	assert.Equal(t, BucketCounts{Easy: 5, Medium: 2, Hard: 0}, out.Shortfall)
}

func TestAllocateIntoTopsUpShortfall(t *testing.T) {
	seen := NewExactSet()
	quota := BucketCounts{Easy: 15, Medium: 10, Hard: 0}
	first := allocate(append(makeQuestions(DifficultyEasy, 10), makeQuestions(DifficultyMedium, 8)...), nil, quota, seen)
	require.Equal(t, 7, first.Shortfall.Total())

	refill := append(makeQuestions(DifficultyEasy, 10), makeQuestions(DifficultyMedium, 10)...)
	// refill texts collide with the primary pass; rename to stay unique
	for i := range refill {
		refill[i].Text = "refill " + refill[i].Text
	}

	out := allocateInto(first, refill, quota, seen)

	assert.Equal(t, BucketCounts{Easy: 15, Medium: 10, Hard: 0}, out.Counts)
	assert.Equal(t, BucketCounts{}, out.Shortfall)
	assert.Len(t, out.Accepted, 25)
}

func TestAllocateIntoRespectsSeenSet(t *testing.T) {
	seen := NewExactSet()
	quota := BucketCounts{Easy: 2}
	first := allocate(makeQuestions(DifficultyEasy, 1), nil, quota, seen)

	// refill repeats the already-accepted question
	out := allocateInto(first, makeQuestions(DifficultyEasy, 1), quota, seen)
	assert.Len(t, out.Accepted, 1)
	assert.Equal(t, 1, out.Shortfall.Easy)
}
