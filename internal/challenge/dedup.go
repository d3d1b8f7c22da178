package challenge

import (
	"regexp"
	"strings"
)

var (
	punctuationRe = regexp.MustCompile("[.,/#!$%^&*;:{}=\\-_`~()?\"']")
	whitespaceRe  = regexp.MustCompile(`\s{2,}`)
)

// Normalize canonicalizes question text for exact-duplicate comparison:
// lowercase, strip punctuation, collapse whitespace runs, trim. Idempotent.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = punctuationRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ExactSet tracks canonicalized question texts already seen.
type ExactSet map[string]struct{}

func NewExactSet() ExactSet {
	return make(ExactSet)
}

// Add records a question text. Normalization happens here so callers never
// mix raw and canonical forms.
func (s ExactSet) Add(text string) {
	s[Normalize(text)] = struct{}{}
}

func (s ExactSet) Has(text string) bool {
	_, ok := s[Normalize(text)]
	return ok
}

// Corpus is the per-invocation dedup context: the exact-match set, and raw
// history texts grouped by difficulty for the semantic judge. It is rebuilt
// from storage at the start of every run and discarded afterwards.
type Corpus struct {
	Exact        ExactSet
	ByDifficulty map[string][]string
}

func NewCorpus() *Corpus {
	return &Corpus{
		Exact: NewExactSet(),
		ByDifficulty: map[string][]string{
			DifficultyEasy:   {},
			DifficultyMedium: {},
			DifficultyHard:   {},
		},
	}
}

// HasHistory reports whether any difficulty bucket holds context for the
// semantic judge.
func (c *Corpus) HasHistory() bool {
	for _, texts := range c.ByDifficulty {
		if len(texts) > 0 {
			return true
		}
	}
	return false
}

// filterExact drops candidates whose canonical text is already in the corpus.
func filterExact(candidates []Question, seen ExactSet) []Question {
	kept := make([]Question, 0, len(candidates))
	for _, q := range candidates {
		if seen.Has(q.Text) {
			continue
		}
		kept = append(kept, q)
	}
	return kept
}
