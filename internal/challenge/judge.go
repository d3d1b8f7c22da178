package challenge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/trivia-rush/server/internal/gemini"
)

// filterSemanticDuplicates asks the model to flag candidates that restate a
// historical question. It fails open: the judge is an optional refinement,
// and an outage there must never block batch completion.
func (b *Builder) filterSemanticDuplicates(ctx context.Context, candidates []Question, corpus *Corpus) map[int]struct{} {
	rejected := make(map[int]struct{})
	if len(candidates) == 0 || !corpus.HasHistory() {
		return rejected
	}

	b.logger.Info().Int("candidates", len(candidates)).Msg("starting semantic duplicate check")

	raw, err := b.gen.Generate(ctx, gemini.Request{
		Prompt:   buildJudgePrompt(candidates, corpus.ByDifficulty, b.cfg.JudgeSampleSize),
		JSONMode: true,
	})
	if err != nil {
		b.logger.Warn().Err(err).Msg("semantic check failed, proceeding without it")
		return rejected
	}

	payload := gemini.ExtractJSONArray(raw)
	if payload == "" {
		b.logger.Warn().Msg("semantic judge returned no JSON array, proceeding without it")
		return rejected
	}
	var indices []int
	if err := json.Unmarshal([]byte(payload), &indices); err != nil {
		b.logger.Warn().Err(err).Msg("semantic judge output unparseable, proceeding without it")
		return rejected
	}

	for _, i := range indices {
		if i >= 0 && i < len(candidates) {
			rejected[i] = struct{}{}
		}
	}
	semanticRejections.Add(float64(len(rejected)))
	b.logger.Info().Int("rejected", len(rejected)).Msg("semantic filter done")
	return rejected
}

func buildJudgePrompt(candidates []Question, history map[string][]string, sampleSize int) string {
	var sb strings.Builder
	sb.WriteString("Task: Identify semantic duplicates in a trivia database.\n\n")
	sb.WriteString("Below is a list of NEW CANDIDATE questions (numbered).\n")
	sb.WriteString("Below that is a list of EXISTING HISTORY questions grouped by difficulty.\n\n")
	sb.WriteString("You must identify any NEW question that is semantically identical or extremely similar to an EXISTING question.\n\n")
	sb.WriteString("Rules for duplicate detection:\n")
	sb.WriteString("1. Same fact, different wording (e.g. \"Capital of France?\" vs \"Paris is the capital of?\").\n")
	sb.WriteString("2. Minor variations (e.g. \"Who wrote Harry Potter?\" vs \"Author of Harry Potter books\").\n")
	sb.WriteString("3. Compare strictly within difficulty levels, but if a question is identical to ANY history question, flag it.\n\n")

	sb.WriteString("--- NEW CANDIDATES ---\n")
	for i, q := range candidates {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i, q.Difficulty, q.Text)
	}

	sb.WriteString("\n--- EXISTING HISTORY (Context) ---\n")
	fmt.Fprintf(&sb, "[EASY]: %s\n", strings.Join(tail(history[DifficultyEasy], sampleSize), " | "))
	fmt.Fprintf(&sb, "[MEDIUM]: %s\n", strings.Join(tail(history[DifficultyMedium], sampleSize), " | "))
	fmt.Fprintf(&sb, "[HARD]: %s\n", strings.Join(tail(history[DifficultyHard], sampleSize), " | "))

	sb.WriteString("\nOUTPUT: A JSON array of numbers only. These are the indices of the NEW candidates that should be REJECTED.\n")
	sb.WriteString("If no duplicates found, return [].\n")
	sb.WriteString("Example: [0, 4, 12]\n")
	return sb.String()
}

// tail returns the most recent n entries.
func tail(texts []string, n int) []string {
	if len(texts) <= n {
		return texts
	}
	return texts[len(texts)-n:]
}
