package challenge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/trivia-rush/server/internal/config"
	"github.com/trivia-rush/server/internal/gemini"
)

const dateLayout = "2006-01-02"

// Over-generation padding: the prompt asks for more questions than the quota
// so the dedup and validation filters have spare to burn.
const (
	bufferFactor      = 1.4
	questionsPerBatch = 25
	bucketSpare       = 5
)

type textGenerator interface {
	Generate(ctx context.Context, req gemini.Request) (string, error)
}

// Builder assembles a day's question pool one batch per invocation. One call
// to RunOnce performs at most one batch; the external scheduler (or the tick
// worker) re-invokes it until the record completes.
type Builder struct {
	store  Store
	gen    textGenerator
	cfg    config.Challenge
	loc    *time.Location
	logger zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func NewBuilder(store Store, gen textGenerator, cfg config.Challenge, logger zerolog.Logger) (*Builder, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	return &Builder{
		store:  store,
		gen:    gen,
		cfg:    cfg,
		loc:    loc,
		logger: logger.With().Str("component", "challenge_builder").Logger(),
		now:    time.Now,
		sleep:  sleepCtx,
	}, nil
}

// RunResult is the trigger endpoint's response body. Exactly one of the
// shapes from the API contract is populated: skip (message+hour+threshold),
// informational (message only), or success (success+batch+added+stats).
type RunResult struct {
	Success   bool          `json:"success,omitempty"`
	Message   string        `json:"message,omitempty"`
	Hour      *int          `json:"hour,omitempty"`
	Threshold *int          `json:"threshold,omitempty"`
	Batch     int           `json:"batch,omitempty"`
	Added     int           `json:"added,omitempty"`
	Stats     *BucketCounts `json:"stats,omitempty"`
}

// RunOnce executes a single builder invocation: pick the target date, gate on
// status and cooldown, run one generation batch through the filter pipeline,
// and commit the grown record in a single write at the end. Any error before
// the commit leaves the record untouched, except for the cooldown nudge after
// a failed generation.
func (b *Builder) RunOnce(ctx context.Context) (*RunResult, error) {
	nowLocal := b.now().In(b.loc)
	today := nowLocal.Format(dateLayout)

	targetDate := today
	todayRec, err := b.store.Get(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("load today's record: %w", err)
	}
	if todayRec != nil && todayRec.Status == StatusComplete {
		hour := nowLocal.Hour()
		if hour < b.cfg.PreGenerateHour {
			threshold := b.cfg.PreGenerateHour
			return &RunResult{
				Message:   "Today is complete. Too early to generate tomorrow.",
				Hour:      &hour,
				Threshold: &threshold,
			}, nil
		}
		targetDate = nowLocal.AddDate(0, 0, 1).Format(dateLayout)
		b.logger.Info().Str("target", targetDate).Int("hour", hour).Msg("pre-generating tomorrow")
	}

	rec := todayRec
	if targetDate != today {
		rec = nil
	}
	if rec == nil {
		rec, err = b.store.Get(ctx, targetDate)
		if err != nil {
			return nil, fmt.Errorf("load record for %s: %w", targetDate, err)
		}
	}
	if rec == nil {
		rec = &Record{
			Date:           targetDate,
			Questions:      []Question{},
			Status:         StatusProcessing,
			BatchNumber:    0,
			NextEligibleAt: b.now(),
		}
		if err := b.store.Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("create record for %s: %w", targetDate, err)
		}
		b.logger.Info().Str("date", targetDate).Msg("initialized challenge record")
	}

	if rec.Status == StatusComplete {
		return &RunResult{Message: fmt.Sprintf("Challenge for %s is already complete.", targetDate)}, nil
	}

	now := b.now()
	if now.Before(rec.NextEligibleAt) && rec.BatchNumber > 0 {
		// Batch 0 bypasses the cooldown: a freshly created record must never
		// deadlock on its own just-set timestamp.
		wait := rec.NextEligibleAt.Sub(now).Round(time.Minute)
		return &RunResult{Message: fmt.Sprintf("Waiting for next batch slot. %s left.", wait)}, nil
	}

	nextBatch := rec.BatchNumber + 1
	if nextBatch > b.cfg.MaxBatches {
		rec.Status = StatusComplete
		if err := b.store.Update(ctx, rec); err != nil {
			return nil, fmt.Errorf("safety-complete %s: %w", targetDate, err)
		}
		return &RunResult{Message: "Marked as complete (Safety)"}, nil
	}

	corpus, err := b.loadCorpus(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	quota := QuotaForBatch(nextBatch)
	b.logger.Info().Str("date", targetDate).Int("batch", nextBatch).Msg("running generation batch")

	final, err := b.runBatch(ctx, quota, corpus)
	if err != nil {
		// Push the next slot out a little so the scheduler's next tick
		// retries instead of hammering an upstream that just failed.
		if nudgeErr := b.store.NudgeNextRun(ctx, targetDate, now.Add(b.cfg.RetryDelay)); nudgeErr != nil {
			b.logger.Error().Err(nudgeErr).Msg("cooldown nudge failed")
		}
		return nil, err
	}

	rec.Questions = append(rec.Questions, final.Accepted...)
	rec.BatchNumber = nextBatch
	rec.NextEligibleAt = now.Add(b.cfg.BatchCooldown)
	rec.Log = fmt.Sprintf("Batch %d: Added %d unique questions.", nextBatch, len(final.Accepted))

	if nextBatch >= b.cfg.MaxBatches || len(rec.Questions) >= b.cfg.TotalTarget {
		rec.Status = StatusComplete
		rec.Log = fmt.Sprintf("READY! Total: %d", len(rec.Questions))
	}

	if err := b.store.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist batch %d for %s: %w", nextBatch, targetDate, err)
	}

	batchesCommitted.Inc()
	questionsAccepted.WithLabelValues(DifficultyEasy).Add(float64(final.Counts.Easy))
	questionsAccepted.WithLabelValues(DifficultyMedium).Add(float64(final.Counts.Medium))
	questionsAccepted.WithLabelValues(DifficultyHard).Add(float64(final.Counts.Hard))

	stats := final.Counts
	return &RunResult{
		Success: true,
		Batch:   nextBatch,
		Added:   len(final.Accepted),
		Stats:   &stats,
	}, nil
}

// runBatch is the filter pipeline for one batch: generate, validate, exact
// dedup, semantic judge, bucket fill, and the refill contingency.
func (b *Builder) runBatch(ctx context.Context, quota BucketCounts, corpus *Corpus) (allocation, error) {
	raw, err := b.gen.Generate(ctx, gemini.Request{Prompt: b.buildBatchPrompt(quota), JSONMode: true})
	if err != nil {
		return allocation{}, fmt.Errorf("generation failed: %w", err)
	}
	items, err := decodeCandidates(raw)
	if err != nil {
		return allocation{}, fmt.Errorf("generation output: %w", err)
	}

	candidates := validateAndFix(items)
	before := len(candidates)
	candidates = filterExact(candidates, corpus.Exact)
	exactRejections.Add(float64(before - len(candidates)))

	rejected := b.filterSemanticDuplicates(ctx, candidates, corpus)

	result := allocate(candidates, rejected, quota, corpus.Exact)
	if result.Shortfall.Total() <= 0 {
		return result, nil
	}

	b.logger.Info().
		Int("missing", result.Shortfall.Total()).
		Int("easy", result.Shortfall.Easy).
		Int("medium", result.Shortfall.Medium).
		Int("hard", result.Shortfall.Hard).
		Msg("quota shortfall, triggering refill")

	// Brief pause so the refill call doesn't land on the API back-to-back
	// with the primary batch.
	b.sleep(ctx, b.cfg.RefillDelay)

	refillRaw, err := b.gen.Generate(ctx, gemini.Request{Prompt: buildRefillPrompt(result.Shortfall), JSONMode: true})
	if err != nil {
		b.logger.Warn().Err(err).Msg("refill failed, proceeding with partial batch")
		return result, nil
	}
	refillItems, err := decodeCandidates(refillRaw)
	if err != nil {
		b.logger.Warn().Err(err).Msg("refill output unparseable, proceeding with partial batch")
		return result, nil
	}

	// Refill skips the semantic judge: one extra model round trip for a
	// handful of questions isn't worth the latency.
	refill := validateAndFix(refillItems)
	return allocateInto(result, refill, quota, corpus.Exact), nil
}

func (b *Builder) buildBatchPrompt(quota BucketCounts) string {
	topics := sampleTopics(int(questionsPerBatch * bufferFactor))

	var sb strings.Builder
	sb.WriteString("Task: Create a pool of trivia questions for a fast-paced quiz game.\n")
	fmt.Fprintf(&sb, "Draw on these topics (and related ones): %s\n\n", strings.Join(topics, ", "))

	sb.WriteString("Generate roughly the following (extra included as spare for filtering):\n")
	for _, d := range []string{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		if n := quota.Get(d); n > 0 {
			fmt.Fprintf(&sb, "- about %d questions at %q difficulty.\n", n+bucketSpare, d)
		}
	}

	sb.WriteString("\nTo avoid duplicates:\n")
	sb.WriteString("- Use original, varied phrasings.\n")
	sb.WriteString("- Avoid overly common questions (\"What is the capital of France?\").\n\n")
	sb.WriteString("Structure rules (mandatory):\n")
	sb.WriteString("1. Question text: at most 15 words.\n")
	sb.WriteString("2. Answers: 1-4 words each.\n")
	sb.WriteString("3. Options: 3 (standard) or 2 (true/false).\n")
	sb.WriteString("4. The \"difficulty\" field is required: \"easy\", \"medium\", or \"hard\".\n\n")
	sb.WriteString("JSON output only:\n")
	sb.WriteString(`[` + "\n" + `  { "question": "...", "options": ["..."], "correctIndex": 0, "category": "...", "difficulty": "easy" }` + "\n" + `]` + "\n")
	return sb.String()
}

func buildRefillPrompt(missing BucketCounts) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I need exactly %d additional trivia questions to top up a pool.\n", missing.Total())
	sb.WriteString("Do not repeat earlier questions.\n\n")
	sb.WriteString("Missing counts by difficulty:\n")
	fmt.Fprintf(&sb, "- Easy: %d\n", missing.Easy)
	fmt.Fprintf(&sb, "- Medium: %d\n", missing.Medium)
	fmt.Fprintf(&sb, "- Hard: %d\n\n", missing.Hard)
	sb.WriteString("Return JSON only, in the same array shape:\n")
	sb.WriteString(`[ { "question": "...", "options": ["..."], "correctIndex": 0, "category": "...", "difficulty": "easy" } ]` + "\n")
	return sb.String()
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
