package challenge

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	httperrors "github.com/trivia-rush/server/pkg/http/errors"
)

// poolCache is the read-side cache boundary; nil disables caching.
type poolCache interface {
	Get(ctx context.Context, date string) ([]Question, error)
	Set(ctx context.Context, date string, questions []Question) error
}

// HTTPHandler exposes the cron trigger and the client-facing read endpoint.
type HTTPHandler struct {
	builder *Builder
	store   Store
	cache   poolCache
	total   int
	loc     *time.Location
	logger  zerolog.Logger
}

func NewHTTPHandler(builder *Builder, store Store, cache *PoolCache, logger zerolog.Logger) *HTTPHandler {
	var pc poolCache
	if cache != nil {
		pc = cache
	}
	return &HTTPHandler{
		builder: builder,
		store:   store,
		cache:   pc,
		total:   builder.cfg.TotalTarget,
		loc:     builder.loc,
		logger:  logger.With().Str("component", "challenge_http").Logger(),
	}
}

// HandleTrigger runs one builder invocation. The external scheduler calls
// this on a fixed cadence; the response is diagnostic, the scheduler ignores
// it beyond the status code.
// Route: GET /v1/cron/daily-challenge
func (h *HTTPHandler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := h.builder.RunOnce(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("challenge run failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeChallengeRunFailed, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

type readResponse struct {
	Date        string     `json:"date"`
	Status      Status     `json:"status"`
	Progress    int        `json:"progress"`
	Total       int        `json:"total"`
	Questions   []Question `json:"questions"`
	Batch       int        `json:"currentBatch,omitempty"`
	Log         string     `json:"log,omitempty"`
	NextBatchAt string     `json:"nextBatchAt,omitempty"`
}

// HandleGet returns today's challenge. Questions are included only once the
// pool is complete; a partially built day returns an empty array so clients
// can never start a game against a partial pool.
// Route: GET /v1/daily-challenge
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	today := h.builder.now().In(h.loc).Format(dateLayout)

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, today); err == nil && cached != nil {
			h.respond(w, readResponse{
				Date:      today,
				Status:    StatusComplete,
				Progress:  len(cached),
				Total:     h.total,
				Questions: cached,
			})
			return
		}
	}

	rec, err := h.store.Get(ctx, today)
	if err != nil {
		h.logger.Error().Err(err).Msg("challenge fetch failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeChallengeFetchFailed, "failed to load challenge")
		return
	}

	if rec == nil {
		h.respond(w, readResponse{
			Date:      today,
			Status:    StatusNotStarted,
			Progress:  0,
			Total:     h.total,
			Questions: []Question{},
		})
		return
	}

	questions := []Question{}
	if rec.Status == StatusComplete {
		questions = rec.Questions
		if h.cache != nil {
			if err := h.cache.Set(ctx, today, questions); err != nil {
				h.logger.Warn().Err(err).Msg("pool cache write failed")
			}
		}
	}

	h.respond(w, readResponse{
		Date:        today,
		Status:      rec.Status,
		Progress:    len(rec.Questions),
		Total:       h.total,
		Questions:   questions,
		Batch:       rec.BatchNumber,
		Log:         rec.Log,
		NextBatchAt: rec.NextEligibleAt.Format(time.RFC3339),
	})
}

func (h *HTTPHandler) respond(w http.ResponseWriter, body readResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}
