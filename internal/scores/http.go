package scores

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/trivia-rush/server/pkg/http/errors"
)

// HTTPHandler exposes the high-score boards.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "scores_http").Logger(),
	}
}

// HandleScores serves the boards and records results.
// Route: GET/POST /v1/high-scores
func (h *HTTPHandler) HandleScores(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.submit(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	boardType := r.URL.Query().Get("type")
	if boardType == "" {
		boardType = "daily"
	}

	var (
		payload any
		err     error
	)
	switch boardType {
	case "accumulated":
		payload, err = h.svc.Accumulated(ctx)
	case "personal":
		payload, err = h.svc.Personal(ctx, r.URL.Query().Get("userId"))
	case "daily":
		payload, err = h.svc.Daily(ctx)
	default:
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "unknown board type")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("type", boardType).Msg("score fetch failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeScoreFetchFailed, "failed to load scores")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"scores": payload})
}

type submitRequest struct {
	UserID       string   `json:"userId"`
	PlayerName   string   `json:"playerName"`
	MaskedID     string   `json:"maskedId"`
	Score        *int     `json:"score"`
	Money        int      `json:"money"`
	Stage        int      `json:"stage"`
	CorrectCount int      `json:"correct_count"`
	WrongCount   int      `json:"wrong_count"`
	Achievements []string `json:"achievements"`
}

func (h *HTTPHandler) submit(w http.ResponseWriter, r *http.Request) {
	var body submitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if body.PlayerName == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "playerName is required", "playerName")
		return
	}
	if body.Score == nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "score is required", "score")
		return
	}

	entry := &Entry{
		UserID:       body.UserID,
		PlayerName:   body.PlayerName,
		MaskedID:     body.MaskedID,
		Score:        *body.Score,
		Money:        body.Money,
		Stage:        body.Stage,
		CorrectCount: body.CorrectCount,
		WrongCount:   body.WrongCount,
		Achievements: body.Achievements,
	}
	if err := h.svc.Submit(r.Context(), entry); err != nil {
		h.logger.Error().Err(err).Msg("score submit failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeScoreSubmitFailed, "failed to record score")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
