package economy

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/trivia-rush/server/pkg/http/errors"
)

// HTTPHandler exposes the attempt gate and the shop.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "economy_http").Logger(),
	}
}

// HandleAttempt consumes a daily attempt.
// Route: POST /v1/daily-challenge/attempt
func (h *HTTPHandler) HandleAttempt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}

	decision, err := h.svc.CheckAttempt(r.Context(), body.UserID)
	if err != nil {
		h.logger.Error().Err(err).Msg("attempt check failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeAttemptCheckFailed, "failed to check attempt")
		return
	}

	respondJSON(w, decision)
}

// HandleShop serves wallet status and processes purchases.
// Route: GET/POST /v1/shop
func (h *HTTPHandler) HandleShop(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.shopStatus(w, r)
	case http.MethodPost:
		h.purchase(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) shopStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "userId is required", "userId")
		return
	}

	status, err := h.svc.Status(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("shop status failed")
		httperrors.RespondInternalError(w, "failed to load shop status")
		return
	}
	respondJSON(w, status)
}

func (h *HTTPHandler) purchase(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"userId"`
		ItemID string `json:"itemId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if body.UserID == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "userId is required", "userId")
		return
	}

	result, err := h.svc.Purchase(r.Context(), body.UserID, body.ItemID)
	switch {
	case errors.Is(err, ErrInvalidItem):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidItem, "unknown item")
	case errors.Is(err, ErrInsufficientFunds):
		httperrors.RespondPaymentRequired(w, httperrors.ErrCodeInsufficientFunds, "insufficient funds")
	case err != nil:
		h.logger.Error().Err(err).Str("item", body.ItemID).Msg("purchase failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodePurchaseFailed, "purchase failed")
	default:
		respondJSON(w, result)
	}
}

func respondJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}
