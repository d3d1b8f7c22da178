// Package adhoc exposes a one-shot generation endpoint for callers bringing
// their own API key. Nothing here persists or deduplicates; players use it
// for custom-topic games.
package adhoc

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/trivia-rush/server/internal/gemini"
	httperrors "github.com/trivia-rush/server/pkg/http/errors"
)

type generator interface {
	GenerateWithKeys(ctx context.Context, req gemini.Request, keys []string) (string, error)
}

type HTTPHandler struct {
	gen    generator
	logger zerolog.Logger
}

func NewHTTPHandler(gen generator, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		gen:    gen,
		logger: logger.With().Str("component", "adhoc_http").Logger(),
	}
}

type generateRequest struct {
	Prompt string                   `json:"prompt"`
	Tools  []map[string]interface{} `json:"tools"`
	APIKey string                   `json:"apiKey"`
}

// HandleGenerate runs one prompt through the generation client with the
// caller's key.
// Route: POST /v1/generate
func (h *HTTPHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if body.APIKey == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeMissingAPIKey, "missing API key")
		return
	}
	if body.Prompt == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingPrompt, "missing prompt")
		return
	}

	text, err := h.gen.GenerateWithKeys(r.Context(), gemini.Request{
		Prompt:   body.Prompt,
		JSONMode: true,
		Tools:    body.Tools,
	}, []string{body.APIKey})
	if err != nil {
		h.logger.Warn().Err(err).Msg("ad-hoc generation failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeGenerationFailed, "failed to generate content")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"text": text})
}
