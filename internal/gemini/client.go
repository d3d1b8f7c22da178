package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// ErrQuotaExceeded marks a 429 from the API. A key that hit its quota is
// abandoned immediately; retrying it with another model is wasted budget.
var ErrQuotaExceeded = errors.New("gemini: quota exceeded")

// ErrEmptyResponse marks a response with no usable candidate text.
var ErrEmptyResponse = errors.New("gemini: empty response")

// Config holds connection details for the Gemini generateContent API.
type Config struct {
	BaseURL     string
	APIKeys     []string
	Models      []string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
}

// Request describes a single generation call.
type Request struct {
	Prompt   string
	JSONMode bool
	Tools    []map[string]interface{}
}

// Client calls the Gemini REST API with key rotation and model fallback.
type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     zerolog.Logger
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 40 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 5 * time.Second
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     logger.With().Str("component", "gemini_client").Logger(),
	}
}

// Generate walks the configured keys in order, and for each key the configured
// models in order, returning the first candidate's first content part. A 429
// abandons the remaining models for that key and rotates to the next one.
// Transient errors retry with exponential backoff before falling to the next
// model. Only when every key x model pair has failed does the call fail,
// surfacing the last error.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	return c.generate(ctx, req, c.cfg.APIKeys)
}

// GenerateWithKeys is Generate with a caller-supplied key list, used by the
// ad-hoc endpoint where players bring their own key.
func (c *Client) GenerateWithKeys(ctx context.Context, req Request, keys []string) (string, error) {
	return c.generate(ctx, req, keys)
}

func (c *Client) generate(ctx context.Context, req Request, keys []string) (string, error) {
	if len(keys) == 0 {
		return "", fmt.Errorf("gemini: no API keys configured")
	}
	if len(c.cfg.Models) == 0 {
		return "", fmt.Errorf("gemini: no models configured")
	}

	var lastErr error
	for ki, key := range keys {
		for _, model := range c.cfg.Models {
			text, err := c.tryModel(ctx, req, key, model)
			if err == nil {
				generateRequests.WithLabelValues(model, "ok").Inc()
				return text, nil
			}
			lastErr = err
			if errors.Is(err, ErrQuotaExceeded) {
				generateRequests.WithLabelValues(model, "quota").Inc()
				c.logger.Warn().Int("key_index", ki).Str("model", model).Msg("quota exhausted, rotating key")
				keyRotations.Inc()
				break
			}
			generateRequests.WithLabelValues(model, "error").Inc()
			c.logger.Warn().Err(err).Int("key_index", ki).Str("model", model).Msg("model failed, trying next")
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("gemini: all keys and models exhausted: %w", lastErr)
}

// tryModel issues one request with the retry budget applied. 5xx and network
// errors are retryable; 429 and 4xx are not.
func (c *Client) tryModel(ctx context.Context, req Request, key, model string) (string, error) {
	backoff := retry.WithMaxRetries(uint64(c.cfg.MaxRetries-1), retry.NewExponential(c.cfg.BackoffBase))

	var text string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		out, err := c.call(ctx, req, key, model)
		if err != nil {
			if errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrEmptyResponse) {
				return err
			}
			var se *statusError
			if errors.As(err, &se) && se.code < 500 {
				return err
			}
			return retry.RetryableError(err)
		}
		text = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) call(ctx context.Context, req Request, key, model string) (string, error) {
	payload := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: req.Prompt}}}},
	}
	if req.JSONMode {
		payload.GenerationConfig = map[string]interface{}{"responseMimeType": "application/json"}
	}
	if len(req.Tools) > 0 {
		payload.Tools = req.Tools
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.BaseURL, model, key)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return "", ErrQuotaExceeded
	}
	if resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", &statusError{code: resp.StatusCode, model: model}
	}

	var gResp generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return "", fmt.Errorf("decode gemini payload: %w", err)
	}
	if len(gResp.Candidates) == 0 || len(gResp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(gResp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

type statusError struct {
	code  int
	model string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gemini: model %s returned status %d", e.model, e.code)
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateContentRequest struct {
	Contents         []content                `json:"contents"`
	Tools            []map[string]interface{} `json:"tools,omitempty"`
	GenerationConfig map[string]interface{}   `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}
