package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeMissingField   = "missing_field"

	// Resource errors
	ErrCodeNotFound = "not_found"

	// Challenge errors
	ErrCodeChallengeFetchFailed = "challenge_fetch_failed"
	ErrCodeChallengeRunFailed   = "challenge_run_failed"

	// Economy errors
	ErrCodeInvalidItem        = "invalid_item"
	ErrCodeInsufficientFunds  = "insufficient_funds"
	ErrCodePurchaseFailed     = "purchase_failed"
	ErrCodeAttemptCheckFailed = "attempt_check_failed"

	// Score errors
	ErrCodeScoreSubmitFailed = "score_submit_failed"
	ErrCodeScoreFetchFailed  = "score_fetch_failed"

	// Generation errors
	ErrCodeMissingAPIKey    = "missing_api_key"
	ErrCodeMissingPrompt    = "missing_prompt"
	ErrCodeGenerationFailed = "generation_failed"

	// Server errors
	ErrCodeInternalError = "internal_error"
	ErrCodeUpstreamError = "upstream_error"
)
