package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"

	// Account errors
	ErrCodeRegistrationFailed = "registration_failed"
	ErrCodeLoginFailed        = "login_failed"
	ErrCodeEmailTaken         = "email_taken"
	ErrCodeUsernameTaken      = "username_taken"
	ErrCodeRefreshFailed      = "refresh_failed"

	// Generation errors
	ErrCodeGenerationFailed = "generation_failed"
	ErrCodeEmptySource      = "empty_source"
	ErrCodeInvalidPDF       = "invalid_pdf"
	ErrCodeSummaryFailed    = "summary_failed"

	// Test / attempt errors
	ErrCodeTestCreationFailed = "test_creation_failed"
	ErrCodeSpecNotFound       = "spec_not_found"
	ErrCodeInvalidTestID      = "invalid_test_id"
	ErrCodeTestNotFound       = "test_not_found"
	ErrCodeSubmitFailed       = "submit_failed"
	ErrCodeAttemptNotActive   = "attempt_not_active"
	ErrCodeConfirmRequired    = "confirm_required"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
)
