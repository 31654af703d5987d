package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"
	ErrCodeUnknownGoal      = "unknown_optimization_goal"
	ErrCodeTooManyPlayers   = "too_many_players"

	// Resource errors
	ErrCodeNotFound       = "not_found"
	ErrCodePlayerNotFound = "player_not_found"
	ErrCodeAlreadyExists  = "already_exists"

	// Business logic errors
	ErrCodeRegistrationFailed = "player_registration_failed"
	ErrCodeRosterLookupFailed = "roster_lookup_failed"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
)
