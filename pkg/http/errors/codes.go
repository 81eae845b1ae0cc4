package errors

// Error codes shared by HTTP responses and WebSocket error events.
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeAuthenticationRequired = "authentication_required"
	ErrCodeIdentityMismatch       = "identity_mismatch"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"
	ErrCodeInvalidMode      = "invalid_mode"

	// Resource errors
	ErrCodeNotFound        = "not_found"
	ErrCodeAlreadyExists   = "already_exists"
	ErrCodeProfileNotFound = "profile_not_found"
	ErrCodeProblemNotFound = "problem_not_found"

	// Business logic errors
	ErrCodeRegistrationFailed  = "registration_failed"
	ErrCodeLoginFailed         = "login_failed"
	ErrCodeProfileUpdateFailed = "profile_update_failed"

	// Room/Match errors
	ErrCodeRoomNotFound        = "room_not_found"
	ErrCodeRoomNotWaiting      = "room_not_waiting"
	ErrCodeJoinFailed          = "join_failed"
	ErrCodeLobbyCreationFailed = "lobby_creation_failed"
	ErrCodeEnqueueFailed       = "enqueue_failed"

	// Submission errors
	ErrCodeSubmitFailed = "submit_failed"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"

	// Leaderboard errors
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
)
