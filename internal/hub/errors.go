package hub

// Error codes for domain errors surfaced to sessions.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotJoined        = "not_joined"
	ErrCodeIdentityMismatch = "identity_mismatch"
	ErrCodeUserNotFound     = "user_not_found"
	ErrCodeMessageNotFound  = "message_not_found"
	ErrCodeForbidden        = "forbidden"
	ErrCodeInternal         = "internal_error"
)

// HubError wraps a code and human-readable message.
type HubError struct {
	Code    string
	Message string
}

func (e *HubError) Error() string {
	return e.Message
}

func hubError(code, msg string) *HubError {
	return &HubError{Code: code, Message: msg}
}
