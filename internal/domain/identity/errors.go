package identity

import "fmt"

// AuthErrorKind classifies login failures
type AuthErrorKind string

const (
	AuthInvalidCredentials AuthErrorKind = "INVALID_CREDENTIALS"
	AuthUnknownEnvironment AuthErrorKind = "UNKNOWN_ENVIRONMENT"
	AuthTransport          AuthErrorKind = "TRANSPORT"
)

// AuthError is a terminal login failure. It is never retried.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	Err     error
}

// Error implements the error interface
func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("authentication failed: %s", e.Kind)
}

// Unwrap returns the underlying error
func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError creates an AuthError
func NewAuthError(kind AuthErrorKind, message string, err error) *AuthError {
	return &AuthError{Kind: kind, Message: message, Err: err}
}

// SessionErrorKind classifies session validation failures
type SessionErrorKind string

const (
	SessionNotFound SessionErrorKind = "SESSION_NOT_FOUND"
	SessionExpired  SessionErrorKind = "SESSION_EXPIRED"
)

// SessionError means the caller must authenticate again.
type SessionError struct {
	Kind SessionErrorKind
}

// Error implements the error interface
func (e *SessionError) Error() string {
	switch e.Kind {
	case SessionExpired:
		return "Session has expired"
	default:
		return "Invalid or expired session"
	}
}

// Is matches any SessionError of the same kind
func (e *SessionError) Is(target error) bool {
	t, ok := target.(*SessionError)
	return ok && t.Kind == e.Kind
}

var (
	ErrSessionNotFound = &SessionError{Kind: SessionNotFound}
	ErrSessionExpired  = &SessionError{Kind: SessionExpired}
)
