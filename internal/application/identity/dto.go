package identity

import (
	"time"

	"github.com/matreq/backend/internal/domain/identity"
)

// AuthenticateInput is a login attempt
type AuthenticateInput struct {
	Environment   string
	User          string
	Secret        string
	ClientContext identity.ClientContext
}

// SessionResponse is the public view of a session. It never carries the
// credential.
type SessionResponse struct {
	SessionToken string    `json:"sessionToken"`
	User         string    `json:"user"`
	Environment  string    `json:"environment"`
	Client       string    `json:"client"`
	Language     string    `json:"language"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ToSessionResponse converts a session to its public view
func ToSessionResponse(s *identity.Session) SessionResponse {
	return SessionResponse{
		SessionToken: s.Token,
		User:         s.User,
		Environment:  s.Environment,
		Client:       s.ClientContext.Client,
		Language:     s.ClientContext.Language,
		ExpiresAt:    s.ExpiresAt,
	}
}

// EnvironmentResponse is one entry of the environment inventory
type EnvironmentResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}
