package handler

import (
	"time"

	"github.com/matreq/backend/internal/domain/identity"
)

// LoginRequest is the login body
type LoginRequest struct {
	Environment   string                `json:"environment" binding:"required,max=3"`
	User          string                `json:"user" binding:"required,max=12"`
	Secret        string                `json:"secret" binding:"required,max=256"`
	ClientContext *ClientContextRequest `json:"clientContext"`
}

// ClientContextRequest carries the optional logon client and language
type ClientContextRequest struct {
	Client   string `json:"client" binding:"omitempty,len=3,numeric"`
	Language string `json:"language" binding:"omitempty,max=2"`
}

func (r LoginRequest) clientContext() identity.ClientContext {
	if r.ClientContext == nil {
		return identity.ClientContext{}
	}
	return identity.ClientContext{
		Client:   r.ClientContext.Client,
		Language: r.ClientContext.Language,
	}
}

// SessionInfoResponse describes the current session without its token
type SessionInfoResponse struct {
	User        string    `json:"user"`
	Environment string    `json:"environment"`
	Client      string    `json:"client"`
	Language    string    `json:"language"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func toSessionInfoResponse(s *identity.Session) SessionInfoResponse {
	return SessionInfoResponse{
		User:        s.User,
		Environment: s.Environment,
		Client:      s.ClientContext.Client,
		Language:    s.ClientContext.Language,
		ExpiresAt:   s.ExpiresAt,
	}
}
