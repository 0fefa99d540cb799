package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/matreq/backend/internal/domain/identity"
	"github.com/matreq/backend/internal/domain/integration"
	"github.com/matreq/backend/internal/infrastructure/logger"
	"github.com/matreq/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Gin context keys set by the session middleware
const (
	SessionKey    = "session"
	ConnectionKey = "gateway_connection"
)

// SessionValidator resolves a token to a live session
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*identity.Session, error)
}

// SessionConnector binds a session to its environment's gateway
type SessionConnector interface {
	Connect(ctx context.Context, session *identity.Session) (integration.Connection, error)
}

// ExtractToken reads the session token from X-Session-Id, falling back to an
// Authorization bearer token
func ExtractToken(c *gin.Context) string {
	if token := strings.TrimSpace(c.GetHeader(HeaderSessionID)); token != "" {
		return token
	}
	auth := c.GetHeader("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// SessionAuth requires a valid session. It stores the session in the gin
// context and tags the request logger with the session user and environment.
func SessionAuth(validator SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			abortWithError(c, dto.ErrCodeSessionNotFound, "Session token is required")
			return
		}

		session, err := validator.Validate(c.Request.Context(), token)
		if err != nil {
			abortWithSessionError(c, err)
			return
		}

		c.Set(SessionKey, session)
		c.Set(logger.GinSessionUserKey, session.User)
		c.Set(logger.GinEnvironmentKey, session.Environment)

		ctx := logger.WithSession(c.Request.Context(), session.User, session.Environment)
		reqLogger := logger.GetGinLogger(c).With(
			zap.String("user", session.User),
			zap.String("environment", session.Environment),
		)
		c.Set(logger.GinLoggerKey, reqLogger)
		c.Request = c.Request.WithContext(logger.WithContext(ctx, reqLogger))

		c.Next()
	}
}

// GatewayConnection binds the request's session to its gateway. It must run
// after SessionAuth.
func GatewayConnection(connector SessionConnector) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			abortWithError(c, dto.ErrCodeSessionNotFound, "Session token is required")
			return
		}

		conn, err := connector.Connect(c.Request.Context(), session)
		if err != nil {
			abortWithSessionError(c, err)
			return
		}
		c.Set(ConnectionKey, conn)
		c.Next()
	}
}

func abortWithSessionError(c *gin.Context, err error) {
	var sessionErr *identity.SessionError
	if errors.As(err, &sessionErr) {
		abortWithError(c, string(sessionErr.Kind), sessionErr.Error())
		return
	}
	logger.GetGinLogger(c).Error("Session lookup failed", zap.Error(err))
	abortWithError(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

// GetSession returns the session stored by SessionAuth
func GetSession(c *gin.Context) (*identity.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*identity.Session)
	return session, ok && session != nil
}

// GetConnection returns the gateway binding stored by GatewayConnection
func GetConnection(c *gin.Context) (integration.Connection, bool) {
	v, ok := c.Get(ConnectionKey)
	if !ok {
		return nil, false
	}
	conn, ok := v.(integration.Connection)
	return conn, ok && conn != nil
}
