package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matreq/backend/internal/domain/identity"
	"github.com/matreq/backend/internal/domain/integration"
	"github.com/matreq/backend/internal/domain/shared"
	"github.com/matreq/backend/internal/infrastructure/logger"
	"github.com/matreq/backend/internal/interfaces/http/dto"
	"github.com/matreq/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidRequest, message)
}

// Unauthorized sends a 401 response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		details,
	))
}

// BindError reports a request binding failure. Field validation failures get
// per-field details; anything else is a malformed body.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		h.ErrorWithCode(c, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
		return
	}
	if details := middleware.ValidationDetails(err); details != nil {
		h.ValidationError(c, details)
		return
	}
	h.BadRequest(c, "Malformed request body")
}

// HandleError translates service errors into HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var (
		domainErr  *shared.DomainError
		authErr    *identity.AuthError
		sessionErr *identity.SessionError
	)
	switch {
	case errors.As(err, &domainErr):
		h.ErrorWithCode(c, domainErr.Code, domainErr.Message)

	case errors.As(err, &authErr):
		switch authErr.Kind {
		case identity.AuthTransport:
			h.ErrorWithCode(c, dto.ErrCodeGatewayUnavailable, authErr.Error())
		default:
			h.ErrorWithCode(c, string(authErr.Kind), authErr.Error())
		}

	case errors.As(err, &sessionErr):
		h.ErrorWithCode(c, string(sessionErr.Kind), sessionErr.Error())

	case integration.IsTransport(err):
		logger.GetGinLogger(c).Warn("Gateway unavailable", zap.Error(err))
		h.ErrorWithCode(c, dto.ErrCodeGatewayUnavailable, "Enterprise system unavailable")

	default:
		logger.GetGinLogger(c).Error("Request failed", zap.Error(err))
		h.ErrorWithCode(c, dto.ErrCodeInternal, "An unexpected error occurred")
	}
}

// connection returns the gateway binding set by middleware.GatewayConnection.
// It writes a 401 and reports false when the route was not wired with it.
func (h *BaseHandler) connection(c *gin.Context) (integration.Connection, bool) {
	conn, ok := middleware.GetConnection(c)
	if !ok {
		h.ErrorWithCode(c, dto.ErrCodeSessionNotFound, "Session token is required")
	}
	return conn, ok
}

// session returns the session set by middleware.SessionAuth
func (h *BaseHandler) session(c *gin.Context) (*identity.Session, bool) {
	session, ok := middleware.GetSession(c)
	if !ok {
		h.ErrorWithCode(c, dto.ErrCodeSessionNotFound, "Session token is required")
	}
	return session, ok
}
