package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/matreq/backend/internal/application/identity"
	"github.com/matreq/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles login, session lookup and logout
type AuthHandler struct {
	BaseHandler
	sessions *identityapp.SessionService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(sessions *identityapp.SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// Login godoc
// @Summary      Log in to an environment
// @Description  Verifies the credentials against the environment's gateway with one call and opens a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login request"
// @Success      200 {object} dto.Response{data=identityapp.SessionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	session, err := h.sessions.Authenticate(c.Request.Context(), identityapp.AuthenticateInput{
		Environment:   req.Environment,
		User:          req.User,
		Secret:        req.Secret,
		ClientContext: req.clientContext(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, identityapp.ToSessionResponse(session))
}

// Session godoc
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} dto.Response{data=SessionInfoResponse}
// @Failure      401 {object} dto.Response
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	h.Success(c, toSessionInfoResponse(session))
}

// Logout godoc
// @Summary      Log out
// @Description  Deletes the session. Unknown or missing tokens are accepted.
// @Tags         auth
// @Security     SessionToken
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Invalidate(c.Request.Context(), middleware.ExtractToken(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Environments godoc
// @Summary      Environment inventory
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=[]identityapp.EnvironmentResponse}
// @Router       /environments [get]
func (h *AuthHandler) Environments(c *gin.Context) {
	h.Success(c, h.sessions.Environments())
}
