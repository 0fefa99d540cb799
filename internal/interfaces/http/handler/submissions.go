package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tradeapp "github.com/matreq/backend/internal/application/trade"
	"github.com/matreq/backend/internal/domain/shared"
	"github.com/matreq/backend/internal/domain/trade"
)

// ListSubmissionsRequest holds the ledger query parameters
type ListSubmissionsRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=created failed"`
	User     string `form:"user" binding:"omitempty,max=12"`
}

// SubmissionHandler serves the order submission ledger. Callers only see
// submissions of their session's environment.
type SubmissionHandler struct {
	BaseHandler
	submissions *tradeapp.SubmissionService
}

// NewSubmissionHandler creates a new SubmissionHandler
func NewSubmissionHandler(submissions *tradeapp.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// List godoc
// @Summary      List order submissions
// @Tags         submissions
// @Produce      json
// @Security     SessionToken
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size (max 100)"
// @Param        status    query string false "created or failed"
// @Param        user      query string false "Submitting user"
// @Success      200 {object} dto.Response{data=[]tradeapp.SubmissionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Router       /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req ListSubmissionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.submissions.List(c.Request.Context(), trade.SubmissionFilter{
		Filter:      shared.Filter{Page: req.Page, PageSize: req.PageSize},
		Environment: session.Environment,
		User:        strings.ToUpper(strings.TrimSpace(req.User)),
		Status:      trade.SubmissionStatus(req.Status),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get godoc
// @Summary      Get one order submission
// @Tags         submissions
// @Produce      json
// @Security     SessionToken
// @Param        id path string true "Submission ID"
// @Success      200 {object} dto.Response{data=tradeapp.SubmissionResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid submission ID")
		return
	}

	sub, err := h.submissions.Get(c.Request.Context(), session.Environment, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sub)
}
