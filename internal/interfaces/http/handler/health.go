package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matreq/backend/internal/interfaces/http/dto"
	"golang.org/x/sync/errgroup"
)

const defaultCheckTimeout = 3 * time.Second

// HealthCheck reports whether one dependency is usable
type HealthCheck func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	BaseHandler
	service   string
	version   string
	startTime time.Time
	checks    map[string]HealthCheck
	timeout   time.Duration
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(service, version string) *HealthHandler {
	return &HealthHandler{
		service:   service,
		version:   version,
		startTime: time.Now(),
		checks:    make(map[string]HealthCheck),
		timeout:   defaultCheckTimeout,
	}
}

// AddCheck registers a readiness check
func (h *HealthHandler) AddCheck(name string, check HealthCheck) *HealthHandler {
	h.checks[name] = check
	return h
}

// HealthResponse is the liveness body
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse lists the outcome of every check
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Live godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Router       /health [get]
func (h *HealthHandler) Live(c *gin.Context) {
	h.Success(c, HealthResponse{
		Status:  "ok",
		Service: h.service,
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready godoc
// @Summary      Readiness probe
// @Tags         health
// @Produce      json
// @Success      200 {object} dto.Response{data=ReadinessResponse}
// @Failure      503 {object} dto.Response{data=ReadinessResponse}
// @Router       /health/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]error, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			results[i] = h.checks[name](ctx)
			return nil
		})
	}
	_ = g.Wait()

	resp := ReadinessResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	for i, name := range names {
		if results[i] != nil {
			resp.Status = "unavailable"
			resp.Checks[name] = results[i].Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	if resp.Status != "ok" {
		c.JSON(http.StatusServiceUnavailable, dto.Response{
			Success: false,
			Data:    resp,
			Error:   &dto.ErrorInfo{Code: dto.ErrCodeServiceUnavailable, Message: "Dependencies unavailable"},
		})
		return
	}
	h.Success(c, resp)
}
