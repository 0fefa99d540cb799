package router

import (
	"github.com/gin-gonic/gin"
	"github.com/matreq/backend/internal/interfaces/http/handler"
)

// UploadPath is the full path of the upload route, used for its body limit
const UploadPath = "/api/v1/rows/upload"

// Handlers are the API handlers to mount
type Handlers struct {
	Auth        *handler.AuthHandler
	Rows        *handler.RowHandler
	Orders      *handler.OrderHandler
	Locations   *handler.LocationHandler
	Submissions *handler.SubmissionHandler
	Health      *handler.HealthHandler
}

// Guards are the per-route middleware. Session requires a valid session and
// Gateway binds it to its enterprise system. SessionTrace runs right after
// Session and Login throttles login attempts; both may be nil.
type Guards struct {
	Session      gin.HandlerFunc
	SessionTrace gin.HandlerFunc
	Gateway      gin.HandlerFunc
	Login        gin.HandlerFunc
}

// APIGroups builds the versioned API route groups
func APIGroups(h Handlers, g Guards) []*DomainGroup {
	auth := NewDomainGroup("auth", "/auth").
		POST("/login", g.Login, h.Auth.Login).
		POST("/logout", h.Auth.Logout).
		GET("/session", g.Session, g.SessionTrace, h.Auth.Session)

	environments := NewDomainGroup("environments", "/environments").
		GET("", h.Auth.Environments)

	rows := NewDomainGroup("rows", "/rows").
		Use(g.Session, g.SessionTrace, g.Gateway).
		POST("/upload", h.Rows.Upload)

	orders := NewDomainGroup("orders", "/orders").
		Use(g.Session, g.SessionTrace, g.Gateway).
		POST("", h.Orders.Create)

	locations := NewDomainGroup("locations", "/locations").
		Use(g.Session, g.SessionTrace, g.Gateway).
		GET("", h.Locations.ShipTo)

	submissions := NewDomainGroup("submissions", "/submissions").
		Use(g.Session, g.SessionTrace).
		GET("", h.Submissions.List).
		GET("/:id", h.Submissions.Get)

	return []*DomainGroup{auth, environments, rows, orders, locations, submissions}
}

// RegisterHealth mounts the probes outside the versioned API
func RegisterHealth(engine *gin.Engine, h *handler.HealthHandler) {
	engine.GET("/health", h.Live)
	engine.GET("/health/ready", h.Ready)
}

// Setup mounts the probes and every API group on engine
func Setup(engine *gin.Engine, h Handlers, g Guards, opts ...RouterOption) *Router {
	RegisterHealth(engine, h.Health)
	r := NewRouter(engine, opts...)
	for _, group := range APIGroups(h, g) {
		r.Register(group)
	}
	r.Setup()
	return r
}
