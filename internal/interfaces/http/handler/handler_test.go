package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	identityapp "github.com/matreq/backend/internal/application/identity"
	tradeapp "github.com/matreq/backend/internal/application/trade"
	"github.com/matreq/backend/internal/domain/integration"
	"github.com/matreq/backend/internal/domain/trade"
	"github.com/matreq/backend/internal/infrastructure/auth"
	"github.com/matreq/backend/internal/infrastructure/cache"
	csvimport "github.com/matreq/backend/internal/infrastructure/import"
	"github.com/matreq/backend/internal/infrastructure/persistence"
	"github.com/matreq/backend/internal/infrastructure/persistence/models"
	"github.com/matreq/backend/internal/infrastructure/rfc"
	"github.com/matreq/backend/internal/interfaces/http/dto"
	"github.com/matreq/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

const (
	testEnvironment = "QAS"
	testUser        = "jdoe"
	testSecret      = "s3cret"
)

// testServer runs the API against a sandbox gateway, an in-memory session
// store and an in-memory sqlite ledger
type testServer struct {
	engine  *gin.Engine
	sandbox *rfc.Sandbox
	health  *HealthHandler
}

func newTestServer(t *testing.T, maxUploadSize int64) *testServer {
	t.Helper()
	log := zaptest.NewLogger(t)

	connector, err := rfc.NewConnector([]integration.Environment{
		{ID: testEnvironment, Description: "Quality", Mode: rfc.ModeSandbox},
	}, rfc.ConnectorOptions{CallTimeout: 5 * time.Second}, log)
	require.NoError(t, err)
	sandbox := rfc.NewDemoSandbox()
	sandbox.AddUser(testUser, testSecret)
	connector.RegisterGateway(testEnvironment, sandbox)

	cipher, err := auth.NewCredentialCipher(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	store := cache.NewInMemorySessionStore()
	t.Cleanup(func() { _ = store.Close() })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.OrderSubmissionModel{}))

	rules := trade.NewRuleBook(nil)
	sessions := identityapp.NewSessionService(store, connector, cipher, 0, log)
	enrichment := tradeapp.NewEnrichmentService(rules, 2, log)
	uploads := tradeapp.NewUploadService(csvimport.NewRowParser(), nil, enrichment, log)
	orders := tradeapp.NewOrderService(rules, 2, persistence.NewGormSubmissionRepository(db), nil, log)

	authHandler := NewAuthHandler(sessions)
	rowHandler := NewRowHandler(uploads, maxUploadSize)
	orderHandler := NewOrderHandler(orders)
	locationHandler := NewLocationHandler(tradeapp.NewLocationService())
	submissionHandler := NewSubmissionHandler(tradeapp.NewSubmissionService(persistence.NewGormSubmissionRepository(db)))
	healthHandler := NewHealthHandler("matreq-backend", "test")

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/health", healthHandler.Live)
	engine.GET("/health/ready", healthHandler.Ready)

	api := engine.Group("/api/v1")
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/environments", authHandler.Environments)

	authed := api.Group("", middleware.SessionAuth(sessions))
	authed.GET("/auth/session", authHandler.Session)
	authed.GET("/submissions", submissionHandler.List)
	authed.GET("/submissions/:id", submissionHandler.Get)

	bound := authed.Group("", middleware.GatewayConnection(sessions))
	bound.POST("/rows/upload", rowHandler.Upload)
	bound.POST("/orders", orderHandler.Create)
	bound.GET("/locations", locationHandler.ShipTo)

	return &testServer{engine: engine, sandbox: sandbox, health: healthHandler}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.HeaderSessionID, token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(t *testing.T, token, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rows/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set(middleware.HeaderSessionID, token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"environment": testEnvironment,
		"user":        testUser,
		"secret":      testSecret,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var session identityapp.SessionResponse
	decodeData(t, w, &session)
	require.NotEmpty(t, session.SessionToken)
	return session.SessionToken
}

// decodeData unmarshals the envelope's data into out and returns the envelope
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var envelope struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	if out != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return envelope.Response
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeData(t, w, nil)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}
