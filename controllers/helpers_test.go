package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/middleware"
	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/services"
	"github.com/stretchr/testify/require"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// mockAuthMiddleware simulates the JWT middleware for testing.
// It sets up the context exactly as the real EnsureValidToken middleware does.
func mockAuthMiddleware(externalID string, claims middleware.CustomClaims, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, externalID)
		c.Set(middleware.ContextAccessToken, accessToken)
		c.Set(middleware.ContextClaims, &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: externalID},
			CustomClaims:     &claims,
		})
		c.Next()
	}
}

// setupTestBackends installs an in-memory bucket and a recording notifier
func setupTestBackends(t *testing.T) (*services.MockS3Service, *services.RecordingNotifier) {
	t.Helper()

	store := services.NewMockS3Service()
	notifier := &services.RecordingNotifier{}

	previousDocs := services.GetDocumentService()
	previousNotifier := services.GetNotifier()
	services.SetDocumentService(services.NewDocumentService(store, 0))
	services.SetNotifier(notifier)
	t.Cleanup(func() {
		services.SetDocumentService(previousDocs)
		services.SetNotifier(previousNotifier)
	})

	return store, notifier
}

// useConfig installs cfg for the duration of the test
func useConfig(t *testing.T, cfg *config.Config) {
	t.Helper()

	previous := config.GetConfig()
	config.SetConfig(cfg)
	t.Cleanup(func() { config.SetConfig(previous) })
}

// routeAs registers handler behind mock auth and LoadUser for user
func routeAs(user *models.User, method, route string, handler gin.HandlerFunc) *gin.Engine {
	router := setupTestRouter()
	router.Handle(method, route,
		mockAuthMiddleware(user.ExternalID, middleware.CustomClaims{Role: string(user.Role)}, "mock-token"),
		middleware.LoadUser(),
		handler,
	)
	return router
}

func serve(router *gin.Engine, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newJSONRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func record(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func serveJSON(t *testing.T, router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	if payload == nil {
		return serve(router, method, path, nil, "")
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return serve(router, method, path, bytes.NewReader(raw), "application/json")
}

// envelope is the success/error wrapper every handler writes
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Response body: %s", w.Body.String())
	return resp
}

func parseData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	resp := parseResponse(t, w)
	require.True(t, resp.Success, "Response body: %s", w.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	resp := parseResponse(t, w)
	require.False(t, resp.Success, "Response body: %s", w.Body.String())
	return resp.Error.Code
}
