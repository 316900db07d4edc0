package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/testutil"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:   testutil.TestJWTSecret,
		JWTIssuer:   testutil.TestJWTIssuer,
		JWTAudience: testutil.TestJWTAudience,
	}
}

func TestNewTokenValidator_RequiresSecret(t *testing.T) {
	_, err := NewTokenValidator(&config.Config{})
	assert.Error(t, err)
}

func TestEnsureValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	auth, err := EnsureValidToken(testConfig())
	require.NoError(t, err)

	router := gin.New()
	router.GET("/protected", auth, func(c *gin.Context) {
		userID, _ := GetUserID(c)
		token, _ := GetAccessToken(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id": userID,
			"role":    GetCustomClaims(c).Role,
			"token":   token,
		})
	})

	valid := testutil.SignToken(t, testutil.TokenOptions{Subject: "sub-1", UserID: "user-1", Role: "supervisor"})
	subjectOnly := testutil.SignToken(t, testutil.TokenOptions{Subject: "sub-2"})

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedCode   string
		expectedUserID string
	}{
		{name: "valid token uses userId claim", header: "Bearer " + valid, expectedStatus: http.StatusOK, expectedUserID: "user-1"},
		{name: "falls back to sub", header: "Bearer " + subjectOnly, expectedStatus: http.StatusOK, expectedUserID: "sub-2"},
		{name: "missing header", header: "", expectedStatus: http.StatusUnauthorized, expectedCode: "UNAUTHORIZED"},
		{name: "malformed token", header: "Bearer not-a-jwt", expectedStatus: http.StatusUnauthorized, expectedCode: "INVALID_TOKEN"},
		{
			name:           "wrong secret",
			header:         "Bearer " + testutil.SignToken(t, testutil.TokenOptions{Subject: "x", Secret: "other-secret"}),
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "INVALID_TOKEN",
		},
		{
			name:           "wrong audience",
			header:         "Bearer " + testutil.SignToken(t, testutil.TokenOptions{Subject: "x", Audience: "someone-else"}),
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "INVALID_TOKEN",
		},
		{
			name:           "expired token",
			header:         "Bearer " + testutil.SignToken(t, testutil.TokenOptions{Subject: "x", Expiry: -time.Hour}),
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "INVALID_TOKEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.expectedCode != "" {
				assert.Equal(t, false, body["success"])
				errObj := body["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedCode, errObj["code"])
				return
			}
			assert.Equal(t, tt.expectedUserID, body["user_id"])
			assert.NotEmpty(t, body["token"])
		})
	}
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		setupFunc func(*gin.Context)
		wantID    string
		wantErr   bool
	}{
		{"successfully extracts user ID", func(c *gin.Context) { c.Set(ContextUserID, "user-123") }, "user-123", false},
		{"user ID not found in context", func(c *gin.Context) {}, "", true},
		{"user ID is not a string", func(c *gin.Context) { c.Set(ContextUserID, 12345) }, "", true},
		{"user ID is empty", func(c *gin.Context) { c.Set(ContextUserID, "") }, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			tt.setupFunc(c)

			gotID, err := GetUserID(c)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, gotID)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantID, gotID)
		})
	}
}

func TestGetClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("successfully extracts claims", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(ContextClaims, &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: "user-1"},
			CustomClaims:     &CustomClaims{Role: "admin"},
		})

		claims, err := GetClaims(c)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.RegisteredClaims.Subject)
		assert.Equal(t, "admin", GetCustomClaims(c).Role)
	})

	t.Run("claims not found in context", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		claims, err := GetClaims(c)
		assert.Error(t, err)
		assert.Nil(t, claims)
		assert.Equal(t, &CustomClaims{}, GetCustomClaims(c))
	})

	t.Run("claims are not the expected type", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(ContextClaims, "invalid")
		claims, err := GetClaims(c)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})
}

func TestLoadUser(t *testing.T) {
	testutil.RequireTestEnvironment(t)
	gin.SetMode(gin.TestMode)
	db := testutil.SetupTestDB(t)

	active := testutil.CreateUser(t, db, "active-1", workflow.RoleSupervisor)
	inactive := testutil.CreateUser(t, db, "inactive-1", workflow.RoleUser)
	require.NoError(t, db.Model(inactive).Update("active", false).Error)

	router := gin.New()
	router.GET("/me", func(c *gin.Context) {
		c.Set(ContextUserID, c.GetHeader("X-Test-User"))
		c.Set(ContextClaims, &validator.ValidatedClaims{CustomClaims: &CustomClaims{Role: "admin"}})
		c.Next()
	}, LoadUser(), func(c *gin.Context) {
		user, err := CurrentUser(c)
		require.NoError(t, err)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "role": user.Role})
	})

	tests := []struct {
		name           string
		externalID     string
		expectedStatus int
		expectedCode   string
	}{
		{"active user is loaded with stored role", active.ExternalID, http.StatusOK, ""},
		{"unknown user", "nobody", http.StatusNotFound, "USER_NOT_FOUND"},
		{"inactive user", inactive.ExternalID, http.StatusForbidden, "ACCOUNT_INACTIVE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("X-Test-User", tt.externalID)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, body["error"].(map[string]interface{})["code"])
				return
			}
			// token claims admin, the users row says supervisor
			assert.Equal(t, "supervisor", body["role"])
		})
	}
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		user        *models.User
		roles       []workflow.Role
		wantAborted bool
		wantStatus  int
	}{
		{"allowed role", &models.User{Role: workflow.RoleAdmin}, []workflow.Role{workflow.RoleAdmin}, false, 0},
		{"one of several", &models.User{Role: workflow.RoleDelegate}, []workflow.Role{workflow.RoleSupervisor, workflow.RoleDelegate}, false, 0},
		{"wrong role", &models.User{Role: workflow.RoleUser}, []workflow.Role{workflow.RoleAdmin}, true, http.StatusForbidden},
		{"no user", nil, []workflow.Role{workflow.RoleAdmin}, true, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.user != nil {
				c.Set(ContextUser, tt.user)
			}

			RequireRole(tt.roles...)(c)

			assert.Equal(t, tt.wantAborted, c.IsAborted())
			if tt.wantAborted {
				assert.Equal(t, tt.wantStatus, w.Code)
			}
		})
	}
}

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	t.Run("keeps caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "req-42", w.Body.String())
	})

	t.Run("generates id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	})
}

func TestAuthError(t *testing.T) {
	err := &AuthError{Code: "TEST_ERROR", Message: "This is a test error"}
	assert.Equal(t, "This is a test error", err.Error())
}
