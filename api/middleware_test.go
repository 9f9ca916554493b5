package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rangerwatch/ranger-report-api/api"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	req, _ := http.NewRequest("GET", "/api/v1/reports", nil)
	rr := httptest.NewRecorder()
	api.Auth{Secret: []byte(testSecret)}.Middleware(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, called)
}

func TestMiddlewareRejectsExpiredToken(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub":   "abc",
		"scope": api.RoleRanger,
		"exp":   time.Now().Add(-time.Hour).Unix(),
	})

	req, _ := http.NewRequest("GET", "/api/v1/reports", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	api.Auth{Secret: []byte(testSecret)}.Middleware(http.NotFoundHandler()).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMiddlewarePutsSessionInContext(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub":      "abc",
		"name":     "Dana Whitfield",
		"email":    "dana@example.com",
		"rangerId": "R-101",
		"scope":    api.RoleRanger,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	var session *api.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session = api.SessionFromContext(r.Context())
	})

	req, _ := http.NewRequest("GET", "/api/v1/reports", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	api.Auth{Secret: []byte(testSecret)}.Middleware(next).ServeHTTP(rr, req)

	require.NotNil(t, session)
	assert.Equal(t, "R-101", session.RangerID)
	assert.Equal(t, "Dana Whitfield", session.Name)
	assert.Equal(t, api.RoleRanger, session.Role)
}

func TestAdminOnlyForbidsRangers(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run for ranger sessions")
	})

	req, _ := http.NewRequest("GET", "/api/v1/rangers", nil)
	req = req.WithContext(api.ContextWithSession(req.Context(), &api.Session{Role: api.RoleRanger}))
	rr := httptest.NewRecorder()
	api.AdminOnly(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminOnlyAllowsAdmins(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	req, _ := http.NewRequest("GET", "/api/v1/rangers", nil)
	req = req.WithContext(api.ContextWithSession(req.Context(), &api.Session{Role: api.RoleAdmin}))
	rr := httptest.NewRecorder()
	api.AdminOnly(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, called)
}
