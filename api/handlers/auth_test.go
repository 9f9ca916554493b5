package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/rangerwatch/ranger-report-api/api"
	"github.com/rangerwatch/ranger-report-api/api/handlers"
	"github.com/rangerwatch/ranger-report-api/databases/mocks"
	"github.com/rangerwatch/ranger-report-api/models"
)

const testSecret = "test-secret"

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuth_LoginHandlerInvalidBody(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/auth/login", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}

	h := handlers.Auth{Secret: []byte(testSecret)}
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuth_LoginHandlerRanger(t *testing.T) {
	rangerDB := mocks.NewRangerDatabase(t)
	rangerDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Ranger{
		ID:       primitive.NewObjectID(),
		RangerID: "R-101",
		Name:     "Dana Whitfield",
		Email:    "dana@example.com",
		Password: hashPassword(t, "hunter2"),
		Status:   models.RangerActive,
	}, nil)

	req, err := http.NewRequest("POST", "/api/v1/auth/login",
		strings.NewReader(`{"email": "dana@example.com", "password": "hunter2", "role": "ranger"}`))
	if err != nil {
		t.Fatal(err)
	}

	h := handlers.Auth{RDB: rangerDB, Secret: []byte(testSecret)}
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.LoginHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])
	assert.Equal(t, "ranger", resp["role"])
	assert.Equal(t, "R-101", resp["rangerId"])

	// the issued token must round-trip through the auth middleware
	session, err := parseSession(t, resp["token"])
	require.NoError(t, err)
	assert.Equal(t, "R-101", session.RangerID)
	assert.Equal(t, api.RoleRanger, session.Role)
}

func parseSession(t *testing.T, token string) (*api.Session, error) {
	t.Helper()
	var captured *api.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = api.SessionFromContext(r.Context())
	})
	req, err := http.NewRequest("GET", "/", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	api.Auth{Secret: []byte(testSecret)}.Middleware(next).ServeHTTP(rr, req)
	if rr.Code == http.StatusUnauthorized {
		return nil, assert.AnError
	}
	return captured, nil
}

func TestAuth_LoginHandlerWrongPassword(t *testing.T) {
	rangerDB := mocks.NewRangerDatabase(t)
	rangerDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Ranger{
		Email:    "dana@example.com",
		Password: hashPassword(t, "hunter2"),
		Status:   models.RangerActive,
	}, nil)

	req, err := http.NewRequest("POST", "/api/v1/auth/login",
		strings.NewReader(`{"email": "dana@example.com", "password": "wrong", "role": "ranger"}`))
	if err != nil {
		t.Fatal(err)
	}

	h := handlers.Auth{RDB: rangerDB, Secret: []byte(testSecret)}
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "INVALID_CREDENTIALS", body.Code)
}

func TestAuth_LoginHandlerInactiveRanger(t *testing.T) {
	// the active-only filter means an inactive ranger simply is not found
	rangerDB := mocks.NewRangerDatabase(t)
	rangerDB.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	req, err := http.NewRequest("POST", "/api/v1/auth/login",
		strings.NewReader(`{"email": "dana@example.com", "password": "hunter2"}`))
	if err != nil {
		t.Fatal(err)
	}

	h := handlers.Auth{RDB: rangerDB, Secret: []byte(testSecret)}
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_LoginHandlerAdmin(t *testing.T) {
	adminDB := mocks.NewAdminDatabase(t)
	adminDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Admin{
		ID:       primitive.NewObjectID(),
		Name:     "Avery Park",
		Email:    "avery@example.com",
		Password: hashPassword(t, "hunter2"),
		Active:   true,
	}, nil)

	req, err := http.NewRequest("POST", "/api/v1/auth/login",
		strings.NewReader(`{"email": "avery@example.com", "password": "hunter2", "role": "admin"}`))
	if err != nil {
		t.Fatal(err)
	}

	h := handlers.Auth{ADB: adminDB, Secret: []byte(testSecret)}
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.LoginHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "admin", resp["role"])

	session, err := parseSession(t, resp["token"])
	require.NoError(t, err)
	assert.Equal(t, api.RoleAdmin, session.Role)
}
