package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Caller roles carried in the token's scope claim
const (
	RoleRanger = "ranger"
	RoleAdmin  = "admin"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Session is the authenticated caller identity decoded from the bearer token
type Session struct {
	Subject  string
	Name     string
	Email    string
	Role     string
	RangerID string
}

// SessionFromContext returns the session stored by the auth middleware, or
// nil when the request was not authenticated.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionContextKey).(*Session)
	return s
}

// ContextWithSession stores a session on a context. Exposed for handler tests.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// Auth validates bearer tokens on protected routes
type Auth struct {
	Secret []byte
}

// Middleware checks the Authorization header for a valid signed token and
// puts the decoded session into the request context
func (a Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		session, err := a.parse(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL,
				"error", err)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
	})
}

// AdminOnly rejects callers whose token does not carry the admin role. Must
// run after Middleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := SessionFromContext(r.Context())
		if session == nil || session.Role != RoleAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": "admin access required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a Auth) parse(r *http.Request) (*Session, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, fmt.Errorf("missing bearer token")
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	session := &Session{}
	session.Subject, _ = claims["sub"].(string)
	session.Name, _ = claims["name"].(string)
	session.Email, _ = claims["email"].(string)
	session.Role, _ = claims["scope"].(string)
	session.RangerID, _ = claims["rangerId"].(string)
	return session, nil
}
