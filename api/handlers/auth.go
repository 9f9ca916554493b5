package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rangerwatch/ranger-report-api/api"
	"github.com/rangerwatch/ranger-report-api/databases"
	"github.com/rangerwatch/ranger-report-api/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	RangerID string `json:"rangerId,omitempty"`
}

// Auth handles login for both admins and rangers
type Auth struct {
	ADB    databases.AdminDatabase
	RDB    databases.RangerDatabase
	Secret []byte
}

// LoginHandler validates email/password against the collection for the
// requested role and returns a signed JWT. Ranger login requires an active
// registry row.
func (h Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid request"})
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "email and password required"})
		return
	}

	role := req.Role
	if role == "" {
		role = api.RoleRanger
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var claims jwt.MapClaims
	var resp loginResponse

	switch role {
	case api.RoleAdmin:
		admin, err := h.ADB.FindOne(ctx, bson.M{"email": email, "active": true})
		if err != nil || bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)) != nil {
			unauthorized(w, email)
			return
		}
		claims = jwt.MapClaims{
			"sub":   admin.ID.Hex(),
			"email": admin.Email,
			"name":  admin.Name,
			"scope": api.RoleAdmin,
			"iat":   time.Now().Unix(),
			"exp":   time.Now().Add(24 * time.Hour).Unix(),
		}
		resp.Name = admin.Name
		resp.Role = api.RoleAdmin
	case api.RoleRanger:
		ranger, err := h.RDB.FindOne(ctx, bson.M{"email": email, "status": models.RangerActive})
		if err != nil || bcrypt.CompareHashAndPassword([]byte(ranger.Password), []byte(req.Password)) != nil {
			unauthorized(w, email)
			return
		}
		claims = jwt.MapClaims{
			"sub":      ranger.ID.Hex(),
			"email":    ranger.Email,
			"name":     ranger.Name,
			"rangerId": ranger.RangerID,
			"scope":    api.RoleRanger,
			"iat":      time.Now().Unix(),
			"exp":      time.Now().Add(24 * time.Hour).Unix(),
		}
		resp.Name = ranger.Name
		resp.Role = api.RoleRanger
		resp.RangerID = ranger.RangerID
	default:
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unknown role"})
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.Secret)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "token generation failed"})
		return
	}
	resp.Token = signed

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func unauthorized(w http.ResponseWriter, email string) {
	zap.S().Debugw("login rejected", "email", email)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{
		Success: false,
		Error:   "invalid credentials",
		Code:    "INVALID_CREDENTIALS",
	})
}
