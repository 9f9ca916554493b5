package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rangerwatch/ranger-report-api/api"
	"github.com/rangerwatch/ranger-report-api/config"
	"github.com/rangerwatch/ranger-report-api/databases"
	"github.com/rangerwatch/ranger-report-api/models"
)

type registerRequest struct {
	Name     string `json:"name"`
	RangerID string `json:"rangerId"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles ranger self-registration
type Register struct {
	RDB databases.RangerDatabase
	PDB databases.PendingRangerDatabase
}

// RegisterHandler creates a pending ranger request awaiting admin approval.
// A ranger identifier already present in either the pending or the active
// collection is rejected.
func (h Register) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.RangerID = strings.TrimSpace(req.RangerID)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.RangerID == "" || req.Email == "" || req.Password == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "name, rangerId, email and password are required"})
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	activeCount, err := h.RDB.CountDocuments(ctx, bson.M{"rangerId": req.RangerID})
	if err != nil {
		config.ErrorStatus("failed to check active registry", http.StatusInternalServerError, w, err)
		return
	}
	pendingCount, err := h.PDB.CountDocuments(ctx, bson.M{"rangerId": req.RangerID})
	if err != nil {
		config.ErrorStatus("failed to check pending registrations", http.StatusInternalServerError, w, err)
		return
	}
	if activeCount > 0 || pendingCount > 0 {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "ranger id is already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	pending := models.PendingRanger{
		ID:        primitive.NewObjectID(),
		RangerID:  req.RangerID,
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hash),
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}
	if _, err := h.PDB.InsertOne(ctx, pending); err != nil {
		config.ErrorStatus("failed to create pending registration", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("ranger registration received", "rangerId", req.RangerID)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "registration received, awaiting approval"})
}
