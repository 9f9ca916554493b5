package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rangerwatch/ranger-report-api/api"
	"github.com/rangerwatch/ranger-report-api/config"
	"github.com/rangerwatch/ranger-report-api/databases"
	"github.com/rangerwatch/ranger-report-api/models"
	"github.com/rangerwatch/ranger-report-api/workflows"
)

// Ranger handles registry admin requests
type Ranger struct {
	RDB      databases.RangerDatabase
	PDB      databases.PendingRangerDatabase
	Approval *workflows.Approval
}

// ListRangersHandler returns all active rangers
func (h Ranger) ListRangersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.RDB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get rangers", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Ranger{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ListPendingHandler returns all pending ranger requests
func (h Ranger) ListPendingHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.PDB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get pending registrations", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.PendingRanger{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ApproveHandler moves a pending request into the active registry
func (h Ranger) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["request_id"]

	rID, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	ranger, err := h.Approval.Approve(ctx, rID)
	if err != nil {
		workflowError("failed to approve registration", w, err)
		return
	}

	zap.S().Infow("ranger approved", "rangerId", ranger.RangerID)
	b, err := json.Marshal(ranger)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// RejectHandler deletes a pending request. Repeating a reject is a no-op
// success.
func (h Ranger) RejectHandler(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["request_id"]

	rID, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.Approval.Reject(ctx, rID); err != nil {
		workflowError("failed to reject registration", w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "registration rejected"}`))
}

// DisableHandler moves an active ranger back to pending and unassigns
// their reports
func (h Ranger) DisableHandler(w http.ResponseWriter, r *http.Request) {
	rangerID := mux.Vars(r)["ranger_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.Approval.Disable(ctx, rangerID); err != nil {
		workflowError("failed to disable ranger", w, err)
		return
	}

	zap.S().Infow("ranger disabled", "rangerId", rangerID)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "ranger disabled"}`))
}
