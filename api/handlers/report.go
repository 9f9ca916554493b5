package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

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

// maxUploadBytes caps report photo uploads at 10MB
const maxUploadBytes = 10 << 20

// Report handles report-related requests
type Report struct {
	RDB       databases.ReportDatabase
	Lifecycle *workflows.Lifecycle
}

// CreateReportHandler submits a new field report. The submitter identity
// comes from the session, never from the form.
func (re Report) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	session := api.SessionFromContext(r.Context())
	if session == nil || session.RangerID == "" {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": "only rangers can submit reports"}`))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		config.ErrorStatus("failed to parse multipart form", http.StatusBadRequest, w, err)
		return
	}

	photo, err := readPhoto(r)
	if err != nil {
		config.ErrorStatus("failed to read photo", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := re.Lifecycle.Submit(ctx, workflows.SubmitInput{
		RangerID:   session.RangerID,
		RangerName: session.Name,
		Condition:  r.FormValue("condition"),
		Notes:      r.FormValue("notes"),
		Photo:      photo,
	})
	if err != nil {
		workflowError("failed to submit report", w, err)
		return
	}

	b, err := json.Marshal(report)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// ReportHandler returns reports matching the dashboard filters
func (re Report) ReportHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	if Limit <= 0 {
		Limit = 10
	}
	Page := getPage(0, r)

	filter := bson.M{}
	if v := r.URL.Query().Get("status"); v != "" {
		filter["status"] = v
	}
	if v := r.URL.Query().Get("condition"); v != "" {
		filter["condition"] = v
	}
	if v := r.URL.Query().Get("assigned_to"); v != "" {
		filter["assignedTo"] = v
	}
	if v := r.URL.Query().Get("ranger_id"); v != "" {
		filter["rangerId"] = v
	}
	if v := r.URL.Query().Get("search"); v != "" {
		filter["$or"] = []bson.M{
			{"notes": bson.M{"$regex": v, "$options": "i"}},
			{"rangerName": bson.M{"$regex": v, "$options": "i"}},
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := re.RDB.Find(ctx, filter, databases.NewMongoPaginate(Limit, Page))
	if err != nil {
		config.ErrorStatus("failed to get reports", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Report{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SummaryHandler returns per-status report counts for the dashboard
func (re Report) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var summary models.ReportSummary
	var err error
	if summary.New, err = re.RDB.CountDocuments(ctx, bson.M{"status": models.StatusNew}); err != nil {
		config.ErrorStatus("failed to count new reports", http.StatusInternalServerError, w, err)
		return
	}
	if summary.Monitoring, err = re.RDB.CountDocuments(ctx, bson.M{"status": models.StatusMonitoring}); err != nil {
		config.ErrorStatus("failed to count monitoring reports", http.StatusInternalServerError, w, err)
		return
	}
	if summary.Resolved, err = re.RDB.CountDocuments(ctx, bson.M{"status": models.StatusResolved}); err != nil {
		config.ErrorStatus("failed to count resolved reports", http.StatusInternalServerError, w, err)
		return
	}
	summary.Total = summary.New + summary.Monitoring + summary.Resolved

	b, err := json.Marshal(summary)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReportByIDHandler returns a report by ID
func (re Report) ReportByIDHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := re.RDB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get report by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateReportHandler applies a partial edit to a report's notes, condition
// or photo
func (re Report) UpdateReportHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		config.ErrorStatus("failed to parse multipart form", http.StatusBadRequest, w, err)
		return
	}

	var in workflows.UpdateInput
	if vals, ok := r.MultipartForm.Value["condition"]; ok && len(vals) > 0 {
		in.Condition = &vals[0]
	}
	if vals, ok := r.MultipartForm.Value["notes"]; ok && len(vals) > 0 {
		in.Notes = &vals[0]
	}
	if in.Photo, err = readPhoto(r); err != nil {
		config.ErrorStatus("failed to read photo", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := re.Lifecycle.UpdateContent(ctx, rID, in)
	if err != nil {
		workflowError("failed to update report", w, err)
		return
	}

	b, err := json.Marshal(report)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type assignRequest struct {
	AssignedTo *string `json:"assignedTo"`
}

// AssignHandler sets or clears a report's assignee
func (re Report) AssignHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	rangerID := ""
	if req.AssignedTo != nil {
		rangerID = *req.AssignedTo
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := re.Lifecycle.Assign(ctx, rID, rangerID); err != nil {
		workflowError("failed to assign report", w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "report assignment updated"}`))
}

type statusRequest struct {
	Status string `json:"status"`
}

// StatusHandler moves a report to a new status
func (re Report) StatusHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := re.Lifecycle.SetStatus(ctx, rID, req.Status); err != nil {
		workflowError("failed to update report status", w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "report status updated"}`))
}

type adminNotesRequest struct {
	AdminNotes string `json:"adminNotes"`
}

// AdminNotesHandler sets reviewer commentary on a report
func (re Report) AdminNotesHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req adminNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := re.Lifecycle.SetAdminNotes(ctx, rID, req.AdminNotes); err != nil {
		workflowError("failed to update admin notes", w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "admin notes updated"}`))
}

// DeleteReportHandler removes a report and, best-effort, its hosted photo
func (re Report) DeleteReportHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := re.Lifecycle.Delete(ctx, rID); err != nil {
		workflowError("failed to delete report", w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "report deleted"}`))
}

// readPhoto pulls the optional photo part out of a multipart form
func readPhoto(r *http.Request) ([]byte, error) {
	f, _, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
