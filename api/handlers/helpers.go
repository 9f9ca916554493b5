package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/rangerwatch/ranger-report-api/config"
	"github.com/rangerwatch/ranger-report-api/workflows"
)

// getPage reads the page query parameter, falling back to the given
// default. The result is handler-local; handlers share no mutable state.
func getPage(Page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", Page)
	} else {
		var err error
		Page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Errorf(fmt.Sprintf("error parsing page number: %v", err))
		}
		if Page < 0 {
			zap.S().Warnf(fmt.Sprintf("cannot process page number less than 1. Got: %v", Page))
			return 0
		}
	}
	return Page
}

// partialFailureResponse is the distinct body for a workflow that got through
// some of its steps; clients must not treat it as an unapplied failure.
type partialFailureResponse struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	RangerID  string   `json:"rangerId"`
	Completed []string `json:"completed"`
	Failed    string   `json:"failed"`
}

// workflowError maps the workflow error taxonomy onto HTTP statuses
func workflowError(message string, w http.ResponseWriter, err error) {
	var verr *workflows.ValidationError
	var uerr *workflows.UploadError
	var terr *workflows.TransientError
	var perr *workflows.PartialFailure

	switch {
	case errors.As(err, &verr):
		config.ErrorStatus(message, http.StatusBadRequest, w, err)
	case errors.Is(err, workflows.ErrNotFound):
		config.ErrorStatus(message, http.StatusNotFound, w, err)
	case errors.As(err, &uerr):
		config.ErrorStatus(message, http.StatusBadGateway, w, err)
	case errors.As(err, &terr):
		config.ErrorStatus(message, http.StatusServiceUnavailable, w, err)
	case errors.As(err, &perr):
		zap.S().With(err).Error(message)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(partialFailureResponse{
			Code:      "PARTIAL_WORKFLOW_FAILURE",
			Message:   perr.Error(),
			RangerID:  perr.RangerID,
			Completed: perr.Completed,
			Failed:    perr.Failed,
		})
	default:
		config.ErrorStatus(message, http.StatusInternalServerError, w, err)
	}
}
