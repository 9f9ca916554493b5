// Package docs RangerWatch Field Reporting API.
//
// Documentation of the RangerWatch ranger report API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - bearer
//
// swagger:meta
package docs

import (
	"github.com/rangerwatch/ranger-report-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET /api/v1/reports/{report_id} reports reportByID
// Gets a single field report by ID.
// responses:
//   200: reportByIDResponse

// Shows a single report by the given {ID}
// swagger:response reportByIDResponse
type reportByIDResponseWrapper struct {
	// in:body
	Body models.Report
}

// swagger:route GET /api/v1/reports/summary reports reportSummary
// Per-status report counts for the dashboard.
// responses:
//   200: reportSummaryResponse

// Shows report counts grouped by status.
// swagger:response reportSummaryResponse
type reportSummaryResponseWrapper struct {
	// in:body
	Body models.ReportSummary
}
