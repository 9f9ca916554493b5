package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rangerwatch/ranger-report-api/api"
	"github.com/rangerwatch/ranger-report-api/api/handlers"
	"github.com/rangerwatch/ranger-report-api/databases"
	"github.com/rangerwatch/ranger-report-api/databases/mocks"
	"github.com/rangerwatch/ranger-report-api/models"
	"github.com/rangerwatch/ranger-report-api/workflows"
)

// MockDatabaseHelper is a mock for the database-level helper, used where a
// test wants to exercise the typed wrapper under the handler.
type MockDatabaseHelper struct {
	mock.Mock
}

// Client provides a mock function.
func (_m *MockDatabaseHelper) Client() databases.ClientHelper {
	ret := _m.Called()

	var r0 databases.ClientHelper
	if rf, ok := ret.Get(0).(func() databases.ClientHelper); ok {
		r0 = rf()
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.ClientHelper)
		}
	}

	return r0
}

// Collection provides a mock function.
func (_m *MockDatabaseHelper) Collection(name string) databases.CollectionHelper {
	ret := _m.Called(name)

	var r0 databases.CollectionHelper
	if rf, ok := ret.Get(0).(func(string) databases.CollectionHelper); ok {
		r0 = rf(name)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.CollectionHelper)
		}
	}

	return r0
}

func rangerSession() *api.Session {
	return &api.Session{
		Subject:  primitive.NewObjectID().Hex(),
		Name:     "Dana Whitfield",
		Email:    "dana@example.com",
		Role:     api.RoleRanger,
		RangerID: "R-101",
	}
}

func TestReport_ReportByIDHandlerBadID(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/reports/1234", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"report_id": "1234"})

	re := handlers.Report{}
	rr := httptest.NewRecorder()
	http.HandlerFunc(re.ReportByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to get objectID from Hex")
}

func TestReport_ReportByIDHandlerNotFound(t *testing.T) {
	id := primitive.NewObjectID()
	req, err := http.NewRequest("GET", "/api/v1/reports/"+id.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"report_id": id.Hex()})

	db := &MockDatabaseHelper{} // can be used as db = &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "reports").Return(conn)

	re := handlers.Report{RDB: databases.NewReportDatabase(db)}
	rr := httptest.NewRecorder()
	http.HandlerFunc(re.ReportByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to get report by ID")
}

func TestReport_CreateReportHandlerForbiddenWithoutSession(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/reports", strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}

	re := handlers.Report{}
	rr := httptest.NewRecorder()
	http.HandlerFunc(re.CreateReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestReport_CreateReportHandler(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{
		"condition": models.ConditionBad,
		"notes":     "washed out culvert on the east trail",
	})
	req, err := http.NewRequest("POST", "/api/v1/reports", body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(api.ContextWithSession(req.Context(), rangerSession()))

	reportDB := mocks.NewReportDatabase(t)
	var inserted models.Report
	reportDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Report")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(models.Report)
		}).
		Return(nil, nil)

	re := handlers.Report{
		RDB:       reportDB,
		Lifecycle: &workflows.Lifecycle{Reports: reportDB},
	}
	rr := httptest.NewRecorder()
	http.HandlerFunc(re.CreateReportHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "R-101", inserted.RangerID)
	assert.Equal(t, "Dana Whitfield", inserted.RangerName)
	assert.Equal(t, models.StatusNew, inserted.Status)
	assert.Nil(t, inserted.AssignedTo)
}

func TestReport_CreateReportHandlerRejectsBadCondition(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{"condition": "Terrible"})
	req, err := http.NewRequest("POST", "/api/v1/reports", body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(api.ContextWithSession(req.Context(), rangerSession()))

	re := handlers.Report{Lifecycle: &workflows.Lifecycle{Reports: mocks.NewReportDatabase(t)}}
	rr := httptest.NewRecorder()
	http.HandlerFunc(re.CreateReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReport_AssignHandlerRejectsUnknownRanger(t *testing.T) {
	id := primitive.NewObjectID()
	req, err := http.NewRequest("PUT", "/api/v1/reports/"+id.Hex()+"/assign",
		strings.NewReader(`{"assignedTo": "R-404"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"report_id": id.Hex()})

	reportDB := mocks.NewReportDatabase(t)
	rangerDB := mocks.NewRangerDatabase(t)
	reportDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Report{ID: id}, nil)
	rangerDB.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	re := handlers.Report{Lifecycle: &workflows.Lifecycle{Reports: reportDB, Rangers: rangerDB}}
	rr := httptest.NewRecorder()
	http.HandlerFunc(re.AssignHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to assign report")
}

func TestReport_StatusHandler(t *testing.T) {
	id := primitive.NewObjectID()
	req, err := http.NewRequest("PUT", "/api/v1/reports/"+id.Hex()+"/status",
		strings.NewReader(`{"status": "resolved"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"report_id": id.Hex()})

	reportDB := mocks.NewReportDatabase(t)
	reportDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Report{ID: id}, nil)
	reportDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	re := handlers.Report{Lifecycle: &workflows.Lifecycle{Reports: reportDB}}
	rr := httptest.NewRecorder()
	http.HandlerFunc(re.StatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestReport_ReportHandlerPageDoesNotLeakBetweenRequests(t *testing.T) {
	reportDB := mocks.NewReportDatabase(t)
	var skips []int64
	reportDB.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			opts := args.Get(2).(*options.FindOptions)
			skips = append(skips, *opts.Skip)
		}).
		Return([]models.Report{}, nil)

	re := handlers.Report{RDB: reportDB}

	// the second request carries no page parameter and must start from zero
	for _, target := range []string{"/api/v1/reports?page=3&limit=10", "/api/v1/reports?limit=10"} {
		req, err := http.NewRequest("GET", target, nil)
		if err != nil {
			t.Fatal(err)
		}
		rr := httptest.NewRecorder()
		http.HandlerFunc(re.ReportHandler).ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	require.Len(t, skips, 2)
	assert.Equal(t, int64(20), skips[0])
	assert.Equal(t, int64(0), skips[1])
}

func TestReport_SummaryHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/reports/summary", nil)
	if err != nil {
		t.Fatal(err)
	}

	reportDB := mocks.NewReportDatabase(t)
	reportDB.On("CountDocuments", mock.Anything, bson.M{"status": models.StatusNew}).Return(int64(3), nil)
	reportDB.On("CountDocuments", mock.Anything, bson.M{"status": models.StatusMonitoring}).Return(int64(2), nil)
	reportDB.On("CountDocuments", mock.Anything, bson.M{"status": models.StatusResolved}).Return(int64(5), nil)

	re := handlers.Report{RDB: reportDB}
	rr := httptest.NewRecorder()
	http.HandlerFunc(re.SummaryHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var summary models.ReportSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, models.ReportSummary{New: 3, Monitoring: 2, Resolved: 5, Total: 10}, summary)
}

func TestReport_DeleteReportHandlerNotFound(t *testing.T) {
	id := primitive.NewObjectID()
	req, err := http.NewRequest("DELETE", "/api/v1/reports/"+id.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"report_id": id.Hex()})

	reportDB := mocks.NewReportDatabase(t)
	reportDB.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	re := handlers.Report{Lifecycle: &workflows.Lifecycle{Reports: reportDB}}
	rr := httptest.NewRecorder()
	http.HandlerFunc(re.DeleteReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
