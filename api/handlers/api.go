package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rangerwatch/ranger-report-api/api"
	"github.com/rangerwatch/ranger-report-api/api/scheduler"
	"github.com/rangerwatch/ranger-report-api/cloudinary"
	"github.com/rangerwatch/ranger-report-api/config"
	"github.com/rangerwatch/ranger-report-api/databases"
	"github.com/rangerwatch/ranger-report-api/models"
	"github.com/rangerwatch/ranger-report-api/notifications"
	"github.com/rangerwatch/ranger-report-api/workflows"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Relay     cloudinary.Relay
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// requestTimeout bounds a whole request, uploads included
const requestTimeout = 30 * time.Second

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := mux.NewRouter()
	r.Use(api.TimeoutMiddleware(requestTimeout))

	rangerDB := databases.NewRangerDatabase(a.dbHelper)
	pendingDB := databases.NewPendingRangerDatabase(a.dbHelper)
	reportDB := databases.NewReportDatabase(a.dbHelper)
	adminDB := databases.NewAdminDatabase(a.dbHelper)
	outboxDB := databases.NewNotificationOutboxDatabase(a.dbHelper)

	gateway := notifications.NewGateway(outboxDB, a.Config.SenderEmail, a.Config.AdminEmail)
	approval := workflows.NewApproval(rangerDB, pendingDB, reportDB, gateway)
	lifecycle := workflows.NewLifecycle(reportDB, rangerDB, a.Relay)

	auth := api.Auth{Secret: []byte(a.Config.JWTSecret)}

	login := Auth{ADB: adminDB, RDB: rangerDB, Secret: []byte(a.Config.JWTSecret)}
	reg := Register{RDB: rangerDB, PDB: pendingDB}
	ranger := Ranger{RDB: rangerDB, PDB: pendingDB, Approval: approval}
	report := Report{RDB: reportDB, Lifecycle: lifecycle}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/login", http.HandlerFunc(login.LoginHandler)).Methods("POST")
	apiCreate.Handle("/register", http.HandlerFunc(reg.RegisterHandler)).Methods("POST")

	apiCreate.Handle("/rangers", auth.Middleware(api.AdminOnly(http.HandlerFunc(ranger.ListRangersHandler)))).Methods("GET")
	apiCreate.Handle("/rangers/pending", auth.Middleware(api.AdminOnly(http.HandlerFunc(ranger.ListPendingHandler)))).Methods("GET")
	apiCreate.Handle("/rangers/pending/{request_id}/approve", auth.Middleware(api.AdminOnly(http.HandlerFunc(ranger.ApproveHandler)))).Methods("POST")
	apiCreate.Handle("/rangers/pending/{request_id}", auth.Middleware(api.AdminOnly(http.HandlerFunc(ranger.RejectHandler)))).Methods("DELETE")
	apiCreate.Handle("/rangers/{ranger_id}/disable", auth.Middleware(api.AdminOnly(http.HandlerFunc(ranger.DisableHandler)))).Methods("POST")

	apiCreate.Handle("/reports", auth.Middleware(http.HandlerFunc(report.CreateReportHandler))).Methods("POST")
	apiCreate.Handle("/reports", auth.Middleware(http.HandlerFunc(report.ReportHandler))).Methods("GET")
	apiCreate.Handle("/reports/summary", auth.Middleware(api.AdminOnly(http.HandlerFunc(report.SummaryHandler)))).Methods("GET")
	apiCreate.Handle("/reports/{report_id}", auth.Middleware(http.HandlerFunc(report.ReportByIDHandler))).Methods("GET")
	apiCreate.Handle("/reports/{report_id}", auth.Middleware(http.HandlerFunc(report.UpdateReportHandler))).Methods("PUT")
	apiCreate.Handle("/reports/{report_id}/assign", auth.Middleware(api.AdminOnly(http.HandlerFunc(report.AssignHandler)))).Methods("PUT")
	apiCreate.Handle("/reports/{report_id}/status", auth.Middleware(api.AdminOnly(http.HandlerFunc(report.StatusHandler)))).Methods("PUT")
	apiCreate.Handle("/reports/{report_id}/admin-notes", auth.Middleware(api.AdminOnly(http.HandlerFunc(report.AdminNotesHandler)))).Methods("PUT")
	apiCreate.Handle("/reports/{report_id}", auth.Middleware(api.AdminOnly(http.HandlerFunc(report.DeleteReportHandler)))).Methods("DELETE")

	apiCreate.Handle("/generate-signature", auth.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("ranger-report-api has connected to the database")

	relay, err := cloudinary.New()
	if err != nil {
		zap.S().With(err).Error("failed to initialize image relay")
		return err
	}
	a.Relay = relay

	outboxDB := databases.NewNotificationOutboxDatabase(a.dbHelper)
	gateway := notifications.NewGateway(outboxDB, a.Config.SenderEmail, a.Config.AdminEmail)
	a.Scheduler = scheduler.NewScheduler(
		databases.NewRangerDatabase(a.dbHelper),
		databases.NewPendingRangerDatabase(a.dbHelper),
		databases.NewReportDatabase(a.dbHelper),
		databases.NewSchedulerLockDatabase(a.dbHelper),
		gateway,
	)

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
