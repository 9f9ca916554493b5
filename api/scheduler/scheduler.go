// Package scheduler runs the periodic background jobs: ranger registry
// reconciliation and the notification outbox retry pump.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/rangerwatch/ranger-report-api/databases"
	"github.com/rangerwatch/ranger-report-api/models"
	"github.com/rangerwatch/ranger-report-api/notifications"
)

// Scheduler handles periodic background jobs for the ranger registry and the
// notification outbox
type Scheduler struct {
	cron       *cron.Cron
	RangerDB   databases.RangerDatabase
	PendingDB  databases.PendingRangerDatabase
	ReportDB   databases.ReportDatabase
	LockDB     databases.SchedulerLockDatabase
	Gateway    *notifications.Gateway
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	rangerDB databases.RangerDatabase,
	pendingDB databases.PendingRangerDatabase,
	reportDB databases.ReportDatabase,
	lockDB databases.SchedulerLockDatabase,
	gateway *notifications.Gateway,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		RangerDB:   rangerDB,
		PendingDB:  pendingDB,
		ReportDB:   reportDB,
		LockDB:     lockDB,
		Gateway:    gateway,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Repair any half-applied approve/disable state hourly
	_, err := s.cron.AddFunc("0 * * * *", s.ReconcileRegistry)
	if err != nil {
		zap.S().Errorw("failed to register registry reconciliation job", "error", err)
	}

	// Retry undelivered account-status emails every 5 minutes
	_, err = s.cron.AddFunc("*/5 * * * *", s.PumpOutbox)
	if err != nil {
		zap.S().Errorw("failed to register outbox pump job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Background job scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Background job scheduler stopped")
}

// ReconcileRegistry repairs state left behind by an approve or disable that
// failed between steps: a ranger identifier present in both the pending and
// active collections, or a report assigned to someone no longer active. The
// active collection is authoritative for duplicates.
func (s *Scheduler) ReconcileRegistry() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "registry_reconciliation_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for registry reconciliation job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Registry reconciliation already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "registry_reconciliation_job", s.instanceID)

	zap.S().Infow("Running registry reconciliation job", "instance", s.instanceID)

	rangers, err := s.RangerDB.Find(ctx, bson.M{})
	if err != nil {
		zap.S().Errorw("failed to list active rangers", "error", err)
		return
	}

	active := make(map[string]bool, len(rangers))
	assignable := make(map[string]bool, len(rangers))
	for _, r := range rangers {
		active[r.RangerID] = true
		if r.Status == models.RangerActive {
			assignable[r.RangerID] = true
		}
	}

	pending, err := s.PendingDB.Find(ctx, bson.M{})
	if err != nil {
		zap.S().Errorw("failed to list pending registrations", "error", err)
		return
	}
	for _, p := range pending {
		if !active[p.RangerID] {
			continue
		}
		if _, err := s.PendingDB.DeleteOne(ctx, bson.M{"_id": p.ID}); err != nil {
			zap.S().Errorw("failed to remove duplicate pending registration",
				"rangerId", p.RangerID, "error", err)
			continue
		}
		zap.S().Infow("removed pending registration shadowed by active ranger", "rangerId", p.RangerID)
	}

	reports, err := s.ReportDB.Find(ctx, bson.M{"assignedTo": bson.M{"$nin": bson.A{nil, ""}}})
	if err != nil {
		zap.S().Errorw("failed to list assigned reports", "error", err)
		return
	}
	for _, rep := range reports {
		if rep.AssignedTo == nil || assignable[*rep.AssignedTo] {
			continue
		}
		if err := s.ReportDB.UpdateOne(ctx,
			bson.M{"_id": rep.ID},
			bson.M{"$set": bson.M{"assignedTo": nil}},
		); err != nil {
			zap.S().Errorw("failed to clear dangling assignment",
				"reportId", rep.ID.Hex(), "error", err)
			continue
		}
		zap.S().Infow("cleared report assignment to inactive ranger",
			"reportId", rep.ID.Hex(), "rangerId", *rep.AssignedTo)
	}
}

// PumpOutbox retries pending notification deliveries
func (s *Scheduler) PumpOutbox() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "outbox_pump_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for outbox pump job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Outbox pump already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "outbox_pump_job", s.instanceID)

	if err := s.Gateway.DispatchPending(ctx); err != nil {
		zap.S().Errorw("outbox pump failed", "error", err)
	}
}
