package workflows

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rangerwatch/ranger-report-api/databases"
	"github.com/rangerwatch/ranger-report-api/models"
)

// Account status labels sent to the notification gateway
const (
	NotifyEnabled  = "enabled"
	NotifyDisabled = "disabled"
)

// Notifier delivers an account-status email. Failures are the notifier's
// problem; approval and disable never block on delivery.
type Notifier interface {
	NotifyAccountStatus(ctx context.Context, email, status string) error
}

// Approval owns the pending/active transitions of the ranger registry. A
// ranger identifier must live in exactly one of the two collections; the
// steps below are ordered so any mid-workflow failure is detectable by the
// reconciliation job.
type Approval struct {
	Rangers databases.RangerDatabase
	Pending databases.PendingRangerDatabase
	Reports databases.ReportDatabase
	Notify  Notifier
}

// NewApproval wires an approval workflow over the given collections
func NewApproval(rangers databases.RangerDatabase, pending databases.PendingRangerDatabase, reports databases.ReportDatabase, notify Notifier) *Approval {
	return &Approval{Rangers: rangers, Pending: pending, Reports: reports, Notify: notify}
}

// Approve moves a pending request into the active ranger collection. The
// new ranger carries the pending record's identifier, name, email and
// password hash, an empty phone and status active. The pending row is
// deleted afterwards; if that delete fails the duplicate representation is
// surfaced as a PartialFailure.
func (a *Approval) Approve(ctx context.Context, requestID primitive.ObjectID) (*models.Ranger, error) {
	pending, err := a.Pending.FindOne(ctx, bson.M{"_id": requestID})
	if err != nil {
		return nil, storeErr(err)
	}

	ranger := models.Ranger{
		ID:        primitive.NewObjectID(),
		RangerID:  pending.RangerID,
		Name:      pending.Name,
		Email:     pending.Email,
		Password:  pending.Password,
		Phone:     "",
		Status:    models.RangerActive,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}
	if _, err := a.Rangers.InsertOne(ctx, ranger); err != nil {
		return nil, storeErr(err)
	}

	if _, err := a.Pending.DeleteOne(ctx, bson.M{"_id": requestID}); err != nil {
		return nil, &PartialFailure{
			Workflow:  "approve",
			RangerID:  pending.RangerID,
			Completed: []string{"insert active ranger"},
			Failed:    "delete pending request",
			Err:       err,
		}
	}

	a.notify(ctx, pending.Email, NotifyEnabled)
	return &ranger, nil
}

// Reject deletes a pending request. Rejecting an id that is already gone is
// a no-op success.
func (a *Approval) Reject(ctx context.Context, requestID primitive.ObjectID) error {
	res, err := a.Pending.DeleteOne(ctx, bson.M{"_id": requestID})
	if err != nil {
		return storeErr(err)
	}
	if res != nil && res.DeletedCount == 0 {
		zap.S().Debugw("reject of absent pending request, nothing to do", "requestID", requestID.Hex())
	}
	return nil
}

// Disable moves an active ranger back to the pending collection. Every
// report assigned to the ranger is unassigned first so no report references
// a handler that is no longer active; report submitter history is left
// untouched.
func (a *Approval) Disable(ctx context.Context, rangerID string) error {
	ranger, err := a.Rangers.FindOne(ctx, bson.M{"rangerId": rangerID})
	if err != nil {
		return storeErr(err)
	}

	res, err := a.Reports.UpdateMany(ctx,
		bson.M{"assignedTo": rangerID},
		bson.M{"$set": bson.M{"assignedTo": nil}},
	)
	if err != nil {
		return storeErr(err)
	}
	if res != nil && res.ModifiedCount > 0 {
		zap.S().Infow("unassigned reports for disabled ranger",
			"rangerId", rangerID,
			"count", res.ModifiedCount,
		)
	}

	pending := models.PendingRanger{
		ID:        primitive.NewObjectID(),
		RangerID:  ranger.RangerID,
		Name:      ranger.Name,
		Email:     ranger.Email,
		Password:  ranger.Password,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}
	if _, err := a.Pending.InsertOne(ctx, pending); err != nil {
		return &PartialFailure{
			Workflow:  "disable",
			RangerID:  rangerID,
			Completed: []string{"clear report assignments"},
			Failed:    "insert pending request",
			Err:       err,
		}
	}

	if err := a.Rangers.DeleteOne(ctx, bson.M{"rangerId": rangerID}); err != nil {
		return &PartialFailure{
			Workflow:  "disable",
			RangerID:  rangerID,
			Completed: []string{"clear report assignments", "insert pending request"},
			Failed:    "delete active ranger",
			Err:       err,
		}
	}

	a.notify(ctx, ranger.Email, NotifyDisabled)
	return nil
}

// notify hands the status change to the gateway; delivery problems are
// logged and swallowed, the state transition already happened.
func (a *Approval) notify(ctx context.Context, email, status string) {
	if a.Notify == nil {
		return
	}
	if err := a.Notify.NotifyAccountStatus(ctx, email, status); err != nil {
		zap.S().Errorw("failed to hand off account status notification",
			"email", email,
			"status", status,
			"error", err,
		)
	}
}
