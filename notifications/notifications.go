// Package notifications delivers account-status emails through SendGrid,
// backed by a mongo outbox so a failed send can be retried by the scheduler.
package notifications

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rangerwatch/ranger-report-api/databases"
	"github.com/rangerwatch/ranger-report-api/models"
	templates "github.com/rangerwatch/ranger-report-api/templates/html"
)

const deliverTimeout = 10 * time.Second

// Gateway records an outbox row per notification and attempts delivery in the
// background. Rows that fail keep their pending state until the scheduler's
// retry pump picks them up or the attempt budget runs out.
type Gateway struct {
	Outbox      databases.NotificationOutboxDatabase
	SenderEmail string
	AdminEmail  string

	send func(toEmail, status, adminEmail, senderEmail string) error
}

// NewGateway wires a notification gateway over the given outbox collection
func NewGateway(outbox databases.NotificationOutboxDatabase, senderEmail, adminEmail string) *Gateway {
	return &Gateway{
		Outbox:      outbox,
		SenderEmail: senderEmail,
		AdminEmail:  adminEmail,
		send:        sendAccountStatusEmail,
	}
}

// NotifyAccountStatus enqueues an account-status email and kicks off an
// immediate delivery attempt. The caller only fails if the outbox row itself
// cannot be written.
func (g *Gateway) NotifyAccountStatus(ctx context.Context, email, status string) error {
	n := models.Notification{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Status:    status,
		State:     models.OutboxPending,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now().UTC()),
	}
	if _, err := g.Outbox.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to enqueue account status notification: %w", err)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				zap.S().Errorw("panic in background notification delivery", "recover", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		defer cancel()
		g.attempt(ctx, n)
	}()

	return nil
}

// DispatchPending retries every outbox row that is still pending. Called by
// the scheduler.
func (g *Gateway) DispatchPending(ctx context.Context) error {
	rows, err := g.Outbox.Find(ctx, bson.M{"state": models.OutboxPending})
	if err != nil {
		return err
	}
	for _, n := range rows {
		g.attempt(ctx, n)
	}
	return nil
}

func (g *Gateway) attempt(ctx context.Context, n models.Notification) {
	err := g.send(n.Email, n.Status, g.AdminEmail, g.SenderEmail)
	if err == nil {
		now := primitive.NewDateTimeFromTime(time.Now().UTC())
		if uerr := g.Outbox.UpdateOne(ctx, bson.M{"_id": n.ID},
			bson.M{"$set": bson.M{"state": models.OutboxSent, "sentAt": now}},
		); uerr != nil {
			zap.S().Errorw("failed to mark notification sent", "notificationId", n.ID.Hex(), "error", uerr)
		}
		return
	}

	state := models.OutboxPending
	if n.Attempts+1 >= models.MaxNotificationAttempts {
		state = models.OutboxFailed
	}
	zap.S().Warnw("notification delivery attempt failed",
		"notificationId", n.ID.Hex(),
		"email", n.Email,
		"attempt", n.Attempts+1,
		"state", state,
		"error", err,
	)
	if uerr := g.Outbox.UpdateOne(ctx, bson.M{"_id": n.ID}, bson.M{
		"$set": bson.M{"state": state, "lastError": err.Error()},
		"$inc": bson.M{"attempts": 1},
	}); uerr != nil {
		zap.S().Errorw("failed to record notification attempt", "notificationId", n.ID.Hex(), "error", uerr)
	}
}

func sendAccountStatusEmail(toEmail, status, adminEmail, senderEmail string) error {
	from := mail.NewEmail("RangerWatch", senderEmail)
	subject := "Ranger Account Update"
	to := mail.NewEmail("", toEmail)
	plain := fmt.Sprintf("Your ranger account has been %s.", status)
	html := templates.RenderAccountStatusEmail(status, adminEmail)
	msg := mail.NewSingleEmail(from, subject, to, plain, html)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	resp, err := client.Send(msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}
