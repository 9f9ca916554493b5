package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rangerwatch/ranger-report-api/databases/mocks"
	"github.com/rangerwatch/ranger-report-api/models"
)

func TestNotifyAccountStatusEnqueuesAndDelivers(t *testing.T) {
	outbox := mocks.NewNotificationOutboxDatabase(t)

	var inserted models.Notification
	outbox.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Notification")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(models.Notification)
		}).
		Return(nil, nil)

	done := make(chan bson.M, 1)
	outbox.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			done <- args.Get(2).(bson.M)
		}).
		Return(nil)

	var mu sync.Mutex
	var sentTo []string
	g := NewGateway(outbox, "noreply@rangerwatch.org", "admin@rangerwatch.org")
	g.send = func(toEmail, status, adminEmail, senderEmail string) error {
		mu.Lock()
		defer mu.Unlock()
		sentTo = append(sentTo, toEmail)
		return nil
	}

	require.NoError(t, g.NotifyAccountStatus(context.Background(), "dana@example.com", "enabled"))

	select {
	case update := <-done:
		set := update["$set"].(bson.M)
		assert.Equal(t, models.OutboxSent, set["state"])
	case <-time.After(2 * time.Second):
		t.Fatal("background delivery never updated the outbox row")
	}

	assert.Equal(t, models.OutboxPending, inserted.State)
	assert.Equal(t, "enabled", inserted.Status)
	mu.Lock()
	assert.Equal(t, []string{"dana@example.com"}, sentTo)
	mu.Unlock()
}

func TestDispatchPendingMarksExhaustedRowsFailed(t *testing.T) {
	outbox := mocks.NewNotificationOutboxDatabase(t)

	row := models.Notification{
		ID:       primitive.NewObjectID(),
		Email:    "dana@example.com",
		Status:   "disabled",
		State:    models.OutboxPending,
		Attempts: models.MaxNotificationAttempts - 1,
	}
	outbox.On("Find", mock.Anything, mock.Anything).Return([]models.Notification{row}, nil)

	var update bson.M
	outbox.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			update = args.Get(2).(bson.M)
		}).
		Return(nil)

	g := NewGateway(outbox, "noreply@rangerwatch.org", "admin@rangerwatch.org")
	g.send = func(string, string, string, string) error { return errors.New("smtp down") }

	require.NoError(t, g.DispatchPending(context.Background()))

	set := update["$set"].(bson.M)
	assert.Equal(t, models.OutboxFailed, set["state"])
	assert.Equal(t, "smtp down", set["lastError"])
	inc := update["$inc"].(bson.M)
	assert.Equal(t, 1, inc["attempts"])
}

func TestDispatchPendingRetriesKeepPendingState(t *testing.T) {
	outbox := mocks.NewNotificationOutboxDatabase(t)

	row := models.Notification{ID: primitive.NewObjectID(), Email: "dana@example.com", State: models.OutboxPending}
	outbox.On("Find", mock.Anything, mock.Anything).Return([]models.Notification{row}, nil)

	var update bson.M
	outbox.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			update = args.Get(2).(bson.M)
		}).
		Return(nil)

	g := NewGateway(outbox, "noreply@rangerwatch.org", "admin@rangerwatch.org")
	g.send = func(string, string, string, string) error { return errors.New("smtp down") }

	require.NoError(t, g.DispatchPending(context.Background()))

	set := update["$set"].(bson.M)
	assert.Equal(t, models.OutboxPending, set["state"])
}
