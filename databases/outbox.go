package databases

// go generate: mockery --name NotificationOutboxDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rangerwatch/ranger-report-api/models"
)

const outboxName = "notificationOutbox"

// NotificationOutboxDatabase contains the methods to use with the notification outbox
type NotificationOutboxDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Notification, error)
	InsertOne(ctx context.Context, notification models.Notification, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
}

type notificationOutboxDatabase struct {
	db DatabaseHelper
}

// NewNotificationOutboxDatabase initializes a new instance of the outbox database with the provided db connection
func NewNotificationOutboxDatabase(db DatabaseHelper) NotificationOutboxDatabase {
	return &notificationOutboxDatabase{
		db: db,
	}
}

func (c *notificationOutboxDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Notification, error) {
	cursor, err := c.db.Collection(outboxName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (c *notificationOutboxDatabase) InsertOne(ctx context.Context, notification models.Notification, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(outboxName).InsertOne(ctx, notification, opts...)
}

func (c *notificationOutboxDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := c.db.Collection(outboxName).UpdateOne(ctx, filter, update, opts...)
	return err
}
