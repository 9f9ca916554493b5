package databases

// go generate: mockery --name PendingRangerDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rangerwatch/ranger-report-api/models"
)

const pendingRangerName = "pendingRangers"

// PendingRangerDatabase contains the methods to use with the pendingRanger database
type PendingRangerDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.PendingRanger, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.PendingRanger, error)
	InsertOne(ctx context.Context, pendingRanger models.PendingRanger, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type pendingRangerDatabase struct {
	db DatabaseHelper
}

// NewPendingRangerDatabase initializes a new instance of pendingRanger database with the provided db connection
func NewPendingRangerDatabase(db DatabaseHelper) PendingRangerDatabase {
	return &pendingRangerDatabase{
		db: db,
	}
}

func (c *pendingRangerDatabase) FindOne(ctx context.Context, filter interface{}) (*models.PendingRanger, error) {
	pendingRanger := &models.PendingRanger{}
	err := c.db.Collection(pendingRangerName).FindOne(ctx, filter).Decode(&pendingRanger)
	if err != nil {
		return nil, err
	}
	return pendingRanger, nil
}

func (c *pendingRangerDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.PendingRanger, error) {
	cursor, err := c.db.Collection(pendingRangerName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var pendingRangers []models.PendingRanger
	if err := cursor.All(ctx, &pendingRangers); err != nil {
		return nil, err
	}
	return pendingRangers, nil
}

func (c *pendingRangerDatabase) InsertOne(ctx context.Context, pendingRanger models.PendingRanger, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(pendingRangerName).InsertOne(ctx, pendingRanger, opts...)
}

func (c *pendingRangerDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	return c.db.Collection(pendingRangerName).DeleteOne(ctx, filter, opts...)
}

func (c *pendingRangerDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(pendingRangerName).CountDocuments(ctx, filter, opts...)
}
