package databases

// go generate: mockery --name RangerDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rangerwatch/ranger-report-api/models"
)

const rangerName = "rangers"

// RangerDatabase contains the methods to use with the ranger database
type RangerDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Ranger, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Ranger, error)
	InsertOne(ctx context.Context, ranger models.Ranger, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type rangerDatabase struct {
	db DatabaseHelper
}

// NewRangerDatabase initializes a new instance of ranger database with the provided db connection
func NewRangerDatabase(db DatabaseHelper) RangerDatabase {
	return &rangerDatabase{
		db: db,
	}
}

func (c *rangerDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Ranger, error) {
	ranger := &models.Ranger{}
	err := c.db.Collection(rangerName).FindOne(ctx, filter).Decode(&ranger)
	if err != nil {
		return nil, err
	}
	return ranger, nil
}

func (c *rangerDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Ranger, error) {
	cursor, err := c.db.Collection(rangerName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var rangers []models.Ranger
	if err := cursor.All(ctx, &rangers); err != nil {
		return nil, err
	}
	return rangers, nil
}

func (c *rangerDatabase) InsertOne(ctx context.Context, ranger models.Ranger, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(rangerName).InsertOne(ctx, ranger, opts...)
}

func (c *rangerDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := c.db.Collection(rangerName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *rangerDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	_, err := c.db.Collection(rangerName).DeleteOne(ctx, filter, opts...)
	return err
}

func (c *rangerDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(rangerName).CountDocuments(ctx, filter, opts...)
}
