package databases

// go generate: mockery --name SchedulerLockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rangerwatch/ranger-report-api/models"
)

const schedulerLockName = "schedulerLocks"

// SchedulerLockDatabase provides a coarse distributed lock so background
// jobs run on one instance at a time. Locks expire on their own; a crashed
// holder never wedges the job.
type SchedulerLockDatabase interface {
	TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, owner string) error
}

type schedulerLockDatabase struct {
	db DatabaseHelper
}

// NewSchedulerLockDatabase initializes a new instance of the scheduler lock database
func NewSchedulerLockDatabase(db DatabaseHelper) SchedulerLockDatabase {
	return &schedulerLockDatabase{
		db: db,
	}
}

func (c *schedulerLockDatabase) TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	now := time.Now()
	filter := bson.M{
		"name": name,
		"$or": []bson.M{
			{"owner": owner},
			{"expiresAt": bson.M{"$lt": primitive.NewDateTimeFromTime(now)}},
		},
	}
	update := bson.M{
		"$set": models.SchedulerLock{
			Name:      name,
			Owner:     owner,
			ExpiresAt: primitive.NewDateTimeFromTime(now.Add(ttl)),
		},
	}
	upsert := true
	res, err := c.db.Collection(schedulerLockName).UpdateOne(ctx, filter, update, &options.UpdateOptions{Upsert: &upsert})
	if err != nil {
		// another instance upserted first; the lock is simply not ours
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.ModifiedCount > 0 || res.UpsertedCount > 0 || res.MatchedCount > 0, nil
}

func (c *schedulerLockDatabase) ReleaseLock(ctx context.Context, name, owner string) error {
	_, err := c.db.Collection(schedulerLockName).DeleteOne(ctx, bson.M{"name": name, "owner": owner})
	return err
}
