package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// SchedulerLock is a distributed lock row so cron jobs run on a single
// instance at a time.
type SchedulerLock struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Owner     string             `bson:"owner" json:"owner"`
	ExpiresAt primitive.DateTime `bson:"expiresAt" json:"expiresAt"`
}
