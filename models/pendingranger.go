package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// PendingRanger holds the structure for the pendingRangers collection in
// mongo. A ranger identifier lives in either this collection or rangers,
// never both; approval moves the record across.
type PendingRanger struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RangerID  string             `bson:"rangerId" json:"rangerId"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	CreatedAt primitive.DateTime `bson:"createdAt" json:"createdAt"`
}
