package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Ranger account statuses
const (
	RangerActive   = "active"
	RangerInactive = "inactive"
)

// Ranger holds the structure for the rangers collection in mongo. The
// rangerId is chosen externally at registration time and doubles as the soft
// reference used by report assignment.
type Ranger struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RangerID  string             `bson:"rangerId" json:"rangerId"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Phone     string             `bson:"phone" json:"phone"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt primitive.DateTime `bson:"createdAt" json:"createdAt"`
}
