package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Notification outbox states
const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// MaxNotificationAttempts is the number of delivery attempts before an
// outbox row is marked failed and left for manual inspection.
const MaxNotificationAttempts = 5

// Notification is an outbox row for an account-status email. The workflow
// inserts the row and the scheduler retries delivery until it is sent or
// exhausted.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	Email     string              `bson:"email" json:"email"`
	Status    string              `bson:"status" json:"status"`
	State     string              `bson:"state" json:"state"`
	Attempts  int                 `bson:"attempts" json:"attempts"`
	LastError string              `bson:"lastError" json:"lastError"`
	CreatedAt primitive.DateTime  `bson:"createdAt" json:"createdAt"`
	SentAt    *primitive.DateTime `bson:"sentAt" json:"sentAt"`
}
