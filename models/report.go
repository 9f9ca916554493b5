package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Report condition classifications
const (
	ConditionGood     = "Good"
	ConditionModerate = "Moderate"
	ConditionBad      = "Bad"
)

// Report workflow statuses
const (
	StatusNew        = "new"
	StatusMonitoring = "monitoring"
	StatusResolved   = "resolved"
)

// Report holds the structure for the reports collection in mongo. Latitude,
// longitude and assignedTo are pointers so an absent value round-trips as
// null rather than zero.
type Report struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RangerName    string             `bson:"rangerName" json:"rangerName"`
	RangerID      string             `bson:"rangerId" json:"rangerId"`
	Condition     string             `bson:"condition" json:"condition"`
	Notes         string             `bson:"notes" json:"notes"`
	AdminNotes    string             `bson:"adminNotes" json:"adminNotes"`
	Latitude      *float64           `bson:"latitude" json:"latitude"`
	Longitude     *float64           `bson:"longitude" json:"longitude"`
	ImageURL      string             `bson:"imageUrl" json:"imageUrl"`
	ImagePublicID string             `bson:"imagePublicId" json:"imagePublicId"`
	Status        string             `bson:"status" json:"status"`
	AssignedTo    *string            `bson:"assignedTo" json:"assignedTo"`
	CreatedAt     primitive.DateTime `bson:"createdAt" json:"createdAt"`
}

// ValidCondition reports whether c is one of the accepted condition values
func ValidCondition(c string) bool {
	switch c {
	case ConditionGood, ConditionModerate, ConditionBad:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the accepted report statuses
func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusMonitoring, StatusResolved:
		return true
	}
	return false
}

// ReportSummary holds per-status counts for the dashboard
type ReportSummary struct {
	New        int64 `json:"new"`
	Monitoring int64 `json:"monitoring"`
	Resolved   int64 `json:"resolved"`
	Total      int64 `json:"total"`
}
