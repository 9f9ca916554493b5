package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Admin holds the structure for the admins collection in mongo
type Admin struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt primitive.DateTime `bson:"createdAt" json:"createdAt"`
}
