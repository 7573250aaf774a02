package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLog records an admin mutation against a product, order or user.
type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Actor     string             `bson:"actor" json:"actor"`
	Action    string             `bson:"action" json:"action"`
	Entity    string             `bson:"entity" json:"entity"`
	EntityID  string             `bson:"entityId" json:"entityId"`
	Data      bson.M             `bson:"data,omitempty" json:"data,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
