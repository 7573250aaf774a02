package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// LineItem is a cart line as submitted by the client. It carries no price.
type LineItem struct {
	ProductID primitive.ObjectID
	Size      string
	Quantity  int
}
