package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Variant is a purchasable size of a product. Stock is informational only.
type Variant struct {
	Size  string  `bson:"size" json:"size"`
	Price float64 `bson:"price" json:"price"`
	Stock *int    `bson:"stock,omitempty" json:"stock,omitempty"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Variants    []Variant          `bson:"variants" json:"variants"`
	Category    string             `bson:"category" json:"category"`
	Tags        []string           `bson:"tags" json:"tags"`
	Featured    bool               `bson:"featured" json:"featured"`
	Image       string             `bson:"image" json:"image"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Variant returns the first variant whose size label equals size.
func (p *Product) Variant(size string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.Size == size {
			return v, true
		}
	}
	return Variant{}, false
}

// MinPrice is the cheapest variant price, zero for a product without variants.
func (p *Product) MinPrice() float64 {
	var low float64
	for i, v := range p.Variants {
		if i == 0 || v.Price < low {
			low = v.Price
		}
	}
	return low
}
