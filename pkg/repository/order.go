package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/perfumery/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderFilter struct {
	Status        models.OrderStatus
	PaymentStatus models.PaymentStatus
	UserID        *primitive.ObjectID
	Email         string
	Page
}

func (f OrderFilter) query() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.PaymentStatus != "" {
		q["paymentStatus"] = f.PaymentStatus
	}
	if f.UserID != nil {
		q["userId"] = *f.UserID
	}
	if f.Email != "" {
		q["customer.email"] = f.Email
	}
	return q
}

type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: db.Collection(OrdersCollection)}
}

// Insert writes one fully composed order document.
func (r *OrderRepository) Insert(ctx context.Context, o *models.Order) error {
	now := time.Now().UTC()
	o.ID = primitive.NewObjectID()
	o.CreatedAt = now
	o.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, o)
	return err
}

func (r *OrderRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *OrderRepository) List(ctx context.Context, f OrderFilter) (*List[models.Order], error) {
	q := f.query()

	total, err := r.collection.CountDocuments(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	opts := f.Page.apply(options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	cursor, err := r.collection.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return newList(orders, total, f.Page), nil
}

// Update is a raw field update: no transition rules are applied.
func (r *OrderRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Order, error) {
	set["updatedAt"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&order)
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
