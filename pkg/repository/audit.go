package repository

import (
	"context"
	"time"

	"github.com/example/perfumery/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditRepository struct {
	collection *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{collection: db.Collection(AuditCollection)}
}

func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	log.CreatedAt = time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, log)
	return err
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entityID string, limit int64) ([]models.AuditLog, error) {
	filter := bson.M{"entityId": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []models.AuditLog{}
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
