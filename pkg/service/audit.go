package service

import (
	"context"

	"github.com/example/perfumery/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type actorKey struct{}

// WithActor tags ctx with the identity performing admin mutations.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func actorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		return a
	}
	return "system"
}

type Auditor struct {
	store  AuditStore
	logger *zap.Logger
}

func NewAuditor(store AuditStore, logger *zap.Logger) *Auditor {
	return &Auditor{store: store, logger: logger}
}

// Record stores an audit entry. A failed write is logged and never fails the
// mutation it describes.
func (a *Auditor) Record(ctx context.Context, entity, action, entityID string, data bson.M) {
	if a == nil || a.store == nil {
		return
	}
	entry := &models.AuditLog{
		Actor:    actorFrom(ctx),
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Data:     data,
	}
	if err := a.store.Create(ctx, entry); err != nil {
		a.logger.Warn("Failed to write audit log",
			zap.String("entity", entity),
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

func (a *Auditor) History(ctx context.Context, entityID string, limit int64) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return a.store.ListByEntity(ctx, entityID, limit)
}
