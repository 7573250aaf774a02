package service

import (
	"context"
	"time"

	"github.com/example/perfumery/pkg/models"
	"github.com/example/perfumery/pkg/pricing"
	"github.com/example/perfumery/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductStore interface {
	pricing.ProductFinder
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	List(ctx context.Context, f repository.ProductFilter) (*repository.List[models.Product], error)
	Insert(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type OrderStore interface {
	Insert(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	List(ctx context.Context, f repository.OrderFilter) (*repository.List[models.Order], error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Order, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, p repository.Page) (*repository.List[models.User], error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type AuditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	ListByEntity(ctx context.Context, entityID string, limit int64) ([]models.AuditLog, error)
}

// Cache is a JSON key/value cache with expiry.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelPrefix(ctx context.Context, prefix string) error
}

// Notifier is told about order events. Implementations must not block.
type Notifier interface {
	OrderPlaced(o *models.Order)
	OrderStatusChanged(o *models.Order, from models.OrderStatus)
}
