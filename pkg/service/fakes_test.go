package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/example/perfumery/pkg/models"
	"github.com/example/perfumery/pkg/repository"
	"github.com/example/perfumery/pkg/service"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeProductStore struct {
	products  map[primitive.ObjectID]*models.Product
	listCalls int
	getCalls  int
}

var _ service.ProductStore = (*fakeProductStore)(nil)

func newFakeProductStore(products ...models.Product) *fakeProductStore {
	f := &fakeProductStore{products: make(map[primitive.ObjectID]*models.Product)}
	for i := range products {
		p := products[i]
		f.products[p.ID] = &p
	}
	return f
}

func (f *fakeProductStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	f.getCalls++
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductStore) List(ctx context.Context, flt repository.ProductFilter) (*repository.List[models.Product], error) {
	f.listCalls++
	var items []models.Product
	for _, p := range f.products {
		if flt.Category != "" && p.Category != flt.Category {
			continue
		}
		items = append(items, *p)
	}
	return &repository.List[models.Product]{Items: items, Total: int64(len(items)), Page: flt.Page.Page, Limit: flt.Limit}, nil
}

func (f *fakeProductStore) Insert(ctx context.Context, p *models.Product) error {
	p.ID = primitive.NewObjectID()
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeProductStore) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if v, ok := set["name"].(string); ok {
		p.Name = v
	}
	if v, ok := set["featured"].(bool); ok {
		p.Featured = v
	}
	if v, ok := set["variants"].([]models.Variant); ok {
		p.Variants = v
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := f.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

type fakeOrderStore struct {
	orders    map[primitive.ObjectID]*models.Order
	insertErr error
	lastSet   bson.M
}

var _ service.OrderStore = (*fakeOrderStore)(nil)

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[primitive.ObjectID]*models.Order)}
}

func (f *fakeOrderStore) Insert(ctx context.Context, o *models.Order) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	o.ID = primitive.NewObjectID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrderStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) List(ctx context.Context, flt repository.OrderFilter) (*repository.List[models.Order], error) {
	var items []models.Order
	for _, o := range f.orders {
		if flt.UserID != nil && (o.UserID == nil || *o.UserID != *flt.UserID) {
			continue
		}
		if flt.Status != "" && o.Status != flt.Status {
			continue
		}
		items = append(items, *o)
	}
	return &repository.List[models.Order]{Items: items, Total: int64(len(items))}, nil
}

func (f *fakeOrderStore) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	set["updatedAt"] = time.Now()
	f.lastSet = set
	if v, ok := set["status"].(models.OrderStatus); ok {
		o.Status = v
	}
	if v, ok := set["paymentStatus"].(models.PaymentStatus); ok {
		o.PaymentStatus = v
	}
	if v, ok := set["notes"].(string); ok {
		o.Notes = v
	}
	o.UpdatedAt = set["updatedAt"].(time.Time)
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := f.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

type fakeUserStore struct {
	users map[primitive.ObjectID]*models.User
}

var _ service.UserStore = (*fakeUserStore)(nil)

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserStore) Insert(ctx context.Context, u *models.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) List(ctx context.Context, p repository.Page) (*repository.List[models.User], error) {
	var items []models.User
	for _, u := range f.users {
		items = append(items, *u)
	}
	return &repository.List[models.User]{Items: items, Total: int64(len(items))}, nil
}

func (f *fakeUserStore) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if v, ok := set["email"].(string); ok {
		for oid, other := range f.users {
			if oid != id && other.Email == v {
				return nil, repository.ErrDuplicate
			}
		}
		u.Email = v
	}
	if v, ok := set["name"].(string); ok {
		u.Name = v
	}
	if v, ok := set["passwordHash"].(string); ok {
		u.PasswordHash = v
	}
	if v, ok := set["role"].(models.Role); ok {
		u.Role = v
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeAuditStore struct {
	logs []models.AuditLog
}

var _ service.AuditStore = (*fakeAuditStore)(nil)

func (f *fakeAuditStore) Create(ctx context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, *log)
	return nil
}

func (f *fakeAuditStore) ListByEntity(ctx context.Context, entityID string, limit int64) ([]models.AuditLog, error) {
	var out []models.AuditLog
	for _, l := range f.logs {
		if l.EntityID == entityID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeCache struct {
	data map[string][]byte
	hits int
}

var _ service.Cache = (*fakeCache)(nil)

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	b, ok := f.data[key]
	if !ok {
		return repository.ErrCacheMiss
	}
	f.hits++
	return json.Unmarshal(b, dest)
}

func (f *fakeCache) SetJSON(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = b
	return nil
}

func (f *fakeCache) DelPrefix(ctx context.Context, prefix string) error {
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			delete(f.data, k)
		}
	}
	return nil
}

type statusChange struct {
	order *models.Order
	from  models.OrderStatus
}

type fakeNotifier struct {
	mu      sync.Mutex
	placed  []*models.Order
	changes []statusChange
}

var _ service.Notifier = (*fakeNotifier)(nil)

func (f *fakeNotifier) OrderPlaced(o *models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, o)
}

func (f *fakeNotifier) OrderStatusChanged(o *models.Order, from models.OrderStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, statusChange{order: o, from: from})
}
