package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/example/perfumery/pkg/models"
	"github.com/example/perfumery/pkg/repository"
	"github.com/example/perfumery/pkg/validation"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const catalogCachePrefix = "catalog:"

type ProductService struct {
	products ProductStore
	cache    Cache
	cacheTTL time.Duration
	audit    *Auditor
	logger   *zap.Logger
}

// NewProductService builds the catalog service. cache may be nil.
func NewProductService(products ProductStore, cache Cache, cacheTTL time.Duration, audit *Auditor, logger *zap.Logger) *ProductService {
	return &ProductService{
		products: products,
		cache:    cache,
		cacheTTL: cacheTTL,
		audit:    audit,
		logger:   logger,
	}
}

func listCacheKey(f repository.ProductFilter) string {
	key, _ := json.Marshal(f)
	return catalogCachePrefix + "list:" + string(key)
}

func (s *ProductService) List(ctx context.Context, f repository.ProductFilter) (*repository.List[models.Product], error) {
	f.Page = f.Page.Normalize()
	key := listCacheKey(f)

	var cached repository.List[models.Product]
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	list, err := s.products.List(ctx, f)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, list)
	return list, nil
}

func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	key := catalogCachePrefix + "product:" + id.Hex()

	var cached models.Product
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, product)
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, req validation.ProductRequest) (*models.Product, error) {
	if err := validation.ValidateProduct(req); err != nil {
		return nil, err
	}

	product := req.Model()
	if err := s.products.Insert(ctx, &product); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.audit.Record(ctx, "product", "create", product.ID.Hex(), bson.M{"name": product.Name})
	return &product, nil
}

func (s *ProductService) Update(ctx context.Context, id primitive.ObjectID, patch validation.ProductPatch) (*models.Product, error) {
	if err := validation.ValidateProductPatch(patch); err != nil {
		return nil, err
	}

	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Variants != nil {
		set["variants"] = validation.Variants(*patch.Variants)
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Tags != nil {
		set["tags"] = *patch.Tags
	}
	if patch.Featured != nil {
		set["featured"] = *patch.Featured
	}
	if patch.Image != nil {
		set["image"] = *patch.Image
	}
	fields := make([]string, 0, len(set))
	for k := range set {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	product, err := s.products.Update(ctx, id, set)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.audit.Record(ctx, "product", "update", id.Hex(), bson.M{"fields": fields})
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.audit.Record(ctx, "product", "delete", id.Hex(), nil)
	return nil
}

func (s *ProductService) readCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.GetJSON(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *ProductService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DelPrefix(ctx, catalogCachePrefix); err != nil {
		s.logger.Warn("Catalog cache invalidation failed", zap.Error(err))
	}
}
