package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/perfumery/pkg/models"
	"github.com/example/perfumery/pkg/repository"
	"github.com/example/perfumery/pkg/service"
	"github.com/example/perfumery/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProductFixture() (*service.ProductService, *fakeProductStore, *fakeCache, *fakeAuditStore) {
	store := newFakeProductStore(roseTaifi)
	cache := newFakeCache()
	audit := &fakeAuditStore{}
	logger := zap.NewNop()
	return service.NewProductService(store, cache, time.Minute, service.NewAuditor(audit, logger), logger), store, cache, audit
}

func TestProductService_ListIsCached(t *testing.T) {
	svc, store, cache, _ := newProductFixture()
	ctx := context.Background()

	first, err := svc.List(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	second, err := svc.List(ctx, repository.ProductFilter{})
	require.NoError(t, err)

	assert.Equal(t, 1, store.listCalls)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.Items[0].Name, second.Items[0].Name)

	// different filters do not share an entry
	_, err = svc.List(ctx, repository.ProductFilter{Category: "oud"})
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls)
}

func TestProductService_WritesInvalidateCache(t *testing.T) {
	svc, store, cache, audit := newProductFixture()
	ctx := context.Background()

	_, err := svc.Get(ctx, roseTaifi.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, roseTaifi.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, store.getCalls)

	created, err := svc.Create(ctx, validation.ProductRequest{
		Name:     "Oud Royal",
		Category: "oud",
		Variants: []validation.VariantInput{{Size: "50ml", Price: 120}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Empty(t, cache.data)
	assert.Equal(t, []string{}, created.Tags)

	featured := true
	updated, err := svc.Update(ctx, created.ID, validation.ProductPatch{Featured: &featured})
	require.NoError(t, err)
	assert.True(t, updated.Featured)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	actions := make([]string, len(audit.logs))
	for i, l := range audit.logs {
		actions[i] = l.Action
	}
	assert.Equal(t, []string{"create", "update", "delete"}, actions)
}

func TestProductService_CreateInvalid(t *testing.T) {
	svc, store, _, _ := newProductFixture()

	_, err := svc.Create(context.Background(), validation.ProductRequest{Name: "No variants", Category: "oud"})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Len(t, store.products, 1)
}

func TestProductService_UpdateVariantsReprices(t *testing.T) {
	svc, _, _, _ := newProductFixture()

	variants := []validation.VariantInput{{Size: "12ml", Price: 44.5}}
	updated, err := svc.Update(context.Background(), roseTaifi.ID, validation.ProductPatch{Variants: &variants})
	require.NoError(t, err)
	assert.Equal(t, []models.Variant{{Size: "12ml", Price: 44.5}}, updated.Variants)
}

func TestProductService_NoCache(t *testing.T) {
	store := newFakeProductStore(roseTaifi)
	svc := service.NewProductService(store, nil, time.Minute, nil, zap.NewNop())

	_, err := svc.List(context.Background(), repository.ProductFilter{})
	require.NoError(t, err)
	_, err = svc.List(context.Background(), repository.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls)
}
