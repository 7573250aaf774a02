package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/example/perfumery/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeFinder struct {
	products map[primitive.ObjectID]models.Product
	calls    [][]primitive.ObjectID
	err      error
}

var _ ProductFinder = (*fakeFinder)(nil)

func (f *fakeFinder) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	f.calls = append(f.calls, ids)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func catalog() (*fakeFinder, models.Product, models.Product) {
	rose := models.Product{
		ID:    primitive.NewObjectID(),
		Name:  "Rose Taifi",
		Image: "/img/rose-taifi.jpg",
		Variants: []models.Variant{
			{Size: "12ml", Price: 39.99},
			{Size: "25ml", Price: 59.99},
		},
	}
	oud := models.Product{
		ID:       primitive.NewObjectID(),
		Name:     "Oud Royal",
		Variants: []models.Variant{{Size: "50ml", Price: 120}},
	}
	return &fakeFinder{products: map[primitive.ObjectID]models.Product{rose.ID: rose, oud.ID: oud}}, rose, oud
}

func TestPrice_RoseTaifiExample(t *testing.T) {
	finder, rose, _ := catalog()

	q, err := NewPricer(finder).Price(context.Background(), []models.LineItem{
		{ProductID: rose.ID, Size: "12ml", Quantity: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 89.98, q.Total)
	assert.Equal(t, 79.98, q.Subtotal)
	assert.Equal(t, ShippingCost, q.Shipping)
	require.Len(t, q.Items, 1)
	assert.Equal(t, models.OrderItem{
		ProductID: rose.ID,
		Name:      "Rose Taifi",
		Price:     39.99,
		Size:      "12ml",
		Quantity:  2,
		Image:     "/img/rose-taifi.jpg",
	}, q.Items[0])
}

func TestPrice_SameProductDifferentSizes(t *testing.T) {
	finder, rose, oud := catalog()

	q, err := NewPricer(finder).Price(context.Background(), []models.LineItem{
		{ProductID: rose.ID, Size: "25ml", Quantity: 1},
		{ProductID: oud.ID, Size: "50ml", Quantity: 1},
		{ProductID: rose.ID, Size: "12ml", Quantity: 3},
	})
	require.NoError(t, err)

	require.Len(t, q.Items, 3)
	assert.Equal(t, 59.99, q.Items[0].Price)
	assert.Equal(t, 120.0, q.Items[1].Price)
	assert.Equal(t, 39.99, q.Items[2].Price)
	assert.Equal(t, 59.99+120+3*39.99+ShippingCost, q.Total)

	// one batch read, duplicates collapsed
	require.Len(t, finder.calls, 1)
	assert.Equal(t, []primitive.ObjectID{rose.ID, oud.ID}, finder.calls[0])
}

func TestPrice_TotalIsExact(t *testing.T) {
	finder, rose, _ := catalog()

	lines := make([]models.LineItem, 0, 10)
	for i := 1; i <= 10; i++ {
		lines = append(lines, models.LineItem{ProductID: rose.ID, Size: "12ml", Quantity: i})
	}

	q, err := NewPricer(finder).Price(context.Background(), lines)
	require.NoError(t, err)

	// 55 × 39.99 + 10
	assert.Equal(t, 2209.45, q.Total)
}

func TestPrice_SubCentPriceIsNotRounded(t *testing.T) {
	sample := models.Product{
		ID:       primitive.NewObjectID(),
		Name:     "Sample Vial",
		Variants: []models.Variant{{Size: "2ml", Price: 0.333}},
	}
	finder := &fakeFinder{products: map[primitive.ObjectID]models.Product{sample.ID: sample}}

	q, err := NewPricer(finder).Price(context.Background(), []models.LineItem{
		{ProductID: sample.ID, Size: "2ml", Quantity: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.999, q.Subtotal)
	assert.Equal(t, 10.999, q.Total)
}

func TestPrice_ProductNotFound(t *testing.T) {
	finder, rose, _ := catalog()
	missing := primitive.NewObjectID()

	_, err := NewPricer(finder).Price(context.Background(), []models.LineItem{
		{ProductID: rose.ID, Size: "12ml", Quantity: 1},
		{ProductID: missing, Size: "12ml", Quantity: 1},
	})

	var nf *ProductNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, missing, nf.ID)
	assert.Contains(t, err.Error(), missing.Hex())
}

func TestPrice_VariantUnavailable(t *testing.T) {
	finder, rose, _ := catalog()

	_, err := NewPricer(finder).Price(context.Background(), []models.LineItem{
		{ProductID: rose.ID, Size: "100ml", Quantity: 1},
	})

	var vu *VariantUnavailableError
	require.ErrorAs(t, err, &vu)
	assert.Equal(t, "variant 100ml not available for Rose Taifi", err.Error())
}

func TestPrice_StoreError(t *testing.T) {
	storeErr := errors.New("connection reset")
	finder := &fakeFinder{err: storeErr}

	_, err := NewPricer(finder).Price(context.Background(), []models.LineItem{
		{ProductID: primitive.NewObjectID(), Size: "12ml", Quantity: 1},
	})
	assert.ErrorIs(t, err, storeErr)
}
