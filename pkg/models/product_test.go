package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductVariant(t *testing.T) {
	p := Product{
		Name: "Rose Taifi",
		Variants: []Variant{
			{Size: "12ml", Price: 39.99},
			{Size: "25ml", Price: 59.99},
		},
	}

	v, ok := p.Variant("25ml")
	assert.True(t, ok)
	assert.Equal(t, 59.99, v.Price)

	_, ok = p.Variant("50ml")
	assert.False(t, ok)

	assert.Equal(t, 39.99, p.MinPrice())
	assert.Zero(t, (&Product{}).MinPrice())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, OrderShipped.Valid())
	assert.False(t, OrderStatus("lost").Valid())
	assert.True(t, PaymentRefunded.Valid())
	assert.False(t, PaymentStatus("maybe").Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("root").Valid())
}
