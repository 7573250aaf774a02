package validation

import (
	"fmt"
	"strings"

	"github.com/example/perfumery/pkg/models"
	"github.com/shopspring/decimal"
)

type VariantInput struct {
	Size  string  `json:"size" validate:"required,max=20"`
	Price float64 `json:"price" validate:"gt=0"`
	Stock *int    `json:"stock" validate:"omitempty,gte=0"`
}

type ProductRequest struct {
	Name        string         `json:"name" validate:"required,max=200"`
	Description string         `json:"description" validate:"max=5000"`
	Variants    []VariantInput `json:"variants" validate:"required,min=1,max=20,dive"`
	Category    string         `json:"category" validate:"required,max=100"`
	Tags        []string       `json:"tags" validate:"max=30,dive,required,max=50"`
	Featured    bool           `json:"featured"`
	Image       string         `json:"image" validate:"omitempty,max=500"`
}

// ProductPatch is a partial product update; nil fields are left untouched.
type ProductPatch struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=5000"`
	Variants    *[]VariantInput `json:"variants" validate:"omitempty,min=1,max=20,dive"`
	Category    *string         `json:"category" validate:"omitempty,min=1,max=100"`
	Tags        *[]string       `json:"tags" validate:"omitempty,max=30,dive,required,max=50"`
	Featured    *bool           `json:"featured"`
	Image       *string         `json:"image" validate:"omitempty,max=500"`
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Variants == nil && p.Category == nil &&
		p.Tags == nil && p.Featured == nil && p.Image == nil
}

func ValidateProduct(req ProductRequest) error {
	if err := Struct(req); err != nil {
		return err
	}
	e := &Error{}
	checkVariants(e, req.Variants)
	return e.orNil()
}

func ValidateProductPatch(p ProductPatch) error {
	if p.Empty() {
		e := &Error{}
		e.add("body", "must contain at least one field")
		return e
	}
	if err := Struct(p); err != nil {
		return err
	}
	e := &Error{}
	if p.Variants != nil {
		checkVariants(e, *p.Variants)
	}
	return e.orNil()
}

// checkVariants enforces non-blank, unique size labels within a product and
// prices in whole cents, so order totals are exact sums.
func checkVariants(e *Error, variants []VariantInput) {
	seen := make(map[string]int, len(variants))
	for i, v := range variants {
		price := decimal.NewFromFloat(v.Price)
		if !price.Equal(price.Round(2)) {
			e.add(fmt.Sprintf("variants[%d].price", i), "must have at most 2 decimal places")
		}

		key := strings.ToLower(strings.TrimSpace(v.Size))
		if key == "" {
			e.add(fmt.Sprintf("variants[%d].size", i), "is required")
			continue
		}
		if first, ok := seen[key]; ok {
			e.add(fmt.Sprintf("variants[%d].size", i), fmt.Sprintf("duplicates variants[%d].size", first))
			continue
		}
		seen[key] = i
	}
}

func Variants(in []VariantInput) []models.Variant {
	out := make([]models.Variant, len(in))
	for i, v := range in {
		out[i] = models.Variant{Size: strings.TrimSpace(v.Size), Price: v.Price, Stock: v.Stock}
	}
	return out
}

func (r ProductRequest) Model() models.Product {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Product{
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		Variants:    Variants(r.Variants),
		Category:    strings.TrimSpace(r.Category),
		Tags:        tags,
		Featured:    r.Featured,
		Image:       r.Image,
	}
}
