package pricing

import (
	"context"
	"fmt"

	"github.com/example/perfumery/pkg/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShippingCost is the flat fee added to every order.
const ShippingCost = 10.00

// ProductFinder fetches exactly the products with the given ids in one read.
// Missing ids are simply absent from the result.
type ProductFinder interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
}

// ProductNotFoundError reports a cart line whose product id is not in the store.
type ProductNotFoundError struct {
	ID primitive.ObjectID
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ID.Hex())
}

// VariantUnavailableError reports a cart line whose size the product does not offer.
type VariantUnavailableError struct {
	Size    string
	Product string
}

func (e *VariantUnavailableError) Error() string {
	return fmt.Sprintf("variant %s not available for %s", e.Size, e.Product)
}

// Quote is the priced form of a cart.
type Quote struct {
	Items    []models.OrderItem
	Subtotal float64
	Shipping float64
	Total    float64
}

// Pricer turns cart lines into priced order items using stored variant prices.
type Pricer struct {
	products ProductFinder
}

func NewPricer(products ProductFinder) *Pricer {
	return &Pricer{products: products}
}

// Price resolves every line against the stored product and variant and
// prices it from stored data only. Any unresolved line fails the whole quote.
func (p *Pricer) Price(ctx context.Context, lines []models.LineItem) (*Quote, error) {
	ids := distinctIDs(lines)

	products, err := p.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	byID := make(map[primitive.ObjectID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	items := make([]models.OrderItem, 0, len(lines))
	subtotal := decimal.Zero
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ID: line.ProductID}
		}

		variant, ok := product.Variant(line.Size)
		if !ok {
			return nil, &VariantUnavailableError{Size: line.Size, Product: product.Name}
		}

		unit := decimal.NewFromFloat(variant.Price)
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     variant.Price,
			Size:      variant.Size,
			Quantity:  line.Quantity,
			Image:     product.Image,
		})
	}

	shipping := decimal.NewFromFloat(ShippingCost)
	return &Quote{
		Items:    items,
		Subtotal: subtotal.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Total:    subtotal.Add(shipping).InexactFloat64(),
	}, nil
}

func distinctIDs(lines []models.LineItem) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(lines))
	ids := make([]primitive.ObjectID, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}
