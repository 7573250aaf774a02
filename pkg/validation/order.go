package validation

import (
	"strings"

	"github.com/example/perfumery/pkg/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CustomerInput struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Phone string `json:"phone" validate:"required,min=7,max=20"`
	Email string `json:"email" validate:"required,email"`
}

type AddressInput struct {
	Street     string `json:"street" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
}

func (a AddressInput) Model() models.ShippingAddress {
	a.normalize()
	return models.ShippingAddress{
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func (a *AddressInput) normalize() {
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
}

// LineItemInput has no price field: whatever price a client sends is
// dropped while decoding.
type LineItemInput struct {
	ProductID string `json:"productId" validate:"required,mongodb"`
	Size      string `json:"size" validate:"required,max=20"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=100"`
}

type CreateOrderRequest struct {
	Customer        CustomerInput   `json:"customer"`
	Items           []LineItemInput `json:"items" validate:"required,min=1,max=50,dive"`
	ShippingAddress AddressInput    `json:"shippingAddress"`
	Notes           string          `json:"notes" validate:"max=500"`
}

// ValidatedOrder is a CreateOrderRequest that passed validation, with ids parsed.
type ValidatedOrder struct {
	Customer        models.Customer
	Items           []models.LineItem
	ShippingAddress models.ShippingAddress
	Notes           string
}

// normalize trims every free-text field so the validate tags see the
// values that get stored. The items slice is copied, not mutated.
func (r *CreateOrderRequest) normalize() {
	r.Customer.Name = strings.TrimSpace(r.Customer.Name)
	r.Customer.Phone = strings.TrimSpace(r.Customer.Phone)
	r.Customer.Email = strings.ToLower(strings.TrimSpace(r.Customer.Email))
	r.ShippingAddress.normalize()
	r.Notes = strings.TrimSpace(r.Notes)

	if r.Items != nil {
		items := make([]LineItemInput, len(r.Items))
		for i, it := range r.Items {
			it.ProductID = strings.TrimSpace(it.ProductID)
			it.Size = strings.TrimSpace(it.Size)
			items[i] = it
		}
		r.Items = items
	}
}

func ValidateOrder(req CreateOrderRequest) (ValidatedOrder, error) {
	req.normalize()
	if err := Struct(req); err != nil {
		return ValidatedOrder{}, err
	}

	items := make([]models.LineItem, len(req.Items))
	for i, it := range req.Items {
		// the mongodb tag already guarantees a 24 char hex id
		id, _ := primitive.ObjectIDFromHex(it.ProductID)
		items[i] = models.LineItem{
			ProductID: id,
			Size:      it.Size,
			Quantity:  it.Quantity,
		}
	}

	return ValidatedOrder{
		Customer: models.Customer{
			Name:  req.Customer.Name,
			Phone: req.Customer.Phone,
			Email: req.Customer.Email,
		},
		Items:           items,
		ShippingAddress: req.ShippingAddress.Model(),
		Notes:           req.Notes,
	}, nil
}

// UpdateOrderRequest is a partial admin update. Any status may be set to any
// other status.
type UpdateOrderRequest struct {
	Status          *models.OrderStatus   `json:"status" validate:"omitempty,oneof=pending processing shipped delivered cancelled"`
	PaymentStatus   *models.PaymentStatus `json:"paymentStatus" validate:"omitempty,oneof=unpaid paid refunded"`
	Notes           *string               `json:"notes" validate:"omitempty,max=500"`
	ShippingAddress *AddressInput         `json:"shippingAddress"`
}

func (r UpdateOrderRequest) Empty() bool {
	return r.Status == nil && r.PaymentStatus == nil && r.Notes == nil && r.ShippingAddress == nil
}

func ValidateOrderUpdate(req UpdateOrderRequest) error {
	if req.Empty() {
		e := &Error{}
		e.add("body", "must contain at least one field")
		return e
	}
	if req.ShippingAddress != nil {
		addr := *req.ShippingAddress
		addr.normalize()
		req.ShippingAddress = &addr
	}
	return Struct(req)
}
