package service

import (
	"context"
	"fmt"

	"github.com/example/perfumery/pkg/models"
	"github.com/example/perfumery/pkg/pricing"
	"github.com/example/perfumery/pkg/repository"
	"github.com/example/perfumery/pkg/validation"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type OrderService struct {
	orders   OrderStore
	pricer   *pricing.Pricer
	notifier Notifier
	audit    *Auditor
	logger   *zap.Logger
}

func NewOrderService(orders OrderStore, products pricing.ProductFinder, notifier Notifier, audit *Auditor, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		pricer:   pricing.NewPricer(products),
		notifier: notifier,
		audit:    audit,
		logger:   logger,
	}
}

// Create validates the cart, prices it from stored product data and writes
// a single order document. Nothing is written unless every line resolves.
//
// Stock is not reserved or decremented, and the product read and the insert
// are not transactional: two concurrent orders can both buy the last unit.
func (s *OrderService) Create(ctx context.Context, req validation.CreateOrderRequest, userID *primitive.ObjectID) (*models.Order, error) {
	in, err := validation.ValidateOrder(req)
	if err != nil {
		return nil, err
	}

	quote, err := s.pricer.Price(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          userID,
		Customer:        in.Customer,
		Items:           quote.Items,
		TotalAmount:     quote.Total,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentUnpaid,
		PaymentMethod:   models.PaymentCashOnDelivery,
		ShippingAddress: in.ShippingAddress,
		Notes:           in.Notes,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.Hex()),
		zap.Int("items", len(order.Items)),
		zap.Float64("total_amount", order.TotalAmount))

	if s.notifier != nil {
		s.notifier.OrderPlaced(order)
	}
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return s.orders.Get(ctx, id)
}

func (s *OrderService) List(ctx context.Context, f repository.OrderFilter) (*repository.List[models.Order], error) {
	return s.orders.List(ctx, f)
}

func (s *OrderService) ListForUser(ctx context.Context, userID primitive.ObjectID, p repository.Page) (*repository.List[models.Order], error) {
	return s.orders.List(ctx, repository.OrderFilter{UserID: &userID, Page: p})
}

// Update patches status, payment status, notes or shipping address in
// place. Status changes are not checked against any transition table.
func (s *OrderService) Update(ctx context.Context, id primitive.ObjectID, req validation.UpdateOrderRequest) (*models.Order, error) {
	if err := validation.ValidateOrderUpdate(req); err != nil {
		return nil, err
	}

	var previous models.OrderStatus
	if req.Status != nil {
		current, err := s.orders.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		previous = current.Status
	}

	set := bson.M{}
	if req.Status != nil {
		set["status"] = *req.Status
	}
	if req.PaymentStatus != nil {
		set["paymentStatus"] = *req.PaymentStatus
	}
	if req.Notes != nil {
		set["notes"] = *req.Notes
	}
	if req.ShippingAddress != nil {
		set["shippingAddress"] = req.ShippingAddress.Model()
	}
	// the store stamps updatedAt into set; audit only what the caller changed
	changes := bson.M{}
	for k, v := range set {
		changes[k] = v
	}

	order, err := s.orders.Update(ctx, id, set)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, "order", "update", id.Hex(), changes)

	if req.Status != nil && previous != order.Status && s.notifier != nil {
		s.notifier.OrderStatusChanged(order, previous)
	}
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, "order", "delete", id.Hex(), nil)
	return nil
}
