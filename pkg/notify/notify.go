package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/perfumery/pkg/models"
	"go.uber.org/zap"
)

// Notification is a customer-facing message about an order.
type Notification struct {
	Kind      string `json:"kind"`
	OrderID   string `json:"orderId"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

const (
	KindOrderPlaced   = "order_placed"
	KindStatusChanged = "order_status_changed"
)

// Sink delivers notifications, e.g. by email.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// LogSink writes notifications to the log instead of sending them.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Deliver(_ context.Context, n Notification) error {
	s.Logger.Info("Notification",
		zap.String("kind", n.Kind),
		zap.String("order_id", n.OrderID),
		zap.String("recipient", n.Recipient),
		zap.String("subject", n.Subject))
	return nil
}

// Messages
type orderPlaced struct {
	Order models.Order
}

type orderStatusChanged struct {
	Order models.Order
	From  models.OrderStatus
}

// notificationActor turns order events into notifications, one at a time.
type notificationActor struct {
	sink    Sink
	logger  *zap.Logger
	timeout time.Duration
}

func (a *notificationActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *orderPlaced:
		a.deliver(placedNotification(&msg.Order))

	case *orderStatusChanged:
		a.deliver(statusNotification(&msg.Order, msg.From))

	case *actor.Started:
		a.logger.Info("Notification actor started")

	case *actor.Stopped:
		a.logger.Info("Notification actor stopped")
	}
}

func (a *notificationActor) deliver(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.sink.Deliver(ctx, n); err != nil {
		a.logger.Error("Failed to deliver notification",
			zap.String("kind", n.Kind),
			zap.String("order_id", n.OrderID),
			zap.Error(err))
	}
}

func placedNotification(o *models.Order) Notification {
	return Notification{
		Kind:      KindOrderPlaced,
		OrderID:   o.ID.Hex(),
		Recipient: o.Customer.Email,
		Subject:   fmt.Sprintf("Order %s received", o.ID.Hex()),
		Body: fmt.Sprintf("Hi %s, we received your order of %d item(s). Total due on delivery: %.2f.",
			o.Customer.Name, len(o.Items), o.TotalAmount),
	}
}

func statusNotification(o *models.Order, from models.OrderStatus) Notification {
	return Notification{
		Kind:      KindStatusChanged,
		OrderID:   o.ID.Hex(),
		Recipient: o.Customer.Email,
		Subject:   fmt.Sprintf("Order %s is %s", o.ID.Hex(), o.Status),
		Body:      fmt.Sprintf("Hi %s, your order moved from %s to %s.", o.Customer.Name, from, o.Status),
	}
}

// Dispatcher hands order events to the notification actor without blocking
// the request that produced them.
type Dispatcher struct {
	system *actor.ActorSystem
	pid    *actor.PID
	logger *zap.Logger
}

func NewDispatcher(sink Sink, logger *zap.Logger) (*Dispatcher, error) {
	system := actor.NewActorSystem()

	props := actor.PropsFromProducer(func() actor.Actor {
		return &notificationActor{sink: sink, logger: logger.Named("notification-actor"), timeout: 10 * time.Second}
	})
	pid, err := system.Root.SpawnNamed(props, "notification-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn notification actor: %w", err)
	}

	return &Dispatcher{system: system, pid: pid, logger: logger}, nil
}

func (d *Dispatcher) OrderPlaced(o *models.Order) {
	d.system.Root.Send(d.pid, &orderPlaced{Order: *o})
}

func (d *Dispatcher) OrderStatusChanged(o *models.Order, from models.OrderStatus) {
	d.system.Root.Send(d.pid, &orderStatusChanged{Order: *o, From: from})
}

// Close stops the actor after it has drained the notifications already queued.
func (d *Dispatcher) Close() error {
	return d.system.Root.PoisonFuture(d.pid).Wait()
}
