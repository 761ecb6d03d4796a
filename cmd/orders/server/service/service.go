package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"pedidos-saga/pkg/address"
	"pedidos-saga/pkg/bus"
	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/events"
	"pedidos-saga/pkg/models"

	"github.com/google/uuid"
)

// Store is the slice of persistence the orders service needs.
type Store interface {
	SaveOrder(ctx context.Context, order models.Order) error
	GetOrder(ctx context.Context, orderID string) (models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
	ListOrdersByRestaurant(ctx context.Context, restaurantID string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
	DeleteOrder(ctx context.Context, orderID string) error
}

const ledgerSize = 4096

type Service struct {
	Store  Store
	Bus    bus.Publisher
	Lookup address.Lookup
	Ledger *events.Ledger
}

func NewService(store Store, publisher bus.Publisher, lookup address.Lookup) *Service {
	return &Service{
		Store:  store,
		Bus:    publisher,
		Lookup: lookup,
		Ledger: events.NewLedger(ledgerSize),
	}
}

// CreateOrder validates the delivery address, persists the order as PENDING
// and announces it on the orders channel.
func (s *Service) CreateOrder(ctx context.Context, req models.OrderRequest) (models.Order, error) {
	addr, err := address.Validate(ctx, s.Lookup, req.DeliveryAddress)
	if err != nil {
		return models.Order{}, svcerror.AddOp(err, "OrderService.CreateOrder")
	}

	items := make([]models.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = models.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    float64(item.Quantity) * item.UnitPrice,
		}
	}

	order := models.Order{
		ID:              uuid.NewString(),
		CustomerID:      req.CustomerID,
		RestaurantID:    req.RestaurantID,
		Items:           items,
		Total:           req.Total(),
		DeliveryAddress: addr,
		Status:          models.ORDER_STATUS_PENDING,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.Store.SaveOrder(ctx, order); err != nil {
		return models.Order{}, svcerror.AddOp(err, "OrderService.CreateOrder")
	}

	evt := events.EventOrderCreated{
		Metadata:     events.NewMetadata(events.EvtTypeOrderCreated),
		OrderID:      order.ID,
		CustomerID:   order.CustomerID,
		RestaurantID: order.RestaurantID,
		Total:        order.Total,
	}
	if err := s.Bus.Publish(ctx, bus.ChannelOrders, evt); err != nil {
		log.Printf("[SAGA] Failed to announce order %s: %v", order.ID, err)
	}

	log.Printf("[SAGA] Order %s created for customer %s, total %.2f", order.ID, order.CustomerID, order.Total)
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (models.Order, error) {
	return s.Store.GetOrder(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.Store.ListOrders(ctx)
}

func (s *Service) ListOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	return s.Store.ListOrdersByCustomer(ctx, customerID)
}

func (s *Service) ListOrdersByRestaurant(ctx context.Context, restaurantID string) ([]models.Order, error) {
	return s.Store.ListOrdersByRestaurant(ctx, restaurantID)
}

// UpdateStatus applies a manual transition. Illegal moves are rejected;
// re-applying the current status is a no-op that publishes nothing.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, req models.OrderStatusRequest) (models.Order, error) {
	status, ok := models.ParseOrderStatus(req.Status)
	if !ok {
		return models.Order{}, svcerror.New(
			svcerror.ErrValidationError,
			svcerror.WithOp("OrderService.UpdateStatus"),
			svcerror.WithMsg("unknown order status "+req.Status),
		)
	}

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, svcerror.AddOp(err, "OrderService.UpdateStatus")
	}

	if order.Status == status {
		return order, nil
	}
	if !order.Status.CanTransition(status) {
		return models.Order{}, svcerror.New(
			svcerror.ErrValidationError,
			svcerror.WithOp("OrderService.UpdateStatus"),
			svcerror.WithMsg(fmt.Sprintf("order %s cannot move from %s to %s", orderID, order.Status, status)),
		)
	}

	if err := s.Store.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return models.Order{}, svcerror.AddOp(err, "OrderService.UpdateStatus")
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()

	s.publishStatus(ctx, order, req.Reason)
	return order, nil
}

func (s *Service) DeleteOrder(ctx context.Context, orderID string) error {
	if _, err := s.Store.GetOrder(ctx, orderID); err != nil {
		return svcerror.AddOp(err, "OrderService.DeleteOrder")
	}
	if err := s.Store.DeleteOrder(ctx, orderID); err != nil {
		return svcerror.AddOp(err, "OrderService.DeleteOrder")
	}

	evt := events.EventOrderDeleted{
		Metadata: events.NewMetadata(events.EvtTypeOrderDeleted),
		OrderID:  orderID,
	}
	if err := s.Bus.Publish(ctx, bus.ChannelOrders, evt); err != nil {
		log.Printf("[SAGA] Failed to announce deletion of order %s: %v", orderID, err)
	}
	return nil
}

// Dispatcher routes the payments channel into the saga.
func (s *Service) Dispatcher() *events.Dispatcher {
	d := events.NewDispatcher()
	events.Register(d, events.EvtTypePaymentProcessed, s.OnPaymentProcessed)
	events.Register(d, events.EvtTypeRefundProcessed, s.OnRefundProcessed)
	return d
}

// OnPaymentProcessed advances the saga: APPROVED confirms, DECLINED cancels,
// FAILED is observed without a transition.
func (s *Service) OnPaymentProcessed(evt events.EventPaymentProcessed) error {
	ctx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()

	switch evt.Status {
	case models.PAYMENT_STATUS_APPROVED:
		s.applyEventTransition(ctx, evt.OrderID, models.ORDER_STATUS_CONFIRMED,
			"pagamento aprovado automaticamente",
			evt.Tipo, evt.PaymentID)
	case models.PAYMENT_STATUS_DECLINED:
		s.applyEventTransition(ctx, evt.OrderID, models.ORDER_STATUS_CANCELLED,
			"pagamento recusado",
			evt.Tipo, evt.PaymentID)
	case models.PAYMENT_STATUS_FAILED:
		log.Printf("[SAGA] Payment %s for order %s FAILED, keeping order as is", evt.PaymentID, evt.OrderID)
	default:
		log.Printf("[SAGA] Payment %s for order %s reported %s, nothing to do", evt.PaymentID, evt.OrderID, evt.Status)
	}
	return nil
}

// OnRefundProcessed cancels the order no matter how far along it is.
func (s *Service) OnRefundProcessed(evt events.EventRefundProcessed) error {
	ctx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()

	s.applyEventTransition(ctx, evt.OrderID, models.ORDER_STATUS_CANCELLED,
		"estorno "+evt.RefundID+" processado",
		evt.Tipo, evt.RefundID)
	return nil
}

// applyEventTransition moves an order in response to a bus event. Unknown
// orders and illegal moves are logged and dropped; the ledger keeps a
// redelivered envelope from re-firing the status announcement. The move is
// recorded in the ledger only after the store accepts it, so a redelivery
// that follows a failed write still announces the status.
func (s *Service) applyEventTransition(ctx context.Context, orderID string, to models.OrderStatus, reason string, tipo events.EventType, correlationID string) {
	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		log.Printf("[SAGA] Event %s references unknown order %s, dropping", tipo, orderID)
		return
	}

	if order.Status == to {
		log.Printf("[SAGA] Order %s already %s", orderID, to)
		return
	}
	if !order.Status.CanTransition(to) {
		log.Printf("[SAGA] Order %s cannot move from %s to %s on %s, dropping", orderID, order.Status, to, tipo)
		return
	}

	if err := s.Store.UpdateOrderStatus(ctx, orderID, to); err != nil {
		log.Printf("[SAGA] Failed to move order %s to %s: %v", orderID, to, err)
		return
	}
	order.Status = to
	order.UpdatedAt = time.Now().UTC()

	log.Printf("[SAGA] Order %s moved to %s (%s)", orderID, to, reason)
	if s.Ledger.Observe(tipo, orderID, correlationID, string(to)) {
		s.publishStatus(ctx, order, reason)
	}
}

func (s *Service) publishStatus(ctx context.Context, order models.Order, reason string) {
	evt := events.EventOrderStatusUpdated{
		Metadata:     events.NewMetadata(events.EvtTypeOrderStatusUpdated),
		OrderID:      order.ID,
		Status:       string(order.Status),
		RestaurantID: order.RestaurantID,
		Reason:       reason,
	}
	if err := s.Bus.Publish(ctx, bus.ChannelOrders, evt); err != nil {
		log.Printf("[SAGA] Failed to announce status of order %s: %v", order.ID, err)
	}
}
