package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentgateway "pedidos-saga/cmd/payments/server/payment-gateway"
	paymentsvc "pedidos-saga/cmd/payments/server/service"
	"pedidos-saga/pkg/address"
	"pedidos-saga/pkg/bus"
	"pedidos-saga/pkg/database"
	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/events"
	"pedidos-saga/pkg/models"
)

func testLookup() address.Static {
	return address.Static{Addresses: map[string]models.DeliveryAddress{
		"01310-100": {
			Street:   "Avenida Paulista",
			District: "Bela Vista",
			City:     "Sao Paulo",
			State:    "SP",
			CEP:      "01310-100",
		},
	}}
}

func testOrderRequest() models.OrderRequest {
	return models.OrderRequest{
		CustomerID:   "customer-1",
		RestaurantID: "restaurant-1",
		Items: []models.OrderItemRequest{
			{ProductID: "prod-1", ProductName: "Pizza Margherita", Quantity: 1, UnitPrice: 35.00},
			{ProductID: "prod-2", ProductName: "Refrigerante", Quantity: 2, UnitPrice: 7.50},
		},
		DeliveryAddress: models.DeliveryAddress{Number: "1000", CEP: "01310-100"},
	}
}

func newTestService(t *testing.T) (*Service, *bus.MemoryBus) {
	t.Helper()
	memBus := bus.NewMemoryBus()
	svc := NewService(database.NewMemoryStore(), memBus, testLookup())
	return svc, memBus
}

func receiveEvent[T events.DomainEvent](t *testing.T, sub bus.Subscription, tipo events.EventType, timeout time.Duration) T {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		require.Positive(t, remaining, "event %s not observed within %s", tipo, timeout)

		raw, err := sub.Receive(context.Background(), remaining)
		require.NoError(t, err)

		var evt T
		require.NoError(t, json.Unmarshal(raw, &evt))
		if evt.GetMetadata().Tipo == tipo {
			return evt
		}
	}
}

func TestCreateOrderComputesTotalsAndPublishes(t *testing.T) {
	svc, memBus := newTestService(t)
	ctx := context.Background()

	sub, err := memBus.Subscribe(ctx, bus.ChannelOrders)
	require.NoError(t, err)
	defer sub.Close()

	order, err := svc.CreateOrder(ctx, testOrderRequest())
	require.NoError(t, err)

	assert.Equal(t, models.ORDER_STATUS_PENDING, order.Status)
	assert.InDelta(t, 50.00, order.Total, 0.001)
	assert.InDelta(t, 15.00, order.Items[1].Subtotal, 0.001)
	assert.Equal(t, "Avenida Paulista", order.DeliveryAddress.Street)
	assert.Equal(t, "1000", order.DeliveryAddress.Number)

	evt := receiveEvent[events.EventOrderCreated](t, sub, events.EvtTypeOrderCreated, time.Second)
	assert.Equal(t, order.ID, evt.OrderID)
	assert.InDelta(t, 50.00, evt.Total, 0.001)
	assert.NotEmpty(t, evt.Timestamp)
}

func TestCreateOrderRejectsUnknownCEP(t *testing.T) {
	svc, _ := newTestService(t)

	req := testOrderRequest()
	req.DeliveryAddress.CEP = "99999-999"

	_, err := svc.CreateOrder(context.Background(), req)
	require.Error(t, err)
	assert.True(t, svcerror.Is(err, svcerror.ErrValidationError))
}

func TestManualTransitionFollowsTable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, testOrderRequest())
	require.NoError(t, err)

	// PENDING cannot jump to PREPARING
	_, err = svc.UpdateStatus(ctx, order.ID, models.OrderStatusRequest{Status: "PREPARING"})
	require.Error(t, err)
	assert.True(t, svcerror.Is(err, svcerror.ErrValidationError))

	updated, err := svc.UpdateStatus(ctx, order.ID, models.OrderStatusRequest{Status: "CONFIRMED"})
	require.NoError(t, err)
	assert.Equal(t, models.ORDER_STATUS_CONFIRMED, updated.Status)

	// no going back
	_, err = svc.UpdateStatus(ctx, order.ID, models.OrderStatusRequest{Status: "PENDING"})
	require.Error(t, err)

	_, err = svc.UpdateStatus(ctx, order.ID, models.OrderStatusRequest{Status: "INVENTED"})
	require.Error(t, err)
}

func TestManualSameStatusIsNoOp(t *testing.T) {
	svc, memBus := newTestService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, testOrderRequest())
	require.NoError(t, err)

	sub, err := memBus.Subscribe(ctx, bus.ChannelOrders)
	require.NoError(t, err)
	defer sub.Close()

	updated, err := svc.UpdateStatus(ctx, order.ID, models.OrderStatusRequest{Status: "PENDING"})
	require.NoError(t, err)
	assert.Equal(t, models.ORDER_STATUS_PENDING, updated.Status)

	_, err = sub.Receive(ctx, 50*time.Millisecond)
	assert.ErrorIs(t, err, bus.ErrReceiveTimeout)
}

func TestPaymentApprovedConfirmsOrder(t *testing.T) {
	svc, memBus := newTestService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, testOrderRequest())
	require.NoError(t, err)

	sub, err := memBus.Subscribe(ctx, bus.ChannelOrders)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, svc.OnPaymentProcessed(events.EventPaymentProcessed{
		Metadata:  events.NewMetadata(events.EvtTypePaymentProcessed),
		PaymentID: "pay-1",
		OrderID:   order.ID,
		Status:    models.PAYMENT_STATUS_APPROVED,
	}))

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ORDER_STATUS_CONFIRMED, stored.Status)

	evt := receiveEvent[events.EventOrderStatusUpdated](t, sub, events.EvtTypeOrderStatusUpdated, time.Second)
	assert.Equal(t, "CONFIRMED", evt.Status)
	assert.Equal(t, "pagamento aprovado automaticamente", evt.Reason)
}

func TestReplayedApprovalPublishesStatusOnce(t *testing.T) {
	svc, memBus := newTestService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, testOrderRequest())
	require.NoError(t, err)

	sub, err := memBus.Subscribe(ctx, bus.ChannelOrders)
	require.NoError(t, err)
	defer sub.Close()

	approved := events.EventPaymentProcessed{
		Metadata:  events.NewMetadata(events.EvtTypePaymentProcessed),
		PaymentID: "pay-1",
		OrderID:   order.ID,
		Status:    models.PAYMENT_STATUS_APPROVED,
	}
	require.NoError(t, svc.OnPaymentProcessed(approved))
	require.NoError(t, svc.OnPaymentProcessed(approved))
	require.NoError(t, svc.OnPaymentProcessed(approved))

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ORDER_STATUS_CONFIRMED, stored.Status)

	evt := receiveEvent[events.EventOrderStatusUpdated](t, sub, events.EvtTypeOrderStatusUpdated, time.Second)
	assert.Equal(t, "CONFIRMED", evt.Status)

	_, err = sub.Receive(ctx, 50*time.Millisecond)
	assert.ErrorIs(t, err, bus.ErrReceiveTimeout)
}

// flakyStore fails the first UpdateOrderStatus calls before recovering.
type flakyStore struct {
	Store
	failures int
}

func (s *flakyStore) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	if s.failures > 0 {
		s.failures--
		return svcerror.New(
			svcerror.ErrDatabaseError,
			svcerror.WithOp("flakyStore.UpdateOrderStatus"),
			svcerror.WithMsg("transient failure"),
			svcerror.WithTime(time.Now().UTC()),
		)
	}
	return s.Store.UpdateOrderStatus(ctx, orderID, status)
}

func TestRedeliveryAfterFailedWriteStillPublishes(t *testing.T) {
	memBus := bus.NewMemoryBus()
	store := &flakyStore{Store: database.NewMemoryStore(), failures: 1}
	svc := NewService(store, memBus, testLookup())
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, testOrderRequest())
	require.NoError(t, err)

	sub, err := memBus.Subscribe(ctx, bus.ChannelOrders)
	require.NoError(t, err)
	defer sub.Close()

	approved := events.EventPaymentProcessed{
		Metadata:  events.NewMetadata(events.EvtTypePaymentProcessed),
		PaymentID: "pay-1",
		OrderID:   order.ID,
		Status:    models.PAYMENT_STATUS_APPROVED,
	}

	require.NoError(t, svc.OnPaymentProcessed(approved))

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ORDER_STATUS_PENDING, stored.Status)

	require.NoError(t, svc.OnPaymentProcessed(approved))

	stored, err = svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ORDER_STATUS_CONFIRMED, stored.Status)

	evt := receiveEvent[events.EventOrderStatusUpdated](t, sub, events.EvtTypeOrderStatusUpdated, time.Second)
	assert.Equal(t, "CONFIRMED", evt.Status)
	assert.Equal(t, "pagamento aprovado automaticamente", evt.Reason)
}

func TestPaymentDeclinedCancelsOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, testOrderRequest())
	require.NoError(t, err)

	require.NoError(t, svc.OnPaymentProcessed(events.EventPaymentProcessed{
		Metadata:  events.NewMetadata(events.EvtTypePaymentProcessed),
		PaymentID: "pay-1",
		OrderID:   order.ID,
		Status:    models.PAYMENT_STATUS_DECLINED,
	}))

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ORDER_STATUS_CANCELLED, stored.Status)
}

func TestPaymentFailedLeavesOrderAlone(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, testOrderRequest())
	require.NoError(t, err)

	require.NoError(t, svc.OnPaymentProcessed(events.EventPaymentProcessed{
		Metadata:  events.NewMetadata(events.EvtTypePaymentProcessed),
		PaymentID: "pay-1",
		OrderID:   order.ID,
		Status:    models.PAYMENT_STATUS_FAILED,
	}))

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ORDER_STATUS_PENDING, stored.Status)
}

func TestRefundCancelsDeliveredOrder(t *testing.T) {
	svc, memBus := newTestService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, testOrderRequest())
	require.NoError(t, err)

	for _, status := range []models.OrderStatus{
		models.ORDER_STATUS_CONFIRMED,
		models.ORDER_STATUS_PREPARING,
		models.ORDER_STATUS_EN_ROUTE,
		models.ORDER_STATUS_DELIVERED,
	} {
		require.NoError(t, svc.Store.UpdateOrderStatus(ctx, order.ID, status))
	}

	sub, err := memBus.Subscribe(ctx, bus.ChannelOrders)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, svc.OnRefundProcessed(events.EventRefundProcessed{
		Metadata:  events.NewMetadata(events.EvtTypeRefundProcessed),
		RefundID:  "refund-1",
		PaymentID: "pay-1",
		OrderID:   order.ID,
		Amount:    50.00,
	}))

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ORDER_STATUS_CANCELLED, stored.Status)

	evt := receiveEvent[events.EventOrderStatusUpdated](t, sub, events.EvtTypeOrderStatusUpdated, time.Second)
	assert.Equal(t, "CANCELLED", evt.Status)
	assert.Contains(t, evt.Reason, "refund-1")
}

func TestUnknownOrderEventIsDropped(t *testing.T) {
	svc, memBus := newTestService(t)
	ctx := context.Background()

	sub, err := memBus.Subscribe(ctx, bus.ChannelOrders)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, svc.OnPaymentProcessed(events.EventPaymentProcessed{
		Metadata:  events.NewMetadata(events.EvtTypePaymentProcessed),
		PaymentID: "pay-1",
		OrderID:   "no-such-order",
		Status:    models.PAYMENT_STATUS_APPROVED,
	}))

	_, err = sub.Receive(ctx, 50*time.Millisecond)
	assert.ErrorIs(t, err, bus.ErrReceiveTimeout)
}

func TestDeleteOrderPublishes(t *testing.T) {
	svc, memBus := newTestService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, testOrderRequest())
	require.NoError(t, err)

	sub, err := memBus.Subscribe(ctx, bus.ChannelOrders)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))

	_, err = svc.GetOrder(ctx, order.ID)
	require.Error(t, err)

	evt := receiveEvent[events.EventOrderDeleted](t, sub, events.EvtTypeOrderDeleted, time.Second)
	assert.Equal(t, order.ID, evt.OrderID)

	err = svc.DeleteOrder(ctx, order.ID)
	require.Error(t, err)
	assert.True(t, svcerror.Is(err, svcerror.ErrNotFoundError))
}

// Full choreography over the in-process bus: order placed, payment accepted
// and approved, order confirmed, status announced.
func TestOrderPaymentChoreography(t *testing.T) {
	memBus := bus.NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orderSvc := NewService(database.NewMemoryStore(), memBus, testLookup())
	orderDispatcher := orderSvc.Dispatcher()

	paySvc := paymentsvc.NewService(database.NewMemoryStore(), memBus, &paymentgateway.AlwaysApprove{})
	paySvc.ProcessDelay = 5 * time.Millisecond
	t.Cleanup(paySvc.Close)

	listener := bus.NewListener("pedidos", memBus, bus.ChannelPayments, func(_ context.Context, raw []byte) error {
		return orderDispatcher.Dispatch(raw)
	})
	listener.PollInterval = 10 * time.Millisecond
	require.NoError(t, listener.Start())
	defer listener.Stop()

	go paySvc.RunWorker(ctx)

	observer, err := memBus.Subscribe(ctx, bus.ChannelOrders)
	require.NoError(t, err)
	defer observer.Close()

	order, err := orderSvc.CreateOrder(ctx, testOrderRequest())
	require.NoError(t, err)
	require.InDelta(t, 50.00, order.Total, 0.001)

	payment, err := paySvc.CreatePayment(ctx, models.PaymentRequest{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Amount:     order.Total,
		Method:     "cartao_credito",
	})
	require.NoError(t, err)

	evt := receiveEvent[events.EventOrderStatusUpdated](t, observer, events.EvtTypeOrderStatusUpdated, 3*time.Second)
	assert.Equal(t, order.ID, evt.OrderID)
	assert.Equal(t, "CONFIRMED", evt.Status)
	assert.Equal(t, "pagamento aprovado automaticamente", evt.Reason)

	require.Eventually(t, func() bool {
		stored, err := orderSvc.GetOrder(ctx, order.ID)
		return err == nil && stored.Status == models.ORDER_STATUS_CONFIRMED
	}, 3*time.Second, 10*time.Millisecond)

	processed, err := paySvc.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PAYMENT_STATUS_APPROVED, processed.Status)
}
