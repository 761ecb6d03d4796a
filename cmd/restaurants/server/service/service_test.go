package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedidos-saga/pkg/database"
	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/events"
	"pedidos-saga/pkg/models"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func newTestService(t *testing.T) (*Service, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	return NewService(database.NewMemoryStore(), notifier), notifier
}

func TestCreateRestaurantEnforcesCNPJUniqueness(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := models.RestaurantRequest{Name: "Cantina da Nonna", CNPJ: "12.345.678/0001-90"}

	first, err := svc.CreateRestaurant(ctx, req)
	require.NoError(t, err)
	assert.True(t, first.Active)

	req.Name = "Outro Nome"
	_, err = svc.CreateRestaurant(ctx, req)
	require.Error(t, err)
	assert.True(t, svcerror.Is(err, svcerror.ErrConflictError))

	restaurants, err := svc.ListRestaurants(ctx)
	require.NoError(t, err)
	assert.Len(t, restaurants, 1)
}

func TestUpdateRestaurantKeepsCNPJ(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	restaurant, err := svc.CreateRestaurant(ctx, models.RestaurantRequest{
		Name:    "Cantina da Nonna",
		CNPJ:    "12.345.678/0001-90",
		Address: "Rua Augusta, 100",
	})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.UpdateRestaurant(ctx, restaurant.ID, models.RestaurantUpdateRequest{
		Name:    "Cantina da Nonna II",
		Address: "Rua Augusta, 200",
		Active:  &inactive,
	})
	require.NoError(t, err)

	assert.Equal(t, "Cantina da Nonna II", updated.Name)
	assert.Equal(t, "Rua Augusta, 200", updated.Address)
	assert.False(t, updated.Active)
	assert.Equal(t, restaurant.CNPJ, updated.CNPJ)

	stored, err := svc.GetRestaurant(ctx, restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
}

func TestUpdateUnknownRestaurant(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateRestaurant(context.Background(), "no-such-restaurant", models.RestaurantUpdateRequest{Name: "Novo Nome"})
	require.Error(t, err)
	assert.True(t, svcerror.Is(err, svcerror.ErrNotFoundError))
}

func TestProductRequiresExistingRestaurant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, models.ProductRequest{
		RestaurantID: "no-such-restaurant",
		Name:         "Pizza",
		Price:        35,
	})
	require.Error(t, err)
	assert.True(t, svcerror.Is(err, svcerror.ErrNotFoundError))

	restaurant, err := svc.CreateRestaurant(ctx, models.RestaurantRequest{
		Name: "Cantina", CNPJ: "12.345.678/0001-90",
	})
	require.NoError(t, err)

	product, err := svc.CreateProduct(ctx, models.ProductRequest{
		RestaurantID: restaurant.ID,
		Name:         "Pizza Margherita",
		Category:     "pizzas",
		Price:        35,
	})
	require.NoError(t, err)
	assert.True(t, product.Available)

	products, err := svc.ListProductsByRestaurant(ctx, restaurant.ID)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestUpdateProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	restaurant, err := svc.CreateRestaurant(ctx, models.RestaurantRequest{
		Name: "Cantina", CNPJ: "12.345.678/0001-90",
	})
	require.NoError(t, err)

	product, err := svc.CreateProduct(ctx, models.ProductRequest{
		RestaurantID: restaurant.ID, Name: "Pizza", Price: 35,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, product.ID, models.ProductRequest{
		RestaurantID: restaurant.ID, Name: "Pizza Grande", Price: 42,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pizza Grande", updated.Name)
	assert.InDelta(t, 42.0, updated.Price, 0.001)
}

func TestNotificationsForOrderFeed(t *testing.T) {
	svc, notifier := newTestService(t)

	require.NoError(t, svc.OnOrderCreated(events.EventOrderCreated{
		Metadata:     events.NewMetadata(events.EvtTypeOrderCreated),
		OrderID:      "order-1",
		CustomerID:   "customer-1",
		RestaurantID: "restaurant-1",
		Total:        50.00,
	}))

	require.NoError(t, svc.OnOrderStatusUpdated(events.EventOrderStatusUpdated{
		Metadata:     events.NewMetadata(events.EvtTypeOrderStatusUpdated),
		OrderID:      "order-1",
		Status:       "CONFIRMED",
		RestaurantID: "restaurant-1",
		Reason:       "pagamento aprovado automaticamente",
	}))

	require.Equal(t, 2, notifier.count())
	assert.Contains(t, notifier.messages[0], "order-1")
	assert.Contains(t, notifier.messages[0], "50.00")
	assert.Contains(t, notifier.messages[1], "CONFIRMED")
}

func TestDuplicateNotificationsSuppressed(t *testing.T) {
	svc, notifier := newTestService(t)

	evt := events.EventOrderStatusUpdated{
		Metadata:     events.NewMetadata(events.EvtTypeOrderStatusUpdated),
		OrderID:      "order-1",
		Status:       "CONFIRMED",
		RestaurantID: "restaurant-1",
	}
	require.NoError(t, svc.OnOrderStatusUpdated(evt))
	require.NoError(t, svc.OnOrderStatusUpdated(evt))
	require.NoError(t, svc.OnOrderStatusUpdated(evt))

	assert.Equal(t, 1, notifier.count())

	// a different status for the same order still notifies
	evt.Status = "PREPARING"
	require.NoError(t, svc.OnOrderStatusUpdated(evt))
	assert.Equal(t, 2, notifier.count())
}
