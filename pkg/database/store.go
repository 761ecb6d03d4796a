package database

import (
	"context"

	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/models"
	"pedidos-saga/pkg/repository"
)

// Store serves the same method set as Database on top of the generic
// repositories, so every service runs without postgres (memory backend) or
// against redis. Foreign-key lookups are repository scans.
type Store struct {
	Orders      repository.Repository[models.Order]
	Payments    repository.Repository[models.Payment]
	Refunds     repository.Repository[models.Refund]
	Restaurants repository.Repository[models.Restaurant]
	Products    repository.Repository[models.Product]
}

func NewStore(ctx context.Context, repoType repository.RepositoryType) (*Store, error) {
	orders, err := repository.NewRepository(ctx, repoType, "pedido:", func(o models.Order) string { return o.ID })
	if err != nil {
		return nil, svcerror.AddOp(err, "Store.New")
	}
	payments, err := repository.NewRepository(ctx, repoType, "pagamento:", func(p models.Payment) string { return p.ID })
	if err != nil {
		return nil, svcerror.AddOp(err, "Store.New")
	}
	refunds, err := repository.NewRepository(ctx, repoType, "estorno:", func(r models.Refund) string { return r.ID })
	if err != nil {
		return nil, svcerror.AddOp(err, "Store.New")
	}
	restaurants, err := repository.NewRepository(ctx, repoType, "restaurante:", func(r models.Restaurant) string { return r.ID })
	if err != nil {
		return nil, svcerror.AddOp(err, "Store.New")
	}
	products, err := repository.NewRepository(ctx, repoType, "produto:", func(p models.Product) string { return p.ID })
	if err != nil {
		return nil, svcerror.AddOp(err, "Store.New")
	}

	return &Store{
		Orders:      orders,
		Payments:    payments,
		Refunds:     refunds,
		Restaurants: restaurants,
		Products:    products,
	}, nil
}

// NewMemoryStore is the zero-dependency variant used by tests.
func NewMemoryStore() *Store {
	store, _ := NewStore(context.Background(), repository.RepositoryMemory)
	return store
}

// ORDERS

func (s *Store) SaveOrder(ctx context.Context, order models.Order) error {
	return s.Orders.Save(ctx, order)
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (models.Order, error) {
	return s.Orders.Load(ctx, orderID)
}

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.Orders.List(ctx)
}

func (s *Store) ListOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	return repository.Filter(ctx, s.Orders, func(o models.Order) bool { return o.CustomerID == customerID })
}

func (s *Store) ListOrdersByRestaurant(ctx context.Context, restaurantID string) ([]models.Order, error) {
	return repository.Filter(ctx, s.Orders, func(o models.Order) bool { return o.RestaurantID == restaurantID })
}

func (s *Store) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	order, err := s.Orders.Load(ctx, orderID)
	if err != nil {
		return err
	}
	order.Status = status
	return s.Orders.Update(ctx, order)
}

func (s *Store) DeleteOrder(ctx context.Context, orderID string) error {
	return s.Orders.Delete(ctx, orderID)
}

// PAYMENTS

func (s *Store) SavePayment(ctx context.Context, payment models.Payment) error {
	return s.Payments.Save(ctx, payment)
}

func (s *Store) GetPayment(ctx context.Context, paymentID string) (models.Payment, error) {
	return s.Payments.Load(ctx, paymentID)
}

func (s *Store) GetPaymentByOrder(ctx context.Context, orderID string) (models.Payment, error) {
	payment, ok, err := repository.Find(ctx, s.Payments, func(p models.Payment) bool { return p.OrderID == orderID })
	if err != nil {
		return payment, err
	}
	if !ok {
		return payment, svcerror.New(
			svcerror.ErrNotFoundError,
			svcerror.WithOp("Store.GetPaymentByOrder"),
			svcerror.WithMsg("no payment for order "+orderID),
		)
	}
	return payment, nil
}

func (s *Store) ListPayments(ctx context.Context) ([]models.Payment, error) {
	return s.Payments.List(ctx)
}

func (s *Store) UpdatePayment(ctx context.Context, payment models.Payment) error {
	return s.Payments.Update(ctx, payment)
}

func (s *Store) DeletePayment(ctx context.Context, paymentID string) error {
	return s.Payments.Delete(ctx, paymentID)
}

// REFUNDS

func (s *Store) SaveRefund(ctx context.Context, refund models.Refund) error {
	return s.Refunds.Save(ctx, refund)
}

func (s *Store) ListRefundsByPayment(ctx context.Context, paymentID string) ([]models.Refund, error) {
	return repository.Filter(ctx, s.Refunds, func(r models.Refund) bool { return r.PaymentID == paymentID })
}

// RESTAURANTS

func (s *Store) SaveRestaurant(ctx context.Context, restaurant models.Restaurant) error {
	return s.Restaurants.Save(ctx, restaurant)
}

func (s *Store) GetRestaurant(ctx context.Context, restaurantID string) (models.Restaurant, error) {
	return s.Restaurants.Load(ctx, restaurantID)
}

func (s *Store) GetRestaurantByCNPJ(ctx context.Context, cnpj string) (models.Restaurant, error) {
	restaurant, ok, err := repository.Find(ctx, s.Restaurants, func(r models.Restaurant) bool { return r.CNPJ == cnpj })
	if err != nil {
		return restaurant, err
	}
	if !ok {
		return restaurant, svcerror.New(
			svcerror.ErrNotFoundError,
			svcerror.WithOp("Store.GetRestaurantByCNPJ"),
			svcerror.WithMsg("no restaurant with cnpj "+cnpj),
		)
	}
	return restaurant, nil
}

func (s *Store) UpdateRestaurant(ctx context.Context, restaurant models.Restaurant) error {
	return s.Restaurants.Update(ctx, restaurant)
}

func (s *Store) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	return s.Restaurants.List(ctx)
}

func (s *Store) DeleteRestaurant(ctx context.Context, restaurantID string) error {
	return s.Restaurants.Delete(ctx, restaurantID)
}

// PRODUCTS

func (s *Store) SaveProduct(ctx context.Context, product models.Product) error {
	return s.Products.Save(ctx, product)
}

func (s *Store) GetProduct(ctx context.Context, productID string) (models.Product, error) {
	return s.Products.Load(ctx, productID)
}

func (s *Store) ListProductsByRestaurant(ctx context.Context, restaurantID string) ([]models.Product, error) {
	return repository.Filter(ctx, s.Products, func(p models.Product) bool { return p.RestaurantID == restaurantID })
}

func (s *Store) UpdateProduct(ctx context.Context, product models.Product) error {
	return s.Products.Update(ctx, product)
}

func (s *Store) DeleteProduct(ctx context.Context, productID string) error {
	return s.Products.Delete(ctx, productID)
}
