package service

import (
	"context"
	"fmt"
	"log"
	"time"

	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/events"
	"pedidos-saga/pkg/models"

	"github.com/google/uuid"
)

// Store is the slice of persistence the restaurants service needs.
type Store interface {
	SaveRestaurant(ctx context.Context, restaurant models.Restaurant) error
	GetRestaurant(ctx context.Context, restaurantID string) (models.Restaurant, error)
	GetRestaurantByCNPJ(ctx context.Context, cnpj string) (models.Restaurant, error)
	UpdateRestaurant(ctx context.Context, restaurant models.Restaurant) error
	ListRestaurants(ctx context.Context) ([]models.Restaurant, error)
	DeleteRestaurant(ctx context.Context, restaurantID string) error
	SaveProduct(ctx context.Context, product models.Product) error
	GetProduct(ctx context.Context, productID string) (models.Product, error)
	ListProductsByRestaurant(ctx context.Context, restaurantID string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product models.Product) error
	DeleteProduct(ctx context.Context, productID string) error
}

// Notifier is the human-facing sink fed by the order feed. The log
// implementation stands in for the real outbound surface.
type Notifier interface {
	Notify(restaurantID, message string)
}

type LogNotifier struct{}

func (LogNotifier) Notify(restaurantID, message string) {
	log.Printf("[NOTIFY restaurante=%s] %s", restaurantID, message)
}

const ledgerSize = 4096

type Service struct {
	Store    Store
	Notifier Notifier
	Ledger   *events.Ledger
}

func NewService(store Store, notifier Notifier) *Service {
	return &Service{
		Store:    store,
		Notifier: notifier,
		Ledger:   events.NewLedger(ledgerSize),
	}
}

// CreateRestaurant registers a restaurant. CNPJ is unique across the base.
func (s *Service) CreateRestaurant(ctx context.Context, req models.RestaurantRequest) (models.Restaurant, error) {
	if _, err := s.Store.GetRestaurantByCNPJ(ctx, req.CNPJ); err == nil {
		return models.Restaurant{}, svcerror.New(
			svcerror.ErrConflictError,
			svcerror.WithOp("RestaurantService.CreateRestaurant"),
			svcerror.WithMsg("cnpj "+req.CNPJ+" already registered"),
			svcerror.WithTime(time.Now().UTC()),
		)
	} else if !svcerror.Is(err, svcerror.ErrNotFoundError) {
		return models.Restaurant{}, svcerror.AddOp(err, "RestaurantService.CreateRestaurant")
	}

	restaurant := models.Restaurant{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CNPJ:      req.CNPJ,
		Address:   req.Address,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Store.SaveRestaurant(ctx, restaurant); err != nil {
		return models.Restaurant{}, svcerror.AddOp(err, "RestaurantService.CreateRestaurant")
	}

	log.Printf("[RESTAURANTS] Restaurant %s (%s) registered", restaurant.ID, restaurant.Name)
	return restaurant, nil
}

func (s *Service) GetRestaurant(ctx context.Context, restaurantID string) (models.Restaurant, error) {
	return s.Store.GetRestaurant(ctx, restaurantID)
}

// UpdateRestaurant changes a restaurant's profile. CNPJ is immutable after
// registration.
func (s *Service) UpdateRestaurant(ctx context.Context, restaurantID string, req models.RestaurantUpdateRequest) (models.Restaurant, error) {
	restaurant, err := s.Store.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return models.Restaurant{}, svcerror.AddOp(err, "RestaurantService.UpdateRestaurant")
	}

	restaurant.Name = req.Name
	restaurant.Address = req.Address
	if req.Active != nil {
		restaurant.Active = *req.Active
	}

	if err := s.Store.UpdateRestaurant(ctx, restaurant); err != nil {
		return models.Restaurant{}, svcerror.AddOp(err, "RestaurantService.UpdateRestaurant")
	}
	return restaurant, nil
}

func (s *Service) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	return s.Store.ListRestaurants(ctx)
}

func (s *Service) DeleteRestaurant(ctx context.Context, restaurantID string) error {
	return s.Store.DeleteRestaurant(ctx, restaurantID)
}

// CreateProduct adds a product to a restaurant's menu. The restaurant must
// exist.
func (s *Service) CreateProduct(ctx context.Context, req models.ProductRequest) (models.Product, error) {
	if _, err := s.Store.GetRestaurant(ctx, req.RestaurantID); err != nil {
		return models.Product{}, svcerror.AddOp(err, "RestaurantService.CreateProduct")
	}

	product := models.Product{
		ID:           uuid.NewString(),
		RestaurantID: req.RestaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		Available:    true,
	}

	if err := s.Store.SaveProduct(ctx, product); err != nil {
		return models.Product{}, svcerror.AddOp(err, "RestaurantService.CreateProduct")
	}
	return product, nil
}

func (s *Service) GetProduct(ctx context.Context, productID string) (models.Product, error) {
	return s.Store.GetProduct(ctx, productID)
}

func (s *Service) ListProductsByRestaurant(ctx context.Context, restaurantID string) ([]models.Product, error) {
	return s.Store.ListProductsByRestaurant(ctx, restaurantID)
}

func (s *Service) UpdateProduct(ctx context.Context, productID string, req models.ProductRequest) (models.Product, error) {
	product, err := s.Store.GetProduct(ctx, productID)
	if err != nil {
		return models.Product{}, svcerror.AddOp(err, "RestaurantService.UpdateProduct")
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Category = req.Category
	product.Price = req.Price

	if err := s.Store.UpdateProduct(ctx, product); err != nil {
		return models.Product{}, svcerror.AddOp(err, "RestaurantService.UpdateProduct")
	}
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	return s.Store.DeleteProduct(ctx, productID)
}

// Dispatcher routes the orders channel into the notification sink.
func (s *Service) Dispatcher() *events.Dispatcher {
	d := events.NewDispatcher()
	events.Register(d, events.EvtTypeOrderCreated, s.OnOrderCreated)
	events.Register(d, events.EvtTypeOrderStatusUpdated, s.OnOrderStatusUpdated)
	return d
}

func (s *Service) OnOrderCreated(evt events.EventOrderCreated) error {
	if !s.Ledger.Observe(evt.Tipo, evt.OrderID) {
		return nil
	}
	s.Notifier.Notify(evt.RestaurantID,
		fmt.Sprintf("Novo pedido %s recebido, total R$ %.2f", evt.OrderID, evt.Total))
	return nil
}

func (s *Service) OnOrderStatusUpdated(evt events.EventOrderStatusUpdated) error {
	if !s.Ledger.Observe(evt.Tipo, evt.OrderID, evt.Status) {
		return nil
	}
	s.Notifier.Notify(evt.RestaurantID,
		fmt.Sprintf("Pedido %s agora esta %s (%s)", evt.OrderID, evt.Status, evt.Reason))
	return nil
}
