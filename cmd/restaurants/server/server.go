package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pedidos-saga/cmd/restaurants/server/handler"
	"pedidos-saga/cmd/restaurants/server/service"
	"pedidos-saga/pkg/bus"
	"pedidos-saga/pkg/database"
	"pedidos-saga/pkg/repository"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type ServerConfig struct {
	Port         string
	Redis        bus.RedisConfig
	PGSQLURL     string
	RepoType     repository.RepositoryType
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type Server struct {
	Config   ServerConfig
	Bus      *bus.RedisBus
	Service  *service.Service
	Handler  *handler.Handler
	Listener *bus.Listener
	Router   *gin.Engine
}

func NewServer(ctx context.Context, conf ServerConfig) (*Server, error) {
	redisBus, err := bus.NewRedisBus(ctx, conf.Redis)
	if err != nil {
		return nil, err
	}

	store, err := newStore(ctx, conf)
	if err != nil {
		return nil, err
	}

	svc := service.NewService(store, service.LogNotifier{})
	dispatcher := svc.Dispatcher()

	listener := bus.NewListener("restaurantes", redisBus, bus.ChannelOrders, func(_ context.Context, raw []byte) error {
		return dispatcher.Dispatch(raw)
	})

	server := &Server{
		Config:   conf,
		Bus:      redisBus,
		Service:  svc,
		Handler:  handler.NewHandler(svc),
		Listener: listener,
	}
	server.SetupRouter()

	return server, nil
}

func newStore(ctx context.Context, conf ServerConfig) (service.Store, error) {
	if conf.PGSQLURL != "" {
		return database.NewPGDatabase(ctx, conf.PGSQLURL)
	}
	repoType := conf.RepoType
	if repoType == "" {
		repoType = repository.RepositoryMemory
	}
	return database.NewStore(ctx, repoType)
}

func (s *Server) SetupRouter() {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	restaurants := router.Group("/restaurantes")
	{
		restaurants.POST("", s.Handler.CreateRestaurant)
		restaurants.GET("", s.Handler.ListRestaurants)
		restaurants.GET("/:id", s.Handler.GetRestaurant)
		restaurants.PUT("/:id", s.Handler.UpdateRestaurant)
		restaurants.DELETE("/:id", s.Handler.DeleteRestaurant)
		restaurants.GET("/:id/produtos", s.Handler.ListProductsByRestaurant)
	}
	products := router.Group("/produtos")
	{
		products.POST("", s.Handler.CreateProduct)
		products.GET("/:id", s.Handler.GetProduct)
		products.PUT("/:id", s.Handler.UpdateProduct)
		products.DELETE("/:id", s.Handler.DeleteProduct)
	}
	router.GET("/health", s.Handler.HealthCheck)

	s.Router = router
}

func (s *Server) Start() error {
	log.Println("Starting Restaurants Service...")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", s.Config.Port),
		Handler:      s.Router,
		ReadTimeout:  s.Config.ReadTimeout,
		WriteTimeout: s.Config.WriteTimeout,
		IdleTimeout:  s.Config.IdleTimeout,
	}

	g.Go(func() error {
		log.Printf("Restaurants Service listening on %s", s.Config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := s.Listener.Start(); err != nil {
		return err
	}

	return s.HandleShutdown(ctx, g, srv)
}

func (s *Server) HandleShutdown(ctx context.Context, g *errgroup.Group, srv *http.Server) error {
	<-ctx.Done()
	log.Println("Shutdown signal received, commencing graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	s.Listener.Stop()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if err := s.Bus.Close(); err != nil {
		log.Printf("Error closing bus: %v", err)
	}

	log.Println("Restaurants Service stopped cleanly")
	return nil
}
