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

	"pedidos-saga/cmd/orders/server/handler"
	"pedidos-saga/cmd/orders/server/service"
	"pedidos-saga/pkg/address"
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
	CEPBaseURL   string
	CEPTimeout   time.Duration
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

	lookup := address.NewViaCEP(conf.CEPBaseURL, conf.CEPTimeout)

	svc := service.NewService(store, redisBus, lookup)
	dispatcher := svc.Dispatcher()

	listener := bus.NewListener("pedidos", redisBus, bus.ChannelPayments, func(_ context.Context, raw []byte) error {
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

	orders := router.Group("/pedidos")
	{
		orders.POST("", s.Handler.CreateOrder)
		orders.GET("", s.Handler.ListOrders)
		orders.GET("/:id", s.Handler.GetOrder)
		orders.GET("/cliente/:id", s.Handler.ListOrdersByCustomer)
		orders.GET("/restaurante/:id", s.Handler.ListOrdersByRestaurant)
		orders.PUT("/:id/status", s.Handler.UpdateStatus)
		orders.DELETE("/:id", s.Handler.DeleteOrder)
	}
	router.GET("/health", s.Handler.HealthCheck)

	s.Router = router
}

func (s *Server) Start() error {
	log.Println("Starting Orders Service...")
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
		log.Printf("Orders Service listening on %s", s.Config.Port)
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

	log.Println("Orders Service stopped cleanly")
	return nil
}
