package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pedidos-saga/cmd/gateway/server/handler"
	"pedidos-saga/cmd/gateway/server/service"

	"github.com/gin-gonic/gin"
)

type ServerConfig struct {
	Port           string
	Routes         service.Routes
	ForwardTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type Server struct {
	Config  ServerConfig
	Handler *handler.Handler
	Router  *gin.Engine
}

func NewServer(conf ServerConfig) *Server {
	svc := service.NewService(conf.Routes, conf.ForwardTimeout)

	server := &Server{
		Config:  conf,
		Handler: handler.NewHandler(svc),
	}
	server.SetupRouter()

	return server
}

func (s *Server) SetupRouter() {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/v1")
	{
		api.Any("/*path", s.Handler.Forward)
	}
	router.GET("/health", s.Handler.HealthCheck)

	s.Router = router
}

func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", s.Config.Port),
		Handler:      s.Router,
		ReadTimeout:  s.Config.ReadTimeout,
		WriteTimeout: s.Config.WriteTimeout,
		IdleTimeout:  s.Config.IdleTimeout,
	}

	go func() {
		log.Printf("API Gateway starting on %s", s.Config.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	return s.HandleShutdown(srv)
}

func (s *Server) HandleShutdown(srv *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("Shutting down API Gateway...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown server: %v", err)
		return err
	}

	log.Printf("API Gateway stopped")
	return nil
}
