package main

import (
	"context"
	"log"
	"time"

	"pedidos-saga/cmd/orders/server"
	"pedidos-saga/pkg/bus"
	"pedidos-saga/pkg/repository"
	"pedidos-saga/pkg/utils"
)

func main() {
	utils.LoadEnv()

	conf := server.ServerConfig{
		Port: utils.GetEnv("ORDERS_PORT", "8001"),
		Redis: bus.RedisConfig{
			Address:  utils.GetEnv("REDIS_ADDRESS", "redis:6379"),
			Password: utils.GetEnv("REDIS_PASSWORD", ""),
		},
		PGSQLURL:     utils.GetEnv("PGSQL_URL", ""),
		RepoType:     repository.RepositoryType(utils.GetEnv("REPOSITORY_TYPE", "memory")),
		CEPBaseURL:   utils.GetEnv("CEP_BASE_URL", ""),
		CEPTimeout:   5 * time.Second,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srv, err := server.NewServer(context.Background(), conf)
	if err != nil {
		log.Fatalf("Failed to initialize Orders Service: %v", err)
	}

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
