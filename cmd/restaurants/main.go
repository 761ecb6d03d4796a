package main

import (
	"context"
	"log"
	"time"

	"pedidos-saga/cmd/restaurants/server"
	"pedidos-saga/pkg/bus"
	"pedidos-saga/pkg/repository"
	"pedidos-saga/pkg/utils"
)

func main() {
	utils.LoadEnv()

	conf := server.ServerConfig{
		Port: utils.GetEnv("RESTAURANTS_PORT", "8003"),
		Redis: bus.RedisConfig{
			Address:  utils.GetEnv("REDIS_ADDRESS", "redis:6379"),
			Password: utils.GetEnv("REDIS_PASSWORD", ""),
		},
		PGSQLURL:     utils.GetEnv("PGSQL_URL", ""),
		RepoType:     repository.RepositoryType(utils.GetEnv("REPOSITORY_TYPE", "memory")),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srv, err := server.NewServer(context.Background(), conf)
	if err != nil {
		log.Fatalf("Failed to initialize Restaurants Service: %v", err)
	}

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
