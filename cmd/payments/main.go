package main

import (
	"context"
	"log"
	"strconv"
	"time"

	"pedidos-saga/cmd/payments/server"
	paymentgateway "pedidos-saga/cmd/payments/server/payment-gateway"
	"pedidos-saga/pkg/bus"
	"pedidos-saga/pkg/repository"
	"pedidos-saga/pkg/utils"
)

func main() {
	utils.LoadEnv()

	successRate, err := strconv.ParseFloat(utils.GetEnv("PAYMENT_SUCCESS_RATE", "0.9"), 64)
	if err != nil {
		successRate = 0.9
	}

	conf := server.ServerConfig{
		Port: utils.GetEnv("PAYMENTS_PORT", "8002"),
		Redis: bus.RedisConfig{
			Address:  utils.GetEnv("REDIS_ADDRESS", "redis:6379"),
			Password: utils.GetEnv("REDIS_PASSWORD", ""),
		},
		PGSQLURL:     utils.GetEnv("PGSQL_URL", ""),
		RepoType:     repository.RepositoryType(utils.GetEnv("REPOSITORY_TYPE", "memory")),
		Processor:    paymentgateway.ProcessorType(utils.GetEnv("PAYMENT_POLICY", "probabilistic")),
		SuccessRate:  successRate,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srv, err := server.NewServer(context.Background(), conf)
	if err != nil {
		log.Fatalf("Failed to initialize Payments Service: %v", err)
	}

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
