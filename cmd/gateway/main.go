package main

import (
	"log"
	"time"

	"pedidos-saga/cmd/gateway/server"
	"pedidos-saga/cmd/gateway/server/service"
	"pedidos-saga/pkg/utils"
)

func main() {
	utils.LoadEnv()

	conf := server.ServerConfig{
		Port: utils.GetEnv("API_GATEWAY_PORT", "8080"),
		Routes: service.Routes{
			Orders:      utils.GetEnv("ORDERS_URL", "http://orders:8001"),
			Payments:    utils.GetEnv("PAYMENTS_URL", "http://payments:8002"),
			Restaurants: utils.GetEnv("RESTAURANTS_URL", "http://restaurants:8003"),
		},
		ForwardTimeout: 10 * time.Second,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
	}

	srv := server.NewServer(conf)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
