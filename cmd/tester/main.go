// Synthetic traffic generator: drives the full order/payment/refund flow
// through the API gateway and reports the terminal status of every order.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

type orderItem struct {
	ProductID   string  `json:"produto_id"`
	ProductName string  `json:"produto_nome"`
	Quantity    int64   `json:"quantidade"`
	UnitPrice   float64 `json:"preco_unitario"`
}

type orderRequest struct {
	CustomerID      string          `json:"cliente_id"`
	RestaurantID    string          `json:"restaurante_id"`
	Items           []orderItem     `json:"itens"`
	DeliveryAddress json.RawMessage `json:"endereco_entrega"`
}

type paymentRequest struct {
	OrderID    string  `json:"pedido_id"`
	CustomerID string  `json:"cliente_id"`
	Amount     float64 `json:"valor"`
	Method     string  `json:"metodo_pagamento"`
}

type refundRequest struct {
	PaymentID string  `json:"pagamento_id"`
	Amount    float64 `json:"valor_estornado"`
	Reason    string  `json:"motivo"`
}

type restaurantRequest struct {
	Name string `json:"nome"`
	CNPJ string `json:"cnpj"`
}

// apiResponse mirrors the services' response envelope
type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type scenario string

const (
	ScHappy  scenario = "happy"
	ScRefund scenario = "refund_after_approval"
	ScDouble scenario = "duplicate_payment"
)

const defaultAddress = `{"rua":"Avenida Paulista","numero":"1000","bairro":"Bela Vista","cidade":"Sao Paulo","estado":"SP","cep":"01310-100"}`

func main() {
	baseURL := flag.String("base", envOr("GATEWAY_BASE", "http://localhost:8080"), "API Gateway base URL (no trailing slash)")
	total := flag.Int("total", 10, "total number of synthetic orders to send in burst phase")
	conc := flag.Int("concurrency", 5, "concurrency for burst phase")
	pollTimeout := flag.Duration("timeout", 60*time.Second, "max time to wait for an order to settle (per order)")
	jitterMax := flag.Duration("jitter", 800*time.Millisecond, "max random jitter between requests in burst phase")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	base := strings.TrimRight(*baseURL, "/")

	log.Printf("Base URL: %s", base)

	restaurantID, err := setupRestaurant(client, base)
	if err != nil {
		log.Fatalf("setup failed: %v", err)
	}

	// 1) deterministic scenarios
	runScenario(client, base, restaurantID, ScHappy, *pollTimeout)
	runScenario(client, base, restaurantID, ScRefund, *pollTimeout)
	runScenario(client, base, restaurantID, ScDouble, *pollTimeout)

	// 2) burst & spikes; with the probabilistic policy some orders land CANCELLED
	log.Printf("Starting burst test: total=%d concurrency=%d", *total, *conc)
	burst(client, base, restaurantID, *total, *conc, *pollTimeout, *jitterMax)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func setupRestaurant(client *http.Client, base string) (string, error) {
	body := restaurantRequest{
		Name: "Cantina Sintetica " + randID(),
		CNPJ: fmt.Sprintf("%08d/0001-%02d", rand.Intn(100000000), rand.Intn(100)),
	}
	data, err := postJSON(client, base+"/api/v1/restaurantes", body)
	if err != nil {
		return "", err
	}
	var restaurant struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &restaurant); err != nil {
		return "", err
	}
	log.Printf("Registered restaurant %s", restaurant.ID)
	return restaurant.ID, nil
}

func runScenario(client *http.Client, base, restaurantID string, sc scenario, timeout time.Duration) {
	order, total, err := createOrder(client, base, restaurantID)
	if err != nil {
		log.Printf("[%s] create order failed: %v", sc, err)
		return
	}

	paymentID, err := createPayment(client, base, order, total)
	if err != nil {
		log.Printf("[%s] create payment failed: %v", sc, err)
		return
	}

	if sc == ScDouble {
		if _, err := createPayment(client, base, order, total); err != nil {
			log.Printf("[%s] duplicate payment rejected as expected: %v", sc, err)
		} else {
			log.Printf("[%s] UNEXPECTED: duplicate payment accepted for order %s", sc, order)
		}
	}

	status, err := waitForStatus(client, base, order, timeout, "CONFIRMED", "CANCELLED")
	if err != nil {
		log.Printf("[%s] wait failed for %s: %v", sc, order, err)
		return
	}

	if sc == ScRefund && status == "CONFIRMED" {
		if err := createRefund(client, base, paymentID, total); err != nil {
			log.Printf("[%s] refund failed: %v", sc, err)
			return
		}
		status, err = waitForStatus(client, base, order, timeout, "CANCELLED")
		if err != nil {
			log.Printf("[%s] wait for cancellation failed: %v", sc, err)
			return
		}
	}

	log.Printf("[%s] result: pedido=%s status=%s", sc, order, status)
}

func burst(client *http.Client, base, restaurantID string, total, conc int, timeout, jitterMax time.Duration) {
	var wg sync.WaitGroup
	jobs := make(chan int)
	scenarios := []scenario{ScHappy, ScHappy, ScRefund, ScDouble}

	worker := func() {
		defer wg.Done()
		for range jobs {
			sc := scenarios[rand.Intn(len(scenarios))]
			time.Sleep(time.Duration(rand.Int63n(int64(jitterMax))))
			runScenario(client, base, restaurantID, sc, timeout)
		}
	}

	for i := 0; i < conc; i++ {
		wg.Add(1)
		go worker()
	}
	for i := 0; i < total; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

func createOrder(client *http.Client, base, restaurantID string) (string, float64, error) {
	req := orderRequest{
		CustomerID:   "cliente-" + randID(),
		RestaurantID: restaurantID,
		Items: []orderItem{
			{ProductID: "prod-pizza", ProductName: "Pizza Margherita", Quantity: 1, UnitPrice: 35.00},
			{ProductID: "prod-refri", ProductName: "Refrigerante", Quantity: 2, UnitPrice: 7.50},
		},
		DeliveryAddress: json.RawMessage(defaultAddress),
	}

	data, err := postJSON(client, base+"/api/v1/pedidos", req)
	if err != nil {
		return "", 0, err
	}
	var order struct {
		ID    string  `json:"id"`
		Total float64 `json:"total"`
	}
	if err := json.Unmarshal(data, &order); err != nil {
		return "", 0, err
	}
	return order.ID, order.Total, nil
}

func createPayment(client *http.Client, base, orderID string, amount float64) (string, error) {
	req := paymentRequest{
		OrderID:    orderID,
		CustomerID: "cliente-" + randID(),
		Amount:     amount,
		Method:     "cartao_credito",
	}

	data, err := postJSON(client, base+"/api/v1/pagamentos", req)
	if err != nil {
		return "", err
	}
	var payment struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &payment); err != nil {
		return "", err
	}
	return payment.ID, nil
}

func createRefund(client *http.Client, base, paymentID string, amount float64) error {
	req := refundRequest{
		PaymentID: paymentID,
		Amount:    amount,
		Reason:    "teste sintetico de estorno",
	}
	_, err := postJSON(client, base+"/api/v1/estornos", req)
	return err
}

func postJSON(client *http.Client, url string, body any) (json.RawMessage, error) {
	b, _ := json.Marshal(body)
	httpReq, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, err
	}
	if !api.Success {
		return nil, fmt.Errorf("api returned success=false: %s", api.Message)
	}
	return api.Data, nil
}

func waitForStatus(client *http.Client, base, orderID string, timeout time.Duration, terminal ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	url := base + "/api/v1/pedidos/" + orderID
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("timeout waiting for order %s", orderID)
		case <-ticker.C:
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			resp, err := client.Do(req)
			if err != nil {
				continue
			}
			if resp.StatusCode >= 300 {
				resp.Body.Close()
				continue
			}
			var api apiResponse
			decErr := json.NewDecoder(resp.Body).Decode(&api)
			resp.Body.Close()
			if decErr != nil {
				continue
			}
			var order struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(api.Data, &order); err != nil {
				continue
			}
			for _, want := range terminal {
				if order.Status == want {
					return order.Status, nil
				}
			}
		}
	}
}

func randID() string { return fmt.Sprintf("%04x", rand.Intn(65536)) }
