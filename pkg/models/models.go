package models

import (
	"encoding/json"
	"time"
)

type OrderStatus string

const (
	ORDER_STATUS_PENDING   OrderStatus = "PENDING"
	ORDER_STATUS_CONFIRMED OrderStatus = "CONFIRMED"
	ORDER_STATUS_PREPARING OrderStatus = "PREPARING"
	ORDER_STATUS_EN_ROUTE  OrderStatus = "EN_ROUTE"
	ORDER_STATUS_DELIVERED OrderStatus = "DELIVERED"
	ORDER_STATUS_CANCELLED OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PAYMENT_STATUS_PENDING  PaymentStatus = "PENDING"
	PAYMENT_STATUS_APPROVED PaymentStatus = "APPROVED"
	PAYMENT_STATUS_DECLINED PaymentStatus = "DECLINED"
	PAYMENT_STATUS_FAILED   PaymentStatus = "FAILED"
)

type OrderItem struct {
	ProductID   string  `json:"produto_id"`
	ProductName string  `json:"produto_nome"`
	Quantity    int64   `json:"quantidade"`
	UnitPrice   float64 `json:"preco_unitario"`
	Subtotal    float64 `json:"subtotal"`
}

type DeliveryAddress struct {
	Street     string `json:"rua"`
	Number     string `json:"numero"`
	Complement string `json:"complemento,omitempty"`
	District   string `json:"bairro"`
	City       string `json:"cidade"`
	State      string `json:"estado"`
	CEP        string `json:"cep"`
}

type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"cliente_id"`
	RestaurantID    string          `json:"restaurante_id"`
	Items           []OrderItem     `json:"itens"`
	Total           float64         `json:"total"`
	DeliveryAddress DeliveryAddress `json:"endereco_entrega"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at,omitempty"`
}

type Payment struct {
	ID            string         `json:"id"`
	OrderID       string         `json:"pedido_id"`
	CustomerID    string         `json:"cliente_id"`
	Amount        float64        `json:"valor"`
	Method        string         `json:"metodo_pagamento"`
	Status        PaymentStatus  `json:"status"`
	TransactionID string         `json:"transacao_id,omitempty"`
	Payload       map[string]any `json:"dados_pagamento,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at,omitempty"`
}

type Refund struct {
	ID        string    `json:"id"`
	PaymentID string    `json:"pagamento_id"`
	Amount    float64   `json:"valor_estornado"`
	Reason    string    `json:"motivo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Restaurant struct {
	ID        string    `json:"id"`
	Name      string    `json:"nome"`
	CNPJ      string    `json:"cnpj"`
	Address   string    `json:"endereco,omitempty"`
	Active    bool      `json:"ativo"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID           string  `json:"id"`
	RestaurantID string  `json:"restaurante_id"`
	Name         string  `json:"nome"`
	Description  string  `json:"descricao,omitempty"`
	Category     string  `json:"categoria,omitempty"`
	Price        float64 `json:"preco"`
	Available    bool    `json:"disponivel"`
}

// Request/response shapes of the REST surface.

type OrderItemRequest struct {
	ProductID   string  `json:"produto_id" binding:"required"`
	ProductName string  `json:"produto_nome" binding:"required"`
	Quantity    int64   `json:"quantidade" binding:"required,gt=0"`
	UnitPrice   float64 `json:"preco_unitario" binding:"required,gt=0"`
}

type OrderRequest struct {
	CustomerID      string             `json:"cliente_id" binding:"required"`
	RestaurantID    string             `json:"restaurante_id" binding:"required"`
	Items           []OrderItemRequest `json:"itens" binding:"required,min=1,dive"`
	DeliveryAddress DeliveryAddress    `json:"endereco_entrega" binding:"required"`
}

func (r OrderRequest) Total() float64 {
	var total float64
	for _, item := range r.Items {
		total += float64(item.Quantity) * item.UnitPrice
	}
	return total
}

type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"motivo"`
}

type PaymentRequest struct {
	OrderID    string         `json:"pedido_id" binding:"required"`
	CustomerID string         `json:"cliente_id" binding:"required"`
	Amount     float64        `json:"valor" binding:"required,gt=0"`
	Method     string         `json:"metodo_pagamento" binding:"required"`
	Payload    map[string]any `json:"dados_pagamento"`
}

type PaymentUpdateRequest struct {
	Status        *PaymentStatus `json:"status"`
	TransactionID *string        `json:"transacao_id"`
}

type RefundRequest struct {
	PaymentID string  `json:"pagamento_id" binding:"required"`
	Amount    float64 `json:"valor_estornado" binding:"required,gt=0"`
	Reason    string  `json:"motivo"`
}

type RestaurantRequest struct {
	Name    string `json:"nome" binding:"required"`
	CNPJ    string `json:"cnpj" binding:"required"`
	Address string `json:"endereco"`
}

type RestaurantUpdateRequest struct {
	Name    string `json:"nome" binding:"required"`
	Address string `json:"endereco"`
	Active  *bool  `json:"ativo"`
}

type ProductRequest struct {
	RestaurantID string  `json:"restaurante_id" binding:"required"`
	Name         string  `json:"nome" binding:"required"`
	Description  string  `json:"descricao"`
	Category     string  `json:"categoria"`
	Price        float64 `json:"preco" binding:"required,gt=0"`
}

// Binary codecs so entities can live in the redis repository backend.

func (o Order) MarshalBinary() ([]byte, error)          { return json.Marshal(o) }
func (o *Order) UnmarshalBinary(data []byte) error      { return json.Unmarshal(data, o) }
func (p Payment) MarshalBinary() ([]byte, error)        { return json.Marshal(p) }
func (p *Payment) UnmarshalBinary(data []byte) error    { return json.Unmarshal(data, p) }
func (r Refund) MarshalBinary() ([]byte, error)         { return json.Marshal(r) }
func (r *Refund) UnmarshalBinary(data []byte) error     { return json.Unmarshal(data, r) }
func (r Restaurant) MarshalBinary() ([]byte, error)     { return json.Marshal(r) }
func (r *Restaurant) UnmarshalBinary(data []byte) error { return json.Unmarshal(data, r) }
func (p Product) MarshalBinary() ([]byte, error)        { return json.Marshal(p) }
func (p *Product) UnmarshalBinary(data []byte) error    { return json.Unmarshal(data, p) }
