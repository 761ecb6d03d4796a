package events

import (
	"time"

	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/models"
)

type EventType string

const (
	EvtTypeOrderCreated       EventType = "PEDIDO_CRIADO"
	EvtTypeOrderStatusUpdated EventType = "PEDIDO_STATUS_ATUALIZADO"
	EvtTypeOrderDeleted       EventType = "PEDIDO_DELETADO"
	EvtTypePaymentProcessed   EventType = "PAGAMENTO_PROCESSADO"
	EvtTypeRefundProcessed    EventType = "ESTORNO_PROCESSADO"
)

// Metadata is the fixed head of every envelope on the wire. The timestamp is
// injected at publish time; envelopes are never persisted.
type Metadata struct {
	Tipo      EventType `json:"tipo"`
	Timestamp string    `json:"timestamp"`
}

func (m Metadata) GetMetadata() Metadata { return m }

func NewMetadata(t EventType) Metadata {
	return Metadata{
		Tipo:      t,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

type DomainEvent interface {
	GetMetadata() Metadata
	Validate() error
}

type EventOrderCreated struct {
	Metadata
	OrderID      string  `json:"pedido_id"`
	CustomerID   string  `json:"cliente_id"`
	RestaurantID string  `json:"restaurante_id"`
	Total        float64 `json:"total"`
}

func (e EventOrderCreated) Validate() error {
	if e.OrderID == "" {
		return missingField(e.Tipo, "pedido_id")
	}
	if e.CustomerID == "" {
		return missingField(e.Tipo, "cliente_id")
	}
	return nil
}

type EventOrderStatusUpdated struct {
	Metadata
	OrderID      string `json:"pedido_id"`
	Status       string `json:"status"`
	RestaurantID string `json:"restaurante_id"`
	Reason       string `json:"motivo"`
}

func (e EventOrderStatusUpdated) Validate() error {
	if e.OrderID == "" {
		return missingField(e.Tipo, "pedido_id")
	}
	if e.Status == "" {
		return missingField(e.Tipo, "status")
	}
	return nil
}

type EventOrderDeleted struct {
	Metadata
	OrderID string `json:"pedido_id"`
}

func (e EventOrderDeleted) Validate() error {
	if e.OrderID == "" {
		return missingField(e.Tipo, "pedido_id")
	}
	return nil
}

type EventPaymentProcessed struct {
	Metadata
	PaymentID string               `json:"pagamento_id"`
	OrderID   string               `json:"pedido_id"`
	Status    models.PaymentStatus `json:"status"`
}

func (e EventPaymentProcessed) Validate() error {
	if e.PaymentID == "" {
		return missingField(e.Tipo, "pagamento_id")
	}
	if e.OrderID == "" {
		return missingField(e.Tipo, "pedido_id")
	}
	if !e.Status.Valid() {
		return svcerror.Newf(svcerror.ErrValidationError, "%s: unknown payment status %q", e.Tipo, e.Status)
	}
	return nil
}

type EventRefundProcessed struct {
	Metadata
	RefundID  string  `json:"estorno_id"`
	PaymentID string  `json:"pagamento_id"`
	OrderID   string  `json:"pedido_id"`
	Amount    float64 `json:"valor_estornado"`
}

func (e EventRefundProcessed) Validate() error {
	if e.RefundID == "" {
		return missingField(e.Tipo, "estorno_id")
	}
	if e.OrderID == "" {
		return missingField(e.Tipo, "pedido_id")
	}
	return nil
}

func missingField(t EventType, field string) error {
	return svcerror.Newf(svcerror.ErrValidationError, "%s: missing required field %q", t, field)
}
