package events

import (
	"encoding/json"
	"log"
	"time"

	svcerror "pedidos-saga/pkg/error"
)

type TypedHandler func(raw []byte) error

// Dispatcher routes raw envelopes to typed handlers keyed by `tipo`.
type Dispatcher struct {
	Handlers map[EventType]TypedHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{Handlers: make(map[EventType]TypedHandler)}
}

func Register[T DomainEvent](d *Dispatcher, et EventType, handler func(T) error) {
	d.Handlers[et] = func(raw []byte) error {
		var evt T
		if err := json.Unmarshal(raw, &evt); err != nil {
			return svcerror.New(
				svcerror.ErrValidationError,
				svcerror.WithOp("Dispatcher.Dispatch"),
				svcerror.WithMsg("unmarshal "+string(et)),
				svcerror.WithCause(err),
				svcerror.WithTime(time.Now().UTC()),
			)
		}
		if err := evt.Validate(); err != nil {
			return svcerror.AddOp(err, "Dispatcher.Dispatch")
		}
		return handler(evt)
	}
	log.Printf("[DISPATCHER] Registered handler for %s", string(et))
}

// envelopeHead is the minimal decode needed to pick a handler.
type envelopeHead struct {
	Tipo EventType `json:"tipo"`
}

func (d *Dispatcher) Dispatch(raw []byte) error {
	var head envelopeHead
	if err := json.Unmarshal(raw, &head); err != nil {
		return svcerror.New(
			svcerror.ErrValidationError,
			svcerror.WithOp("Dispatcher.Dispatch"),
			svcerror.WithMsg("undecodable envelope"),
			svcerror.WithCause(err),
			svcerror.WithTime(time.Now().UTC()),
		)
	}

	handler, ok := d.Handlers[head.Tipo]
	if !ok {
		log.Printf("[DISPATCHER] No handler registered for %q, dropping", head.Tipo)
		return nil
	}

	return handler(raw)
}
