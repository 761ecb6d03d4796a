package bus

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/events"
)

// MemoryBus is an in-process Bus with the same contract as the redis one:
// publishes reach only the subscriptions connected at that moment, nothing is
// replayed. Single-process deployments and the test suite run on it.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[string][]*memorySubscription
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]*memorySubscription)}
}

func (b *MemoryBus) Publish(ctx context.Context, channel string, event events.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return svcerror.New(
			svcerror.ErrInternalError,
			svcerror.WithOp("Bus.Publish"),
			svcerror.WithMsg("marshal event"),
			svcerror.WithCause(err),
			svcerror.WithTime(time.Now().UTC()),
		)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs[channel] {
		select {
		case sub.messages <- payload:
		default:
			// a stalled subscriber drops messages, same as a disconnected one
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	sub := &memorySubscription{
		bus:      b,
		channel:  channel,
		messages: make(chan []byte, 256),
	}

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], sub)
	b.mu.Unlock()

	return sub, nil
}

type memorySubscription struct {
	bus      *MemoryBus
	channel  string
	messages chan []byte
	closed   sync.Once
}

func (s *memorySubscription) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	select {
	case raw := <-s.messages:
		return raw, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, ErrReceiveTimeout
	}
}

func (s *memorySubscription) Close() error {
	s.closed.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		subs := s.bus.subs[s.channel]
		for i, sub := range subs {
			if sub == s {
				s.bus.subs[s.channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	})
	return nil
}
