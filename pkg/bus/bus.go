package bus

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/events"

	"github.com/redis/go-redis/v9"
)

// Channels the services exchange events on.
const (
	ChannelOrders   = "pedidos"
	ChannelPayments = "pagamentos"
)

// ErrReceiveTimeout marks a poll window expiring with nothing to deliver. It
// is not a broker failure; callers keep the same subscription.
var ErrReceiveTimeout = errors.New("bus: receive timed out")

// Publisher is a fire-and-forget local send. A nil error confirms the send
// left this process, never remote delivery.
type Publisher interface {
	Publish(ctx context.Context, channel string, event events.DomainEvent) error
}

// Subscription produces raw envelopes from one channel with a bounded wait.
// Delivery is at-least-once only while the subscription is connected;
// envelopes published with no subscriber attached are gone.
type Subscription interface {
	Receive(ctx context.Context, timeout time.Duration) ([]byte, error)
	Close() error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

type Bus interface {
	Publisher
	Subscriber
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type RedisBus struct {
	Client *redis.Client
}

func NewRedisBus(ctx context.Context, conf RedisConfig) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, svcerror.New(
			svcerror.ErrInternalError,
			svcerror.WithOp("Bus.NewRedisBus"),
			svcerror.WithMsg("connect to redis"),
			svcerror.WithCause(err),
			svcerror.WithTime(time.Now().UTC()),
		)
	}

	return &RedisBus{Client: client}, nil
}

func (b *RedisBus) Publish(ctx context.Context, channel string, event events.DomainEvent) error {
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

	if err := b.Client.Publish(ctx, channel, payload).Err(); err != nil {
		return svcerror.New(
			svcerror.ErrPublishError,
			svcerror.WithOp("Bus.Publish"),
			svcerror.WithMsg("publish to channel "+channel),
			svcerror.WithCause(err),
			svcerror.WithTime(time.Now().UTC()),
		)
	}

	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	ps := b.Client.Subscribe(ctx, channel)

	// Force the SUBSCRIBE round-trip so an unreachable broker surfaces here
	// instead of on the first receive.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, svcerror.New(
			svcerror.ErrInternalError,
			svcerror.WithOp("Bus.Subscribe"),
			svcerror.WithMsg("subscribe to channel "+channel),
			svcerror.WithCause(err),
			svcerror.WithTime(time.Now().UTC()),
		)
	}

	return &redisSubscription{ps: ps}, nil
}

func (b *RedisBus) Close() error {
	return b.Client.Close()
}

type redisSubscription struct {
	ps *redis.PubSub
}

func (s *redisSubscription) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	msg, err := s.ps.ReceiveTimeout(ctx, timeout)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return nil, ErrReceiveTimeout
		}
		return nil, err
	}

	switch m := msg.(type) {
	case *redis.Message:
		return []byte(m.Payload), nil
	default:
		// subscription confirmations and pongs carry no envelope
		return nil, ErrReceiveTimeout
	}
}

func (s *redisSubscription) Close() error {
	return s.ps.Close()
}
