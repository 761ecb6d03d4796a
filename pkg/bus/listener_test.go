package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pedidos-saga/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakySubscriber fails a configured number of Subscribe calls before
// delegating to the real bus, standing in for an unreachable broker.
type flakySubscriber struct {
	inner      Subscriber
	failures   int32
	subscribes int32
}

func (f *flakySubscriber) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	n := atomic.AddInt32(&f.subscribes, 1)
	if n <= atomic.LoadInt32(&f.failures) {
		return nil, errors.New("connection refused")
	}
	return f.inner.Subscribe(ctx, channel)
}

func waitFor(t *testing.T, cond func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func testEvent(orderID string) events.EventOrderCreated {
	return events.EventOrderCreated{
		Metadata:   events.NewMetadata(events.EvtTypeOrderCreated),
		OrderID:    orderID,
		CustomerID: "cli-1",
		Total:      50,
	}
}

func TestListenerDeliversPublishedEnvelopes(t *testing.T) {
	mem := NewMemoryBus()

	var mu sync.Mutex
	var got [][]byte
	l := NewListener("test", mem, ChannelOrders, func(ctx context.Context, raw []byte) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, raw)
		return nil
	})
	l.PollInterval = 20 * time.Millisecond
	l.Backoff = 20 * time.Millisecond

	require.NoError(t, l.Start())
	defer l.Stop()

	waitFor(t, func() bool { return l.State() == StateListening }, time.Second)

	require.NoError(t, mem.Publish(context.Background(), ChannelOrders, testEvent("ord-1")))
	require.NoError(t, mem.Publish(context.Background(), ChannelOrders, testEvent("ord-2")))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second)
}

func TestListenerSurvivesMalformedEnvelopes(t *testing.T) {
	mem := NewMemoryBus()
	d := events.NewDispatcher()

	var handled int32
	events.Register(d, events.EvtTypeOrderCreated, func(evt events.EventOrderCreated) error {
		atomic.AddInt32(&handled, 1)
		return nil
	})

	l := NewListener("test", mem, ChannelOrders, func(ctx context.Context, raw []byte) error {
		return d.Dispatch(raw)
	})
	l.PollInterval = 20 * time.Millisecond

	require.NoError(t, l.Start())
	defer l.Stop()
	waitFor(t, func() bool { return l.State() == StateListening }, time.Second)

	// ten garbage payloads straight into the listener's subscription
	for i := 0; i < 10; i++ {
		mem.mu.Lock()
		for _, s := range mem.subs[ChannelOrders] {
			s.messages <- []byte("{{{garbage")
		}
		mem.mu.Unlock()
	}

	require.NoError(t, mem.Publish(context.Background(), ChannelOrders, testEvent("ord-after")))

	waitFor(t, func() bool { return atomic.LoadInt32(&handled) == 1 }, time.Second)
	assert.Equal(t, StateListening, l.State())
}

func TestListenerReconnectsAfterBrokerFailure(t *testing.T) {
	mem := NewMemoryBus()
	flaky := &flakySubscriber{inner: mem, failures: 2}

	var handled int32
	l := NewListener("test", flaky, ChannelOrders, func(ctx context.Context, raw []byte) error {
		atomic.AddInt32(&handled, 1)
		return nil
	})
	l.PollInterval = 20 * time.Millisecond
	l.Backoff = 20 * time.Millisecond

	require.NoError(t, l.Start())
	defer l.Stop()

	// both failed attempts burned, third subscribe lands
	waitFor(t, func() bool { return l.State() == StateListening }, 2*time.Second)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&flaky.subscribes), int32(3))

	require.NoError(t, mem.Publish(context.Background(), ChannelOrders, testEvent("ord-1")))
	waitFor(t, func() bool { return atomic.LoadInt32(&handled) == 1 }, time.Second)
}

func TestListenerLifecycle(t *testing.T) {
	mem := NewMemoryBus()
	l := NewListener("test", mem, ChannelOrders, func(ctx context.Context, raw []byte) error { return nil })
	l.PollInterval = 20 * time.Millisecond

	assert.Equal(t, StateStopped, l.State())

	require.NoError(t, l.Start())
	assert.Error(t, l.Start(), "second start must be rejected while running")

	waitFor(t, func() bool { return l.State() == StateListening }, time.Second)

	l.Stop()
	waitFor(t, func() bool { return l.State() == StateStopped }, time.Second)

	// stopped listener can go again
	require.NoError(t, l.Start())
	waitFor(t, func() bool { return l.State() == StateListening }, time.Second)
	l.Stop()
}

func TestMemoryBusDropsWithoutSubscriber(t *testing.T) {
	mem := NewMemoryBus()

	require.NoError(t, mem.Publish(context.Background(), ChannelOrders, testEvent("lost")))

	sub, err := mem.Subscribe(context.Background(), ChannelOrders)
	require.NoError(t, err)
	defer sub.Close()

	_, err = sub.Receive(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrReceiveTimeout)
}
