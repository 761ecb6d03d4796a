package bus

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	svcerror "pedidos-saga/pkg/error"
)

type ListenerState int32

const (
	StateStopped ListenerState = iota
	StateSubscribing
	StateListening
)

func (s ListenerState) String() string {
	switch s {
	case StateSubscribing:
		return "SUBSCRIBING"
	case StateListening:
		return "LISTENING"
	default:
		return "STOPPED"
	}
}

// Handler consumes one raw envelope. A returned error is logged and the loop
// moves on; it never terminates the listener.
type Handler func(ctx context.Context, raw []byte) error

// Listener is a supervised subscriber on one channel. It owns exactly one
// worker goroutine between Start and Stop, re-subscribes forever on broker
// failures, and skips envelopes its handler cannot process.
type Listener struct {
	Name         string
	Channel      string
	PollInterval time.Duration
	Backoff      time.Duration
	JoinTimeout  time.Duration

	subscriber Subscriber
	handler    Handler

	mu     sync.Mutex
	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}
}

func NewListener(name string, subscriber Subscriber, channel string, handler Handler) *Listener {
	return &Listener{
		Name:         name,
		Channel:      channel,
		PollInterval: 1 * time.Second,
		Backoff:      2 * time.Second,
		JoinTimeout:  5 * time.Second,
		subscriber:   subscriber,
		handler:      handler,
	}
}

func (l *Listener) State() ListenerState {
	return ListenerState(l.state.Load())
}

// Start spawns the worker. Starting a running listener is an error; the
// lifecycle is construct, start, stop, and a stopped listener may be started
// again.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done != nil {
		return svcerror.New(
			svcerror.ErrInternalError,
			svcerror.WithOp("Listener.Start"),
			svcerror.WithMsg("listener "+l.Name+" already running"),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})

	go l.run(ctx, l.done)

	log.Printf("[LISTENER %s] Started on channel %q", l.Name, l.Channel)
	return nil
}

// Stop cancels the worker and joins it with a bounded timeout. A worker that
// does not exit in time is abandoned; shutdown proceeds anyway.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	select {
	case <-done:
		log.Printf("[LISTENER %s] Stopped", l.Name)
	case <-time.After(l.JoinTimeout):
		log.Printf("[LISTENER %s] Worker did not exit within %s, abandoning it", l.Name, l.JoinTimeout)
	}
}

func (l *Listener) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer l.state.Store(int32(StateStopped))

	for {
		l.state.Store(int32(StateSubscribing))

		sub, err := l.subscriber.Subscribe(ctx, l.Channel)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[LISTENER %s] Subscribe failed: %v, retrying in %s", l.Name, err, l.Backoff)
			if !l.wait(ctx, l.Backoff) {
				return
			}
			continue
		}

		l.state.Store(int32(StateListening))
		err = l.consume(ctx, sub)
		_ = sub.Close()

		if ctx.Err() != nil {
			return
		}

		log.Printf("[LISTENER %s] Receive failed: %v, re-subscribing in %s", l.Name, err, l.Backoff)
		if !l.wait(ctx, l.Backoff) {
			return
		}
	}
}

// consume drains the subscription until cancellation or a broker failure.
func (l *Listener) consume(ctx context.Context, sub Subscription) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		raw, err := sub.Receive(ctx, l.PollInterval)
		if errors.Is(err, ErrReceiveTimeout) {
			continue
		}
		if err != nil {
			return err
		}

		if err := l.handler(ctx, raw); err != nil {
			log.Printf("[LISTENER %s] Failed to handle envelope: %+v", l.Name, err)
		}
	}
}

func (l *Listener) wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
