package events

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Ledger remembers which (event type, correlation ids, resulting status)
// applications have already been seen, so redelivered envelopes can rewrite
// state idempotently without re-firing side effects. Bounded by an LRU so a
// long-lived listener does not grow without limit.
type Ledger struct {
	seen *lru.Cache[string, struct{}]
}

func NewLedger(size int) *Ledger {
	cache, _ := lru.New[string, struct{}](size)
	return &Ledger{seen: cache}
}

// Observe records the application and reports whether it is the first one.
func (l *Ledger) Observe(tipo EventType, correlation ...string) bool {
	key := strings.Join(append([]string{string(tipo)}, correlation...), "|")
	if _, ok := l.seen.Get(key); ok {
		return false
	}
	l.seen.Add(key, struct{}{})
	return true
}
