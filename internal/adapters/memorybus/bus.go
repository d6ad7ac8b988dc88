// Package memorybus diffuse les événements de progression et de rescan
// aux abonnés du process (flux SSE /api/events).
package memorybus

import (
	"sync"
	"sync/atomic"

	"github.com/Guilhem-Bonnet/course-player/internal/ports"
)

const subscriberBuffer = 64

type Bus struct {
	mu      sync.Mutex
	subs    map[chan ports.Event]struct{}
	closed  bool
	dropped atomic.Int64
}

func New() *Bus {
	return &Bus{subs: make(map[chan ports.Event]struct{})}
}

// Publish ne bloque jamais : un abonné trop lent perd l'événement.
func (b *Bus) Publish(topic string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	evt := ports.Event{Topic: topic, Payload: payload}
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.dropped.Add(1)
		}
	}
}

func (b *Bus) Subscribe() (<-chan ports.Event, func()) {
	ch := make(chan ports.Event, subscriberBuffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
		b.mu.Unlock()
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Close ferme tous les abonnements ; les Publish suivants sont ignorés.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

// Dropped renvoie le nombre d'événements perdus faute de place chez un abonné.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}
