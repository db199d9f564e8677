// Package eventbus fans a single connection's decoded events out to
// several local subscribers — a CLI watcher, a metrics exporter, a debug
// log sink — without any of them blocking the others or the connection's
// read loop.
package eventbus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arterrin/lvrpc/client"
)

// SubscriberBuffer is each subscriber channel's capacity before Publish
// starts dropping events destined for it.
const SubscriberBuffer = 64

var eventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "lvrpc_events_dropped_total",
	Help: "Events dropped because a subscriber's channel was full.",
})

func init() {
	prometheus.MustRegister(eventsDropped)
}

// Bus fans out client.Event values to any number of subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan client.Event
	next int
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[int]chan client.Event)}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function. The channel is never closed by Unsubscribe — only
// stop reading from it once Unsubscribe has been called.
func (b *Bus) Subscribe() (<-chan client.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan client.Event, SubscriberBuffer)
	b.subs[id] = ch
	return ch, func() { b.unsubscribe(id) }
}

func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// Publish delivers ev to every current subscriber, non-blocking: a full
// subscriber channel drops the event and increments the dropped counter
// rather than stalling delivery to the others.
func (b *Bus) Publish(ev client.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			eventsDropped.Inc()
		}
	}
}

// Pump reads from c's event channel until it closes (or stop is closed)
// and publishes each one to b. Run it in its own goroutine.
func (b *Bus) Pump(c *client.Connection, stop <-chan struct{}) {
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				return
			}
			b.Publish(ev)
		case <-stop:
			return
		}
	}
}
