package eventbus_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arterrin/lvrpc/client"
	"github.com/arterrin/lvrpc/eventbus"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := eventbus.New()
	ch1, unsub1 := b.Subscribe()
	defer unsub1()
	ch2, unsub2 := b.Subscribe()
	defer unsub2()

	b.Publish(client.Event{Procedure: 42})

	for _, ch := range []<-chan client.Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.EqualValues(t, 42, ev.Procedure)
		case <-time.After(time.Second):
			t.Fatal("expected event on subscriber channel")
		}
	}
}

func TestPublishDropsOnFullSubscriber(t *testing.T) {
	b := eventbus.New()
	ch, unsub := b.Subscribe()
	defer unsub()

	for i := 0; i < eventbus.SubscriberBuffer+10; i++ {
		b.Publish(client.Event{Procedure: int32(i)})
	}

	// Channel should be full at its capacity, not blocked or panicking.
	assert.Equal(t, eventbus.SubscriberBuffer, len(ch))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := eventbus.New()
	ch, unsub := b.Subscribe()
	unsub()

	b.Publish(client.Event{Procedure: 1})

	assert.Zero(t, len(ch))
}
