package memorybus

import (
	"testing"
	"time"
)

func TestBus_PublishReachesSubscribers(t *testing.T) {
	b := New()
	ch1, cancel1 := b.Subscribe()
	defer cancel1()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()

	b.Publish("progress.updated", []byte(`{"watched":[]}`))

	select {
	case evt := <-ch1:
		if evt.Topic != "progress.updated" {
			t.Fatalf("topic: want %q, got %q", "progress.updated", evt.Topic)
		}
	case <-time.After(time.Second):
		t.Fatalf("subscriber 1 got nothing")
	}
	select {
	case evt := <-ch2:
		if string(evt.Payload) != `{"watched":[]}` {
			t.Fatalf("payload: got %s", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatalf("subscriber 2 got nothing")
	}
}

func TestBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+10; i++ {
			b.Publish("x", nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Publish blocked on a full subscriber")
	}
	if b.Dropped() != 10 {
		t.Fatalf("dropped: want %d, got %d", 10, b.Dropped())
	}
}

func TestBus_CloseEndsSubscriptions(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	b.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	cancel()
	b.Publish("x", nil)

	late, _ := b.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("subscribe after Close should return a closed channel")
	}
}
