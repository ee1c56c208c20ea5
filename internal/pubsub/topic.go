// Package pubsub provides in-memory pub/sub for real-time GraphQL subscriptions.
package pubsub

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/metrics"
)

// DefaultBufferSize is the per-subscriber channel capacity used when none is configured.
const DefaultBufferSize = 100

// Topic fans values of one type out to every live subscriber.
// Delivery is best effort: a subscriber whose buffer is full misses the value.
type Topic[T any] struct {
	name   string
	buffer int

	mu   sync.RWMutex
	subs map[string]chan T
}

// NewTopic creates a topic. A non-positive buffer falls back to DefaultBufferSize.
func NewTopic[T any](name string, buffer int) *Topic[T] {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	return &Topic[T]{
		name:   name,
		buffer: buffer,
		subs:   make(map[string]chan T),
	}
}

// Name returns the topic name.
func (t *Topic[T]) Name() string {
	return t.name
}

// Subscribe registers a subscriber and returns its channel and a cleanup
// function. The channel is closed by cleanup, which also runs once ctx is done.
// Calling cleanup more than once is safe.
func (t *Topic[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan T, t.buffer)
	t.subs[id] = ch
	metrics.Subscribers.WithLabelValues(t.name).Inc()

	log.Debug().
		Str("topic", t.name).
		Str("subscriberID", id).
		Msg("new subscription")

	var once sync.Once
	done := make(chan struct{})
	cleanup := func() {
		once.Do(func() {
			close(done)

			t.mu.Lock()
			defer t.mu.Unlock()

			if existing, ok := t.subs[id]; ok {
				close(existing)
				delete(t.subs, id)
				metrics.Subscribers.WithLabelValues(t.name).Dec()
				log.Debug().
					Str("topic", t.name).
					Str("subscriberID", id).
					Msg("subscription removed")
			}
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cleanup()
		case <-done:
		}
	}()

	return ch, cleanup
}

// Publish delivers v to every subscriber without blocking.
// With no subscribers it does nothing.
func (t *Topic[T]) Publish(v T) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.subs) == 0 {
		return
	}
	metrics.EventsPublished.WithLabelValues(t.name).Inc()

	for id, ch := range t.subs {
		select {
		case ch <- v:
		default:
			metrics.EventsDropped.WithLabelValues(t.name).Inc()
			log.Warn().
				Str("topic", t.name).
				Str("subscriberID", id).
				Msg("subscription buffer full, dropping event")
		}
	}
}

// SubscriberCount returns the number of live subscribers.
func (t *Topic[T]) SubscriberCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.subs)
}
