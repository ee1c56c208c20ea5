package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed before a value arrived")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	var zero T
	return zero
}

func assertEmpty[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event %v", v)
		}
	default:
	}
}

func TestTopic_PublishFansOutToEverySubscriber(t *testing.T) {
	topic := NewTopic[int]("numbers", 4)

	a, cancelA := topic.Subscribe(context.Background())
	defer cancelA()
	b, cancelB := topic.Subscribe(context.Background())
	defer cancelB()

	topic.Publish(7)

	assert.Equal(t, 7, receive(t, a))
	assert.Equal(t, 7, receive(t, b))
	assertEmpty(t, a)
	assertEmpty(t, b)
}

func TestTopic_PublishWithoutSubscribersIsNoop(t *testing.T) {
	topic := NewTopic[string]("empty", 1)
	assert.NotPanics(t, func() { topic.Publish("nobody listens") })

	// a late subscriber sees nothing from before it joined
	ch, cancel := topic.Subscribe(context.Background())
	defer cancel()
	assertEmpty(t, ch)
}

func TestTopic_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	topic := NewTopic[int]("small", 1)
	ch, cancel := topic.Subscribe(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		topic.Publish(1)
		topic.Publish(2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	assert.Equal(t, 1, receive(t, ch))
	assertEmpty(t, ch)
}

func TestTopic_CleanupClosesChannelAndIsIdempotent(t *testing.T) {
	topic := NewTopic[int]("cleanup", 1)
	ch, cancel := topic.Subscribe(context.Background())
	require.Equal(t, 1, topic.SubscriberCount())

	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, topic.SubscriberCount())
	assert.NotPanics(t, func() { topic.Publish(1) })
}

func TestTopic_ContextCancellationUnsubscribes(t *testing.T) {
	topic := NewTopic[int]("ctx", 1)
	ctx, cancelCtx := context.WithCancel(context.Background())
	ch, _ := topic.Subscribe(ctx)

	cancelCtx()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not removed after context cancellation")
	}
	assert.Eventually(t, func() bool { return topic.SubscriberCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestTopic_NonPositiveBufferUsesDefault(t *testing.T) {
	topic := NewTopic[int]("defaults", 0)
	assert.Equal(t, DefaultBufferSize, topic.buffer)
	assert.Equal(t, "defaults", topic.Name())
}

func TestTopic_ConcurrentPublishAndCancel(t *testing.T) {
	topic := NewTopic[int]("race", 8)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		ch, cancel := topic.Subscribe(context.Background())
		go func() {
			defer wg.Done()
			for range ch {
			}
		}()
		go func(n int) {
			defer wg.Done()
			topic.Publish(n)
			cancel()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, topic.SubscriberCount())
}

func TestBroadcaster_TopicsAreIndependent(t *testing.T) {
	b := NewBroadcaster(4)

	links, cancelLinks := b.SubscribeNewLink(context.Background())
	defer cancelLinks()
	votes, cancelVotes := b.SubscribeNewVote(context.Background())
	defer cancelVotes()

	nl, nv := b.SubscriberCount()
	assert.Equal(t, 1, nl)
	assert.Equal(t, 1, nv)

	link := &models.Link{ID: 1, URL: "https://go.dev", Description: "Go"}
	b.PublishNewLink(link)

	assert.Same(t, link, receive(t, links))
	assertEmpty(t, votes)

	vote := &models.Vote{ID: 3, LinkID: 1, UserID: 2}
	b.PublishNewVote(vote)

	assert.Same(t, vote, receive(t, votes))
	assertEmpty(t, links)
}
