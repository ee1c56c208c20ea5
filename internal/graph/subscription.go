package graph

import (
	"context"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/errx"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
)

// NewLink streams links posted after the subscription starts. The stream
// ends when ctx is done.
func (r *Resolver) NewLink(ctx context.Context) (<-chan *models.Link, error) {
	const op = "graph.NewLink"
	rc, err := requestContext(ctx, op)
	if err != nil {
		return nil, err
	}
	if rc.Events == nil {
		return nil, errx.Errorf(op, errx.Unavailable, "subscriptions are not available")
	}
	ch, _ := rc.Events.SubscribeNewLink(ctx)
	return ch, nil
}

// NewVote streams votes cast after the subscription starts.
func (r *Resolver) NewVote(ctx context.Context) (<-chan *models.Vote, error) {
	const op = "graph.NewVote"
	rc, err := requestContext(ctx, op)
	if err != nil {
		return nil, err
	}
	if rc.Events == nil {
		return nil, errx.Errorf(op, errx.Unavailable, "subscriptions are not available")
	}
	ch, _ := rc.Events.SubscribeNewVote(ctx)
	return ch, nil
}

// stream copies a typed event channel into the untyped channel the
// execution engine consumes. It stops when src closes or ctx is done.
func stream[T any](ctx context.Context, src <-chan T) chan interface{} {
	out := make(chan interface{})
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-src:
				if !ok {
					return
				}
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
