package graph

import (
	"context"
	"errors"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/errx"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/store"
)

const (
	helloMessage = "Hello World!"
	infoMessage  = "This is the API of a Hackernews Clone"
)

// FeedArgs are the arguments of Query.feed. Nil means the argument was absent.
type FeedArgs struct {
	FilterNeedle *string
	Skip         *int
	Take         *int
	OrderBy      *models.LinkOrderBy
}

func (r *Resolver) Hello() string { return helloMessage }

func (r *Resolver) Info() string { return infoMessage }

// Me returns the authenticated caller.
func (r *Resolver) Me(ctx context.Context) (*models.User, error) {
	const op = "graph.Me"
	rc, err := requestContext(ctx, op)
	if err != nil {
		return nil, err
	}
	if rc.CurrentUser == nil {
		return nil, errx.Errorf(op, errx.Unauthenticated, "Unauthenticated!")
	}
	return rc.CurrentUser, nil
}

// Feed returns one page of links, optionally filtered by a substring of the
// url or description. take is validated before storage is touched.
func (r *Resolver) Feed(ctx context.Context, args FeedArgs) ([]*models.Link, error) {
	const op = "graph.Feed"
	rc, err := requestContext(ctx, op)
	if err != nil {
		return nil, err
	}

	take := DefaultTake
	if args.Take != nil {
		take = *args.Take
	}
	take, err = applyTakeConstraints(MinTake, MaxTake, take)
	if err != nil {
		return nil, err
	}
	if err := applySkipConstraints(args.Skip); err != nil {
		return nil, err
	}

	q := store.FeedQuery{
		Skip:    args.Skip,
		Take:    take,
		OrderBy: args.OrderBy,
	}
	if args.FilterNeedle != nil {
		q.Needle = *args.FilterNeedle
	}
	return rc.Store.Feed(ctx, q)
}

// Comment looks up one comment. Ids that are not plain digits match nothing.
func (r *Resolver) Comment(ctx context.Context, id string) (*models.Comment, error) {
	rc, err := requestContext(ctx, "graph.Comment")
	if err != nil {
		return nil, err
	}
	n, ok := parseIntSafe(id)
	if !ok {
		return nil, nil
	}
	comment, err := rc.Store.CommentByID(ctx, n)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return comment, err
}

// Link looks up one link. An absent or non-numeric id matches nothing.
func (r *Resolver) Link(ctx context.Context, id *string) (*models.Link, error) {
	rc, err := requestContext(ctx, "graph.Link")
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, nil
	}
	n, ok := parseIntSafe(*id)
	if !ok {
		return nil, nil
	}
	link, err := rc.Store.LinkByID(ctx, n)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return link, err
}
