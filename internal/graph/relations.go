package graph

import (
	"context"
	"errors"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/errx"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/store"
)

func (r *Resolver) LinkComments(ctx context.Context, link *models.Link) ([]*models.Comment, error) {
	rc, err := requestContext(ctx, "graph.LinkComments")
	if err != nil {
		return nil, err
	}
	return rc.Store.CommentsByLink(ctx, link.ID)
}

// LinkPostedBy returns nil without a lookup for links that have no poster.
func (r *Resolver) LinkPostedBy(ctx context.Context, link *models.Link) (*models.User, error) {
	rc, err := requestContext(ctx, "graph.LinkPostedBy")
	if err != nil {
		return nil, err
	}
	if link.PostedByID == nil {
		return nil, nil
	}
	user, err := rc.Store.UserByID(ctx, *link.PostedByID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

func (r *Resolver) LinkVotes(ctx context.Context, link *models.Link) ([]*models.Vote, error) {
	rc, err := requestContext(ctx, "graph.LinkVotes")
	if err != nil {
		return nil, err
	}
	return rc.Store.VotesByLink(ctx, link.ID)
}

func (r *Resolver) VoteLink(ctx context.Context, vote *models.Vote) (*models.Link, error) {
	const op = "graph.VoteLink"
	rc, err := requestContext(ctx, op)
	if err != nil {
		return nil, err
	}
	link, err := rc.Store.LinkByID(ctx, vote.LinkID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errx.Errorf(op, errx.NotFound, "link %d not found", vote.LinkID)
	}
	return link, err
}

func (r *Resolver) VoteUser(ctx context.Context, vote *models.Vote) (*models.User, error) {
	const op = "graph.VoteUser"
	rc, err := requestContext(ctx, op)
	if err != nil {
		return nil, err
	}
	user, err := rc.Store.UserByID(ctx, vote.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errx.Errorf(op, errx.NotFound, "user %d not found", vote.UserID)
	}
	return user, err
}

// CommentLink returns nil for comments without a link.
func (r *Resolver) CommentLink(ctx context.Context, comment *models.Comment) (*models.Link, error) {
	rc, err := requestContext(ctx, "graph.CommentLink")
	if err != nil {
		return nil, err
	}
	if comment.LinkID == nil {
		return nil, nil
	}
	link, err := rc.Store.LinkByID(ctx, *comment.LinkID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return link, err
}

func (r *Resolver) UserLinks(ctx context.Context, user *models.User) ([]*models.Link, error) {
	rc, err := requestContext(ctx, "graph.UserLinks")
	if err != nil {
		return nil, err
	}
	return rc.Store.LinksByUser(ctx, user.ID)
}
