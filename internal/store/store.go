// Package store is the persistence gateway: CRUD and relationship traversal
// over users, links, comments and votes.
package store

import (
	"context"
	"errors"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
)

var (
	// ErrNotFound is returned by single-row lookups that match nothing.
	ErrNotFound = errors.New("record not found")
	// ErrForeignKey is returned when a write references a missing row.
	ErrForeignKey = errors.New("foreign key violation")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate key")
)

// FeedQuery selects a page of links. A nil Skip leaves the offset unset.
type FeedQuery struct {
	Needle  string
	Skip    *int
	Take    int
	OrderBy *models.LinkOrderBy
}

// Gateway is everything the resolvers need from storage.
type Gateway interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id int) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateLink(ctx context.Context, link *models.Link) error
	LinkByID(ctx context.Context, id int) (*models.Link, error)
	Feed(ctx context.Context, q FeedQuery) ([]*models.Link, error)
	LinksByUser(ctx context.Context, userID int) ([]*models.Link, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	CommentByID(ctx context.Context, id int) (*models.Comment, error)
	CommentsByLink(ctx context.Context, linkID int) ([]*models.Comment, error)

	CreateVote(ctx context.Context, vote *models.Vote) error
	VoteByLinkAndUser(ctx context.Context, linkID, userID int) (*models.Vote, error)
	VotesByLink(ctx context.Context, linkID int) ([]*models.Vote, error)
}
