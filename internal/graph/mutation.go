package graph

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/errx"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/store"
)

// Signup creates a user and signs a token for it. A duplicate email is
// reported as the store error.
func (r *Resolver) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthPayload, error) {
	const op = "graph.Signup"
	rc, err := requestContext(ctx, op)
	if err != nil {
		return nil, err
	}

	hashed, err := r.creds.HashPassword(req.Password)
	if err != nil {
		return nil, errx.E(op, errx.Internal, err)
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hashed,
	}
	if err := rc.Store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := r.creds.IssueToken(user.ID)
	if err != nil {
		return nil, errx.E(op, errx.Internal, err)
	}

	log.Info().Int("user_id", user.ID).Msg("user signed up")
	return &models.AuthPayload{Token: token, User: user}, nil
}

// Login checks a password and signs a token for the matching user.
func (r *Resolver) Login(ctx context.Context, req models.LoginRequest) (*models.AuthPayload, error) {
	const op = "graph.Login"
	rc, err := requestContext(ctx, op)
	if err != nil {
		return nil, err
	}

	user, err := rc.Store.UserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errx.Errorf(op, errx.Credential, "No such user found")
	}
	if err != nil {
		return nil, err
	}

	valid, err := r.creds.ComparePassword(user.Password, req.Password)
	if err != nil {
		return nil, errx.E(op, errx.Internal, err)
	}
	if !valid {
		return nil, errx.Errorf(op, errx.Credential, "Invalid password")
	}

	token, err := r.creds.IssueToken(user.ID)
	if err != nil {
		return nil, errx.E(op, errx.Internal, err)
	}
	return &models.AuthPayload{Token: token, User: user}, nil
}

// PostLink stores a link owned by the caller and announces it on newLink.
func (r *Resolver) PostLink(ctx context.Context, req models.CreateLinkRequest) (*models.Link, error) {
	const op = "graph.PostLink"
	rc, err := requestContext(ctx, op)
	if err != nil {
		return nil, err
	}
	if rc.CurrentUser == nil {
		return nil, errx.Errorf(op, errx.Unauthenticated, "Unauthenticated!")
	}

	posterID := rc.CurrentUser.ID
	link := &models.Link{
		URL:         req.URL,
		Description: req.Description,
		PostedByID:  &posterID,
	}
	if err := rc.Store.CreateLink(ctx, link); err != nil {
		return nil, err
	}

	if rc.Events != nil {
		rc.Events.PublishNewLink(link)
	}
	return link, nil
}

// PostCommentOnLink attaches a comment to an existing link.
func (r *Resolver) PostCommentOnLink(ctx context.Context, linkID, body string) (*models.Comment, error) {
	const op = "graph.PostCommentOnLink"
	rc, err := requestContext(ctx, op)
	if err != nil {
		return nil, err
	}

	id, ok := parseIntSafe(linkID)
	if !ok {
		return nil, missingCommentLink(op, linkID)
	}

	comment := &models.Comment{
		Body:   body,
		LinkID: &id,
	}
	if err := rc.Store.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, store.ErrForeignKey) {
			return nil, missingCommentLink(op, linkID)
		}
		return nil, err
	}
	return comment, nil
}

// Vote records the caller's single vote for a link and announces it on newVote.
func (r *Resolver) Vote(ctx context.Context, linkID string) (*models.Vote, error) {
	const op = "graph.Vote"
	rc, err := requestContext(ctx, op)
	if err != nil {
		return nil, err
	}
	if rc.CurrentUser == nil {
		return nil, errx.Errorf(op, errx.Unauthenticated, "You must login in order to use upvote!")
	}

	id, ok := parseIntSafe(linkID)
	if !ok {
		return nil, missingVoteLink(op, linkID)
	}
	userID := rc.CurrentUser.ID

	_, err = rc.Store.VoteByLinkAndUser(ctx, id, userID)
	switch {
	case err == nil:
		return nil, alreadyVoted(op, linkID)
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	vote := &models.Vote{
		LinkID: id,
		UserID: userID,
	}
	if err := rc.Store.CreateVote(ctx, vote); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			// lost a race with a concurrent vote by the same user
			return nil, alreadyVoted(op, linkID)
		case errors.Is(err, store.ErrForeignKey):
			return nil, missingVoteLink(op, linkID)
		}
		return nil, err
	}

	if rc.Events != nil {
		rc.Events.PublishNewVote(vote)
	}
	return vote, nil
}

func missingCommentLink(op, linkID string) error {
	return errx.Errorf(op, errx.Invalid, "Cannot post comment on non-existing link with id '%s'.", linkID)
}

func missingVoteLink(op, linkID string) error {
	return errx.Errorf(op, errx.Invalid, "Cannot vote for non-existing link with id '%s'.", linkID)
}

func alreadyVoted(op, linkID string) error {
	return errx.Errorf(op, errx.Conflict, "Already voted for link: %s", linkID)
}
