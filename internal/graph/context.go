package graph

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/auth"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/pubsub"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/store"
)

// RequestContext is built once per request and handed to every resolver.
// CurrentUser is nil for anonymous callers.
type RequestContext struct {
	CurrentUser *models.User
	Store       store.Gateway
	Events      pubsub.Bus
}

type requestContextKey struct{}

// WithRequestContext attaches rc to ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// ForContext returns the RequestContext attached to ctx, or nil.
func ForContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc
}

// ContextBuilder resolves the caller from an Authorization header value.
type ContextBuilder struct {
	store  store.Gateway
	creds  *auth.Credentials
	events pubsub.Bus
}

func NewContextBuilder(gw store.Gateway, creds *auth.Credentials, events pubsub.Bus) *ContextBuilder {
	return &ContextBuilder{
		store:  gw,
		creds:  creds,
		events: events,
	}
}

// Build never fails: any problem with the credential yields an anonymous
// RequestContext.
func (b *ContextBuilder) Build(ctx context.Context, authorization string) *RequestContext {
	rc := &RequestContext{
		Store:  b.store,
		Events: b.events,
	}

	token := bearerToken(authorization)
	if token == "" {
		return rc
	}

	userID, err := b.creds.ParseToken(token)
	if err != nil {
		log.Debug().Err(err).Msg("ignoring invalid token")
		return rc
	}

	user, err := b.store.UserByID(ctx, userID)
	switch {
	case err == nil:
		rc.CurrentUser = user
	case errors.Is(err, store.ErrNotFound):
		log.Debug().Int("user_id", userID).Msg("token subject no longer exists")
	default:
		log.Warn().Err(err).Int("user_id", userID).Msg("failed to load token subject")
	}
	return rc
}

// bearerToken strips an optional "Bearer " scheme.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
