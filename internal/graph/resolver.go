// Package graph implements the GraphQL API: the schema, its resolvers and
// the per-request context they run in.
package graph

import (
	"context"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/auth"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/errx"
)

// Resolver provides dependencies for GraphQL resolvers. Storage and events
// come from the RequestContext of each call.
type Resolver struct {
	creds *auth.Credentials
}

// NewResolver creates a new resolver with dependencies.
func NewResolver(creds *auth.Credentials) *Resolver {
	return &Resolver{creds: creds}
}

// requestContext returns the RequestContext of ctx or an internal error when
// the transport forgot to attach one.
func requestContext(ctx context.Context, op string) (*RequestContext, error) {
	rc := ForContext(ctx)
	if rc == nil || rc.Store == nil {
		return nil, errx.Errorf(op, errx.Internal, "request context missing")
	}
	return rc, nil
}
