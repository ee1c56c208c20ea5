package handlers

import (
	"context"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/graph"
)

// HealthChecker reports the state of a backing service.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// Handler combines all handler types
type Handler struct {
	GraphQL *GraphQLHandler
	Health  *HealthHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(exec *graph.Executor, builder *graph.ContextBuilder, db HealthChecker, allowedOrigins []string) *Handler {
	return &Handler{
		GraphQL: NewGraphQLHandler(exec, builder, allowedOrigins),
		Health:  NewHealthHandler(db),
	}
}
