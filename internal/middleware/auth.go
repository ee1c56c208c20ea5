package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/graph"
)

// UserIDKey is the gin key holding the authenticated user id.
const UserIDKey = "user_id"

// Authenticate resolves the caller from the Authorization header and attaches
// the resulting graph.RequestContext to the request. Anonymous requests pass
// through; resolvers decide what needs a principal.
func Authenticate(builder *graph.ContextBuilder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		rc := builder.Build(ctx, c.GetHeader("Authorization"))

		if rc.CurrentUser != nil {
			c.Set(UserIDKey, rc.CurrentUser.ID)
		}
		c.Request = c.Request.WithContext(graph.WithRequestContext(ctx, rc))

		c.Next()
	}
}
