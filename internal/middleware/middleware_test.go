package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/auth"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/graph"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/pubsub"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/store/storetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGetRequestID(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Equal(t, "abc", GetRequestID(WithRequestID(context.Background(), "abc")))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c.Request.Context()))
	})

	t.Run("generates one", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps the incoming one", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "client-42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "client-42", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "client-42", w.Body.String())
	})
}

func TestAuthenticate(t *testing.T) {
	creds, err := auth.New("middleware-test-secret-0123", auth.WithCost(bcrypt.MinCost))
	require.NoError(t, err)

	mem := storetest.NewMemory()
	user := &models.User{Name: "alice", Email: "alice@example.com", Password: "x"}
	require.NoError(t, mem.CreateUser(context.Background(), user))
	token, err := creds.IssueToken(user.ID)
	require.NoError(t, err)

	builder := graph.NewContextBuilder(mem, creds, pubsub.NewBroadcaster(1))

	r := gin.New()
	r.Use(Authenticate(builder))
	r.GET("/", func(c *gin.Context) {
		rc := graph.ForContext(c.Request.Context())
		if rc == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		uid, ok := c.Get(UserIDKey)
		c.JSON(http.StatusOK, gin.H{
			"authenticated": rc.CurrentUser != nil,
			"has_user_id":   ok,
			"user_id":       uid,
		})
	})

	tests := []struct {
		name   string
		header string
		authed bool
	}{
		{"no header", "", false},
		{"bad token", "Bearer nope", false},
		{"valid token", "Bearer " + token, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			// never rejected here
			require.Equal(t, http.StatusOK, w.Code)
			if tt.authed {
				assert.JSONEq(t, `{"authenticated":true,"has_user_id":true,"user_id":1}`, w.Body.String())
			} else {
				assert.JSONEq(t, `{"authenticated":false,"has_user_id":false,"user_id":null}`, w.Body.String())
			}
		})
	}
}
