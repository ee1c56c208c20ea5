package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/auth"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/graph"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/middleware"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/pubsub"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/store/storetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeHealth is a function-field HealthChecker.
type fakeHealth struct {
	HealthFn func(ctx context.Context) map[string]string
}

func (f *fakeHealth) Health(ctx context.Context) map[string]string {
	return f.HealthFn(ctx)
}

type fixture struct {
	router  *gin.Engine
	handler *Handler
	store   *storetest.Memory
	bus     *pubsub.Broadcaster
	health  *fakeHealth
	alice   *models.User
	token   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	creds, err := auth.New("handlers-test-secret-0123", auth.WithCost(bcrypt.MinCost))
	require.NoError(t, err)

	mem := storetest.NewMemory()
	bus := pubsub.NewBroadcaster(8)
	builder := graph.NewContextBuilder(mem, creds, bus)
	exec, err := graph.NewExecutor(graph.NewResolver(creds))
	require.NoError(t, err)

	alice := &models.User{Name: "alice", Email: "alice@example.com", Password: "x"}
	require.NoError(t, mem.CreateUser(context.Background(), alice))
	token, err := creds.IssueToken(alice.ID)
	require.NoError(t, err)

	health := &fakeHealth{HealthFn: func(context.Context) map[string]string {
		return map[string]string{"status": "up", "message": "It's healthy"}
	}}
	h := NewHandler(exec, builder, health, []string{"*"})

	r := gin.New()
	r.Use(middleware.Authenticate(builder))
	r.GET("/health", h.Health.Check)
	r.POST("/graphql", h.GraphQL.Post)
	r.GET("/graphql", h.GraphQL.Get)

	return &fixture{router: r, handler: h, store: mem, bus: bus, health: health, alice: alice, token: token}
}

type envelope struct {
	Data   map[string]interface{} `json:"data"`
	Errors []struct {
		Message    string                 `json:"message"`
		Extensions map[string]interface{} `json:"extensions"`
	} `json:"errors"`
}

func (f *fixture) post(t *testing.T, body, authorization string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestGraphQL_Post(t *testing.T) {
	f := newFixture(t)

	t.Run("query", func(t *testing.T) {
		w, env := f.post(t, `{"query":"{ hello info }"}`, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Hello World!", env.Data["hello"])
		assert.Equal(t, "This is the API of a Hackernews Clone", env.Data["info"])
	})

	t.Run("resolver errors use the envelope", func(t *testing.T) {
		w, env := f.post(t, `{"query":"{ feed(take: 0) { id } }"}`, "")
		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, env.Errors, 1)
		assert.Equal(t, "'take' argument value '0' is outside the valid range of '1' to '50'.", env.Errors[0].Message)
		assert.Equal(t, "BAD_USER_INPUT", env.Errors[0].Extensions["code"])
	})

	t.Run("authorization header identifies the caller", func(t *testing.T) {
		_, env := f.post(t, `{"query":"{ me { name } }"}`, "Bearer "+f.token)
		require.Empty(t, env.Errors)
		assert.Equal(t, "alice", env.Data["me"].(map[string]interface{})["name"])

		_, env = f.post(t, `{"query":"{ me { name } }"}`, "Bearer forged")
		require.Len(t, env.Errors, 1)
		assert.Equal(t, "Unauthenticated!", env.Errors[0].Message)
	})

	t.Run("variables and operation name", func(t *testing.T) {
		body := `{"query":"mutation Post($url: String!, $d: String!) { postLink(url: $url, description: $d) { url } }",` +
			`"operationName":"Post","variables":{"url":"https://go.dev","d":"Go"}}`
		_, env := f.post(t, body, "Bearer "+f.token)
		require.Empty(t, env.Errors)
		assert.Equal(t, "https://go.dev", env.Data["postLink"].(map[string]interface{})["url"])
	})

	t.Run("malformed body", func(t *testing.T) {
		w, _ := f.post(t, `{"query":`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing query", func(t *testing.T) {
		w, env := f.post(t, `{"variables":{}}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.Len(t, env.Errors, 1)
		assert.Equal(t, "Must provide query string.", env.Errors[0].Message)
	})

	t.Run("subscription needs a stream", func(t *testing.T) {
		w, _ := f.post(t, `{"query":"subscription { newLink { id } }"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGraphQL_Get(t *testing.T) {
	f := newFixture(t)

	get := func(params url.Values) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graphql?"+params.Encode(), nil))
		return w
	}

	w := get(url.Values{
		"query":     {"query($take: Int) { feed(take: $take) { id } }"},
		"variables": {`{"take": 5}`},
	})
	require.Equal(t, http.StatusOK, w.Code)
	q, ok := f.store.LastFeedQuery()
	require.True(t, ok)
	assert.Equal(t, 5, q.Take)

	w = get(url.Values{"query": {`mutation { vote(linkId: "1") { id } }`}})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Zero(t, f.store.Calls("CreateVote"))

	w = get(url.Values{"query": {"{ hello }"}, "variables": {"{not json"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"up"`)

	f.health.HealthFn = func(context.Context) map[string]string {
		return map[string]string{"status": "down", "error": "db down: connection refused"}
	}
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGraphQL_EventStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/graphql",
		strings.NewReader(`{"query":"subscription { newLink { url postedBy { name } } }"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	require.Eventually(t, func() bool {
		links, _ := f.bus.SubscriberCount()
		return links == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, env := f.post(t, `{"query":"mutation { postLink(url: \"https://go.dev\", description: \"Go\") { id } }"}`, "Bearer "+f.token)
	require.Empty(t, env.Errors)

	scanner := bufio.NewScanner(resp.Body)
	var event, payload string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			payload = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
		if event != "" && payload != "" {
			break
		}
	}
	require.Equal(t, "next", event)

	var result envelope
	require.NoError(t, json.Unmarshal([]byte(payload), &result))
	link := result.Data["newLink"].(map[string]interface{})
	assert.Equal(t, "https://go.dev", link["url"])
	assert.Equal(t, "alice", link["postedBy"].(map[string]interface{})["name"])

	// closing the stream releases the subscription
	cancel()
	assert.Eventually(t, func() bool {
		links, _ := f.bus.SubscriberCount()
		return links == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGraphQL_EventStreamKeepAlive(t *testing.T) {
	f := newFixture(t)
	f.handler.GraphQL.keepAlive = 20 * time.Millisecond
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/graphql",
		strings.NewReader(`{"query":"subscription { newVote { id } }"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	scanner := bufio.NewScanner(resp.Body)
	comments := 0
	for comments < 2 && scanner.Scan() {
		if scanner.Text() == ":" {
			comments++
		}
	}
	assert.Equal(t, 2, comments, "idle stream should carry keep-alive comments")
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/graphql", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://app.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
