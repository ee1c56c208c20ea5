package graph

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/auth"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/pubsub"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/store/storetest"
)

const testSecret = "graph-test-secret-0123456789"

// recordingBus captures published events and hands out real subscriptions.
type recordingBus struct {
	*pubsub.Broadcaster

	mu    sync.Mutex
	links []*models.Link
	votes []*models.Vote
}

func newRecordingBus() *recordingBus {
	return &recordingBus{Broadcaster: pubsub.NewBroadcaster(8)}
}

func (b *recordingBus) PublishNewLink(link *models.Link) {
	b.mu.Lock()
	b.links = append(b.links, link)
	b.mu.Unlock()
	b.Broadcaster.PublishNewLink(link)
}

func (b *recordingBus) PublishNewVote(vote *models.Vote) {
	b.mu.Lock()
	b.votes = append(b.votes, vote)
	b.mu.Unlock()
	b.Broadcaster.PublishNewVote(vote)
}

func (b *recordingBus) published() (links, votes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.links), len(b.votes)
}

type testEnv struct {
	store    *storetest.Memory
	bus      *recordingBus
	creds    *auth.Credentials
	resolver *Resolver
	builder  *ContextBuilder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	creds, err := auth.New(testSecret, auth.WithCost(bcrypt.MinCost))
	require.NoError(t, err)

	mem := storetest.NewMemory()
	bus := newRecordingBus()
	return &testEnv{
		store:    mem,
		bus:      bus,
		creds:    creds,
		resolver: NewResolver(creds),
		builder:  NewContextBuilder(mem, creds, bus),
	}
}

// anon returns a context for an anonymous caller.
func (e *testEnv) anon() context.Context {
	return WithRequestContext(context.Background(), &RequestContext{
		Store:  e.store,
		Events: e.bus,
	})
}

// as returns a context authenticated as user.
func (e *testEnv) as(user *models.User) context.Context {
	return WithRequestContext(context.Background(), &RequestContext{
		CurrentUser: user,
		Store:       e.store,
		Events:      e.bus,
	})
}

func (e *testEnv) seedUser(t *testing.T, name, email string) *models.User {
	t.Helper()
	hashed, err := e.creds.HashPassword("secret-" + name)
	require.NoError(t, err)
	u := &models.User{Name: name, Email: email, Password: hashed}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) seedLink(t *testing.T, poster *models.User, url, description string) *models.Link {
	t.Helper()
	l := &models.Link{URL: url, Description: description}
	if poster != nil {
		id := poster.ID
		l.PostedByID = &id
	}
	require.NoError(t, e.store.CreateLink(context.Background(), l))
	return l
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }
