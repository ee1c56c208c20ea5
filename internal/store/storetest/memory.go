// Package storetest provides an in-memory store.Gateway with the same
// constraint behavior as the Postgres schema, plus call accounting.
package storetest

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/store"
)

// Memory is a thread-safe in-memory Gateway. Unique and foreign key
// constraints report store.ErrDuplicate and store.ErrForeignKey.
type Memory struct {
	mu sync.Mutex

	users    map[int]models.User
	links    map[int]models.Link
	comments map[int]models.Comment
	votes    map[int]models.Vote
	nextID   map[string]int

	calls    map[string]int
	fail     map[string]error
	lastFeed store.FeedQuery

	// Now stamps CreatedAt on inserted rows.
	Now func() time.Time
}

var _ store.Gateway = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[int]models.User),
		links:    make(map[int]models.Link),
		comments: make(map[int]models.Comment),
		votes:    make(map[int]models.Vote),
		nextID:   make(map[string]int),
		calls:    make(map[string]int),
		fail:     make(map[string]error),
		Now:      time.Now,
	}
}

// Calls returns how many times the named method ran.
func (m *Memory) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of gateway calls of any kind.
func (m *Memory) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// FailNext makes the next call of method return err.
func (m *Memory) FailNext(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[method] = err
}

// enter records a call and returns an injected failure, if any.
// Callers hold m.mu.
func (m *Memory) enter(method string) error {
	m.calls[method]++
	if err, ok := m.fail[method]; ok {
		delete(m.fail, method)
		return err
	}
	return nil
}

func (m *Memory) id(table string) int {
	m.nextID[table]++
	return m.nextID[table]
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateUser"); err != nil {
		return err
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("store.CreateUser: %w: email %q", store.ErrDuplicate, user.Email)
		}
	}
	user.ID = m.id("users")
	user.CreatedAt = m.Now()
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) UserByID(_ context.Context, id int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UserByID"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("store.UserByID: %w", store.ErrNotFound)
	}
	return &u, nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UserByEmail"); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("store.UserByEmail: %w", store.ErrNotFound)
}

func (m *Memory) CreateLink(_ context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateLink"); err != nil {
		return err
	}
	if link.PostedByID != nil {
		if _, ok := m.users[*link.PostedByID]; !ok {
			return fmt.Errorf("store.CreateLink: %w: user %d", store.ErrForeignKey, *link.PostedByID)
		}
	}
	link.ID = m.id("links")
	if link.CreatedAt.IsZero() {
		link.CreatedAt = m.Now()
	}
	m.links[link.ID] = *link
	return nil
}

func (m *Memory) LinkByID(_ context.Context, id int) (*models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("LinkByID"); err != nil {
		return nil, err
	}
	l, ok := m.links[id]
	if !ok {
		return nil, fmt.Errorf("store.LinkByID: %w", store.ErrNotFound)
	}
	return &l, nil
}

// LastFeedQuery is the argument of the most recent Feed call.
func (m *Memory) LastFeedQuery() (store.FeedQuery, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.lastFeed, m.calls["Feed"] > 0
	return q, ok
}

func (m *Memory) Feed(_ context.Context, q store.FeedQuery) ([]*models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFeed = q
	if err := m.enter("Feed"); err != nil {
		return nil, err
	}

	var out []models.Link
	for _, l := range m.links {
		if q.Needle != "" && !strings.Contains(l.URL, q.Needle) && !strings.Contains(l.Description, q.Needle) {
			continue
		}
		out = append(out, l)
	}
	slices.SortFunc(out, linkOrder(q.OrderBy))

	if q.Skip != nil && *q.Skip > 0 {
		out = out[min(*q.Skip, len(out)):]
	}
	if q.Take > 0 && len(out) > q.Take {
		out = out[:q.Take]
	}
	return linkPtrs(out), nil
}

func linkOrder(o *models.LinkOrderBy) func(a, b models.Link) int {
	return func(a, b models.Link) int {
		if o != nil {
			keys := []struct {
				dir models.SortOrder
				c   int
			}{
				{o.Description, strings.Compare(a.Description, b.Description)},
				{o.URL, strings.Compare(a.URL, b.URL)},
				{o.CreatedAt, a.CreatedAt.Compare(b.CreatedAt)},
			}
			for _, k := range keys {
				if k.dir == "" || k.c == 0 {
					continue
				}
				if k.dir == models.SortDesc {
					return -k.c
				}
				return k.c
			}
		}
		return cmp.Compare(a.ID, b.ID)
	}
}

func (m *Memory) LinksByUser(_ context.Context, userID int) ([]*models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("LinksByUser"); err != nil {
		return nil, err
	}
	var out []models.Link
	for _, l := range m.links {
		if l.PostedByID != nil && *l.PostedByID == userID {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b models.Link) int { return cmp.Compare(a.ID, b.ID) })
	return linkPtrs(out), nil
}

func (m *Memory) CreateComment(_ context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateComment"); err != nil {
		return err
	}
	if comment.LinkID != nil {
		if _, ok := m.links[*comment.LinkID]; !ok {
			return fmt.Errorf("store.CreateComment: %w: link %d", store.ErrForeignKey, *comment.LinkID)
		}
	}
	comment.ID = m.id("comments")
	comment.CreatedAt = m.Now()
	m.comments[comment.ID] = *comment
	return nil
}

func (m *Memory) CommentByID(_ context.Context, id int) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CommentByID"); err != nil {
		return nil, err
	}
	c, ok := m.comments[id]
	if !ok {
		return nil, fmt.Errorf("store.CommentByID: %w", store.ErrNotFound)
	}
	return &c, nil
}

func (m *Memory) CommentsByLink(_ context.Context, linkID int) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CommentsByLink"); err != nil {
		return nil, err
	}
	var out []*models.Comment
	for _, id := range sortedKeys(m.comments) {
		c := m.comments[id]
		if c.LinkID != nil && *c.LinkID == linkID {
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *Memory) CreateVote(_ context.Context, vote *models.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateVote"); err != nil {
		return err
	}
	if _, ok := m.links[vote.LinkID]; !ok {
		return fmt.Errorf("store.CreateVote: %w: link %d", store.ErrForeignKey, vote.LinkID)
	}
	if _, ok := m.users[vote.UserID]; !ok {
		return fmt.Errorf("store.CreateVote: %w: user %d", store.ErrForeignKey, vote.UserID)
	}
	for _, v := range m.votes {
		if v.LinkID == vote.LinkID && v.UserID == vote.UserID {
			return fmt.Errorf("store.CreateVote: %w: link %d user %d", store.ErrDuplicate, vote.LinkID, vote.UserID)
		}
	}
	vote.ID = m.id("votes")
	vote.CreatedAt = m.Now()
	m.votes[vote.ID] = *vote
	return nil
}

func (m *Memory) VoteByLinkAndUser(_ context.Context, linkID, userID int) (*models.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("VoteByLinkAndUser"); err != nil {
		return nil, err
	}
	for _, v := range m.votes {
		if v.LinkID == linkID && v.UserID == userID {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("store.VoteByLinkAndUser: %w", store.ErrNotFound)
}

func (m *Memory) VotesByLink(_ context.Context, linkID int) ([]*models.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("VotesByLink"); err != nil {
		return nil, err
	}
	var out []*models.Vote
	for _, id := range sortedKeys(m.votes) {
		v := m.votes[id]
		if v.LinkID == linkID {
			out = append(out, &v)
		}
	}
	return out, nil
}

// VoteCount returns the number of stored votes.
func (m *Memory) VoteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.votes)
}

// CommentCount returns the number of stored comments.
func (m *Memory) CommentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.comments)
}

// LinkCount returns the number of stored links.
func (m *Memory) LinkCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.links)
}

func linkPtrs(links []models.Link) []*models.Link {
	out := make([]*models.Link, len(links))
	for i := range links {
		out[i] = &links[i]
	}
	return out
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
