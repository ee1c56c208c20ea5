package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/store"
)

// RunGatewayContract checks the behavior every Gateway implementation must
// share. newGateway must return an empty gateway on each call.
func RunGatewayContract(t *testing.T, newGateway func(t *testing.T) store.Gateway) {
	t.Helper()
	ctx := context.Background()

	seedUser := func(t *testing.T, g store.Gateway, email string) *models.User {
		t.Helper()
		u := &models.User{Name: "n-" + email, Email: email, Password: "hash"}
		require.NoError(t, g.CreateUser(ctx, u))
		require.NotZero(t, u.ID)
		return u
	}
	seedLink := func(t *testing.T, g store.Gateway, url, desc string, owner *models.User) *models.Link {
		t.Helper()
		l := &models.Link{URL: url, Description: desc}
		if owner != nil {
			l.PostedByID = &owner.ID
		}
		require.NoError(t, g.CreateLink(ctx, l))
		require.NotZero(t, l.ID)
		return l
	}

	t.Run("users", func(t *testing.T) {
		g := newGateway(t)
		u := seedUser(t, g, "a@b.com")

		byID, err := g.UserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "a@b.com", byID.Email)
		assert.Equal(t, "hash", byID.Password)

		byEmail, err := g.UserByEmail(ctx, "a@b.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)

		_, err = g.UserByID(ctx, u.ID+1000)
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = g.UserByEmail(ctx, "missing@b.com")
		assert.ErrorIs(t, err, store.ErrNotFound)

		err = g.CreateUser(ctx, &models.User{Name: "dup", Email: "a@b.com", Password: "x"})
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("links", func(t *testing.T) {
		g := newGateway(t)
		u := seedUser(t, g, "poster@b.com")
		owned := seedLink(t, g, "https://x.com", "d", u)
		orphan := seedLink(t, g, "https://y.com", "no poster", nil)

		got, err := g.LinkByID(ctx, owned.ID)
		require.NoError(t, err)
		require.NotNil(t, got.PostedByID)
		assert.Equal(t, u.ID, *got.PostedByID)
		assert.False(t, got.CreatedAt.IsZero())

		got, err = g.LinkByID(ctx, orphan.ID)
		require.NoError(t, err)
		assert.Nil(t, got.PostedByID)

		_, err = g.LinkByID(ctx, orphan.ID+1000)
		assert.ErrorIs(t, err, store.ErrNotFound)

		byUser, err := g.LinksByUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, byUser, 1)
		assert.Equal(t, owned.ID, byUser[0].ID)

		missing := 999999
		err = g.CreateLink(ctx, &models.Link{URL: "u", Description: "d", PostedByID: &missing})
		assert.ErrorIs(t, err, store.ErrForeignKey)
	})

	t.Run("feed", func(t *testing.T) {
		g := newGateway(t)
		base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		mk := func(url, desc string, age int) *models.Link {
			l := &models.Link{URL: url, Description: desc, CreatedAt: base.Add(time.Duration(age) * time.Hour)}
			require.NoError(t, g.CreateLink(ctx, l))
			return l
		}
		l1 := mk("https://graphql.org", "Official site", 3)
		l2 := mk("https://go.dev", "The graphql of languages", 1)
		l3 := mk("https://example.com", "nothing here", 2)
		l4 := mk("https://GRAPHQL.com", "upper case", 4)
		l5 := mk("https://percent.com", "100% literal", 5)

		ids := func(links []*models.Link) []int {
			out := make([]int, len(links))
			for i, l := range links {
				out[i] = l.ID
			}
			return out
		}

		all, err := g.Feed(ctx, store.FeedQuery{Take: 30})
		require.NoError(t, err)
		assert.Equal(t, []int{l1.ID, l2.ID, l3.ID, l4.ID, l5.ID}, ids(all))

		matched, err := g.Feed(ctx, store.FeedQuery{Needle: "graphql", Take: 10})
		require.NoError(t, err)
		assert.Equal(t, []int{l1.ID, l2.ID}, ids(matched), "needle match is case-sensitive over url or description")

		literal, err := g.Feed(ctx, store.FeedQuery{Needle: "0%", Take: 10})
		require.NoError(t, err)
		assert.Equal(t, []int{l5.ID}, ids(literal), "LIKE wildcards in the needle match literally")

		skip := 1
		page, err := g.Feed(ctx, store.FeedQuery{Skip: &skip, Take: 2})
		require.NoError(t, err)
		assert.Equal(t, []int{l2.ID, l3.ID}, ids(page))

		newest, err := g.Feed(ctx, store.FeedQuery{Take: 2, OrderBy: &models.LinkOrderBy{CreatedAt: models.SortDesc}})
		require.NoError(t, err)
		assert.Equal(t, []int{l5.ID, l4.ID}, ids(newest))

		// lowercase-only subset keeps the ordering independent of collation
		byURL, err := g.Feed(ctx, store.FeedQuery{Needle: "https://g", Take: 30, OrderBy: &models.LinkOrderBy{URL: models.SortDesc}})
		require.NoError(t, err)
		assert.Equal(t, []int{l1.ID, l2.ID}, ids(byURL))
	})

	t.Run("comments", func(t *testing.T) {
		g := newGateway(t)
		l := seedLink(t, g, "https://x.com", "d", nil)

		c := &models.Comment{Body: "first", LinkID: &l.ID}
		require.NoError(t, g.CreateComment(ctx, c))
		require.NotZero(t, c.ID)

		got, err := g.CommentByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "first", got.Body)

		list, err := g.CommentsByLink(ctx, l.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, c.ID, list[0].ID)

		_, err = g.CommentByID(ctx, c.ID+1000)
		assert.ErrorIs(t, err, store.ErrNotFound)

		missing := l.ID + 1000
		err = g.CreateComment(ctx, &models.Comment{Body: "dangling", LinkID: &missing})
		assert.ErrorIs(t, err, store.ErrForeignKey)
	})

	t.Run("votes", func(t *testing.T) {
		g := newGateway(t)
		u := seedUser(t, g, "voter@b.com")
		l := seedLink(t, g, "https://x.com", "d", nil)

		_, err := g.VoteByLinkAndUser(ctx, l.ID, u.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)

		v := &models.Vote{LinkID: l.ID, UserID: u.ID}
		require.NoError(t, g.CreateVote(ctx, v))
		require.NotZero(t, v.ID)

		found, err := g.VoteByLinkAndUser(ctx, l.ID, u.ID)
		require.NoError(t, err)
		assert.Equal(t, v.ID, found.ID)

		err = g.CreateVote(ctx, &models.Vote{LinkID: l.ID, UserID: u.ID})
		assert.ErrorIs(t, err, store.ErrDuplicate)

		err = g.CreateVote(ctx, &models.Vote{LinkID: l.ID + 1000, UserID: u.ID})
		assert.ErrorIs(t, err, store.ErrForeignKey)

		votes, err := g.VotesByLink(ctx, l.ID)
		require.NoError(t, err)
		require.Len(t, votes, 1)
		assert.Equal(t, u.ID, votes[0].UserID)
	})
}
