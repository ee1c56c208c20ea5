package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/store"
)

func TestMemoryContract(t *testing.T) {
	RunGatewayContract(t, func(*testing.T) store.Gateway { return NewMemory() })
}

func TestMemoryCallAccounting(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	assert.Zero(t, m.TotalCalls())
	_, ok := m.LastFeedQuery()
	assert.False(t, ok)

	_, _ = m.Feed(ctx, store.FeedQuery{Needle: "go", Take: 5})
	_, _ = m.LinkByID(ctx, 1)

	assert.Equal(t, 1, m.Calls("Feed"))
	assert.Equal(t, 1, m.Calls("LinkByID"))
	assert.Equal(t, 2, m.TotalCalls())

	q, ok := m.LastFeedQuery()
	require.True(t, ok)
	assert.Equal(t, "go", q.Needle)
	assert.Equal(t, 5, q.Take)
}

func TestMemoryFailNext(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	boom := errors.New("boom")

	m.FailNext("CreateLink", boom)
	err := m.CreateLink(ctx, &models.Link{URL: "u", Description: "d"})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, m.LinkCount())

	require.NoError(t, m.CreateLink(ctx, &models.Link{URL: "u", Description: "d"}))
	assert.Equal(t, 1, m.LinkCount())
}
