package pubsub

import (
	"context"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
)

// Topic names.
const (
	TopicNewLink = "newLink"
	TopicNewVote = "newVote"
)

// Bus is the event surface the resolvers publish to and subscribe on.
type Bus interface {
	PublishNewLink(link *models.Link)
	PublishNewVote(vote *models.Vote)
	SubscribeNewLink(ctx context.Context) (<-chan *models.Link, func())
	SubscribeNewVote(ctx context.Context) (<-chan *models.Vote, func())
}

// Broadcaster is the in-process Bus. Events are delivered only to
// subscribers that are live at publish time; nothing is replayed.
type Broadcaster struct {
	links *Topic[*models.Link]
	votes *Topic[*models.Vote]
}

var _ Bus = (*Broadcaster)(nil)

// NewBroadcaster creates a broadcaster whose subscribers buffer up to
// bufferSize events each.
func NewBroadcaster(bufferSize int) *Broadcaster {
	return &Broadcaster{
		links: NewTopic[*models.Link](TopicNewLink, bufferSize),
		votes: NewTopic[*models.Vote](TopicNewVote, bufferSize),
	}
}

func (b *Broadcaster) PublishNewLink(link *models.Link) {
	b.links.Publish(link)
}

func (b *Broadcaster) PublishNewVote(vote *models.Vote) {
	b.votes.Publish(vote)
}

func (b *Broadcaster) SubscribeNewLink(ctx context.Context) (<-chan *models.Link, func()) {
	return b.links.Subscribe(ctx)
}

func (b *Broadcaster) SubscribeNewVote(ctx context.Context) (<-chan *models.Vote, func()) {
	return b.votes.Subscribe(ctx)
}

// SubscriberCount returns the number of live subscribers per topic.
func (b *Broadcaster) SubscriberCount() (links, votes int) {
	return b.links.SubscriberCount(), b.votes.SubscriberCount()
}
