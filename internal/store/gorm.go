package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/metrics"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
)

// GormStore implements Gateway on top of GORM.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Gateway = (*GormStore)(nil)

// observe records the duration of one gateway operation.
func observe(op string) func() {
	start := time.Now()
	return func() {
		metrics.StoreQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	defer observe("create_user")()
	return mapError("store.CreateUser", s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) UserByID(ctx context.Context, id int) (*models.User, error) {
	defer observe("user_by_id")()
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, mapError("store.UserByID", err)
	}
	return &user, nil
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer observe("user_by_email")()
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, mapError("store.UserByEmail", err)
	}
	return &user, nil
}

func (s *GormStore) CreateLink(ctx context.Context, link *models.Link) error {
	defer observe("create_link")()
	return mapError("store.CreateLink", s.db.WithContext(ctx).Create(link).Error)
}

func (s *GormStore) LinkByID(ctx context.Context, id int) (*models.Link, error) {
	defer observe("link_by_id")()
	var link models.Link
	if err := s.db.WithContext(ctx).First(&link, id).Error; err != nil {
		return nil, mapError("store.LinkByID", err)
	}
	return &link, nil
}

// likeEscaper makes a needle match literally inside LIKE.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *GormStore) Feed(ctx context.Context, q FeedQuery) ([]*models.Link, error) {
	defer observe("feed")()

	tx := s.db.WithContext(ctx).Model(&models.Link{})
	if q.Needle != "" {
		pattern := "%" + likeEscaper.Replace(q.Needle) + "%"
		tx = tx.Where("description LIKE ? OR url LIKE ?", pattern, pattern)
	}
	if q.Skip != nil {
		tx = tx.Offset(*q.Skip)
	}
	if q.Take > 0 {
		tx = tx.Limit(q.Take)
	}
	for _, col := range orderColumns(q.OrderBy) {
		tx = tx.Order(col)
	}
	// stable pages regardless of the requested ordering
	tx = tx.Order("id")

	var links []*models.Link
	if err := tx.Find(&links).Error; err != nil {
		return nil, mapError("store.Feed", err)
	}
	return links, nil
}

func orderColumns(o *models.LinkOrderBy) []clause.OrderByColumn {
	if o == nil {
		return nil
	}
	var cols []clause.OrderByColumn
	add := func(name string, dir models.SortOrder) {
		if dir == "" {
			return
		}
		cols = append(cols, clause.OrderByColumn{
			Column: clause.Column{Name: name},
			Desc:   dir == models.SortDesc,
		})
	}
	add("description", o.Description)
	add("url", o.URL)
	add("created_at", o.CreatedAt)
	return cols
}

func (s *GormStore) LinksByUser(ctx context.Context, userID int) ([]*models.Link, error) {
	defer observe("links_by_user")()
	var links []*models.Link
	if err := s.db.WithContext(ctx).Where("posted_by_id = ?", userID).Order("id").Find(&links).Error; err != nil {
		return nil, mapError("store.LinksByUser", err)
	}
	return links, nil
}

func (s *GormStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	defer observe("create_comment")()
	return mapError("store.CreateComment", s.db.WithContext(ctx).Create(comment).Error)
}

func (s *GormStore) CommentByID(ctx context.Context, id int) (*models.Comment, error) {
	defer observe("comment_by_id")()
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, mapError("store.CommentByID", err)
	}
	return &comment, nil
}

func (s *GormStore) CommentsByLink(ctx context.Context, linkID int) ([]*models.Comment, error) {
	defer observe("comments_by_link")()
	var comments []*models.Comment
	if err := s.db.WithContext(ctx).Where("link_id = ?", linkID).Order("id").Find(&comments).Error; err != nil {
		return nil, mapError("store.CommentsByLink", err)
	}
	return comments, nil
}

func (s *GormStore) CreateVote(ctx context.Context, vote *models.Vote) error {
	defer observe("create_vote")()
	return mapError("store.CreateVote", s.db.WithContext(ctx).Create(vote).Error)
}

func (s *GormStore) VoteByLinkAndUser(ctx context.Context, linkID, userID int) (*models.Vote, error) {
	defer observe("vote_by_link_and_user")()
	var vote models.Vote
	err := s.db.WithContext(ctx).
		Where("link_id = ? AND user_id = ?", linkID, userID).
		First(&vote).Error
	if err != nil {
		return nil, mapError("store.VoteByLinkAndUser", err)
	}
	return &vote, nil
}

func (s *GormStore) VotesByLink(ctx context.Context, linkID int) ([]*models.Vote, error) {
	defer observe("votes_by_link")()
	var votes []*models.Vote
	if err := s.db.WithContext(ctx).Where("link_id = ?", linkID).Order("id").Find(&votes).Error; err != nil {
		return nil, mapError("store.VotesByLink", err)
	}
	return votes, nil
}
