package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/config"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/database"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/store"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/store/storetest"
)

type GormStoreSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        database.Service
}

func TestGormStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	suite.Run(t, new(GormStoreSuite))
}

func (s *GormStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("hackernews"),
		postgres.WithUsername("hackernews"),
		postgres.WithPassword("hackernews"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err, "failed to start postgres container")
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := database.Open(dsn, config.DatabaseConfig{
		Name:            "hackernews",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})
	s.Require().NoError(err)
	s.Require().NoError(db.Migrate())
	s.db = db
}

func (s *GormStoreSuite) TearDownSuite() {
	if s.db != nil {
		s.NoError(s.db.Close())
	}
	if s.container != nil {
		s.NoError(testcontainers.TerminateContainer(s.container))
	}
}

// truncate empties every table and resets the id sequences.
func (s *GormStoreSuite) truncate(t *testing.T) {
	t.Helper()
	err := s.db.GetDB().Exec("TRUNCATE TABLE votes, comments, links, users RESTART IDENTITY CASCADE").Error
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func (s *GormStoreSuite) TestGatewayContract() {
	storetest.RunGatewayContract(s.T(), func(t *testing.T) store.Gateway {
		s.truncate(t)
		return store.NewGormStore(s.db.GetDB())
	})
}

func (s *GormStoreSuite) TestHealth() {
	stats := s.db.Health(context.Background())
	s.Equal("up", stats["status"])
	s.Equal("It's healthy", stats["message"])
}

func (s *GormStoreSuite) TestMigrateIsIdempotent() {
	s.NoError(s.db.Migrate())
}
