package service

import (
	"testing"
	"time"

	"editorial/internal/cache"
	"editorial/internal/repository"
	"editorial/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	db       *gorm.DB
	clock    *testutil.Clock
	posts    repository.PostRepository
	topics   repository.TopicRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	contests repository.ContestRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clock := testutil.NewClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	db := testutil.NewTestDB(t, clock)
	return &env{
		db:       db,
		clock:    clock,
		posts:    repository.NewPostRepository(db, repository.DefaultAuthorSource()),
		topics:   repository.NewTopicRepository(db),
		comments: repository.NewCommentRepository(db),
		users:    repository.NewUserRepository(db),
		contests: repository.NewContestRepository(db),
	}
}

func setupCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		_ = cache.Close()
		mr.Close()
	})
	return mr
}

func at(d, h int) time.Time {
	return time.Date(2024, 3, d, h, 0, 0, 0, time.UTC)
}
