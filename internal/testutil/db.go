// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"editorial/internal/database"
	"editorial/internal/middleware"
	"editorial/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// Clock is a settable time source for tests.
type Clock struct {
	now time.Time
}

// NewClock returns a clock stopped at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t.UTC()}
}

// Now returns the current clock time.
func (c *Clock) Now() time.Time {
	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.now = t.UTC()
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// NewTestDB opens a private in-memory sqlite database with foreign keys
// enforced and the full schema migrated. Timestamps come from clock.
func NewTestDB(t *testing.T, clock *Clock) *gorm.DB {
	t.Helper()
	if clock == nil {
		clock = NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	}

	dsn := fmt.Sprintf("file:editorial_test_%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	db, err := database.Open(sqlite.Open(dsn), middleware.Logger, clock.Now)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user with the given username and first name.
func CreateUser(t *testing.T, db *gorm.DB, username, firstName string) *models.User {
	t.Helper()
	u := &models.User{Username: username, FirstName: firstName, Password: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

// PostOption customises a fixture post.
type PostOption func(p *models.Post)

// PublishedAt marks the post published at t.
func PublishedAt(t time.Time) PostOption {
	return func(p *models.Post) {
		p.Publish(t.UTC())
	}
}

// SoftDeleted marks the post deleted.
func SoftDeleted() PostOption {
	return func(p *models.Post) {
		p.Deleted = models.Bool(true)
	}
}

// WithSlug overrides the fixture slug.
func WithSlug(slug string) PostOption {
	return func(p *models.Post) {
		p.Slug = slug
	}
}

// WithTopics links the post to topics.
func WithTopics(topics ...models.Topic) PostOption {
	return func(p *models.Post) {
		p.Topics = append(p.Topics, topics...)
	}
}

// CreatePost inserts a draft, non-deleted post by author unless options say otherwise.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, title string, opts ...PostOption) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:    title,
		Slug:     models.Slugify(title),
		Content:  "Content of " + title,
		AuthorID: author.ID,
		Status:   models.StatusDraft,
		Deleted:  models.Bool(false),
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, db.Omit("Topics.*").Create(p).Error)
	return p
}

// CreateTopic inserts a topic with a slug derived from name.
func CreateTopic(t *testing.T, db *gorm.DB, name string) models.Topic {
	t.Helper()
	topic := models.Topic{Name: name, Slug: models.Slugify(name)}
	require.NoError(t, db.Create(&topic).Error)
	return topic
}
