package repository

import (
	"strings"
	"time"

	"editorial/internal/models"

	"gorm.io/gorm"
)

// PostQuery is an immutable post filter. Every method returns a new query with
// one more predicate, so queries compose in any order and can be shared.
//
//	q := NewPostQuery().Published().WithTopic(3)
//	recent := q.OrderByPublished().Limit(3)
type PostQuery struct {
	scopes           []func(*gorm.DB) *gorm.DB
	orderByPublished bool
	limit            int
}

// NewPostQuery returns the empty query: every visible post in default order.
func NewPostQuery() PostQuery {
	return PostQuery{}
}

func (q PostQuery) where(scope func(*gorm.DB) *gorm.DB) PostQuery {
	// Full slice expression forces a copy so sibling queries never share a backing array.
	q.scopes = append(q.scopes[:len(q.scopes):len(q.scopes)], scope)
	return q
}

// Published restricts to posts with status published.
func (q PostQuery) Published() PostQuery {
	return q.WithStatus(models.StatusPublished)
}

// Drafts restricts to posts with status draft.
func (q PostQuery) Drafts() PostQuery {
	return q.WithStatus(models.StatusDraft)
}

// WithStatus restricts to posts with the given status.
func (q PostQuery) WithStatus(status models.PostStatus) PostQuery {
	return q.where(func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.status = ?", status)
	})
}

// WithID restricts to the post with the given primary key.
func (q PostQuery) WithID(id uint) PostQuery {
	return q.where(func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.id = ?", id)
	})
}

// WithSlug restricts to posts with the given slug.
func (q PostQuery) WithSlug(slug string) PostQuery {
	return q.where(func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.slug = ?", slug)
	})
}

// PublishedOn restricts to posts whose published timestamp falls on the given
// UTC calendar date. Posts never published do not match.
func (q PostQuery) PublishedOn(year int, month time.Month, day int) PostQuery {
	start, end := dayBounds(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
	return q.where(func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.published >= ? AND posts.published < ?", start, end)
	})
}

// WithTopic restricts to posts linked to the topic.
func (q PostQuery) WithTopic(topicID uint) PostQuery {
	return q.where(func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Table("post_topics").Select("post_id").Where("topic_id = ?", topicID))
	})
}

// Search matches term case-insensitively against the title and the author's
// username, first name and last name.
func (q PostQuery) Search(term string) PostQuery {
	term = strings.TrimSpace(term)
	if term == "" {
		return q
	}
	pattern := "%" + strings.ToLower(term) + "%"
	return q.where(func(db *gorm.DB) *gorm.DB {
		authors := db.Session(&gorm.Session{NewDB: true}).
			Table("users").
			Select("id").
			Where("LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", pattern, pattern, pattern)
		return db.Where("LOWER(posts.title) LIKE ? OR posts.author_id IN (?)", pattern, authors)
	})
}

// OrderByPublished orders by publication time, newest first, instead of the
// default creation order.
func (q PostQuery) OrderByPublished() PostQuery {
	q.orderByPublished = true
	return q
}

// Limit caps the number of rows returned. Zero means no limit.
func (q PostQuery) Limit(n int) PostQuery {
	q.limit = n
	return q
}

// filter applies the predicates only.
func (q PostQuery) filter(db *gorm.DB) *gorm.DB {
	return db.Scopes(q.scopes...)
}

// apply applies predicates, ordering and limit.
func (q PostQuery) apply(db *gorm.DB) *gorm.DB {
	db = q.filter(db)
	if q.orderByPublished {
		db = db.Order("posts.published DESC").Order("posts.id DESC")
	} else {
		db = db.Order("posts.created DESC").Order("posts.id DESC")
	}
	if q.limit > 0 {
		db = db.Limit(q.limit)
	}
	return db
}

func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
