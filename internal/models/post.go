package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PostStatus is the publication state of a post.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

// Post is a blog article. Deleted posts stay in storage but are hidden from
// every default repository read.
type Post struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	Title    string     `gorm:"size:255;not null" json:"title" validate:"required,max=255"`
	Slug     string     `gorm:"size:255;not null;index:idx_posts_slug_published" json:"slug" validate:"required,max=255,slug"`
	Content  string     `gorm:"type:text;not null" json:"content" validate:"required"`
	AuthorID uint       `gorm:"not null;index" json:"author_id" validate:"required"`
	Author   *User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"author,omitempty" validate:"-"`
	Status   PostStatus `gorm:"size:10;not null;default:draft;index" json:"status" validate:"omitempty,oneof=draft published"`
	// Published is nil until the post is first published.
	Published *time.Time `gorm:"index:idx_posts_slug_published" json:"published"`
	Created   time.Time  `gorm:"autoCreateTime;<-:create" json:"created"`
	Updated   time.Time  `gorm:"autoUpdateTime" json:"updated"`
	Topics    []Topic    `gorm:"many2many:post_topics;constraint:OnDelete:CASCADE" json:"topics" validate:"-"`
	// Deleted has no default and must be set explicitly on create.
	Deleted *bool `gorm:"not null;index" json:"deleted" validate:"required"`
}

// BeforeCreate applies the draft default before the row is written.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.Status == "" {
		p.Status = StatusDraft
	}
	return nil
}

// Publish moves the post to the published state, stamping now in UTC.
func (p *Post) Publish(now time.Time) {
	published := now.UTC()
	p.Status = StatusPublished
	p.Published = &published
}

// IsPublished reports whether the post is publicly visible by status.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// IsDeleted reports whether the post has been soft-deleted.
func (p *Post) IsDeleted() bool {
	return p.Deleted != nil && *p.Deleted
}

// URL is the canonical address of the post: date and slug once published,
// the primary key otherwise.
func (p *Post) URL() string {
	if p.Published != nil {
		d := p.Published.UTC()
		return fmt.Sprintf("/api/posts/%d/%d/%d/%s", d.Year(), int(d.Month()), d.Day(), p.Slug)
	}
	return fmt.Sprintf("/api/posts/%d", p.ID)
}

// MarshalJSON encodes the post with its canonical url.
func (p Post) MarshalJSON() ([]byte, error) {
	type plain Post
	return json.Marshal(struct {
		plain
		URL string `json:"url"`
	}{plain(p), p.URL()})
}

// Bool returns a pointer to b, for required boolean fields.
func Bool(b bool) *bool {
	return &b
}
