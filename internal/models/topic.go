package models

import "encoding/json"

// Topic organizes posts. Topics are ordered by name and are never soft-deleted.
type Topic struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:255;uniqueIndex;not null" json:"name" validate:"required,max=255"`
	Slug  string `gorm:"size:255;not null;index" json:"slug" validate:"required,max=255,slug"`
	Posts []Post `gorm:"many2many:post_topics;" json:"posts,omitempty" validate:"-"`
}

// URL is the public address of the topic, keyed by slug.
func (t *Topic) URL() string {
	return "/api/topics/slug/" + t.Slug
}

func (t Topic) MarshalJSON() ([]byte, error) {
	type plain Topic
	return json.Marshal(struct {
		plain
		URL string `json:"url"`
	}{plain(t), t.URL()})
}
