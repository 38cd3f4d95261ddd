package models

import "time"

// Comment is a reader comment on a post. Unapproved comments are stored but
// only approved ones are shown publicly.
type Comment struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PostID   uint      `gorm:"not null;index" json:"post_id" validate:"required"`
	Post     *Post     `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"post,omitempty" validate:"-"`
	Name     string    `gorm:"size:50;not null" json:"name" validate:"required,max=50"`
	Email    string    `gorm:"size:100;not null" json:"email" validate:"required,max=100,email"`
	Text     string    `gorm:"type:text;not null" json:"text" validate:"required,max=500"`
	Approved bool      `gorm:"not null;default:false;index" json:"approved"`
	Created  time.Time `gorm:"autoCreateTime;<-:create" json:"created"`
	Updated  time.Time `gorm:"autoUpdateTime" json:"updated"`
}
