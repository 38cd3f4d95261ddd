package models

import "time"

// Contest is a photo contest entry. Entries are written once and never updated.
type Contest struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"size:50;not null" json:"first_name" validate:"required,max=50"`
	LastName  string `gorm:"size:50;not null" json:"last_name" validate:"required,max=50"`
	Email     string `gorm:"size:100;not null" json:"email" validate:"required,max=100,email"`
	// Submission is the stored name of the uploaded image under the media root.
	Submission    string    `gorm:"size:255;not null" json:"submission" validate:"required,max=255"`
	SubmittedDate time.Time `gorm:"autoCreateTime;<-:create;index" json:"submitted_date"`
}

func (c *Contest) String() string {
	return c.SubmittedDate.Format(time.RFC3339) + ": " + c.Email
}
