// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is an account that can author posts. Staff users may use the admin API.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username" validate:"required,max=150"`
	FirstName string    `gorm:"size:150" json:"first_name" validate:"max=150"`
	LastName  string    `gorm:"size:150" json:"last_name" validate:"max=150"`
	Email     string    `gorm:"size:254" json:"email" validate:"omitempty,email,max=254"`
	Password  string    `gorm:"not null" json:"-"`
	IsStaff   bool      `gorm:"not null;default:false" json:"is_staff"`
	Created   time.Time `gorm:"autoCreateTime;<-:create" json:"created"`
	Updated   time.Time `gorm:"autoUpdateTime" json:"updated"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// SetPassword stores the bcrypt hash of plain.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}
