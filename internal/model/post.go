package model

import "time"

// Post represents a single blog entry owned by exactly one user.
// DatePosted is captured once at creation time and never changes on edit.
type Post struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Title      string    `json:"title" gorm:"size:100;not null"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	DatePosted time.Time `json:"date_posted" gorm:"not null;index"`
	UserID     uint      `json:"user_id" gorm:"not null;index"`

	// Relations
	Author User `json:"-" gorm:"foreignKey:UserID"`
}
