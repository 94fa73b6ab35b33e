package model

import "time"

// DefaultAvatar is the placeholder image assigned to every new account.
const DefaultAvatar = "default.jpg"

// User represents a registered blog author.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:20;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:120;not null"`
	ImageFile    string    `json:"image_file" gorm:"size:64;not null;default:'default.jpg'"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Posts []Post `json:"posts,omitempty" gorm:"foreignKey:UserID"`
}
