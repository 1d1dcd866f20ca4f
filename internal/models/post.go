// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// MaxPostLength is the upper bound, in characters, of a post's text.
const MaxPostLength = 140

// Post represents a short text message ("warble") authored by one account.
type Post struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Text   string `gorm:"type:varchar(140);not null" json:"text"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	// LikesCount is not persisted; computed at query time
	LikesCount int64 `gorm:"->;-:migration" json:"likes_count"`
	// Liked indicates whether the viewing account likes this post (computed)
	Liked     bool      `gorm:"->;-:migration" json:"liked"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
