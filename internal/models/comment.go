package models

import "time"

// Comment is a reply attached to a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	Nickname  string    `gorm:"size:50;not null" json:"nickname"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}
