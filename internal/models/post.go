package models

import "time"

// Post is a memory published inside a group.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uint      `gorm:"not null;index:idx_posts_group_created,priority:1" json:"groupId"`
	Nickname  string    `gorm:"size:50;not null" json:"nickname"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Password  string    `gorm:"not null" json:"-"`
	ImageURL  string    `json:"imageUrl"`
	Location  string    `json:"location"`
	Moment    time.Time `json:"moment"`
	IsPublic  bool      `gorm:"not null" json:"isPublic"`
	LikeCount int64     `gorm:"not null;default:0" json:"likeCount"`
	CreatedAt time.Time `gorm:"not null;index:idx_posts_group_created,priority:2" json:"createdAt"`
	UpdatedAt time.Time `json:"-"`

	Comments []Comment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PostTags []PostTag `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	// CommentCount is computed at query time
	CommentCount int64 `gorm:"->;-:migration" json:"commentCount"`
	// Tags is filled from post_tags after loading
	Tags []string `gorm:"-" json:"tags"`
}
