// Package models contains the persistent types of the memory board and its badge catalog.
package models

import "time"

// Group is a community board that owns posts and earns badges.
type Group struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null;index" json:"name"`
	Password     string    `gorm:"not null" json:"-"`
	ImageURL     string    `json:"imageUrl"`
	IsPublic     bool      `gorm:"not null;index" json:"isPublic"`
	Introduction string    `gorm:"type:text" json:"introduction"`
	LikeCount    int64     `gorm:"not null;default:0" json:"likeCount"`
	CreatedAt    time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt    time.Time `json:"-"`

	Posts  []Post       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Badges []GroupBadge `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	// PostCount and BadgeCount are computed by list queries.
	PostCount  int64 `gorm:"->;-:migration" json:"postCount"`
	BadgeCount int64 `gorm:"->;-:migration" json:"badgeCount"`
}

// GroupDetail is the single-group view with earned badge names.
type GroupDetail struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	ImageURL     string    `json:"imageUrl"`
	IsPublic     bool      `json:"isPublic"`
	Introduction string    `json:"introduction"`
	LikeCount    int64     `json:"likeCount"`
	PostCount    int64     `json:"postCount"`
	Badges       []string  `json:"badges"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Visibility is returned by the is-public endpoints.
type Visibility struct {
	ID       uint `json:"id"`
	IsPublic bool `json:"isPublic"`
}

// Page is the paginated list envelope.
type Page[T any] struct {
	CurrentPage    int   `json:"currentPage"`
	TotalPages     int   `json:"totalPages"`
	TotalItemCount int64 `json:"totalItemCount"`
	Data           []T   `json:"data"`
}

// NewPage builds a Page from a slice and the total row count.
func NewPage[T any](data []T, page, pageSize int, total int64) Page[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		CurrentPage:    page,
		TotalPages:     totalPages,
		TotalItemCount: total,
		Data:           data,
	}
}
