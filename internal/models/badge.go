package models

import "time"

// Badge is a catalog entry. IDs are fixed and seeded, never auto-assigned.
type Badge struct {
	ID   uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"size:100;not null;uniqueIndex" json:"name"`
}

// GroupBadge records that a group holds a badge. The composite primary key
// allows at most one grant per (group, badge) pair.
type GroupBadge struct {
	GroupID   uint      `gorm:"primaryKey;autoIncrement:false" json:"groupId"`
	BadgeID   uint      `gorm:"primaryKey;autoIncrement:false;index" json:"badgeId"`
	Badge     *Badge    `gorm:"foreignKey:BadgeID;constraint:OnDelete:CASCADE" json:"badge,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
