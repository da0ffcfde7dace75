package models

// Tag is a free-form label shared between posts. Names are unique.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;not null;uniqueIndex" json:"name"`
}

// PostTag links a post to a tag.
type PostTag struct {
	PostID uint `gorm:"primaryKey;autoIncrement:false"`
	TagID  uint `gorm:"primaryKey;autoIncrement:false;index"`
	Tag    *Tag `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}
