package database

import "memoria/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// ordered so that referenced tables are created first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Tag{},
		&models.PostTag{},
		&models.Badge{},
		&models.GroupBadge{},
	}
}
