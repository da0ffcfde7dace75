package repository

import (
	"context"

	"memoria/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository manages the shared tag vocabulary and post links.
type TagRepository interface {
	FindOrCreate(ctx context.Context, names []string) ([]models.Tag, error)
	SetPostTags(ctx context.Context, postID uint, names []string) error
	NamesForPosts(ctx context.Context, postIDs []uint) (map[uint][]string, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new TagRepository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) FindOrCreate(ctx context.Context, names []string) ([]models.Tag, error) {
	return findOrCreateTags(r.db.WithContext(ctx), names)
}

func (r *tagRepository) SetPostTags(ctx context.Context, postID uint, names []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return syncPostTags(tx, postID, names)
	})
}

func (r *tagRepository) NamesForPosts(ctx context.Context, postIDs []uint) (map[uint][]string, error) {
	return tagNamesForPosts(r.db.WithContext(ctx), postIDs)
}

// findOrCreateTags inserts missing names and returns every requested tag.
// Concurrent creators of the same name both succeed through ON CONFLICT DO NOTHING.
func findOrCreateTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}

	fresh := make([]models.Tag, 0, len(names))
	for _, name := range names {
		fresh = append(fresh, models.Tag{Name: name})
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&fresh).Error; err != nil {
		return nil, err
	}

	var tags []models.Tag
	if err := tx.Where("name IN ?", names).Order("id ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// syncPostTags makes the post's links match names exactly, touching only the difference.
func syncPostTags(tx *gorm.DB, postID uint, names []string) error {
	tags, err := findOrCreateTags(tx, names)
	if err != nil {
		return err
	}

	want := make(map[uint]struct{}, len(tags))
	for _, t := range tags {
		want[t.ID] = struct{}{}
	}

	var current []uint
	if err := tx.Model(&models.PostTag{}).Where("post_id = ?", postID).Pluck("tag_id", &current).Error; err != nil {
		return err
	}

	have := make(map[uint]struct{}, len(current))
	var stale []uint
	for _, id := range current {
		have[id] = struct{}{}
		if _, ok := want[id]; !ok {
			stale = append(stale, id)
		}
	}

	if len(stale) > 0 {
		if err := tx.Where("post_id = ? AND tag_id IN ?", postID, stale).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
	}

	var missing []models.PostTag
	for _, t := range tags {
		if _, ok := have[t.ID]; !ok {
			missing = append(missing, models.PostTag{PostID: postID, TagID: t.ID})
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&missing).Error
}

func tagNamesForPosts(db *gorm.DB, postIDs []uint) (map[uint][]string, error) {
	out := make(map[uint][]string, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}

	type row struct {
		PostID uint
		Name   string
	}
	var rows []row
	err := db.Table("post_tags").
		Select("post_tags.post_id, tags.name").
		Joins("JOIN tags ON tags.id = post_tags.tag_id").
		Where("post_tags.post_id IN ?", postIDs).
		Order("post_tags.post_id ASC, tags.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.PostID] = append(out[r.PostID], r.Name)
	}
	return out, nil
}
