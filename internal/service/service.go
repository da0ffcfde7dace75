// Package service implements the group, post, comment and image use cases on
// top of the repositories and notifies the badge engine after commits.
package service

import (
	"context"
	"errors"

	"memoria/internal/badge"
	"memoria/internal/models"

	"gorm.io/gorm"
)

// Default and maximum page sizes for list endpoints.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// BadgeTriggers receives events after the corresponding write has committed.
type BadgeTriggers interface {
	OnPostCreated(ctx context.Context, ev badge.PostCreated)
	OnPostLiked(ctx context.Context, ev badge.PostLiked)
	OnGroupLiked(ctx context.Context, ev badge.GroupLiked)
}

type noopTriggers struct{}

func (noopTriggers) OnPostCreated(context.Context, badge.PostCreated) {}
func (noopTriggers) OnPostLiked(context.Context, badge.PostLiked) {}
func (noopTriggers) OnGroupLiked(context.Context, badge.GroupLiked) {}

func triggersOrNoop(t BadgeTriggers) BadgeTriggers {
	if t == nil {
		return noopTriggers{}
	}
	return t
}

// repoError turns a repository error into an AppError.
func repoError(resource string, id uint, err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	return models.NewValidationError(err.Error())
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
