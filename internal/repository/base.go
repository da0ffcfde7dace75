// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// Sort keys accepted by list queries.
const (
	SortLatest        = "latest"
	SortMostPosted    = "mostPosted"
	SortMostLiked     = "mostLiked"
	SortMostBadge     = "mostBadge"
	SortMostCommented = "mostCommented"
)

// ListQuery carries pagination and filtering for group and post lists.
type ListQuery struct {
	Page     int
	PageSize int
	SortBy   string
	Keyword  string
	IsPublic *bool
}

func (q ListQuery) offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

func likePattern(keyword string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(keyword))
	return "%" + escaped + "%"
}

// IsUniqueViolation reports whether err came from a unique or primary key conflict,
// on either PostgreSQL or SQLite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// findPage counts the rows matched by q, then loads one ordered page of them.
func findPage[T any](q *gorm.DB, limit, offset int, orders ...string) ([]*T, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*T{}, 0, nil
	}

	page := q.Session(&gorm.Session{})
	for _, o := range orders {
		page = page.Order(o)
	}
	var rows []*T
	if err := page.Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
