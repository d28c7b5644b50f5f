package service

import (
	"math"

	"gorm.io/gorm"
)

// Pagination is a 1-based page request
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination normalises page and limit. A non-positive limit falls back to
// defaultSize and anything above maxSize is clamped. Page is bounded so the
// offset always fits in an int32.
func NewPagination(page, limit, defaultSize, maxSize int) Pagination {
	if limit <= 0 {
		limit = defaultSize
	}
	if limit > maxSize {
		limit = maxSize
	}
	if limit < 1 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}
	if maxPage := math.MaxInt32/limit + 1; page > maxPage {
		page = maxPage
	}
	return Pagination{Page: page, Limit: limit}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// HasNext reports whether rows remain after this page
func (p Pagination) HasNext(count int64) bool {
	return int64(p.Page)*int64(p.Limit) < count
}

func (p Pagination) HasPrevious() bool {
	return p.Page > 1
}

func (p Pagination) scope(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Offset()).Limit(p.Limit)
}
