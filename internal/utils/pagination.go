package utils

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PaginationMeta is attached to every list response.
type PaginationMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NormalizePage clamps page and limit to the accepted range.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Offset returns the row offset for a normalised page.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// NewPaginationMeta builds metadata for a result set of total rows.
func NewPaginationMeta(page, limit int, total int64) PaginationMeta {
	page, limit = NormalizePage(page, limit)
	pages := 0
	if total > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return PaginationMeta{Page: page, Limit: limit, Total: total, Pages: pages}
}
