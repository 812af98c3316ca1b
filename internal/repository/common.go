package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrStatusConflict reports that a guarded update found the row in an unexpected status.
var ErrStatusConflict = errors.New("row is not in an expected status")

// Page selects a window of a list query. Zero values mean "first page, default size".
type Page struct {
	Page  int
	Limit int
}

func (p Page) normalized() (int, int) {
	page, limit := p.Page, p.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// countAndPage counts the rows matching query then applies ordering and the page window.
func countAndPage(query *gorm.DB, page Page, order string) (*gorm.DB, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	p, limit := page.normalized()
	if order == "" {
		order = "created_at DESC"
	}
	return query.Order(order).Offset((p - 1) * limit).Limit(limit), total, nil
}

func likePattern(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	term = strings.NewReplacer("%", "", "_", "").Replace(term)
	return "%" + term + "%"
}
