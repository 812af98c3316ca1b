package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/led-platform-api/internal/models"
)

// AuditLogFilter narrows audit trail queries.
type AuditLogFilter struct {
	Page
	UserID     *uint
	EntityType string
	Method     string
}

// AuditLogRepository persists audit trail entries.
type AuditLogRepository interface {
	CreateBatch(ctx context.Context, entries []models.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository constructs the audit log repository.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) CreateBatch(ctx context.Context, entries []models.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&entries, 100).Error
}

func (r *auditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}

	query, total, err := countAndPage(query, filter.Page, "created_at DESC, id DESC")
	if err != nil {
		return nil, 0, err
	}

	var entries []models.AuditLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
