package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/led-platform-api/internal/models"
)

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	Page
	OwnerID    *uint
	ScholarID  *uint
	ActivityID *uint
	Category   string
	Verified   *bool
	AdvisorID  *uint
	Search     string
}

// DocumentRepository persists uploaded file metadata.
type DocumentRepository interface {
	Create(ctx context.Context, document *models.Document) error
	GetByID(ctx context.Context, id uint) (models.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]models.Document, int64, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Document, error)
	Delete(ctx context.Context, id uint) error
	ListByActivity(ctx context.Context, activityID uint) ([]models.Document, error)
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository constructs the document repository.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, document *models.Document) error {
	return r.db.WithContext(ctx).Create(document).Error
}

func (r *documentRepository) GetByID(ctx context.Context, id uint) (models.Document, error) {
	var document models.Document
	if err := r.db.WithContext(ctx).First(&document, id).Error; err != nil {
		return models.Document{}, err
	}
	return document, nil
}

func (r *documentRepository) List(ctx context.Context, filter DocumentFilter) ([]models.Document, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Document{})

	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.ScholarID != nil {
		query = query.Where("scholar_id = ?", *filter.ScholarID)
	}
	if filter.ActivityID != nil {
		query = query.Where("activity_id = ?", *filter.ActivityID)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Verified != nil {
		query = query.Where("verified = ?", *filter.Verified)
	}
	if filter.Search != "" {
		like := likePattern(filter.Search)
		query = query.Where("LOWER(file_name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if filter.AdvisorID != nil {
		advised := r.db.Model(&models.Scholar{}).Select("id").Where("advisor_id = ?", *filter.AdvisorID)
		query = query.Where("scholar_id IN (?) OR owner_id = ?", advised, *filter.AdvisorID)
	}

	query, total, err := countAndPage(query, filter.Page, "")
	if err != nil {
		return nil, 0, err
	}

	var documents []models.Document
	if err := query.Find(&documents).Error; err != nil {
		return nil, 0, err
	}
	return documents, total, nil
}

func (r *documentRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Document, error) {
	result := r.db.WithContext(ctx).Model(&models.Document{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return models.Document{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Document{}, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *documentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Document{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *documentRepository) ListByActivity(ctx context.Context, activityID uint) ([]models.Document, error) {
	var documents []models.Document
	err := r.db.WithContext(ctx).Where("activity_id = ?", activityID).Find(&documents).Error
	return documents, err
}
