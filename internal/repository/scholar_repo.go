package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/led-platform-api/internal/models"
)

// ScholarFilter narrows scholar listings. UserID and AdvisorID restrict visibility.
type ScholarFilter struct {
	Page
	Status       string
	UniversityID *uint
	Program      string
	AdvisorID    *uint
	UserID       *uint
	Search       string
}

// ScholarRepository persists scholars and their score history.
type ScholarRepository interface {
	List(ctx context.Context, filter ScholarFilter) ([]models.Scholar, int64, error)
	GetByID(ctx context.Context, id uint) (models.Scholar, error)
	GetByUserID(ctx context.Context, userID uint) (models.Scholar, error)
	ExistsForUser(ctx context.Context, userID uint) (bool, error)
	Create(ctx context.Context, scholar *models.Scholar) error
	Update(ctx context.Context, id uint, updates map[string]interface{}, history *models.ScholarScoreHistory) (models.Scholar, error)
	SoftDelete(ctx context.Context, id uint) error
	ScoreHistory(ctx context.Context, id uint) ([]models.ScholarScoreHistory, error)
	All(ctx context.Context) ([]models.Scholar, error)
}

type scholarRepository struct {
	db *gorm.DB
}

// NewScholarRepository constructs the scholar repository.
func NewScholarRepository(db *gorm.DB) ScholarRepository {
	return &scholarRepository{db: db}
}

func (r *scholarRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("University").Preload("Advisor")
}

func (r *scholarRepository) List(ctx context.Context, filter ScholarFilter) ([]models.Scholar, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Scholar{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UniversityID != nil {
		query = query.Where("university_id = ?", *filter.UniversityID)
	}
	if filter.Program != "" {
		query = query.Where("LOWER(program) LIKE ?", likePattern(filter.Program))
	}
	if filter.AdvisorID != nil {
		query = query.Where("advisor_id = ?", *filter.AdvisorID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Search != "" {
		like := likePattern(filter.Search)
		users := r.db.Model(&models.User{}).Select("id").
			Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
		query = query.Where("user_id IN (?) OR LOWER(student_number) LIKE ?", users, like)
	}

	query, total, err := countAndPage(query, filter.Page, "")
	if err != nil {
		return nil, 0, err
	}

	var scholars []models.Scholar
	if err := r.withRelations(query).Find(&scholars).Error; err != nil {
		return nil, 0, err
	}
	return scholars, total, nil
}

func (r *scholarRepository) GetByID(ctx context.Context, id uint) (models.Scholar, error) {
	var scholar models.Scholar
	if err := r.withRelations(r.db.WithContext(ctx)).First(&scholar, id).Error; err != nil {
		return models.Scholar{}, err
	}
	return scholar, nil
}

func (r *scholarRepository) GetByUserID(ctx context.Context, userID uint) (models.Scholar, error) {
	var scholar models.Scholar
	if err := r.withRelations(r.db.WithContext(ctx)).Where("user_id = ?", userID).First(&scholar).Error; err != nil {
		return models.Scholar{}, err
	}
	return scholar, nil
}

func (r *scholarRepository) ExistsForUser(ctx context.Context, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Scholar{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *scholarRepository) Create(ctx context.Context, scholar *models.Scholar) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(scholar).Error
}

// Update applies updates and, when history is non-nil, appends it in the same transaction.
func (r *scholarRepository) Update(ctx context.Context, id uint, updates map[string]interface{}, history *models.ScholarScoreHistory) (models.Scholar, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Scholar{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if history != nil {
			history.ScholarID = id
			if err := tx.Create(history).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Scholar{}, err
	}
	return r.GetByID(ctx, id)
}

// SoftDelete marks the scholar withdrawn and keeps the row.
func (r *scholarRepository) SoftDelete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Scholar{}).
		Where("id = ?", id).
		Update("status", models.ScholarStatusWithdrawn)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *scholarRepository) ScoreHistory(ctx context.Context, id uint) ([]models.ScholarScoreHistory, error) {
	var history []models.ScholarScoreHistory
	err := r.db.WithContext(ctx).
		Where("scholar_id = ?", id).
		Order("created_at DESC").Order("id DESC").
		Find(&history).Error
	return history, err
}

func (r *scholarRepository) All(ctx context.Context) ([]models.Scholar, error) {
	var scholars []models.Scholar
	err := r.withRelations(r.db.WithContext(ctx)).Order("id ASC").Find(&scholars).Error
	return scholars, err
}
