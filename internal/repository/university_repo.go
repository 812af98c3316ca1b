package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/led-platform-api/internal/models"
)

// UniversityRepository persists partner universities.
type UniversityRepository interface {
	List(ctx context.Context) ([]models.University, error)
	GetByID(ctx context.Context, id uint) (models.University, error)
	GetByCode(ctx context.Context, code string) (models.University, error)
	Create(ctx context.Context, university *models.University) error
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.University, error)
	Delete(ctx context.Context, id uint) error
	CountScholars(ctx context.Context, id uint) (int64, error)
}

type universityRepository struct {
	db *gorm.DB
}

// NewUniversityRepository constructs the university repository.
func NewUniversityRepository(db *gorm.DB) UniversityRepository {
	return &universityRepository{db: db}
}

func (r *universityRepository) List(ctx context.Context) ([]models.University, error) {
	var universities []models.University
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&universities).Error; err != nil {
		return nil, err
	}
	return universities, nil
}

func (r *universityRepository) GetByID(ctx context.Context, id uint) (models.University, error) {
	var university models.University
	if err := r.db.WithContext(ctx).First(&university, id).Error; err != nil {
		return models.University{}, err
	}
	return university, nil
}

func (r *universityRepository) GetByCode(ctx context.Context, code string) (models.University, error) {
	var university models.University
	if err := r.db.WithContext(ctx).Where("UPPER(code) = UPPER(?)", code).First(&university).Error; err != nil {
		return models.University{}, err
	}
	return university, nil
}

func (r *universityRepository) Create(ctx context.Context, university *models.University) error {
	return r.db.WithContext(ctx).Create(university).Error
}

func (r *universityRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.University, error) {
	result := r.db.WithContext(ctx).Model(&models.University{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return models.University{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.University{}, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *universityRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.University{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *universityRepository) CountScholars(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Scholar{}).Where("university_id = ?", id).Count(&count).Error
	return count, err
}
