package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/led-platform-api/internal/models"
)

// ActivityFilter narrows activity listings. OwnerUserID and AdvisorID restrict visibility
// to the activities of one student or of one supervisor's advisees.
type ActivityFilter struct {
	Page
	Type        string
	Status      string
	ScholarID   *uint
	OwnerUserID *uint
	AdvisorID   *uint
	From        *time.Time
	To          *time.Time
	Search      string
}

// ActivityRepository persists activities and their revision trail.
type ActivityRepository interface {
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error)
	GetByID(ctx context.Context, id uint) (models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, id uint, updates map[string]interface{}, revision *models.ActivityRevision) (models.Activity, error)
	Delete(ctx context.Context, id uint) error
	Revisions(ctx context.Context, id uint) ([]models.ActivityRevision, error)
	All(ctx context.Context) ([]models.Activity, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs the activity repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{})

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ScholarID != nil {
		query = query.Where("scholar_id = ?", *filter.ScholarID)
	}
	if filter.OwnerUserID != nil {
		owned := r.db.Model(&models.Scholar{}).Select("id").Where("user_id = ?", *filter.OwnerUserID)
		query = query.Where("scholar_id IN (?)", owned)
	}
	if filter.AdvisorID != nil {
		advised := r.db.Model(&models.Scholar{}).Select("id").Where("advisor_id = ?", *filter.AdvisorID)
		query = query.Where("scholar_id IN (?)", advised)
	}
	if filter.From != nil {
		query = query.Where("start_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("start_date <= ?", *filter.To)
	}
	if filter.Search != "" {
		like := likePattern(filter.Search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?", like, like, like)
	}

	query, total, err := countAndPage(query, filter.Page, "start_date DESC, id DESC")
	if err != nil {
		return nil, 0, err
	}

	var activities []models.Activity
	if err := query.Preload("Scholar.User").Find(&activities).Error; err != nil {
		return nil, 0, err
	}
	return activities, total, nil
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	err := r.db.WithContext(ctx).
		Preload("Scholar.User").
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Evaluations.Evaluator").
		First(&activity, id).Error
	if err != nil {
		return models.Activity{}, err
	}
	return activity, nil
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(activity).Error
}

// Update writes the changed columns and appends the revision atomically.
func (r *activityRepository) Update(ctx context.Context, id uint, updates map[string]interface{}, revision *models.ActivityRevision) (models.Activity, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Activity{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if revision != nil {
			revision.ActivityID = id
			if err := tx.Create(revision).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Activity{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes the activity with its revisions, evaluations and document rows.
func (r *activityRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.ActivityRevision{}, &models.Evaluation{}, &models.Document{}} {
			if err := tx.Where("activity_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		result := tx.Delete(&models.Activity{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *activityRepository) Revisions(ctx context.Context, id uint) ([]models.ActivityRevision, error) {
	var revisions []models.ActivityRevision
	err := r.db.WithContext(ctx).
		Where("activity_id = ?", id).
		Order("created_at DESC").Order("id DESC").
		Find(&revisions).Error
	return revisions, err
}

func (r *activityRepository) All(ctx context.Context) ([]models.Activity, error) {
	var activities []models.Activity
	err := r.db.WithContext(ctx).Preload("Scholar.User").Order("id ASC").Find(&activities).Error
	return activities, err
}
