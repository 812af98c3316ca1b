package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/led-platform-api/internal/models"
)

// EvaluationFilter narrows evaluation listings.
type EvaluationFilter struct {
	Page
	ActivityID  *uint
	EvaluatorID *uint
	ScholarID   *uint
	OwnerUserID *uint
	AdvisorID   *uint
}

// EvaluationRepository persists supervisor evaluations.
type EvaluationRepository interface {
	List(ctx context.Context, filter EvaluationFilter) ([]models.Evaluation, int64, error)
	GetByID(ctx context.Context, id uint) (models.Evaluation, error)
	Exists(ctx context.Context, activityID, evaluatorID uint) (bool, error)
	CreateForActivity(ctx context.Context, evaluation *models.Evaluation, from []string, next string) error
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Evaluation, error)
	Delete(ctx context.Context, id uint) error
	ScoresForScholar(ctx context.Context, scholarID uint) ([]float64, error)
	All(ctx context.Context) ([]models.Evaluation, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository constructs the evaluation repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) List(ctx context.Context, filter EvaluationFilter) ([]models.Evaluation, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Evaluation{})

	if filter.ActivityID != nil {
		query = query.Where("activity_id = ?", *filter.ActivityID)
	}
	if filter.EvaluatorID != nil {
		query = query.Where("evaluator_id = ?", *filter.EvaluatorID)
	}
	if filter.ScholarID != nil {
		activities := r.db.Model(&models.Activity{}).Select("id").Where("scholar_id = ?", *filter.ScholarID)
		query = query.Where("activity_id IN (?)", activities)
	}
	if filter.OwnerUserID != nil {
		scholars := r.db.Model(&models.Scholar{}).Select("id").Where("user_id = ?", *filter.OwnerUserID)
		activities := r.db.Model(&models.Activity{}).Select("id").Where("scholar_id IN (?)", scholars)
		query = query.Where("activity_id IN (?)", activities)
	}
	if filter.AdvisorID != nil {
		scholars := r.db.Model(&models.Scholar{}).Select("id").Where("advisor_id = ?", *filter.AdvisorID)
		activities := r.db.Model(&models.Activity{}).Select("id").Where("scholar_id IN (?)", scholars)
		query = query.Where("activity_id IN (?) OR evaluator_id = ?", activities, *filter.AdvisorID)
	}

	query, total, err := countAndPage(query, filter.Page, "")
	if err != nil {
		return nil, 0, err
	}

	var evaluations []models.Evaluation
	if err := query.Preload("Evaluator").Preload("Activity").Find(&evaluations).Error; err != nil {
		return nil, 0, err
	}
	return evaluations, total, nil
}

func (r *evaluationRepository) GetByID(ctx context.Context, id uint) (models.Evaluation, error) {
	var evaluation models.Evaluation
	err := r.db.WithContext(ctx).Preload("Evaluator").Preload("Activity.Scholar").First(&evaluation, id).Error
	if err != nil {
		return models.Evaluation{}, err
	}
	return evaluation, nil
}

func (r *evaluationRepository) Exists(ctx context.Context, activityID, evaluatorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Evaluation{}).
		Where("activity_id = ? AND evaluator_id = ?", activityID, evaluatorID).
		Count(&count).Error
	return count > 0, err
}

// CreateForActivity moves the activity from one of the from statuses to next and inserts the
// evaluation in one transaction. The status guard sits in the UPDATE itself, so an activity
// changed since it was read yields ErrStatusConflict and nothing is written.
func (r *evaluationRepository) CreateForActivity(ctx context.Context, evaluation *models.Evaluation, from []string, next string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Activity{}).
			Where("id = ? AND status IN ?", evaluation.ActivityID, from).
			Update("status", next)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Activity{}).Where("id = ?", evaluation.ActivityID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrStatusConflict
		}
		return tx.Omit(clause.Associations).Create(evaluation).Error
	})
}

func (r *evaluationRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Evaluation, error) {
	result := r.db.WithContext(ctx).Model(&models.Evaluation{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return models.Evaluation{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Evaluation{}, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *evaluationRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Evaluation{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *evaluationRepository) ScoresForScholar(ctx context.Context, scholarID uint) ([]float64, error) {
	var scores []float64
	activities := r.db.Model(&models.Activity{}).Select("id").Where("scholar_id = ?", scholarID)
	err := r.db.WithContext(ctx).Model(&models.Evaluation{}).
		Where("activity_id IN (?)", activities).
		Pluck("score", &scores).Error
	return scores, err
}

func (r *evaluationRepository) All(ctx context.Context) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	err := r.db.WithContext(ctx).Preload("Evaluator").Preload("Activity.Scholar.User").Order("id ASC").Find(&evaluations).Error
	return evaluations, err
}
