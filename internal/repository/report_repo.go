package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/led-platform-api/internal/models"
)

// ReportRepository supplies aggregates for reporting dashboards.
type ReportRepository interface {
	ScholarsByStatus(ctx context.Context) (map[string]int64, error)
	ActivitiesByType(ctx context.Context, scholarID *uint) (map[string]int64, error)
	ActivitiesByStatus(ctx context.Context, scholarID *uint) (map[string]int64, error)
	EvaluationScores(ctx context.Context) ([]float64, error)
	ActivityStartsSince(ctx context.Context, since time.Time) ([]time.Time, error)
	TotalHours(ctx context.Context, scholarID uint) (float64, error)
}

type reportRepository struct {
	db *gorm.DB
}

type groupCount struct {
	GroupKey string
	Total    int64
}

// NewReportRepository constructs the reporting repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) groupBy(query *gorm.DB, column string) (map[string]int64, error) {
	var rows []groupCount
	if err := query.Select(column + " AS group_key, COUNT(*) AS total").Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.GroupKey] = row.Total
	}
	return out, nil
}

func (r *reportRepository) ScholarsByStatus(ctx context.Context) (map[string]int64, error) {
	return r.groupBy(r.db.WithContext(ctx).Model(&models.Scholar{}), "status")
}

func (r *reportRepository) activityQuery(ctx context.Context, scholarID *uint) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Activity{})
	if scholarID != nil {
		query = query.Where("scholar_id = ?", *scholarID)
	}
	return query
}

func (r *reportRepository) ActivitiesByType(ctx context.Context, scholarID *uint) (map[string]int64, error) {
	return r.groupBy(r.activityQuery(ctx, scholarID), "type")
}

func (r *reportRepository) ActivitiesByStatus(ctx context.Context, scholarID *uint) (map[string]int64, error) {
	return r.groupBy(r.activityQuery(ctx, scholarID), "status")
}

func (r *reportRepository) EvaluationScores(ctx context.Context) ([]float64, error) {
	var scores []float64
	err := r.db.WithContext(ctx).Model(&models.Evaluation{}).Pluck("score", &scores).Error
	return scores, err
}

func (r *reportRepository) ActivityStartsSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var starts []time.Time
	err := r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("start_date >= ?", since).
		Pluck("start_date", &starts).Error
	return starts, err
}

func (r *reportRepository) TotalHours(ctx context.Context, scholarID uint) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("scholar_id = ? AND status IN ?", scholarID, []string{models.ActivityStatusCompleted, models.ActivityStatusSubmitted, models.ActivityStatusEvaluated}).
		Select("COALESCE(SUM(hours), 0)").
		Scan(&total).Error
	return total, err
}
