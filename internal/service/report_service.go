package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/export"
	"github.com/noah-isme/led-platform-api/internal/grading"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/observability"
	"github.com/noah-isme/led-platform-api/internal/repository"
)

const (
	overviewCacheKey = "reports:overview"
	monthlyWindow    = 12
)

// Export datasets.
const (
	DatasetScholars    = "scholars"
	DatasetActivities  = "activities"
	DatasetEvaluations = "evaluations"
)

// ReportService aggregates dashboards and renders exports.
type ReportService interface {
	Overview(ctx context.Context) (dto.OverviewReport, error)
	Scholar(ctx context.Context, actor Actor, scholarID uint) (dto.ScholarReport, error)
	Export(ctx context.Context, actor Actor, dataset, format string) (dto.ExportFile, error)
	InvalidateOverview(ctx context.Context)
}

// ReportDeps groups the read models of the report service. Cache may be nil.
type ReportDeps struct {
	Reports     repository.ReportRepository
	Scholars    repository.ScholarRepository
	Activities  repository.ActivityRepository
	Evaluations repository.EvaluationRepository
	Cache       *redis.Client
	CacheTTL    time.Duration
}

type reportService struct {
	ReportDeps
	logger zerolog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(deps ReportDeps, logger zerolog.Logger) ReportService {
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = 5 * time.Minute
	}
	return &reportService{
		ReportDeps: deps,
		logger:     logger.With().Str("component", "report_service").Logger(),
		tracer:     observability.Tracer("report_service"),
		now:        time.Now,
	}
}

func (s *reportService) Overview(ctx context.Context) (dto.OverviewReport, error) {
	ctx, span := s.tracer.Start(ctx, "reports.overview")
	span.SetAttributes(attribute.String("reports.cache_key", overviewCacheKey))
	defer span.End()

	if s.Cache != nil {
		cached, err := s.Cache.Get(ctx, overviewCacheKey).Result()
		switch {
		case err == nil:
			var report dto.OverviewReport
			if jsonErr := json.Unmarshal([]byte(cached), &report); jsonErr == nil {
				observability.ReportCache().WithLabelValues("hit").Inc()
				span.SetAttributes(attribute.Bool("reports.cache_hit", true))
				return report, nil
			}
		case !errors.Is(err, redis.Nil):
			s.logger.Warn().Err(err).Msg("failed to read report cache")
			span.RecordError(err)
		}
		observability.ReportCache().WithLabelValues("miss").Inc()
	}

	report, err := s.buildOverview(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate_failed")
		return dto.OverviewReport{}, err
	}

	if s.Cache != nil {
		if payload, err := json.Marshal(report); err == nil {
			if err := s.Cache.Set(ctx, overviewCacheKey, payload, s.CacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store report cache")
				span.RecordError(err)
			}
		}
	}
	return report, nil
}

// InvalidateOverview drops the cached dashboard so the next read recomputes it.
func (s *reportService) InvalidateOverview(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx, overviewCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate report cache")
	}
}

func (s *reportService) buildOverview(ctx context.Context) (dto.OverviewReport, error) {
	scholars, err := s.Reports.ScholarsByStatus(ctx)
	if err != nil {
		return dto.OverviewReport{}, err
	}
	byType, err := s.Reports.ActivitiesByType(ctx, nil)
	if err != nil {
		return dto.OverviewReport{}, err
	}
	byStatus, err := s.Reports.ActivitiesByStatus(ctx, nil)
	if err != nil {
		return dto.OverviewReport{}, err
	}
	scores, err := s.Reports.EvaluationScores(ctx)
	if err != nil {
		return dto.OverviewReport{}, err
	}

	now := s.now().UTC()
	since := monthStart(now).AddDate(0, -(monthlyWindow - 1), 0)
	starts, err := s.Reports.ActivityStartsSince(ctx, since)
	if err != nil {
		return dto.OverviewReport{}, err
	}

	return dto.OverviewReport{
		Scholars:    dto.ScholarStats{Total: sumCounts(scholars), ByStatus: scholars},
		Activities:  dto.ActivityStats{Total: sumCounts(byType), ByType: byType, ByStatus: byStatus},
		Evaluations: evaluationStats(scores),
		Monthly:     monthlyCounts(starts, since, monthlyWindow),
		GeneratedAt: now,
	}, nil
}

func (s *reportService) Scholar(ctx context.Context, actor Actor, scholarID uint) (dto.ScholarReport, error) {
	scholar, err := s.Scholars.GetByID(ctx, scholarID)
	if err != nil {
		return dto.ScholarReport{}, mapNotFound(err, ErrScholarNotFound)
	}
	if !canViewScholar(actor, scholar) {
		return dto.ScholarReport{}, ErrForbidden
	}

	byType, err := s.Reports.ActivitiesByType(ctx, &scholarID)
	if err != nil {
		return dto.ScholarReport{}, err
	}
	byStatus, err := s.Reports.ActivitiesByStatus(ctx, &scholarID)
	if err != nil {
		return dto.ScholarReport{}, err
	}
	hours, err := s.Reports.TotalHours(ctx, scholarID)
	if err != nil {
		return dto.ScholarReport{}, err
	}
	scores, err := s.Evaluations.ScoresForScholar(ctx, scholarID)
	if err != nil {
		return dto.ScholarReport{}, err
	}

	stats := evaluationStats(scores)
	report := dto.ScholarReport{
		Scholar:            dto.NewScholarResponse(scholar),
		ActivitiesByType:   byType,
		ActivitiesByStatus: byStatus,
		TotalHours:         grading.Round2(hours),
		EvaluationCount:    stats.Count,
		AverageScore:       stats.AverageScore,
		AverageGPA:         stats.AverageGPA,
		LetterGrade:        grading.NotAvailable,
	}
	if stats.AverageScore != nil {
		report.LetterGrade = grading.Letter(*stats.AverageScore)
	}
	return report, nil
}

func (s *reportService) Export(ctx context.Context, actor Actor, dataset, format string) (dto.ExportFile, error) {
	if !actor.IsStaff() {
		return dto.ExportFile{}, ErrForbidden
	}
	format, err := export.ParseFormat(format)
	if err != nil {
		return dto.ExportFile{}, ErrUnsupportedExport
	}

	ctx, span := s.tracer.Start(ctx, "reports.export")
	defer span.End()
	span.SetAttributes(attribute.String("export.dataset", dataset), attribute.String("export.format", format))

	var table export.Table
	switch dataset {
	case DatasetScholars:
		table, err = s.scholarTable(ctx)
	case DatasetActivities:
		table, err = s.activityTable(ctx)
	case DatasetEvaluations:
		table, err = s.evaluationTable(ctx)
	default:
		return dto.ExportFile{}, ErrUnsupportedExport
	}
	if err != nil {
		span.RecordError(err)
		return dto.ExportFile{}, err
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, table); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render_failed")
		return dto.ExportFile{}, err
	}

	observability.Exports().WithLabelValues(dataset, format).Inc()
	s.logger.Info().Str("dataset", dataset).Str("format", format).Int("rows", len(table.Rows)).Uint("user_id", actor.ID).Msg("report exported")

	return dto.ExportFile{
		FileName:    fmt.Sprintf("led-%s-%s.%s", dataset, s.now().UTC().Format("20060102"), format),
		ContentType: export.ContentType(format),
		Body:        buf.Bytes(),
	}, nil
}

func (s *reportService) scholarTable(ctx context.Context) (export.Table, error) {
	scholars, err := s.Scholars.All(ctx)
	if err != nil {
		return export.Table{}, err
	}
	table := export.Table{
		Title:   "Boursiers",
		Headers: []string{"ID", "Nom", "Email", "Université", "Programme", "Matricule", "Promotion", "Statut", "Note", "Mention", "GPA"},
	}
	for _, sc := range scholars {
		name, email := userCells(sc.User)
		university := ""
		if sc.University != nil {
			university = sc.University.Name
		}
		score, letter, gpa := scoreCells(sc.Score)
		table.Rows = append(table.Rows, []string{
			strconv.FormatUint(uint64(sc.ID), 10), name, email, university, sc.Program, sc.StudentNumber,
			strconv.Itoa(sc.AdmissionYear), sc.Status, score, letter, gpa,
		})
	}
	return table, nil
}

func (s *reportService) activityTable(ctx context.Context) (export.Table, error) {
	activities, err := s.Activities.All(ctx)
	if err != nil {
		return export.Table{}, err
	}
	table := export.Table{
		Title:   "Activités",
		Headers: []string{"ID", "Titre", "Boursier", "Type", "Statut", "Début", "Fin", "Heures", "Lieu"},
	}
	for _, a := range activities {
		owner := ""
		if a.Scholar != nil {
			owner, _ = userCells(a.Scholar.User)
		}
		end := ""
		if a.EndDate != nil {
			end = a.EndDate.Format("2006-01-02")
		}
		table.Rows = append(table.Rows, []string{
			strconv.FormatUint(uint64(a.ID), 10), a.Title, owner, a.Type, a.Status,
			a.StartDate.Format("2006-01-02"), end, strconv.FormatFloat(a.Hours, 'f', -1, 64), a.Location,
		})
	}
	return table, nil
}

func (s *reportService) evaluationTable(ctx context.Context) (export.Table, error) {
	evaluations, err := s.Evaluations.All(ctx)
	if err != nil {
		return export.Table{}, err
	}
	table := export.Table{
		Title:   "Évaluations",
		Headers: []string{"ID", "Activité", "Boursier", "Évaluateur", "Note", "Mention", "GPA", "Date"},
	}
	for _, e := range evaluations {
		activity, owner := "", ""
		if e.Activity != nil {
			activity = e.Activity.Title
			if e.Activity.Scholar != nil {
				owner, _ = userCells(e.Activity.Scholar.User)
			}
		}
		evaluator, _ := userCells(e.Evaluator)
		score, letter, gpa := scoreCells(&e.Score)
		table.Rows = append(table.Rows, []string{
			strconv.FormatUint(uint64(e.ID), 10), activity, owner, evaluator, score, letter, gpa,
			e.CreatedAt.Format("2006-01-02"),
		})
	}
	return table, nil
}

func userCells(u *models.User) (string, string) {
	if u == nil {
		return "", ""
	}
	return u.FullName(), u.Email
}

func scoreCells(score *float64) (string, string, string) {
	if score == nil {
		return "", grading.NotAvailable, ""
	}
	result := grading.Convert(*score)
	gpa := ""
	if result.Valid {
		gpa = strconv.FormatFloat(result.GPA, 'f', 2, 64)
	}
	return strconv.FormatFloat(*score, 'f', 2, 64), result.Letter, gpa
}

func evaluationStats(scores []float64) dto.EvaluationStats {
	stats := dto.EvaluationStats{Count: len(scores), Distribution: grading.Distribution(scores)}
	if avg, ok := grading.AverageScore(scores); ok {
		stats.AverageScore = &avg
	}
	if gpa, ok := grading.AverageGPA(scores); ok {
		stats.AverageGPA = &gpa
	}
	return stats
}

func sumCounts(counts map[string]int64) int64 {
	var total int64
	for _, n := range counts {
		total += n
	}
	return total
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// monthlyCounts buckets start dates per month, emitting every month of the window even when empty.
func monthlyCounts(starts []time.Time, since time.Time, months int) []dto.MonthlyCount {
	buckets := make(map[string]int, months)
	for _, t := range starts {
		buckets[t.UTC().Format("2006-01")]++
	}
	keys := make([]string, 0, months)
	for i := 0; i < months; i++ {
		keys = append(keys, since.AddDate(0, i, 0).Format("2006-01"))
	}
	sort.Strings(keys)
	out := make([]dto.MonthlyCount, 0, months)
	for _, k := range keys {
		out = append(out, dto.MonthlyCount{Month: k, Count: buckets[k]})
	}
	return out
}
