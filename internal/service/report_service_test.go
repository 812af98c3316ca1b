package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/testutil"
)

func seedReportData(t *testing.T, c campus) {
	t.Helper()
	activities := []models.Activity{
		{ScholarID: c.scholar.ID, Title: "Pitch", Type: models.ActivityTypeEntrepreneuriat, Status: models.ActivityStatusEvaluated, StartDate: date(2024, 5, 3), Hours: 4, CreatedBy: c.student.ID},
		{ScholarID: c.scholar.ID, Title: "Forum", Type: models.ActivityTypeLeadership, Status: models.ActivityStatusCompleted, StartDate: date(2024, 5, 20), Hours: 2.5, CreatedBy: c.student.ID},
		{ScholarID: c.scholar.ID, Title: "Bootcamp", Type: models.ActivityTypeDigital, Status: models.ActivityStatusPlanned, StartDate: date(2024, 6, 1), Hours: 10, CreatedBy: c.student.ID},
	}
	for i := range activities {
		require.NoError(t, c.db.Create(&activities[i]).Error)
	}
	for _, e := range []models.Evaluation{
		{ActivityID: activities[0].ID, EvaluatorID: c.advisor.ID, Score: 92},
		{ActivityID: activities[0].ID, EvaluatorID: c.team.ID, Score: 78},
	} {
		e := e
		require.NoError(t, c.db.Create(&e).Error)
	}
}

func newReportFixture(t *testing.T, cache *redis.Client) (campus, ReportService) {
	t.Helper()
	c := newCampus(t)
	seedReportData(t, c)
	svc := NewReportService(ReportDeps{
		Reports:     repository.NewReportRepository(c.db),
		Scholars:    c.scholars,
		Activities:  c.activities,
		Evaluations: repository.NewEvaluationRepository(c.db),
		Cache:       cache,
		CacheTTL:    time.Minute,
	}, testutil.Logger())
	svc.(*reportService).now = func() time.Time { return date(2024, 6, 15) }
	return c, svc
}

func TestReportOverviewAggregatesAndCaches(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c, svc := newReportFixture(t, client)
	ctx := context.Background()

	report, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), report.Scholars.Total)
	require.Equal(t, int64(2), report.Scholars.ByStatus[models.ScholarStatusActive])
	require.Equal(t, int64(3), report.Activities.Total)
	require.Equal(t, int64(1), report.Activities.ByType[models.ActivityTypeDigital])
	require.Equal(t, int64(1), report.Activities.ByStatus[models.ActivityStatusEvaluated])
	require.Equal(t, 2, report.Evaluations.Count)
	require.NotNil(t, report.Evaluations.AverageScore)
	require.Equal(t, 85.0, *report.Evaluations.AverageScore)
	require.NotNil(t, report.Evaluations.AverageGPA)
	require.Equal(t, 3.0, *report.Evaluations.AverageGPA)
	require.Equal(t, 1, report.Evaluations.Distribution["A"])
	require.Equal(t, 1, report.Evaluations.Distribution["C"])

	require.Len(t, report.Monthly, 12)
	last := report.Monthly[len(report.Monthly)-1]
	require.Equal(t, "2024-06", last.Month)
	require.Equal(t, 1, last.Count)
	require.Equal(t, "2024-05", report.Monthly[len(report.Monthly)-2].Month)
	require.Equal(t, 2, report.Monthly[len(report.Monthly)-2].Count)

	require.True(t, mr.Exists(overviewCacheKey))

	newcomer := testutil.CreateUser(t, c.db, "late@example.com", models.RoleStudent)
	testutil.CreateScholar(t, c.db, newcomer.ID, nil)

	cached, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), cached.Scholars.Total, "served from cache")

	svc.InvalidateOverview(ctx)
	fresh, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), fresh.Scholars.Total)
}

func TestReportOverviewWithoutCache(t *testing.T) {
	_, svc := newReportFixture(t, nil)

	report, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), report.Activities.Total)
}

func TestScholarReport(t *testing.T) {
	c, svc := newReportFixture(t, nil)
	ctx := context.Background()

	report, err := svc.Scholar(ctx, actorOf(c.advisor), c.scholar.ID)
	require.NoError(t, err)
	require.Equal(t, 6.5, report.TotalHours, "planned activities do not count")
	require.Equal(t, 2, report.EvaluationCount)
	require.Equal(t, "B", report.LetterGrade)
	require.Equal(t, int64(1), report.ActivitiesByType[models.ActivityTypeLeadership])

	_, err = svc.Scholar(ctx, actorOf(c.stranger), c.scholar.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Scholar(ctx, actorOf(c.admin), 9999)
	require.ErrorIs(t, err, ErrScholarNotFound)
}

func TestReportExport(t *testing.T) {
	c, svc := newReportFixture(t, nil)
	ctx := context.Background()

	file, err := svc.Export(ctx, actorOf(c.team), DatasetEvaluations, "")
	require.NoError(t, err)
	require.Equal(t, "led-evaluations-20240615.csv", file.FileName)
	require.Contains(t, file.ContentType, "text/csv")

	rows, err := csv.NewReader(bytes.NewReader(file.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "Note", rows[0][4])
	require.Equal(t, "92.00", rows[1][4])
	require.Equal(t, "A", rows[1][5])

	xlsx, err := svc.Export(ctx, actorOf(c.admin), DatasetScholars, "xlsx")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(xlsx.Body, []byte("PK")))

	pdf, err := svc.Export(ctx, actorOf(c.admin), DatasetActivities, "pdf")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf.Body, []byte("%PDF")))

	_, err = svc.Export(ctx, actorOf(c.admin), "users", "csv")
	require.ErrorIs(t, err, ErrUnsupportedExport)
	_, err = svc.Export(ctx, actorOf(c.admin), DatasetScholars, "docx")
	require.ErrorIs(t, err, ErrUnsupportedExport)
	_, err = svc.Export(ctx, actorOf(c.advisor), DatasetScholars, "csv")
	require.ErrorIs(t, err, ErrForbidden)
}
