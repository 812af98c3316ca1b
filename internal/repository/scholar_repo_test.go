package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/testutil"
)

func TestScholarListPagination(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewScholarRepository(db)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		user := testutil.CreateUser(t, db, fmt.Sprintf("boursier%d@example.com", i), models.RoleStudent)
		testutil.CreateScholar(t, db, user.ID, nil)
	}

	items, total, err := repo.List(ctx, ScholarFilter{Page: Page{Page: 2, Limit: 10}})
	require.NoError(t, err)
	require.Equal(t, int64(15), total)
	require.Len(t, items, 5)
	require.NotNil(t, items[0].User)
}

func TestScholarListSearchAndVisibility(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewScholarRepository(db)
	ctx := context.Background()

	advisor := testutil.CreateUser(t, db, "encadrant@example.com", models.RoleSupervisor)
	awa := testutil.CreateUser(t, db, "awa.diop@example.com", models.RoleStudent)
	moussa := testutil.CreateUser(t, db, "moussa@example.com", models.RoleStudent)
	testutil.CreateScholar(t, db, awa.ID, &advisor.ID)
	testutil.CreateScholar(t, db, moussa.ID, nil)

	items, total, err := repo.List(ctx, ScholarFilter{Search: "diop"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, awa.ID, items[0].UserID)

	items, _, err = repo.List(ctx, ScholarFilter{AdvisorID: &advisor.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, awa.ID, items[0].UserID)
}

func TestScholarSoftDeleteKeepsRow(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewScholarRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "retrait@example.com", models.RoleStudent)
	scholar := testutil.CreateScholar(t, db, user.ID, nil)

	require.NoError(t, repo.SoftDelete(ctx, scholar.ID))

	stored, err := repo.GetByID(ctx, scholar.ID)
	require.NoError(t, err)
	require.Equal(t, models.ScholarStatusWithdrawn, stored.Status)

	require.ErrorIs(t, repo.SoftDelete(ctx, 9999), gorm.ErrRecordNotFound)
}

func TestScholarUpdateWritesHistoryAtomically(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewScholarRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "score@example.com", models.RoleStudent)
	scholar := testutil.CreateScholar(t, db, user.ID, nil)

	updated, err := repo.Update(ctx, scholar.ID, map[string]interface{}{"score": 87.5}, &models.ScholarScoreHistory{
		NewScore:  87.5,
		ChangedBy: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Score)
	require.Equal(t, 87.5, *updated.Score)

	history, err := repo.ScoreHistory(ctx, scholar.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	_, err = repo.Update(ctx, 4242, map[string]interface{}{"score": 10.0}, &models.ScholarScoreHistory{NewScore: 10, ChangedBy: 1})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var orphans int64
	require.NoError(t, db.Model(&models.ScholarScoreHistory{}).Where("scholar_id = ?", 4242).Count(&orphans).Error)
	require.Zero(t, orphans)
}
