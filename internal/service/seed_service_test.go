package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/led-platform-api/internal/auth"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/testutil"
)

func TestSeedIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	universities := repository.NewUniversityRepository(db)
	svc := NewSeedService(users, universities, testutil.Logger())
	ctx := context.Background()

	_, err := svc.Run(ctx, "", "", DefaultUniversities)
	require.ErrorIs(t, err, ErrSeedCredentialsMissing)

	first, err := svc.Run(ctx, "Admin@LED.ma", "changeme123", DefaultUniversities)
	require.NoError(t, err)
	require.True(t, first.AdminCreated)
	require.Equal(t, len(DefaultUniversities), first.Universities)

	second, err := svc.Run(ctx, "admin@led.ma", "changeme123", DefaultUniversities)
	require.NoError(t, err)
	require.False(t, second.AdminCreated)
	require.Zero(t, second.Universities)

	admin, err := users.GetByEmail(ctx, "admin@led.ma")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, admin.Role)
	require.True(t, auth.CheckPassword(admin.PasswordHash, "changeme123"))

	created, err := svc.SeedUniversities(ctx, []models.University{{Name: "Université Ibn Zohr", Code: "uiz"}, {Name: "Sans code"}})
	require.NoError(t, err)
	require.Equal(t, 1, created)

	uiz, err := universities.GetByCode(ctx, "UIZ")
	require.NoError(t, err)
	require.Equal(t, "Université Ibn Zohr", uiz.Name)
}
