package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/testutil"
)

func TestUserCreateAndProfileRules(t *testing.T) {
	c := newCampus(t)
	svc := NewUserService(repository.NewUserRepository(c.db), newValidator(), testutil.Logger())
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.UserCreateRequest{
		Email: " Karim@Example.com ", Password: "motdepasse1", FirstName: "Karim", LastName: "Alaoui", Role: "SUPERVISOR",
	})
	require.NoError(t, err)
	require.Equal(t, "karim@example.com", created.Email)
	require.Equal(t, models.RoleSupervisor, created.Role)

	_, err = svc.Create(ctx, dto.UserCreateRequest{
		Email: "karim@example.com", Password: "motdepasse1", FirstName: "K", LastName: "A", Role: models.RoleStudent,
	})
	require.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Get(ctx, actorOf(c.student), c.other.ID)
	require.ErrorIs(t, err, ErrForbidden)
	self, err := svc.Get(ctx, actorOf(c.student), c.student.ID)
	require.NoError(t, err)
	require.Equal(t, c.student.Email, self.Email)

	phone := "+212600000000"
	updated, err := svc.Update(ctx, actorOf(c.student), c.student.ID, dto.UserUpdateRequest{Phone: &phone})
	require.NoError(t, err)
	require.Equal(t, phone, updated.Phone)

	role := models.RoleAdmin
	_, err = svc.Update(ctx, actorOf(c.student), c.student.ID, dto.UserUpdateRequest{Role: &role})
	require.ErrorIs(t, err, ErrForbidden)

	promoted, err := svc.Update(ctx, actorOf(c.admin), created.ID, dto.UserUpdateRequest{Role: &role})
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, promoted.Role)
}

func TestUserDeactivateAndSupervisors(t *testing.T) {
	c := newCampus(t)
	svc := NewUserService(repository.NewUserRepository(c.db), newValidator(), testutil.Logger())
	ctx := context.Background()

	supervisors, err := svc.Supervisors(ctx)
	require.NoError(t, err)
	require.Len(t, supervisors, 2)

	require.ErrorIs(t, svc.Deactivate(ctx, actorOf(c.team), c.stranger.ID), ErrForbidden)
	require.ErrorIs(t, svc.Deactivate(ctx, actorOf(c.admin), c.admin.ID), ErrForbidden)
	require.NoError(t, svc.Deactivate(ctx, actorOf(c.admin), c.stranger.ID))

	supervisors, err = svc.Supervisors(ctx)
	require.NoError(t, err)
	require.Len(t, supervisors, 1)
	require.Equal(t, c.advisor.ID, supervisors[0].ID)

	inactive := false
	items, meta, err := svc.List(ctx, dto.UserListRequest{IsActive: &inactive})
	require.NoError(t, err)
	require.Equal(t, int64(1), meta.Total)
	require.Equal(t, c.stranger.ID, items[0].ID)
}
