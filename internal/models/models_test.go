package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestActivityTransitions(t *testing.T) {
	require.True(t, CanTransitionActivity(ActivityStatusPlanned, ActivityStatusInProgress))
	require.True(t, CanTransitionActivity(ActivityStatusCompleted, ActivityStatusSubmitted))
	require.True(t, CanTransitionActivity(ActivityStatusSubmitted, ActivityStatusEvaluated))
	require.False(t, CanTransitionActivity(ActivityStatusPlanned, ActivityStatusEvaluated))
	require.False(t, CanTransitionActivity(ActivityStatusEvaluated, ActivityStatusPlanned))
	require.False(t, CanTransitionActivity(ActivityStatusCancelled, ActivityStatusPlanned))
}

func TestStringListRoundTrip(t *testing.T) {
	raw := EncodeStringList([]string{"pitch", "mentorat"})
	require.Equal(t, []string{"pitch", "mentorat"}, DecodeStringList(raw))
	require.Equal(t, "[]", string(EncodeStringList(nil)))
	require.Empty(t, DecodeStringList(datatypes.JSON(`{"broken":`)))
}

func TestRolesAreCaseInsensitive(t *testing.T) {
	require.True(t, IsValidRole("STUDENT"))
	require.True(t, IsStaffRole("LED_TEAM"))
	require.False(t, IsStaffRole(RoleSupervisor))
	require.False(t, IsValidRole("teacher"))
}

func TestNotificationExpiry(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	require.True(t, Notification{ExpiresAt: &past}.IsExpired(now))
	require.False(t, Notification{}.IsExpired(now))
}
