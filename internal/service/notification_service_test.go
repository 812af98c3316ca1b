package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/jobs"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/testutil"
)

type recordingDispatcher struct {
	mu       sync.Mutex
	payloads []jobs.NotificationEmailPayload
}

func (r *recordingDispatcher) DispatchNotificationEmail(_ context.Context, payload jobs.NotificationEmailPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload)
	return nil
}

func newNotificationFixture(t *testing.T, opts NotificationOptions) (campus, NotificationService) {
	t.Helper()
	c := newCampus(t)
	svc := NewNotificationService(
		repository.NewNotificationRepository(c.db),
		repository.NewUserRepository(c.db),
		opts,
		newValidator(),
		testutil.Logger(),
	)
	return c, svc
}

func receive(t *testing.T, ch <-chan NotificationEvent) NotificationEvent {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification event")
		return NotificationEvent{}
	}
}

func TestNotifyPersistsAndPushesToSubscribers(t *testing.T) {
	c, svc := newNotificationFixture(t, NotificationOptions{TTL: time.Hour})
	ctx := context.Background()

	events, cancel := svc.Subscribe(c.student.ID)
	defer cancel()

	require.NoError(t, svc.Notify(ctx, c.student.ID, models.NotificationTypeReminder, "Rappel", "Rapport <i>attendu</i>", "/activities/1"))

	event := receive(t, events)
	require.Equal(t, EventNotification, event.Kind)
	require.NotNil(t, event.Notification)
	require.Equal(t, "Rapport attendu", event.Notification.Message)
	require.NotNil(t, event.Notification.ExpiresAt, "default ttl applies")

	count, err := svc.UnreadCount(ctx, c.student.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	read, err := svc.MarkRead(ctx, c.student.ID, event.Notification.ID)
	require.NoError(t, err)
	require.True(t, read.Read)

	ack := receive(t, events)
	require.Equal(t, EventRead, ack.Kind)
	require.Equal(t, event.Notification.ID, ack.ID)

	_, err = svc.MarkRead(ctx, c.other.ID, event.Notification.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestNotificationSendByRoleAndEmail(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	c, svc := newNotificationFixture(t, NotificationOptions{Email: dispatcher})
	ctx := context.Background()

	_, err := svc.Send(ctx, actorOf(c.student), dto.NotificationCreateRequest{Role: models.RoleStudent, Title: "x", Message: "y"})
	require.ErrorIs(t, err, ErrForbidden)

	resp, err := svc.Send(ctx, actorOf(c.team), dto.NotificationCreateRequest{
		Role:      "Student",
		Title:     "Journée LED",
		Message:   "Rendez-vous samedi",
		SendEmail: true,
	})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Recipients)
	require.Len(t, dispatcher.payloads, 2)

	items, meta, err := svc.List(ctx, c.other.ID, dto.NotificationListRequest{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int64(1), meta.Total)
	require.Equal(t, models.NotificationTypeInfo, items[0].Type)

	_, err = svc.Send(ctx, actorOf(c.team), dto.NotificationCreateRequest{UserIDs: []uint{9999}, Title: "x", Message: "y"})
	require.ErrorIs(t, err, ErrNoRecipients)
}

func TestNotificationMarkAllReadAndExpiry(t *testing.T) {
	c, svc := newNotificationFixture(t, NotificationOptions{})
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	_, err := svc.Send(ctx, actorOf(c.admin), dto.NotificationCreateRequest{UserIDs: []uint{c.student.ID}, Title: "Ancien", Message: "expiré", ExpiresAt: &past})
	require.NoError(t, err)
	require.NoError(t, svc.Notify(ctx, c.student.ID, "", "Nouveau", "actif", ""))
	require.NoError(t, svc.Notify(ctx, c.student.ID, "", "Autre", "actif", ""))

	unread, count, err := svc.Unread(ctx, c.student.ID, 10)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	require.Equal(t, int64(2), count)

	updated, err := svc.MarkAllRead(ctx, c.student.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated)

	count, err = svc.UnreadCount(ctx, c.student.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestNotificationFanOutAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = clientA.Close()
		_ = clientB.Close()
	})

	c, instanceA := newNotificationFixture(t, NotificationOptions{Redis: clientA})
	instanceB := NewNotificationService(
		repository.NewNotificationRepository(c.db),
		repository.NewUserRepository(c.db),
		NotificationOptions{Redis: clientB},
		newValidator(),
		testutil.Logger(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	instanceA.Start(ctx)
	instanceB.Start(ctx)

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(notificationChannel)[notificationChannel] == 2
	}, 2*time.Second, 10*time.Millisecond)

	local, closeLocal := instanceA.Subscribe(c.student.ID)
	defer closeLocal()
	remote, closeRemote := instanceB.Subscribe(c.student.ID)
	defer closeRemote()

	require.NoError(t, instanceA.Notify(context.Background(), c.student.ID, models.NotificationTypeSystem, "Maintenance", "Ce soir", ""))

	require.Equal(t, "Maintenance", receive(t, local).Notification.Title)
	require.Equal(t, "Maintenance", receive(t, remote).Notification.Title)

	select {
	case dup := <-local:
		t.Fatalf("origin instance received its own event twice: %+v", dup)
	case <-time.After(100 * time.Millisecond):
	}
}
