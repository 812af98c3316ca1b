package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Dispatcher enqueues background tasks.
type Dispatcher struct {
	client *asynq.Client
}

// NewDispatcher connects an asynq client to the Redis instance at redisURL.
func NewDispatcher(redisURL string) (*Dispatcher, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse asynq redis url: %w", err)
	}
	return &Dispatcher{client: asynq.NewClient(opt)}, nil
}

// DispatchNotificationEmail schedules the e-mail copy of a notification.
// The task id is derived from the notification so a retried publish never mails twice.
func (d *Dispatcher) DispatchNotificationEmail(ctx context.Context, payload NotificationEmailPayload) error {
	task, err := NewNotificationEmailTask(payload)
	if err != nil {
		return err
	}

	_, err = d.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueMail),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
		asynq.TaskID(fmt.Sprintf("notification-email-%d", payload.NotificationID)),
	)
	if err != nil && err != asynq.ErrTaskIDConflict {
		return fmt.Errorf("enqueue notification email: %w", err)
	}
	return nil
}

// PurgeNow enqueues an immediate purge of expired notifications.
func (d *Dispatcher) PurgeNow(ctx context.Context) error {
	_, err := d.client.EnqueueContext(ctx, NewPurgeNotificationsTask(), asynq.Queue(QueueMaintenance), asynq.MaxRetry(1))
	return err
}

// Close releases the Redis connection.
func (d *Dispatcher) Close() error {
	return d.client.Close()
}
