// Package jobs runs background work on asynq: notification e-mails and the purge of expired notifications.
package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TypeNotificationEmail  = "notification:email"
	TypePurgeNotifications = "notification:purge-expired"

	QueueMail        = "mail"
	QueueMaintenance = "maintenance"
)

// NotificationEmailPayload identifies the notification to mail to its recipient.
type NotificationEmailPayload struct {
	NotificationID uint   `json:"notification_id"`
	UserID         uint   `json:"user_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Link           string `json:"link,omitempty"`
}

// NewNotificationEmailTask builds the e-mail task for one notification.
func NewNotificationEmailTask(payload NotificationEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode notification email payload: %w", err)
	}
	return asynq.NewTask(TypeNotificationEmail, body), nil
}

// NewPurgeNotificationsTask builds the periodic purge task.
func NewPurgeNotificationsTask() *asynq.Task {
	return asynq.NewTask(TypePurgeNotifications, nil)
}
