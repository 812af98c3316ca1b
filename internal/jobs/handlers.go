package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/pkg/mailer"
)

// UserLookup resolves notification recipients.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
}

// NotificationPurger deletes expired notifications.
type NotificationPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// HandleNotificationEmail mails a notification to its recipient. Missing or inactive
// recipients are skipped rather than retried.
func HandleNotificationEmail(sender mailer.Sender, users UserLookup, logger zerolog.Logger) asynq.HandlerFunc {
	log := logger.With().Str("component", "notification_email_job").Logger()

	return func(ctx context.Context, t *asynq.Task) error {
		var payload NotificationEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}

		user, err := users.GetByID(ctx, payload.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warn().Uint("user_id", payload.UserID).Msg("recipient not found, skipping email")
				return nil
			}
			return err
		}
		if !user.IsActive {
			return nil
		}

		html, err := mailer.RenderNotification(mailer.NotificationEmail{
			RecipientName: user.FullName(),
			Title:         payload.Title,
			Message:       payload.Message,
			Link:          payload.Link,
		})
		if err != nil {
			return fmt.Errorf("render email: %v: %w", err, asynq.SkipRetry)
		}

		if err := sender.Send(user.Email, "[LED] "+payload.Title, html); err != nil {
			return err
		}

		log.Info().Uint("notification_id", payload.NotificationID).Msg("notification email sent")
		return nil
	}
}

// HandlePurgeNotifications removes notifications past their expiry.
func HandlePurgeNotifications(repo NotificationPurger, logger zerolog.Logger) asynq.HandlerFunc {
	log := logger.With().Str("component", "notification_purge_job").Logger()

	return func(ctx context.Context, _ *asynq.Task) error {
		removed, err := repo.DeleteExpired(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		log.Info().Int64("removed", removed).Msg("expired notifications purged")
		return nil
	}
}
