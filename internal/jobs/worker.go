package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/led-platform-api/pkg/mailer"
)

// PurgeSchedule is the cron spec of the expired-notification purge.
const PurgeSchedule = "@every 1h"

// WorkerDeps are the collaborators task handlers need.
type WorkerDeps struct {
	Sender        mailer.Sender
	Users         UserLookup
	Notifications NotificationPurger
}

// NewMux registers every task handler.
func NewMux(deps WorkerDeps, logger zerolog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	if deps.Sender != nil {
		mux.HandleFunc(TypeNotificationEmail, HandleNotificationEmail(deps.Sender, deps.Users, logger))
	}
	mux.HandleFunc(TypePurgeNotifications, HandlePurgeNotifications(deps.Notifications, logger))
	return mux
}

// RunWorker processes tasks and runs the purge scheduler until ctx is cancelled.
func RunWorker(ctx context.Context, redisURL string, concurrency int, deps WorkerDeps, logger zerolog.Logger) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return fmt.Errorf("parse asynq redis url: %w", err)
	}

	log := logger.With().Str("component", "worker").Logger()
	adapter := asynqLogger{log: log}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueMail:        6,
			QueueMaintenance: 1,
		},
		Logger: adapter,
	})

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Logger: adapter})
	if _, err := scheduler.Register(PurgeSchedule, NewPurgeNotificationsTask(), asynq.Queue(QueueMaintenance)); err != nil {
		return fmt.Errorf("register purge schedule: %w", err)
	}

	if err := srv.Start(NewMux(deps, logger)); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	if err := scheduler.Start(); err != nil {
		srv.Shutdown()
		return fmt.Errorf("start scheduler: %w", err)
	}

	log.Info().Int("concurrency", concurrency).Msg("worker started")
	<-ctx.Done()

	scheduler.Shutdown()
	srv.Shutdown()
	log.Info().Msg("worker stopped")
	return nil
}

type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msg(fmt.Sprint(args...)) }
