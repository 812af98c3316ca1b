package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/led-platform-api/internal/database"
	"github.com/noah-isme/led-platform-api/internal/jobs"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/service"
	"github.com/noah-isme/led-platform-api/pkg/mailer"
	"github.com/noah-isme/led-platform-api/pkg/search"
)

func newSeedCommand(e *env) *cobra.Command {
	var skipUniversities bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the first administrator and the reference universities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := e.openDB()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}

			seeder := service.NewSeedService(repository.NewUserRepository(db), repository.NewUniversityRepository(db), e.logger)
			universities := service.DefaultUniversities
			if skipUniversities {
				universities = nil
			}

			result, err := seeder.Run(cmd.Context(), e.cfg.SeedAdminEmail, e.cfg.SeedAdminPassword, universities)
			if err != nil {
				if errors.Is(err, service.ErrSeedCredentialsMissing) {
					return fmt.Errorf("set LED_SEED_ADMIN_EMAIL and LED_SEED_ADMIN_PASSWORD: %w", err)
				}
				return err
			}
			e.logger.Info().
				Bool("admin_created", result.AdminCreated).
				Int("universities_created", result.Universities).
				Msg("seed completed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipUniversities, "skip-universities", false, "only seed the administrator account")
	return cmd
}

func newWorkerCommand(e *env) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process e-mail jobs and the scheduled notification purge",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if e.cfg.RedisURL == "" {
				return errors.New("worker requires LED_REDIS_URL")
			}
			db, err := e.openDB()
			if err != nil {
				return err
			}

			deps := jobs.WorkerDeps{
				Users:         repository.NewUserRepository(db),
				Notifications: repository.NewNotificationRepository(db),
			}
			if e.cfg.SMTPHost != "" {
				sender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
					Host: e.cfg.SMTPHost,
					Port: e.cfg.SMTPPort,
					User: e.cfg.SMTPUser,
					Pass: e.cfg.SMTPPass,
					From: e.cfg.SMTPFrom,
				})
				if err != nil {
					return err
				}
				deps.Sender = sender
			} else {
				e.logger.Warn().Msg("smtp not configured, e-mail jobs are not handled")
			}

			if concurrency <= 0 {
				concurrency = e.cfg.WorkerConcurrency
			}
			return jobs.RunWorker(cmd.Context(), e.cfg.RedisURL, concurrency, deps, e.logger)
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent task handlers (defaults to LED_WORKER_CONCURRENCY)")
	return cmd
}

func newPurgeCommand(e *env) *cobra.Command {
	var enqueue bool

	cmd := &cobra.Command{
		Use:   "purge-notifications",
		Short: "Delete notifications past their expiry date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if enqueue {
				if e.cfg.RedisURL == "" {
					return errors.New("--enqueue requires LED_REDIS_URL")
				}
				dispatcher, err := jobs.NewDispatcher(e.cfg.RedisURL)
				if err != nil {
					return err
				}
				defer dispatcher.Close()
				if err := dispatcher.PurgeNow(cmd.Context()); err != nil {
					return fmt.Errorf("enqueue purge: %w", err)
				}
				e.logger.Info().Msg("purge task enqueued")
				return nil
			}

			db, err := e.openDB()
			if err != nil {
				return err
			}
			deleted, err := repository.NewNotificationRepository(db).DeleteExpired(cmd.Context(), time.Now().UTC())
			if err != nil {
				return err
			}
			e.logger.Info().Int64("deleted", deleted).Msg("expired notifications purged")
			return nil
		},
	}
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "hand the purge to the background worker instead of running it inline")
	return cmd
}

func newReindexCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search indexes from the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if e.cfg.ElasticURL == "" {
				return errors.New("reindex requires LED_ELASTIC_URL")
			}
			db, err := e.openDB()
			if err != nil {
				return err
			}
			client, err := search.Connect(e.cfg.ElasticURL, e.logger)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := client.EnsureIndexes(ctx); err != nil {
				return err
			}

			scholars, err := repository.NewScholarRepository(db).All(ctx)
			if err != nil {
				return err
			}
			scholarDocs := make([]search.ScholarDoc, 0, len(scholars))
			for _, s := range scholars {
				scholarDocs = append(scholarDocs, service.ScholarDocument(s))
			}
			if err := client.BulkScholars(ctx, scholarDocs); err != nil {
				return fmt.Errorf("index scholars: %w", err)
			}

			activities, err := repository.NewActivityRepository(db).All(ctx)
			if err != nil {
				return err
			}
			activityDocs := make([]search.ActivityDoc, 0, len(activities))
			for _, a := range activities {
				activityDocs = append(activityDocs, service.ActivityDocument(a))
			}
			if err := client.BulkActivities(ctx, activityDocs); err != nil {
				return fmt.Errorf("index activities: %w", err)
			}

			e.logger.Info().
				Int("scholars", len(scholarDocs)).
				Int("activities", len(activityDocs)).
				Msg("search indexes rebuilt")
			return nil
		},
	}
}
