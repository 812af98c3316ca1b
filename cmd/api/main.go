package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/led-platform-api/internal/auth"
	"github.com/noah-isme/led-platform-api/internal/config"
	"github.com/noah-isme/led-platform-api/internal/database"
	"github.com/noah-isme/led-platform-api/internal/handler"
	"github.com/noah-isme/led-platform-api/internal/jobs"
	"github.com/noah-isme/led-platform-api/internal/middleware"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/router"
	"github.com/noah-isme/led-platform-api/internal/service"
	"github.com/noah-isme/led-platform-api/internal/utils"
	"github.com/noah-isme/led-platform-api/pkg/search"
	"github.com/noah-isme/led-platform-api/pkg/storage"
)

// bodySlack leaves room for multipart framing around the largest accepted upload.
const bodySlack = 1 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", cfg.AppName).Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(rootCtx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis disabled: caches, fan-out and e-mail jobs are off")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
	}

	var index service.SearchIndex
	if cfg.ElasticURL != "" {
		client, err := search.Connect(cfg.ElasticURL, logger)
		if err != nil {
			log.Fatalf("failed to create elasticsearch client: %v", err)
		}
		if err := client.EnsureIndexes(rootCtx); err != nil {
			logger.Warn().Err(err).Msg("elasticsearch indexes unavailable, search falls back to the database")
		}
		index = client
	}

	var dispatcher *jobs.Dispatcher
	var email service.EmailDispatcher
	if cfg.RedisURL != "" && cfg.SMTPHost != "" {
		dispatcher, err = jobs.NewDispatcher(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to create job dispatcher: %v", err)
		}
		email = dispatcher
	}

	files, err := newStorage(cfg, logger)
	if err != nil {
		log.Fatalf("failed to configure storage: %v", err)
	}

	validate := utils.NewValidator()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	userRepo := repository.NewUserRepository(db)
	universityRepo := repository.NewUniversityRepository(db)
	scholarRepo := repository.NewScholarRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, userRepo, service.NotificationOptions{
		Redis: redisClient,
		NATS:  natsConn,
		Email: email,
		TTL:   cfg.NotificationTTL,
	}, validate, logger)
	notificationService.Start(rootCtx)

	auditService := service.NewAuditService(auditRepo, cfg.AuditQueueSize, logger)
	auditService.Start(rootCtx)

	authService := service.NewAuthService(userRepo, tokens, validate, logger)
	userService := service.NewUserService(userRepo, validate, logger)
	universityService := service.NewUniversityService(universityRepo, cfg.ReferenceCacheTTL, validate, logger)
	scholarService := service.NewScholarService(scholarRepo, userRepo, universityRepo, index, validate, logger)
	activityService := service.NewActivityService(service.ActivityDeps{
		Activities: activityRepo,
		Scholars:   scholarRepo,
		Documents:  documentRepo,
		Storage:    files,
		Notifier:   notificationService,
		Index:      index,
	}, validate, logger)
	evaluationService := service.NewEvaluationService(evaluationRepo, activityRepo, notificationService, validate, logger)
	documentService := service.NewDocumentService(service.DocumentDeps{
		Documents:  documentRepo,
		Activities: activityRepo,
		Scholars:   scholarRepo,
		Storage:    files,
		Notifier:   notificationService,
		MaxBytes:   cfg.UploadMaxBytes,
	}, validate, logger)
	reportService := service.NewReportService(service.ReportDeps{
		Reports:     reportRepo,
		Scholars:    scholarRepo,
		Activities:  activityRepo,
		Evaluations: evaluationRepo,
		Cache:       redisClient,
		CacheTTL:    cfg.ReportCacheTTL,
	}, logger)
	searchService := service.NewSearchService(service.SearchDeps{
		Index:      index,
		Scholars:   scholarRepo,
		Activities: activityRepo,
		Users:      userRepo,
		Documents:  documentRepo,
	}, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.UploadMaxBytes) + bodySlack,
		ErrorHandler: middleware.ErrorHandler(logger, cfg.IsProduction()),
	})

	middleware.Register(app, middleware.Config{Logger: &logger, CORSOrigins: cfg.CORSOrigins})
	router.Register(app, cfg, router.Dependencies{
		Tokens:    tokens,
		AuditSink: auditService,
		Probes:    healthProbes(db, redisClient, natsConn),

		AuthHandler:         handler.NewAuthHandler(authService, logger),
		UserHandler:         handler.NewUserHandler(userService, logger),
		UniversityHandler:   handler.NewUniversityHandler(universityService, logger),
		ScholarHandler:      handler.NewScholarHandler(scholarService, logger),
		ActivityHandler:     handler.NewActivityHandler(activityService, logger),
		EvaluationHandler:   handler.NewEvaluationHandler(evaluationService, logger),
		DocumentHandler:     handler.NewDocumentHandler(documentService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
		ReportHandler:       handler.NewReportHandler(reportService, logger),
		SearchHandler:       handler.NewSearchHandler(searchService, logger),
		AuditHandler:        handler.NewAuditHandler(auditService, logger),
		WSHandler:           handler.NewWSHandler(notificationService, logger),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger, func(ctx context.Context) {
		if err := auditService.Close(ctx); err != nil {
			logger.Warn().Err(err).Msg("audit queue not fully flushed")
		}
		cancelRoot()
		if natsConn != nil {
			if err := natsConn.Drain(); err != nil {
				logger.Warn().Err(err).Msg("nats drain failed")
			}
		}
		if dispatcher != nil {
			_ = dispatcher.Close()
		}
	})
}

func newStorage(cfg config.Config, logger zerolog.Logger) (storage.FileStorage, error) {
	if cfg.StorageDriver == "cloudinary" {
		return storage.NewCloudinaryStorage(storage.CloudinaryConfig{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
	}
	return storage.NewLocalStorage(cfg.StoragePath, cfg.StorageBaseURL)
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if natsConn != nil {
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return errors.New("nats disconnected")
			}
			return nil
		}
	}
	return probes
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger, cleanup func(ctx context.Context)) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	cleanup(ctx)

	logger.Info().Msg("server stopped")
}
