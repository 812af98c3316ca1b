package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/led-platform-api/internal/config"
	"github.com/noah-isme/led-platform-api/internal/handler"
	"github.com/noah-isme/led-platform-api/internal/middleware"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/observability"
)

// Dependencies groups router dependencies for registration. Nil handlers are skipped.
type Dependencies struct {
	Tokens    middleware.TokenParser
	AuditSink middleware.AuditSink
	Probes    map[string]handler.HealthProbe

	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	UniversityHandler   *handler.UniversityHandler
	ScholarHandler      *handler.ScholarHandler
	ActivityHandler     *handler.ActivityHandler
	EvaluationHandler   *handler.EvaluationHandler
	DocumentHandler     *handler.DocumentHandler
	NotificationHandler *handler.NotificationHandler
	ReportHandler       *handler.ReportHandler
	SearchHandler       *handler.SearchHandler
	AuditHandler        *handler.AuditHandler
	WSHandler           *handler.WSHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/health", handler.HealthCheck(cfg, deps.Probes))
	app.Get("/metrics", observability.MetricsHandler())

	if (cfg.StorageDriver == "" || cfg.StorageDriver == "local") && strings.HasPrefix(cfg.StorageBaseURL, "/") {
		app.Static(cfg.StorageBaseURL, cfg.StoragePath, fiber.Static{Browse: false})
	}

	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	// Mounted ahead of the public routes so self-registration is audited too.
	if deps.AuditSink != nil {
		api.Use(middleware.Audit(deps.AuditSink, middleware.DefaultAuditSkip))
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.RegisterPublic(auth, middleware.RateLimit("login", cfg.LoginRateLimit, time.Minute))
	}

	jwt := func(c *fiber.Ctx) error { return c.Next() }
	if deps.Tokens != nil {
		jwt = middleware.JWTProtected(deps.Tokens)
	}

	protected := api.Group("", jwt)

	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterProtected(protected.Group("/auth"))
	}
	if deps.UserHandler != nil {
		deps.UserHandler.Register(protected.Group("/users"))
	}
	if deps.UniversityHandler != nil {
		deps.UniversityHandler.Register(protected.Group("/universities"))
	}
	if deps.ScholarHandler != nil {
		deps.ScholarHandler.Register(protected.Group("/scholars"))
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(protected.Group("/activities"))
	}
	if deps.EvaluationHandler != nil {
		deps.EvaluationHandler.Register(protected.Group("/evaluations"))
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.Register(protected.Group("/documents"))
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(protected.Group("/notifications"))
	}
	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(protected.Group("/reports"))
	}
	if deps.SearchHandler != nil {
		deps.SearchHandler.Register(protected.Group("/search"))
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(protected.Group("/audit-logs", middleware.RequireRole(models.RoleAdmin)))
	}

	if deps.WSHandler != nil {
		wsAuth := jwt
		if deps.Tokens != nil {
			wsAuth = middleware.JWTProtectedWithQuery(deps.Tokens)
		}
		deps.WSHandler.Register(app.Group("/ws", wsAuth))
	}
}
