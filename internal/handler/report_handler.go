package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/led-platform-api/internal/middleware"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/service"
	"github.com/noah-isme/led-platform-api/internal/utils"
)

// ReportHandler serves dashboards and dataset exports.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(svc service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: svc,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches report endpoints.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/overview", middleware.RequireRole(models.RoleSupervisor, models.RoleLEDTeam, models.RoleAdmin), h.overview)
	router.Get("/scholars/:id", h.scholar)
	router.Get("/export", middleware.RequireRole(models.RoleLEDTeam, models.RoleAdmin), h.export)
}

func (h *ReportHandler) overview(c *fiber.Ctx) error {
	report, err := h.service.Overview(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Rapport global", report)
}

func (h *ReportHandler) scholar(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		report, err := h.service.Scholar(requestContext(c), actorFromContext(c), id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Rapport du boursier", report)
	})
}

func (h *ReportHandler) export(c *fiber.Ctx) error {
	file, err := h.service.Export(requestContext(c), actorFromContext(c), c.Query("dataset"), c.Query("format"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Attachment(file.FileName)
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentLength, strconv.Itoa(len(file.Body)))
	return c.Status(fiber.StatusOK).Send(file.Body)
}
