package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/service"
	"github.com/noah-isme/led-platform-api/internal/utils"
)

// AuditHandler lists the audit trail. Mount it behind an admin-only group.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(svc service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: svc,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches the audit endpoint.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	userID, err := parseQueryUint(c, "user_id")
	if err != nil {
		return queryError(c, err)
	}

	req := dto.AuditLogListRequest{
		PageRequest: pageRequest(c),
		UserID:      userID,
		EntityType:  c.Query("entity_type"),
		Method:      c.Query("method"),
	}
	items, meta, err := h.service.List(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, items, "Journal d'audit", meta)
}
