package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/middleware"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/service"
	"github.com/noah-isme/led-platform-api/internal/utils"
)

// NotificationHandler exposes the caller's inbox and the staff broadcast endpoint.
type NotificationHandler struct {
	service service.NotificationService
	logger  zerolog.Logger
}

// NewNotificationHandler constructs a handler instance.
func NewNotificationHandler(svc service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: svc,
		logger:  logger.With().Str("component", "notification_handler").Logger(),
	}
}

// Register binds the notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/unread-count", h.unreadCount)
	router.Patch("/read-all", h.markAllRead)
	router.Patch("/:id/read", h.markRead)
	router.Delete("/:id", h.delete)
	router.Post("/", middleware.RequireRole(models.RoleLEDTeam, models.RoleAdmin), h.send)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	unread, err := parseQueryBool(c, "unread")
	if err != nil {
		return queryError(c, err)
	}

	req := dto.NotificationListRequest{PageRequest: pageRequest(c), UnreadOnly: unread != nil && *unread}
	items, meta, err := h.service.List(requestContext(c), actorFromContext(c).ID, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, items, "Notifications récupérées", meta)
}

func (h *NotificationHandler) unreadCount(c *fiber.Ctx) error {
	count, err := h.service.UnreadCount(requestContext(c), actorFromContext(c).ID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Notifications non lues", dto.UnreadCountResponse{Count: count})
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		n, err := h.service.MarkRead(requestContext(c), actorFromContext(c).ID, id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Notification marquée comme lue", n)
	})
}

func (h *NotificationHandler) markAllRead(c *fiber.Ctx) error {
	updated, err := h.service.MarkAllRead(requestContext(c), actorFromContext(c).ID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Notifications marquées comme lues", dto.ReadAllResponse{Updated: updated})
}

func (h *NotificationHandler) delete(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		if err := h.service.Delete(requestContext(c), actorFromContext(c).ID, id); err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Notification supprimée", fiber.Map{"id": id})
	})
}

func (h *NotificationHandler) send(c *fiber.Ctx) error {
	var req dto.NotificationCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
	}

	resp, err := h.service.Send(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Notification envoyée", resp)
}
