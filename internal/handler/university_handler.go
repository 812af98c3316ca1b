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

// UniversityHandler serves the partner university reference data.
type UniversityHandler struct {
	service service.UniversityService
	logger  zerolog.Logger
}

// NewUniversityHandler constructs the university handler.
func NewUniversityHandler(svc service.UniversityService, logger zerolog.Logger) *UniversityHandler {
	return &UniversityHandler{
		service: svc,
		logger:  logger.With().Str("component", "university_handler").Logger(),
	}
}

// Register attaches university endpoints.
func (h *UniversityHandler) Register(router fiber.Router) {
	staff := middleware.RequireRole(models.RoleAdmin, models.RoleLEDTeam)

	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Post("/", staff, h.create)
	router.Put("/:id", staff, h.update)
	router.Delete("/:id", middleware.RequireRole(models.RoleAdmin), h.delete)
}

func (h *UniversityHandler) list(c *fiber.Ctx) error {
	items, err := h.service.List(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Universités récupérées", items)
}

func (h *UniversityHandler) get(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		item, err := h.service.Get(requestContext(c), id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Université récupérée", item)
	})
}

func (h *UniversityHandler) create(c *fiber.Ctx) error {
	var req dto.UniversityRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
	}

	item, err := h.service.Create(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return created(c, item.ID, "Université créée", item)
}

func (h *UniversityHandler) update(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		var req dto.UniversityUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
		}

		item, err := h.service.Update(requestContext(c), id, req)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Université mise à jour", item)
	})
}

func (h *UniversityHandler) delete(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		if err := h.service.Delete(requestContext(c), id); err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Université supprimée", fiber.Map{"id": id})
	})
}
