package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/middleware"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/service"
	"github.com/noah-isme/led-platform-api/internal/utils"
)

// UserHandler manages platform accounts.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler constructs the user handler.
func NewUserHandler(svc service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: svc,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches user endpoints.
func (h *UserHandler) Register(router fiber.Router) {
	staff := middleware.RequireRole(models.RoleAdmin, models.RoleLEDTeam)
	admin := middleware.RequireRole(models.RoleAdmin)

	router.Get("/", staff, h.list)
	router.Get("/supervisors", h.supervisors)
	router.Get("/:id", middleware.RequireSelfOrRole("id", models.RoleAdmin, models.RoleLEDTeam), h.get)
	router.Post("/", admin, h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", admin, h.deactivate)
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	active, err := parseQueryBool(c, "is_active")
	if err != nil {
		return queryError(c, err)
	}

	req := dto.UserListRequest{
		PageRequest: pageRequest(c),
		Role:        c.Query("role"),
		IsActive:    active,
		Search:      strings.TrimSpace(c.Query("search")),
	}
	items, meta, err := h.service.List(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, items, "Utilisateurs récupérés", meta)
}

func (h *UserHandler) supervisors(c *fiber.Ctx) error {
	items, err := h.service.Supervisors(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Superviseurs récupérés", items)
}

func (h *UserHandler) get(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		user, err := h.service.Get(requestContext(c), actorFromContext(c), id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Utilisateur récupéré", user)
	})
}

func (h *UserHandler) create(c *fiber.Ctx) error {
	var req dto.UserCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
	}

	user, err := h.service.Create(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return created(c, user.ID, "Utilisateur créé", user)
}

func (h *UserHandler) update(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		var req dto.UserUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
		}

		user, err := h.service.Update(requestContext(c), actorFromContext(c), id, req)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Utilisateur mis à jour", user)
	})
}

func (h *UserHandler) deactivate(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		if err := h.service.Deactivate(requestContext(c), actorFromContext(c), id); err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Utilisateur désactivé", fiber.Map{"id": id})
	})
}
