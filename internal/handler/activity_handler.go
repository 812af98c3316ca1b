package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/service"
	"github.com/noah-isme/led-platform-api/internal/utils"
)

// ActivityHandler wires activity HTTP routes. Ownership rules live in the service.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(svc service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: svc,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches activity endpoints.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/revisions", h.revisions)
	router.Post("/", h.create)
	router.Put("/:id", h.update)
	router.Patch("/:id/status", h.changeStatus)
	router.Post("/:id/submit", h.submit)
	router.Delete("/:id", h.delete)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	scholarID, err := parseQueryUint(c, "scholar_id")
	if err != nil {
		return queryError(c, err)
	}
	from, err := parseQueryDate(c, "from")
	if err != nil {
		return queryError(c, err)
	}
	to, err := parseQueryDate(c, "to")
	if err != nil {
		return queryError(c, err)
	}

	req := dto.ActivityListRequest{
		PageRequest: pageRequest(c),
		Type:        strings.ToLower(strings.TrimSpace(c.Query("type"))),
		Status:      strings.ToLower(strings.TrimSpace(c.Query("status"))),
		ScholarID:   scholarID,
		From:        from,
		To:          to,
		Search:      strings.TrimSpace(c.Query("search")),
	}
	items, meta, err := h.service.List(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, items, "Activités récupérées", meta)
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		activity, err := h.service.Get(requestContext(c), actorFromContext(c), id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Activité récupérée", activity)
	})
}

func (h *ActivityHandler) revisions(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		items, err := h.service.Revisions(requestContext(c), actorFromContext(c), id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Historique des modifications récupéré", items)
	})
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	var req dto.ActivityCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
	}

	activity, err := h.service.Create(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return created(c, activity.ID, "Activité créée", activity)
}

func (h *ActivityHandler) update(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		var req dto.ActivityUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
		}

		activity, err := h.service.Update(requestContext(c), actorFromContext(c), id, req)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Activité mise à jour", activity)
	})
}

func (h *ActivityHandler) changeStatus(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		var req dto.ActivityStatusRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
		}
		req.Status = strings.ToLower(strings.TrimSpace(req.Status))

		activity, err := h.service.ChangeStatus(requestContext(c), actorFromContext(c), id, req)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Statut mis à jour", activity)
	})
}

func (h *ActivityHandler) submit(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		activity, err := h.service.Submit(requestContext(c), actorFromContext(c), id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Activité soumise", activity)
	})
}

func (h *ActivityHandler) delete(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		if err := h.service.Delete(requestContext(c), actorFromContext(c), id); err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Activité supprimée", fiber.Map{"id": id})
	})
}
