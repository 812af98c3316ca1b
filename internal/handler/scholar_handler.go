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

// ScholarHandler wires scholar HTTP routes.
type ScholarHandler struct {
	service service.ScholarService
	logger  zerolog.Logger
}

// NewScholarHandler constructs the handler.
func NewScholarHandler(svc service.ScholarService, logger zerolog.Logger) *ScholarHandler {
	return &ScholarHandler{
		service: svc,
		logger:  logger.With().Str("component", "scholar_handler").Logger(),
	}
}

// Register attaches scholar endpoints. Supervisors may update advisees, which the service enforces.
func (h *ScholarHandler) Register(router fiber.Router) {
	staff := middleware.RequireRole(models.RoleAdmin, models.RoleLEDTeam)

	router.Get("/", h.list)
	router.Get("/me", h.mine)
	router.Get("/:id", h.get)
	router.Get("/:id/score-history", h.scoreHistory)
	router.Post("/", staff, h.create)
	router.Put("/:id", middleware.RequireRole(models.RoleAdmin, models.RoleLEDTeam, models.RoleSupervisor), h.update)
	router.Delete("/:id", staff, h.delete)
}

func (h *ScholarHandler) list(c *fiber.Ctx) error {
	universityID, err := parseQueryUint(c, "university_id")
	if err != nil {
		return queryError(c, err)
	}
	advisorID, err := parseQueryUint(c, "advisor_id")
	if err != nil {
		return queryError(c, err)
	}

	req := dto.ScholarListRequest{
		PageRequest:  pageRequest(c),
		Status:       strings.ToLower(strings.TrimSpace(c.Query("status"))),
		UniversityID: universityID,
		Program:      strings.TrimSpace(c.Query("program")),
		AdvisorID:    advisorID,
		Search:       strings.TrimSpace(c.Query("search")),
	}
	items, meta, err := h.service.List(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, items, "Boursiers récupérés", meta)
}

func (h *ScholarHandler) mine(c *fiber.Ctx) error {
	scholar, err := h.service.Mine(requestContext(c), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Dossier boursier récupéré", scholar)
}

func (h *ScholarHandler) get(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		scholar, err := h.service.Get(requestContext(c), actorFromContext(c), id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Boursier récupéré", scholar)
	})
}

func (h *ScholarHandler) scoreHistory(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		items, err := h.service.ScoreHistory(requestContext(c), actorFromContext(c), id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Historique des scores récupéré", items)
	})
}

func (h *ScholarHandler) create(c *fiber.Ctx) error {
	var req dto.ScholarCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
	}

	scholar, err := h.service.Create(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return created(c, scholar.ID, "Boursier créé", scholar)
}

func (h *ScholarHandler) update(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		var req dto.ScholarUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
		}

		scholar, err := h.service.Update(requestContext(c), actorFromContext(c), id, req)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Boursier mis à jour", scholar)
	})
}

func (h *ScholarHandler) delete(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		if err := h.service.Delete(requestContext(c), actorFromContext(c), id); err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Boursier retiré du programme", fiber.Map{"id": id})
	})
}
