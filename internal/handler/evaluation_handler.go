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

// EvaluationHandler wires evaluation HTTP routes.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(svc service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: svc,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register attaches evaluation endpoints.
func (h *EvaluationHandler) Register(router fiber.Router) {
	graders := middleware.RequireRole(models.RoleSupervisor, models.RoleLEDTeam, models.RoleAdmin)

	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Post("/", graders, h.create)
	router.Put("/:id", graders, h.update)
	router.Delete("/:id", middleware.RequireRole(models.RoleAdmin), h.delete)
}

func (h *EvaluationHandler) list(c *fiber.Ctx) error {
	req := dto.EvaluationListRequest{PageRequest: pageRequest(c)}
	var err error
	if req.ActivityID, err = parseQueryUint(c, "activity_id"); err != nil {
		return queryError(c, err)
	}
	if req.EvaluatorID, err = parseQueryUint(c, "evaluator_id"); err != nil {
		return queryError(c, err)
	}
	if req.ScholarID, err = parseQueryUint(c, "scholar_id"); err != nil {
		return queryError(c, err)
	}

	items, meta, err := h.service.List(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, items, "Évaluations récupérées", meta)
}

func (h *EvaluationHandler) get(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		evaluation, err := h.service.Get(requestContext(c), actorFromContext(c), id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Évaluation récupérée", evaluation)
	})
}

func (h *EvaluationHandler) create(c *fiber.Ctx) error {
	var req dto.EvaluationCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
	}

	evaluation, err := h.service.Create(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return created(c, evaluation.ID, "Évaluation enregistrée", evaluation)
}

func (h *EvaluationHandler) update(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		var req dto.EvaluationUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
		}

		evaluation, err := h.service.Update(requestContext(c), actorFromContext(c), id, req)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Évaluation mise à jour", evaluation)
	})
}

func (h *EvaluationHandler) delete(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		if err := h.service.Delete(requestContext(c), actorFromContext(c), id); err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Évaluation supprimée", fiber.Map{"id": id})
	})
}
