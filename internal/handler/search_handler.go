package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/service"
	"github.com/noah-isme/led-platform-api/internal/utils"
)

// SearchHandler exposes the global search.
type SearchHandler struct {
	service service.SearchService
	logger  zerolog.Logger
}

// NewSearchHandler constructs the handler.
func NewSearchHandler(svc service.SearchService, logger zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger.With().Str("component", "search_handler").Logger(),
	}
}

// Register attaches the search endpoint.
func (h *SearchHandler) Register(router fiber.Router) {
	router.Get("/", h.search)
}

func (h *SearchHandler) search(c *fiber.Ctx) error {
	req := dto.SearchRequest{
		Query: c.Query("q"),
		Type:  c.Query("type"),
		Limit: c.QueryInt("limit", 0),
	}
	resp, err := h.service.Search(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Résultats de recherche", resp)
}
