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

// DocumentHandler accepts multipart uploads and serves stored documents.
type DocumentHandler struct {
	service service.DocumentService
	logger  zerolog.Logger
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(svc service.DocumentService, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: svc,
		logger:  logger.With().Str("component", "document_handler").Logger(),
	}
}

// Register attaches document endpoints.
func (h *DocumentHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/download", h.download)
	router.Post("/", h.upload)
	router.Patch("/:id/verify", middleware.RequireRole(models.RoleAdmin, models.RoleLEDTeam), h.verify)
	router.Delete("/:id", h.delete)
}

func (h *DocumentHandler) upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Fichier requis")
	}

	req := dto.DocumentUploadRequest{
		Category:    c.FormValue("category"),
		Description: c.FormValue("description"),
	}
	if req.ActivityID, err = formUint(c, "activity_id"); err != nil {
		return queryError(c, err)
	}
	if req.ScholarID, err = formUint(c, "scholar_id"); err != nil {
		return queryError(c, err)
	}

	doc, err := h.service.Upload(requestContext(c), actorFromContext(c), file, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return created(c, doc.ID, "Document téléversé", doc)
}

func (h *DocumentHandler) list(c *fiber.Ctx) error {
	req := dto.DocumentListRequest{
		PageRequest: pageRequest(c),
		Category:    strings.ToLower(strings.TrimSpace(c.Query("category"))),
		Search:      strings.TrimSpace(c.Query("search")),
	}
	var err error
	if req.ScholarID, err = parseQueryUint(c, "scholar_id"); err != nil {
		return queryError(c, err)
	}
	if req.ActivityID, err = parseQueryUint(c, "activity_id"); err != nil {
		return queryError(c, err)
	}
	if req.Verified, err = parseQueryBool(c, "verified"); err != nil {
		return queryError(c, err)
	}

	items, meta, err := h.service.List(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, items, "Documents récupérés", meta)
}

func (h *DocumentHandler) get(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		doc, err := h.service.Get(requestContext(c), actorFromContext(c), id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Document récupéré", doc)
	})
}

// download streams local files and redirects to the CDN for remote ones.
func (h *DocumentHandler) download(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		content, err := h.service.Open(requestContext(c), actorFromContext(c), id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		if content.Reader == nil {
			return c.Redirect(content.RedirectURL, fiber.StatusFound)
		}

		c.Attachment(content.Document.FileName)
		if content.Document.MimeType != "" {
			c.Set(fiber.HeaderContentType, content.Document.MimeType)
		}
		return c.SendStream(content.Reader, int(content.Document.SizeBytes))
	})
}

func (h *DocumentHandler) verify(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		var req dto.DocumentVerifyRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
			}
		}

		doc, err := h.service.Verify(requestContext(c), actorFromContext(c), id, req)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Statut de vérification mis à jour", doc)
	})
}

func (h *DocumentHandler) delete(c *fiber.Ctx) error {
	return withID(c, func(id uint) error {
		if err := h.service.Delete(requestContext(c), actorFromContext(c), id); err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "Document supprimé", fiber.Map{"id": id})
	})
}

func formUint(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.FormValue(key))
	if value == "" {
		return nil, nil
	}
	id, err := parseUint(value)
	if err != nil {
		return nil, errInvalid(key)
	}
	return &id, nil
}
