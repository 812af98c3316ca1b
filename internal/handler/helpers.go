package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/middleware"
	"github.com/noah-isme/led-platform-api/internal/service"
	"github.com/noah-isme/led-platform-api/internal/utils"
)

const (
	msgInvalidID      = "Identifiant invalide"
	msgInvalidPayload = "Corps de requête invalide"
	msgValidation     = "Données invalides"
	msgInternal       = "Erreur interne du serveur"
)

type errorMapping struct {
	err     error
	status  int
	message string
}

// errorMappings translates service sentinels into HTTP statuses and user-facing messages.
var errorMappings = []errorMapping{
	{service.ErrForbidden, fiber.StatusForbidden, "Accès refusé"},
	{service.ErrNoChanges, fiber.StatusBadRequest, "Aucune modification détectée"},
	{service.ErrEmptyContent, fiber.StatusBadRequest, "Contenu vide après nettoyage"},

	{service.ErrInvalidCredentials, fiber.StatusUnauthorized, "Identifiants invalides"},
	{service.ErrAccountDisabled, fiber.StatusForbidden, "Compte désactivé"},
	{service.ErrInvalidToken, fiber.StatusUnauthorized, "Jeton de rafraîchissement invalide"},
	{service.ErrWrongPassword, fiber.StatusBadRequest, "Mot de passe actuel incorrect"},

	{service.ErrUserNotFound, fiber.StatusNotFound, "Utilisateur introuvable"},
	{service.ErrEmailTaken, fiber.StatusConflict, "Adresse e-mail déjà utilisée"},

	{service.ErrUniversityNotFound, fiber.StatusNotFound, "Université introuvable"},
	{service.ErrUniversityCodeTaken, fiber.StatusConflict, "Code université déjà utilisé"},
	{service.ErrUniversityInUse, fiber.StatusConflict, "Université référencée par des boursiers"},

	{service.ErrScholarNotFound, fiber.StatusNotFound, "Boursier introuvable"},
	{service.ErrScholarExists, fiber.StatusConflict, "Cet utilisateur possède déjà un dossier boursier"},
	{service.ErrInvalidAdvisor, fiber.StatusBadRequest, "Le tuteur doit être un superviseur actif"},
	{service.ErrScholarProfileMissing, fiber.StatusNotFound, "Aucun dossier boursier associé à ce compte"},
	{service.ErrScholarRequired, fiber.StatusBadRequest, "Le boursier (scholar_id) est obligatoire"},

	{service.ErrActivityNotFound, fiber.StatusNotFound, "Activité introuvable"},
	{service.ErrActivityLocked, fiber.StatusConflict, "Cette activité ne peut plus être modifiée"},
	{service.ErrInvalidTransition, fiber.StatusBadRequest, "Transition de statut invalide"},
	{service.ErrInvalidDateRange, fiber.StatusBadRequest, "La date de fin précède la date de début"},

	{service.ErrEvaluationNotFound, fiber.StatusNotFound, "Évaluation introuvable"},
	{service.ErrEvaluationExists, fiber.StatusConflict, "Vous avez déjà évalué cette activité"},
	{service.ErrActivityNotGradable, fiber.StatusBadRequest, "Seule une activité soumise ou terminée peut être évaluée"},

	{service.ErrDocumentNotFound, fiber.StatusNotFound, "Document introuvable"},
	{service.ErrFileRequired, fiber.StatusBadRequest, "Fichier requis"},
	{service.ErrUploadTooLarge, fiber.StatusRequestEntityTooLarge, "Fichier trop volumineux"},
	{service.ErrUploadTypeNotAllowed, fiber.StatusBadRequest, "Type de fichier non autorisé"},
	{service.ErrUploadScanFailed, fiber.StatusBadRequest, "Le fichier a été rejeté par l'analyse"},

	{service.ErrNotificationNotFound, fiber.StatusNotFound, "Notification introuvable"},
	{service.ErrNoRecipients, fiber.StatusBadRequest, "Aucun destinataire"},

	{service.ErrUnsupportedExport, fiber.StatusBadRequest, "Format ou jeu de données d'export non pris en charge"},
}

// respondError writes the error envelope for err. Unknown errors are logged and reported as 500.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	if details := utils.ValidationDetails(err); details != nil {
		return utils.Fail(c, fiber.StatusBadRequest, msgValidation, details)
	}
	if m, ok := lookupError(err); ok {
		return utils.SendError(c, m.status, m.message)
	}

	logger.Error().
		Err(err).
		Str("correlation_id", middleware.GetCorrelationID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("request failed")
	return utils.SendError(c, fiber.StatusInternalServerError, msgInternal)
}

func lookupError(err error) (errorMapping, bool) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m, true
		}
	}
	return errorMapping{}, false
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := parseUint(c.Params(name))
	if err != nil {
		return 0, errInvalid("identifier")
	}
	return id, nil
}

// withID parses the :id route parameter before calling fn.
func withID(c *fiber.Ctx, fn func(id uint) error) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidID)
	}
	return fn(id)
}

func parseQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	id, err := parseUint(value)
	if err != nil {
		return nil, errInvalid(key)
	}
	return &id, nil
}

func parseUint(value string) (uint, error) {
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, err
	}
	if parsed == 0 {
		return 0, errors.New("identifier must be positive")
	}
	return uint(parsed), nil
}

func errInvalid(key string) error {
	return errors.New("invalid " + key)
}

func parseQueryBool(c *fiber.Ctx, key string) (*bool, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return nil, errInvalid(key)
	}
	return &parsed, nil
}

// parseQueryDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
func parseQueryDate(c *fiber.Ctx, key string) (*time.Time, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, errInvalid(key)
	}
	return &parsed, nil
}

func pageRequest(c *fiber.Ctx) dto.PageRequest {
	return dto.PageRequest{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", utils.DefaultLimit),
	}
}

// queryError reports a malformed query parameter.
func queryError(c *fiber.Ctx, err error) error {
	return utils.SendError(c, fiber.StatusBadRequest, "Paramètre de requête invalide: "+strings.TrimPrefix(err.Error(), "invalid "))
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	actor := service.Actor{}
	switch v := c.Locals(middleware.LocalUserID).(type) {
	case uint:
		actor.ID = v
	case int:
		if v > 0 {
			actor.ID = uint(v)
		}
	}
	if role, ok := c.Locals(middleware.LocalUserRole).(string); ok {
		actor.Role = strings.ToLower(strings.TrimSpace(role))
	}
	return actor
}

// requestContext carries the correlation id of the request into service calls.
func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

// created replies with 201 and records the new entity id for the audit trail.
func created(c *fiber.Ctx, id uint, message string, data interface{}) error {
	c.Locals(middleware.LocalAuditEntityID, id)
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, message, data)
}
