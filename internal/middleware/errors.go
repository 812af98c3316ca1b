package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/led-platform-api/internal/utils"
)

const internalErrorMessage = "Erreur interne du serveur"

// ErrorHandler converts errors escaping handlers into the standard error envelope.
// Error text is only exposed outside production.
func ErrorHandler(logger zerolog.Logger, production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			message := fe.Message
			switch fe.Code {
			case fiber.StatusNotFound:
				message = "Ressource introuvable"
			case fiber.StatusMethodNotAllowed:
				message = "Méthode non autorisée"
			case fiber.StatusRequestEntityTooLarge:
				message = "Fichier trop volumineux"
			}
			return utils.Fail(c, fe.Code, message, nil)
		}

		logger.Error().
			Err(err).
			Str("correlation_id", GetCorrelationID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("unhandled error")

		var details interface{}
		if !production {
			details = []string{err.Error()}
		}
		return utils.Fail(c, fiber.StatusInternalServerError, internalErrorMessage, details)
	}
}
