package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/led-platform-api/internal/auth"
	"github.com/noah-isme/led-platform-api/internal/utils"
)

// TokenParser validates access tokens.
type TokenParser interface {
	ParseAccess(token string) (*auth.Claims, error)
}

// JWTProtected rejects requests without a valid bearer access token.
func JWTProtected(tokens TokenParser) fiber.Handler {
	return authenticate(tokens, false)
}

// JWTProtectedWithQuery also accepts the token from the "token" query parameter, for clients
// such as browsers opening a websocket that cannot set headers.
func JWTProtectedWithQuery(tokens TokenParser) fiber.Handler {
	return authenticate(tokens, true)
}

func authenticate(tokens TokenParser, allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := auth.ExtractBearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok && allowQuery {
			raw = strings.TrimSpace(c.Query("token"))
			ok = raw != ""
		}
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "Authentification requise")
		}

		claims, err := tokens.ParseAccess(raw)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				return utils.SendError(c, fiber.StatusUnauthorized, "Jeton expiré")
			}
			return utils.SendError(c, fiber.StatusUnauthorized, "Jeton invalide")
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUserRole, strings.ToLower(claims.Role))
		c.Locals(LocalUserEmail, claims.Email)

		return c.Next()
	}
}
