package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/led-platform-api/internal/utils"
)

// RequireRole ensures that the authenticated user possesses one of the allowed roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := roleSet(roles)

	return func(c *fiber.Ctx) error {
		if _, ok := allowed[localUserRole(c)]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "Accès refusé")
		}
		return c.Next()
	}
}

// RequireSelfOrRole lets a user through when the route parameter names their own id,
// or when they hold one of the listed roles.
func RequireSelfOrRole(param string, roles ...string) fiber.Handler {
	allowed := roleSet(roles)

	return func(c *fiber.Ctx) error {
		if _, ok := allowed[localUserRole(c)]; ok {
			return c.Next()
		}

		id, err := strconv.ParseUint(c.Params(param), 10, 64)
		if err == nil && id != 0 && uint(id) == localUserID(c) {
			return c.Next()
		}

		return utils.SendError(c, fiber.StatusForbidden, "Accès refusé")
	}
}

func roleSet(roles []string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}
	return allowed
}
