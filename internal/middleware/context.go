package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Keys under which request-scoped values are stored in fiber locals.
const (
	LocalCorrelationID = "correlation_id"
	LocalUserID        = "user_id"
	LocalUserRole      = "user_role"
	LocalUserEmail     = "user_email"
	// LocalAuditEntityID lets a handler report the id of a freshly created entity to the audit trail.
	LocalAuditEntityID = "audit_entity_id"
)

type correlationIDKey struct{}

var correlationKey = correlationIDKey{}

// CorrelationID tags each request with an id taken from X-Correlation-ID, X-Request-ID or a new uuid.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get("X-Correlation-ID"))
		if id == "" {
			id = strings.TrimSpace(c.Get("X-Request-ID"))
		}
		if id == "" {
			id = uuid.NewString()
		} else {
			id = strings.Clone(id)
		}

		c.Locals(LocalCorrelationID, id)
		c.Set("X-Correlation-ID", id)
		c.SetUserContext(ContextWithCorrelation(c.UserContext(), id))

		return c.Next()
	}
}

// CorrelationIDFromContext extracts the correlation identifier from context, if present.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// GetCorrelationID returns the correlation identifier bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(LocalCorrelationID).(string); ok {
		return id
	}
	return CorrelationIDFromContext(c.UserContext())
}

// ContextWithCorrelation attaches the correlation identifier to ctx.
func ContextWithCorrelation(ctx context.Context, correlationID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	correlationID = strings.TrimSpace(correlationID)
	if correlationID == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey, correlationID)
}

func localUserID(c *fiber.Ctx) uint {
	switch v := c.Locals(LocalUserID).(type) {
	case uint:
		return v
	case int:
		if v > 0 {
			return uint(v)
		}
	}
	return 0
}

func localUserRole(c *fiber.Ctx) string {
	role, _ := c.Locals(LocalUserRole).(string)
	return strings.ToLower(strings.TrimSpace(role))
}
