package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/led-platform-api/internal/models"
)

// AuditSink accepts audit entries without blocking the request path.
type AuditSink interface {
	Enqueue(entry models.AuditLog) bool
}

// DefaultAuditSkip lists routes whose successful mutations are too noisy to audit.
var DefaultAuditSkip = []string{
	"/api/auth/login",
	"/api/auth/refresh",
	"/api/notifications/*/read",
	"/api/notifications/read-all",
	"/ws",
}

// Audit enqueues an entry for every successful POST, PUT, PATCH and DELETE request
// whose path does not match a skip pattern. A "*" segment matches any single segment.
func Audit(sink AuditSink, skip []string) fiber.Handler {
	patterns := make([][]string, 0, len(skip))
	for _, p := range skip {
		patterns = append(patterns, splitPath(p))
	}

	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err != nil || sink == nil {
			return err
		}

		method := c.Method()
		if !isMutating(method) {
			return nil
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusBadRequest {
			return nil
		}

		path := strings.Clone(c.Path())
		segments := splitPath(path)
		for _, p := range patterns {
			if matchSegments(p, segments) {
				return nil
			}
		}

		entityType, entityID, action := describe(method, segments)
		if id, ok := c.Locals(LocalAuditEntityID).(uint); ok && id != 0 {
			entityID = &id
		}

		entry := models.AuditLog{
			Role:          localUserRole(c),
			Method:        method,
			Path:          path,
			Action:        action,
			EntityType:    entityType,
			EntityID:      entityID,
			StatusCode:    status,
			IP:            strings.Clone(c.IP()),
			UserAgent:     strings.Clone(c.Get(fiber.HeaderUserAgent)),
			CorrelationID: GetCorrelationID(c),
			CreatedAt:     time.Now().UTC(),
		}
		if uid := localUserID(c); uid != 0 {
			entry.UserID = &uid
		}
		if route := c.Route(); route != nil {
			entry.Metadata = map[string]interface{}{"route": route.Path}
		}

		sink.Enqueue(entry)
		return nil
	}
}

func isMutating(method string) bool {
	switch method {
	case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		return true
	default:
		return false
	}
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func matchSegments(pattern, segments []string) bool {
	if len(pattern) != len(segments) {
		return false
	}
	for i := range pattern {
		if pattern[i] != "*" && pattern[i] != segments[i] {
			return false
		}
	}
	return true
}

// describe derives the entity type, id and action from an /api/<resource>/<id>/<verb> path.
func describe(method string, segments []string) (string, *uint, string) {
	if len(segments) > 0 && segments[0] == "api" {
		segments = segments[1:]
	}

	action := map[string]string{
		fiber.MethodPost:   "create",
		fiber.MethodPut:    "update",
		fiber.MethodPatch:  "update",
		fiber.MethodDelete: "delete",
	}[method]

	if len(segments) == 0 {
		return "", nil, action
	}

	entityType := segments[0]
	var entityID *uint
	for _, seg := range segments[1:] {
		if id, err := strconv.ParseUint(seg, 10, 64); err == nil {
			if entityID == nil {
				v := uint(id)
				entityID = &v
			}
			continue
		}
		action = strings.ReplaceAll(seg, "-", "_")
	}

	return entityType, entityID, action
}
