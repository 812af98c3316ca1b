package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/led-platform-api/internal/models"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (s *recordingSink) Enqueue(entry models.AuditLog) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return true
}

func newAuditApp(sink AuditSink) *fiber.App {
	app := fiber.New()
	app.Use(withIdentity(3, "led_team"))
	app.Use(Audit(sink, DefaultAuditSkip))
	app.Post("/api/activities/:id/submit", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/api/scholars", func(c *fiber.Ctx) error {
		c.Locals(LocalAuditEntityID, uint(42))
		return c.SendStatus(fiber.StatusCreated)
	})
	app.Put("/api/scholars/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNotFound)
	})
	app.Get("/api/scholars", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Patch("/api/notifications/:id/read", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestAuditRecordsSuccessfulMutations(t *testing.T) {
	sink := &recordingSink{}
	app := newAuditApp(sink)

	_, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/activities/12/submit", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/scholars", nil))
	require.NoError(t, err)

	require.Len(t, sink.entries, 2)

	submit := sink.entries[0]
	require.Equal(t, "activities", submit.EntityType)
	require.Equal(t, "submit", submit.Action)
	require.NotNil(t, submit.EntityID)
	require.Equal(t, uint(12), *submit.EntityID)
	require.Equal(t, uint(3), *submit.UserID)
	require.Equal(t, "led_team", submit.Role)

	created := sink.entries[1]
	require.Equal(t, "create", created.Action)
	require.Equal(t, uint(42), *created.EntityID)
}

func TestAuditSkipsReadsFailuresAndNoisyRoutes(t *testing.T) {
	sink := &recordingSink{}
	app := newAuditApp(sink)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/scholars", nil),
		httptest.NewRequest(http.MethodPut, "/api/scholars/1", nil),
		httptest.NewRequest(http.MethodPatch, "/api/notifications/7/read", nil),
	} {
		_, err := app.Test(req)
		require.NoError(t, err)
	}

	require.Empty(t, sink.entries)
}
