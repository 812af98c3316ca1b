package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/testutil"
)

func requireSchema(t *testing.T, schemaFile string, body []byte) {
	t.Helper()

	schema, err := jsonschema.Compile(filepath.Join("testdata", schemaFile))
	require.NoError(t, err)

	var doc interface{}
	require.NoError(t, json.Unmarshal(body, &doc))
	require.NoError(t, schema.Validate(doc), string(body))
}

func rawResponse(t *testing.T, h *harness, req *http.Request) (int, []byte) {
	t.Helper()

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestContractLoginResponse(t *testing.T) {
	h := newHarness(t, nil)
	testutil.CreateUser(t, h.db, "amina@led.test", models.RoleStudent)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":"amina@led.test","password":"password123"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	status, body := rawResponse(t, h, req)
	require.Equal(t, fiber.StatusOK, status)
	requireSchema(t, "auth_response.schema.json", body)
}

func TestContractValidationError(t *testing.T) {
	h := newHarness(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(`{"email":"not-an-email","password":"short"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	status, body := rawResponse(t, h, req)
	require.Equal(t, fiber.StatusBadRequest, status)
	requireSchema(t, "error_envelope.schema.json", body)
}

func TestContractNotFoundError(t *testing.T) {
	h := newHarness(t, nil)
	admin := testutil.CreateUser(t, h.db, "admin@led.test", models.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/api/scholars/4242", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+h.token(t, admin))

	status, body := rawResponse(t, h, req)
	require.Equal(t, fiber.StatusNotFound, status)
	requireSchema(t, "error_envelope.schema.json", body)
}

func TestContractNotificationList(t *testing.T) {
	h := newHarness(t, nil)
	student := testutil.CreateUser(t, h.db, "student@led.test", models.RoleStudent)
	require.NoError(t, h.notifications.Notify(context.Background(), student.ID, models.NotificationTypeInfo, "Bienvenue", "Votre compte est prêt", ""))

	req := httptest.NewRequest(http.MethodGet, "/api/notifications?page=1&limit=10", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+h.token(t, student))

	status, body := rawResponse(t, h, req)
	require.Equal(t, fiber.StatusOK, status)
	requireSchema(t, "notification_list.schema.json", body)
}
