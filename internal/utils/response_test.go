package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/led-platform-api/internal/utils"
)

func TestOKIncludesMetaAndDefaults(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		data := map[string]string{"programme": "LED"}
		return utils.OK(c, data, "", utils.NewPaginationMeta(1, 10, 3))
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Data    map[string]string      `json:"data"`
		Meta    map[string]interface{} `json:"meta"`
	}
	decode(t, resp, &payload)

	require.True(t, payload.Success)
	require.Equal(t, "success", payload.Message)
	require.Equal(t, "LED", payload.Data["programme"])
	require.Equal(t, float64(1), payload.Meta["pages"])
}

func TestFailIncludesDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		details := []utils.FieldError{{Field: "Email", Rule: "required", Message: "champ obligatoire"}}
		return utils.Fail(c, fiber.StatusBadRequest, "Données invalides", details)
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Details []map[string]string    `json:"details"`
		Data    map[string]interface{} `json:"data"`
	}
	decode(t, resp, &payload)

	require.False(t, payload.Success)
	require.Equal(t, "Données invalides", payload.Message)
	require.Equal(t, "Email", payload.Details[0]["field"])
	require.Nil(t, payload.Data)
}

func TestPaginationMeta(t *testing.T) {
	meta := utils.NewPaginationMeta(2, 10, 15)
	require.Equal(t, 2, meta.Pages)
	require.Equal(t, 10, utils.Offset(meta.Page, meta.Limit))

	page, limit := utils.NormalizePage(0, 1000)
	require.Equal(t, 1, page)
	require.Equal(t, utils.MaxLimit, limit)

	require.Equal(t, 0, utils.NewPaginationMeta(1, 10, 0).Pages)
}

func TestValidationDetails(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
		Score int    `validate:"gte=0,lte=100"`
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(payload{Email: "nope", Score: 120})

	details := utils.ValidationDetails(err)
	require.Len(t, details, 2)
	require.Equal(t, "email", details[0].Rule)
	require.Equal(t, "lte", details[1].Rule)

	require.Nil(t, utils.ValidationDetails(nil))
}

func TestNewValidatorUsesJSONNames(t *testing.T) {
	type payload struct {
		FirstName string `json:"first_name,omitempty" validate:"required"`
		Internal  string `json:"-" validate:"required"`
	}
	details := utils.ValidationDetails(utils.NewValidator().Struct(payload{}))
	require.Len(t, details, 2)
	require.Equal(t, "first_name", details[0].Field)
	require.Equal(t, "Internal", details[1].Field)
}

func performRequest(t *testing.T, app *fiber.App, method, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
