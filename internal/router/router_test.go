package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/led-platform-api/internal/auth"
	"github.com/noah-isme/led-platform-api/internal/config"
	"github.com/noah-isme/led-platform-api/internal/handler"
	"github.com/noah-isme/led-platform-api/internal/middleware"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/router"
	"github.com/noah-isme/led-platform-api/internal/service"
	"github.com/noah-isme/led-platform-api/internal/testutil"
	"github.com/noah-isme/led-platform-api/internal/utils"
	"github.com/noah-isme/led-platform-api/pkg/storage"
)

type harness struct {
	app           *fiber.App
	db            *gorm.DB
	tokens        *auth.TokenManager
	notifications service.NotificationService
	audit         service.AuditService
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func newHarness(t *testing.T, probes map[string]handler.HealthProbe) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	logger := testutil.Logger()
	validate := utils.NewValidator()

	cfg := config.Config{
		AppName:        "LED Test",
		AppEnv:         "test",
		StorageDriver:  "local",
		StoragePath:    t.TempDir(),
		StorageBaseURL: "/uploads",
		UploadMaxBytes: 1 << 20,
		LoginRateLimit: 100,
	}

	files, err := storage.NewLocalStorage(cfg.StoragePath, cfg.StorageBaseURL)
	require.NoError(t, err)

	tokens := auth.NewTokenManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	users := repository.NewUserRepository(db)
	universities := repository.NewUniversityRepository(db)
	scholars := repository.NewScholarRepository(db)
	activities := repository.NewActivityRepository(db)
	evaluations := repository.NewEvaluationRepository(db)
	documents := repository.NewDocumentRepository(db)

	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), users, service.NotificationOptions{TTL: time.Hour}, validate, logger)
	audit := service.NewAuditService(repository.NewAuditLogRepository(db), 64, logger)
	ctx, cancel := context.WithCancel(context.Background())
	audit.Start(ctx)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger, false)})
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		Tokens:    tokens,
		AuditSink: audit,
		Probes:    probes,

		AuthHandler:       handler.NewAuthHandler(service.NewAuthService(users, tokens, validate, logger), logger),
		UserHandler:       handler.NewUserHandler(service.NewUserService(users, validate, logger), logger),
		UniversityHandler: handler.NewUniversityHandler(service.NewUniversityService(universities, time.Minute, validate, logger), logger),
		ScholarHandler:    handler.NewScholarHandler(service.NewScholarService(scholars, users, universities, nil, validate, logger), logger),
		ActivityHandler: handler.NewActivityHandler(service.NewActivityService(service.ActivityDeps{
			Activities: activities,
			Scholars:   scholars,
			Documents:  documents,
			Storage:    files,
			Notifier:   notifications,
		}, validate, logger), logger),
		EvaluationHandler: handler.NewEvaluationHandler(service.NewEvaluationService(evaluations, activities, notifications, validate, logger), logger),
		DocumentHandler: handler.NewDocumentHandler(service.NewDocumentService(service.DocumentDeps{
			Documents:  documents,
			Activities: activities,
			Scholars:   scholars,
			Storage:    files,
			Notifier:   notifications,
			MaxBytes:   cfg.UploadMaxBytes,
		}, validate, logger), logger),
		NotificationHandler: handler.NewNotificationHandler(notifications, logger),
		ReportHandler: handler.NewReportHandler(service.NewReportService(service.ReportDeps{
			Reports:     repository.NewReportRepository(db),
			Scholars:    scholars,
			Activities:  activities,
			Evaluations: evaluations,
		}, logger), logger),
		SearchHandler: handler.NewSearchHandler(service.NewSearchService(service.SearchDeps{
			Scholars:   scholars,
			Activities: activities,
			Users:      users,
			Documents:  documents,
		}, validate, logger), logger),
		AuditHandler: handler.NewAuditHandler(audit, logger),
		WSHandler:    handler.NewWSHandler(notifications, logger),
	})

	t.Cleanup(func() {
		_ = app.Shutdown()
		closeCtx, done := context.WithTimeout(context.Background(), time.Second)
		defer done()
		_ = audit.Close(closeCtx)
		cancel()
	})

	return &harness{app: app, db: db, tokens: tokens, notifications: notifications, audit: audit}
}

func (h *harness) token(t *testing.T, user models.User) string {
	t.Helper()
	pair, err := h.tokens.GeneratePair(auth.Subject{ID: user.ID, Email: user.Email, Role: user.Role})
	require.NoError(t, err)
	return pair.AccessToken
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return h.send(t, req)
}

func (h *harness) send(t *testing.T, req *http.Request) (*http.Response, envelope) {
	t.Helper()

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func TestHealthListsProbes(t *testing.T) {
	h := newHarness(t, map[string]handler.HealthProbe{
		"database": func(context.Context) error { return nil },
	})

	resp, env := h.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload handler.HealthResponse
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.Equal(t, "ok", payload.Status)
	require.Equal(t, "up", payload.Checks["database"])
}

func TestHealthDegradedWhenProbeFails(t *testing.T) {
	h := newHarness(t, map[string]handler.HealthProbe{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	resp, env := h.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	require.False(t, env.Success)

	var payload handler.HealthResponse
	require.NoError(t, json.Unmarshal(env.Details, &payload))
	require.Equal(t, "degraded", payload.Status)
	require.Equal(t, "down", payload.Checks["redis"])
	require.Equal(t, "up", payload.Checks["database"])
}

func TestLoginThenProfile(t *testing.T) {
	h := newHarness(t, nil)
	user := testutil.CreateUser(t, h.db, "amina@led.test", models.RoleStudent)

	resp, env := h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "AMINA@led.test",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "LED Test", resp.Header.Get("X-Application"))

	var login struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.AccessToken)

	resp, env = h.do(t, http.MethodGet, "/api/auth/me", login.AccessToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var me struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	require.Equal(t, user.ID, me.ID)
	require.Equal(t, models.RoleStudent, me.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t, nil)
	testutil.CreateUser(t, h.db, "amina@led.test", models.RoleStudent)

	resp, env := h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "amina@led.test",
		"password": "not-the-password",
	})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Identifiants invalides", env.Message)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t, nil)

	resp, env := h.do(t, http.MethodGet, "/api/activities", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Authentification requise", env.Message)

	resp, _ = h.do(t, http.MethodGet, "/api/activities", "garbage", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRoleGuards(t *testing.T) {
	h := newHarness(t, nil)
	student := testutil.CreateUser(t, h.db, "student@led.test", models.RoleStudent)
	team := testutil.CreateUser(t, h.db, "team@led.test", models.RoleLEDTeam)
	studentToken := h.token(t, student)
	teamToken := h.token(t, team)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"student cannot list users", http.MethodGet, "/api/users", studentToken, fiber.StatusForbidden},
		{"student reads own account", http.MethodGet, "/api/users/" + uintString(student.ID), studentToken, fiber.StatusOK},
		{"student cannot read another account", http.MethodGet, "/api/users/" + uintString(team.ID), studentToken, fiber.StatusForbidden},
		{"team lists users", http.MethodGet, "/api/users", teamToken, fiber.StatusOK},
		{"student cannot export", http.MethodGet, "/api/reports/export?dataset=scholars", studentToken, fiber.StatusForbidden},
		{"team cannot read audit log", http.MethodGet, "/api/audit-logs", teamToken, fiber.StatusForbidden},
		{"student cannot broadcast", http.MethodPost, "/api/notifications", studentToken, fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := h.do(t, tc.method, tc.path, tc.token, nil)
			require.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestValidationErrorsListFields(t *testing.T) {
	h := newHarness(t, nil)
	admin := testutil.CreateUser(t, h.db, "admin@led.test", models.RoleAdmin)

	resp, env := h.do(t, http.MethodPost, "/api/universities", h.token(t, admin), map[string]string{
		"name": "X",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Données invalides", env.Message)

	var details []utils.FieldError
	require.NoError(t, json.Unmarshal(env.Details, &details))
	fields := map[string]string{}
	for _, d := range details {
		fields[d.Field] = d.Rule
	}
	require.Equal(t, "min", fields["name"])
	require.Equal(t, "required", fields["code"])
}

func TestInvalidIdentifier(t *testing.T) {
	h := newHarness(t, nil)
	admin := testutil.CreateUser(t, h.db, "admin@led.test", models.RoleAdmin)

	resp, env := h.do(t, http.MethodGet, "/api/universities/abc", h.token(t, admin), nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Identifiant invalide", env.Message)

	resp, env = h.do(t, http.MethodGet, "/api/universities/404", h.token(t, admin), nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Université introuvable", env.Message)
}

func TestMalformedQueryParameter(t *testing.T) {
	h := newHarness(t, nil)
	admin := testutil.CreateUser(t, h.db, "admin@led.test", models.RoleAdmin)

	resp, env := h.do(t, http.MethodGet, "/api/activities?from=yesterday", h.token(t, admin), nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Contains(t, env.Message, "from")
}

func TestMutationsAreAudited(t *testing.T) {
	h := newHarness(t, nil)
	admin := testutil.CreateUser(t, h.db, "admin@led.test", models.RoleAdmin)
	token := h.token(t, admin)

	resp, env := h.do(t, http.MethodPost, "/api/universities", token, map[string]string{
		"name": "Université Ibn Zohr",
		"code": "uiz",
		"city": "Agadir",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		ID   uint   `json:"id"`
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, "UIZ", created.Code)

	resp, _ = h.do(t, http.MethodPost, "/api/universities", token, map[string]string{"name": "Doublon", "code": "UIZ"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.audit.Close(ctx))

	var entries []models.AuditLog
	require.NoError(t, h.db.Find(&entries).Error)
	require.Len(t, entries, 1, "failed requests are not audited")
	require.Equal(t, "universities", entries[0].EntityType)
	require.Equal(t, "create", entries[0].Action)
	require.NotNil(t, entries[0].EntityID)
	require.Equal(t, created.ID, *entries[0].EntityID)
	require.NotNil(t, entries[0].UserID)
	require.Equal(t, admin.ID, *entries[0].UserID)
}

func TestSelfRegistrationIsAudited(t *testing.T) {
	h := newHarness(t, nil)

	resp, env := h.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":      "yasmine@led.test",
		"password":   "motdepasse-solide",
		"first_name": "Yasmine",
		"last_name":  "Alaoui",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)

	resp, _ = h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "yasmine@led.test",
		"password": "motdepasse-solide",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.audit.Close(ctx))

	var entries []models.AuditLog
	require.NoError(t, h.db.Find(&entries).Error)
	require.Len(t, entries, 1, "login stays out of the audit trail")
	require.Equal(t, "auth", entries[0].EntityType)
	require.Equal(t, "register", entries[0].Action)
	require.Nil(t, entries[0].UserID)

	var user models.User
	require.NoError(t, h.db.Where("email = ?", "yasmine@led.test").First(&user).Error)
	require.NotNil(t, entries[0].EntityID)
	require.Equal(t, user.ID, *entries[0].EntityID)
}

func TestDocumentUploadAndDownload(t *testing.T) {
	h := newHarness(t, nil)
	student := testutil.CreateUser(t, h.db, "student@led.test", models.RoleStudent)
	scholar := testutil.CreateScholar(t, h.db, student.ID, nil)
	token := h.token(t, student)

	pdf := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")
	req := multipartRequest(t, "/api/documents", token, "Attestation Stage.pdf", pdf, map[string]string{
		"category":    "certificate",
		"description": "<b>Attestation</b> de stage",
	})

	resp, env := h.send(t, req)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)

	var doc struct {
		ID        uint   `json:"id"`
		ScholarID *uint  `json:"scholar_id"`
		MimeType  string `json:"mime_type"`
		FileName  string `json:"file_name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	require.Equal(t, "application/pdf", doc.MimeType)
	require.NotNil(t, doc.ScholarID)
	require.Equal(t, scholar.ID, *doc.ScholarID)

	download := httptest.NewRequest(http.MethodGet, "/api/documents/"+uintString(doc.ID)+"/download", nil)
	download.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := h.app.Test(download, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	require.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, pdf, body)
}

func TestDocumentUploadRejectsUnknownType(t *testing.T) {
	h := newHarness(t, nil)
	student := testutil.CreateUser(t, h.db, "student@led.test", models.RoleStudent)
	testutil.CreateScholar(t, h.db, student.ID, nil)

	req := multipartRequest(t, "/api/documents", h.token(t, student), "script.sh", []byte("#!/bin/sh\nrm -rf /\n"), nil)
	resp, env := h.send(t, req)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Type de fichier non autorisé", env.Message)
}

func TestDocumentUploadRequiresFile(t *testing.T) {
	h := newHarness(t, nil)
	student := testutil.CreateUser(t, h.db, "student@led.test", models.RoleStudent)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("category", "other"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+h.token(t, student))

	resp, env := h.send(t, req)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Fichier requis", env.Message)
}

func TestReportExportHeaders(t *testing.T) {
	h := newHarness(t, nil)
	team := testutil.CreateUser(t, h.db, "team@led.test", models.RoleLEDTeam)
	student := testutil.CreateUser(t, h.db, "student@led.test", models.RoleStudent)
	testutil.CreateScholar(t, h.db, student.ID, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/export?dataset=scholars&format=csv", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+h.token(t, team))
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "text/csv; charset=utf-8", resp.Header.Get(fiber.HeaderContentType))
	require.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "led-scholars-")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2, "header plus one scholar")
	require.Contains(t, lines[1], "LED-")

	resp, env := h.do(t, http.MethodGet, "/api/reports/export?dataset=scholars&format=docx", h.token(t, team), nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Format ou jeu de données d'export non pris en charge", env.Message)
}

func TestNotificationInboxFlow(t *testing.T) {
	h := newHarness(t, nil)
	admin := testutil.CreateUser(t, h.db, "admin@led.test", models.RoleAdmin)
	student := testutil.CreateUser(t, h.db, "student@led.test", models.RoleStudent)
	studentToken := h.token(t, student)

	resp, env := h.do(t, http.MethodPost, "/api/notifications", h.token(t, admin), map[string]interface{}{
		"role":    models.RoleStudent,
		"title":   "Rappel",
		"message": "Pensez à soumettre vos activités",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)

	resp, env = h.do(t, http.MethodGet, "/api/notifications/unread-count", studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"count":1}`, string(env.Data))

	resp, env = h.do(t, http.MethodPatch, "/api/notifications/read-all", studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"updated":1}`, string(env.Data))

	resp, env = h.do(t, http.MethodGet, "/api/notifications/unread-count", studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"count":0}`, string(env.Data))
}

func TestActivityLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t, nil)
	supervisor := testutil.CreateUser(t, h.db, "sup@led.test", models.RoleSupervisor)
	student := testutil.CreateUser(t, h.db, "student@led.test", models.RoleStudent)
	testutil.CreateScholar(t, h.db, student.ID, &supervisor.ID)
	studentToken := h.token(t, student)

	resp, env := h.do(t, http.MethodPost, "/api/activities", studentToken, map[string]interface{}{
		"title":      "Atelier leadership",
		"type":       "LEADERSHIP",
		"status":     "completed",
		"start_date": "2024-03-01T09:00:00Z",
		"hours":      6,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)

	var activity struct {
		ID     uint   `json:"id"`
		Type   string `json:"type"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &activity))
	require.Equal(t, "leadership", activity.Type)

	resp, env = h.do(t, http.MethodPost, "/api/activities/"+uintString(activity.ID)+"/submit", studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)

	resp, env = h.do(t, http.MethodPost, "/api/evaluations", h.token(t, supervisor), map[string]interface{}{
		"activity_id": activity.ID,
		"score":       84,
		"feedback":    "Très bonne animation",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)

	var evaluation struct {
		Grade string  `json:"letter_grade"`
		GPA   float64 `json:"gpa"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &evaluation))
	require.Equal(t, "B", evaluation.Grade)
	require.InDelta(t, 3.0, evaluation.GPA, 0.001)

	resp, env = h.do(t, http.MethodPut, "/api/activities/"+uintString(activity.ID), studentToken, map[string]interface{}{
		"title": "Atelier renommé",
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.Equal(t, "Cette activité ne peut plus être modifiée", env.Message)
}

func multipartRequest(t *testing.T, path, token, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return req
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
