package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/service"
	"github.com/noah-isme/led-platform-api/internal/utils"
)

// AuthHandler exposes registration, login and token refresh.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(svc service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterPublic attaches the unauthenticated endpoints. limiter guards the login route.
func (h *AuthHandler) RegisterPublic(router fiber.Router, limiter fiber.Handler) {
	router.Post("/register", h.register)
	if limiter != nil {
		router.Post("/login", limiter, h.login)
	} else {
		router.Post("/login", h.login)
	}
	router.Post("/refresh", h.refresh)
}

// RegisterProtected attaches the endpoints that need an access token.
func (h *AuthHandler) RegisterProtected(router fiber.Router) {
	router.Get("/me", h.me)
	router.Put("/password", h.changePassword)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
	}

	resp, err := h.service.Register(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return created(c, resp.User.ID, "Compte créé", resp)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
	}

	resp, err := h.service.Login(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Connexion réussie", resp)
}

func (h *AuthHandler) refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
	}

	resp, err := h.service.Refresh(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Jeton renouvelé", resp)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	user, err := h.service.Me(requestContext(c), actorFromContext(c).ID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Profil récupéré", user)
}

func (h *AuthHandler) changePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
	}

	if err := h.service.ChangePassword(requestContext(c), actorFromContext(c).ID, req); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Mot de passe modifié", nil)
}
