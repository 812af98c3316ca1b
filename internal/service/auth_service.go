package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/led-platform-api/internal/auth"
	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/observability"
	"github.com/noah-isme/led-platform-api/internal/repository"
)

// AuthService handles registration, login and token rotation.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error)
	Refresh(ctx context.Context, req dto.RefreshRequest) (dto.AuthResponse, error)
	Me(ctx context.Context, userID uint) (dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID uint, req dto.ChangePasswordRequest) error
}

type authService struct {
	users     repository.UserRepository
	tokens    *auth.TokenManager
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewAuthService constructs the authentication service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		tokens:    tokens,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		tracer:    observability.Tracer("auth_service"),
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "auth.register")
	defer span.End()

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return dto.AuthResponse{}, ErrEmailTaken
	} else if !isNotFound(err) {
		return dto.AuthResponse{}, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if isUniqueViolation(err) {
			return dto.AuthResponse{}, ErrEmailTaken
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "create user failed")
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("student registered")
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "auth.login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if isNotFound(err) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return dto.AuthResponse{}, ErrAccountDisabled
	}
	span.SetAttributes(attribute.Int("auth.user_id", int(user.ID)), attribute.String("auth.role", user.Role))

	now := s.now().UTC()
	if updated, err := s.users.Update(ctx, user.ID, map[string]interface{}{"last_login_at": now}); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to record last login")
	} else {
		user = updated
	}

	return s.issue(user)
}

func (s *authService) Refresh(ctx context.Context, req dto.RefreshRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	claims, err := s.tokens.ParseRefresh(req.RefreshToken)
	if err != nil {
		return dto.AuthResponse{}, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return dto.AuthResponse{}, ErrInvalidToken
		}
		return dto.AuthResponse{}, err
	}
	if !user.IsActive {
		return dto.AuthResponse{}, ErrAccountDisabled
	}

	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, mapNotFound(err, ErrUserNotFound)
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uint, req dto.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return mapNotFound(err, ErrUserNotFound)
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return ErrWrongPassword
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if _, err := s.users.Update(ctx, userID, map[string]interface{}{"password_hash": hash}); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", userID).Msg("password changed")
	return nil
}

func (s *authService) issue(user models.User) (dto.AuthResponse, error) {
	pair, err := s.tokens.GeneratePair(auth.Subject{ID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return dto.AuthResponse{}, err
	}
	return dto.AuthResponse{
		User:         dto.NewUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresAt:    pair.ExpiresAt,
	}, nil
}
