package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/led-platform-api/internal/auth"
	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/utils"
)

// UserService manages platform accounts.
type UserService interface {
	List(ctx context.Context, req dto.UserListRequest) ([]dto.UserResponse, utils.PaginationMeta, error)
	Supervisors(ctx context.Context) ([]dto.UserSummary, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.UserResponse, error)
	Create(ctx context.Context, req dto.UserCreateRequest) (dto.UserResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.UserUpdateRequest) (dto.UserResponse, error)
	Deactivate(ctx context.Context, actor Actor, id uint) error
}

type userService struct {
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewUserService constructs the user service.
func NewUserService(users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) List(ctx context.Context, req dto.UserListRequest) ([]dto.UserResponse, utils.PaginationMeta, error) {
	page, limit := utils.NormalizePage(req.Page, req.Limit)
	users, total, err := s.users.List(ctx, repository.UserFilter{
		Page:     repository.Page{Page: page, Limit: limit},
		Role:     models.NormalizeRole(req.Role),
		IsActive: req.IsActive,
		Search:   req.Search,
	})
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return dto.NewUserResponses(users), utils.NewPaginationMeta(page, limit, total), nil
}

func (s *userService) Supervisors(ctx context.Context) ([]dto.UserSummary, error) {
	active := true
	users, _, err := s.users.List(ctx, repository.UserFilter{
		Page:     repository.Page{Page: 1, Limit: utils.MaxLimit},
		Role:     models.RoleSupervisor,
		IsActive: &active,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, *dto.NewUserSummary(&users[i]))
	}
	return out, nil
}

func (s *userService) Get(ctx context.Context, actor Actor, id uint) (dto.UserResponse, error) {
	if actor.ID != id && !actor.IsStaff() {
		return dto.UserResponse{}, ErrForbidden
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return dto.UserResponse{}, mapNotFound(err, ErrUserNotFound)
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) Create(ctx context.Context, req dto.UserCreateRequest) (dto.UserResponse, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return dto.UserResponse{}, ErrEmailTaken
	} else if !isNotFound(err) {
		return dto.UserResponse{}, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return dto.UserResponse{}, err
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Phone:        req.Phone,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if isUniqueViolation(err) {
			return dto.UserResponse{}, ErrEmailTaken
		}
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user created")
	return dto.NewUserResponse(user), nil
}

func (s *userService) Update(ctx context.Context, actor Actor, id uint, req dto.UserUpdateRequest) (dto.UserResponse, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	if actor.ID != id && !actor.IsAdmin() {
		return dto.UserResponse{}, ErrForbidden
	}
	if (req.Role != nil || req.IsActive != nil) && !actor.IsAdmin() {
		return dto.UserResponse{}, ErrForbidden
	}

	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return dto.UserResponse{}, mapNotFound(err, ErrUserNotFound)
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil && *req.FirstName != current.FirstName {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil && *req.LastName != current.LastName {
		updates["last_name"] = *req.LastName
	}
	if req.Phone != nil && *req.Phone != current.Phone {
		updates["phone"] = *req.Phone
	}
	if req.Role != nil && *req.Role != current.Role {
		updates["role"] = *req.Role
	}
	if req.IsActive != nil && *req.IsActive != current.IsActive {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return dto.NewUserResponse(current), nil
	}

	user, err := s.users.Update(ctx, id, updates)
	if err != nil {
		return dto.UserResponse{}, mapNotFound(err, ErrUserNotFound)
	}
	return dto.NewUserResponse(user), nil
}

// Deactivate disables the account and keeps the row so history stays attributable.
func (s *userService) Deactivate(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() || actor.ID == id {
		return ErrForbidden
	}
	if _, err := s.users.Update(ctx, id, map[string]interface{}{"is_active": false}); err != nil {
		return mapNotFound(err, ErrUserNotFound)
	}
	s.logger.Info().Uint("user_id", id).Uint("actor_id", actor.ID).Msg("user deactivated")
	return nil
}
