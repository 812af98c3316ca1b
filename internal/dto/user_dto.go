package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/led-platform-api/internal/models"
)

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	Role        string     `json:"role"`
	Phone       string     `json:"phone,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UserSummary is the compact view embedded in other resources.
type UserSummary struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// UserCreateRequest is used by administrators to create accounts of any role.
type UserCreateRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Role      string `json:"role" validate:"required,oneof=student supervisor led_team admin"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
}

// Normalize canonicalises email and role casing.
func (r *UserCreateRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Role = models.NormalizeRole(r.Role)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

// UserUpdateRequest is a partial profile update. Role and IsActive are admin-only.
type UserUpdateRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Role      *string `json:"role" validate:"omitempty,oneof=student supervisor led_team admin"`
	IsActive  *bool   `json:"is_active"`
}

// Normalize canonicalises role casing.
func (r *UserUpdateRequest) Normalize() {
	if r.Role != nil {
		role := models.NormalizeRole(*r.Role)
		r.Role = &role
	}
}

// UserListRequest filters the user directory.
type UserListRequest struct {
	PageRequest
	Role     string
	IsActive *bool
	Search   string
}

// NewUserResponse converts a user model.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		FullName:    user.FullName(),
		Role:        user.Role,
		Phone:       user.Phone,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// NewUserResponses converts a slice of users.
func NewUserResponses(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}

// NewUserSummary returns nil for a missing relation.
func NewUserSummary(user *models.User) *UserSummary {
	if user == nil || user.ID == 0 {
		return nil
	}
	return &UserSummary{ID: user.ID, FullName: user.FullName(), Email: user.Email, Role: user.Role}
}
