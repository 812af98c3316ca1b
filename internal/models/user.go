package models

import (
	"strings"
	"time"
)

// Platform roles.
const (
	RoleStudent    = "student"
	RoleSupervisor = "supervisor"
	RoleLEDTeam    = "led_team"
	RoleAdmin      = "admin"
)

// User is an authenticated account on the platform.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	FirstName    string     `gorm:"size:100;not null" json:"first_name"`
	LastName     string     `gorm:"size:100;not null" json:"last_name"`
	Role         string     `gorm:"size:32;index;not null" json:"role"`
	Phone        string     `gorm:"size:32" json:"phone,omitempty"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeRole lowercases a role name so legacy upper-case values map onto the canonical set.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// IsValidRole reports whether role is one of the platform roles.
func IsValidRole(role string) bool {
	switch NormalizeRole(role) {
	case RoleStudent, RoleSupervisor, RoleLEDTeam, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsStaffRole reports whether the role belongs to the LED team or administrators.
func IsStaffRole(role string) bool {
	role = NormalizeRole(role)
	return role == RoleLEDTeam || role == RoleAdmin
}
