package service

import (
	"github.com/noah-isme/led-platform-api/internal/models"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   uint
	Role string
}

// IsStaff reports whether the actor belongs to the LED team or administrators.
func (a Actor) IsStaff() bool { return models.IsStaffRole(a.Role) }

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// IsStudent reports whether the actor is a student.
func (a Actor) IsStudent() bool { return a.Role == models.RoleStudent }

// IsSupervisor reports whether the actor is a supervisor.
func (a Actor) IsSupervisor() bool { return a.Role == models.RoleSupervisor }

// canViewScholar applies the visibility rule shared by every scholar-owned resource:
// staff see everything, students their own record, supervisors their advisees.
func canViewScholar(actor Actor, scholar models.Scholar) bool {
	switch {
	case actor.IsStaff():
		return true
	case actor.IsStudent():
		return scholar.UserID == actor.ID
	case actor.IsSupervisor():
		return scholar.AdvisorID != nil && *scholar.AdvisorID == actor.ID
	default:
		return false
	}
}

// isAdvisorOf reports whether the actor supervises the scholar.
func isAdvisorOf(actor Actor, scholar models.Scholar) bool {
	return actor.IsSupervisor() && scholar.AdvisorID != nil && *scholar.AdvisorID == actor.ID
}

func uintPtr(v uint) *uint { return &v }
