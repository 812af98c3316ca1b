package models

import (
	"strings"
	"time"
)

// Scholar statuses.
const (
	ScholarStatusActive    = "active"
	ScholarStatusPending   = "pending"
	ScholarStatusGraduated = "graduated"
	ScholarStatusSuspended = "suspended"
	ScholarStatusWithdrawn = "withdrawn"
)

// Scholar extends a student account with scholarship programme details.
type Scholar struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	UserID         uint        `gorm:"uniqueIndex;not null" json:"user_id"`
	UniversityID   *uint       `gorm:"index" json:"university_id"`
	Program        string      `gorm:"size:255" json:"program"`
	StudentNumber  string      `gorm:"size:64;index" json:"student_number"`
	AdmissionYear  int         `json:"admission_year"`
	GraduationYear *int        `json:"graduation_year"`
	AdvisorID      *uint       `gorm:"index" json:"advisor_id"`
	Status         string      `gorm:"size:32;index;not null" json:"status"`
	Score          *float64    `json:"score"`
	Notes          string      `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	User           *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	University     *University `gorm:"foreignKey:UniversityID" json:"university,omitempty"`
	Advisor        *User       `gorm:"foreignKey:AdvisorID" json:"advisor,omitempty"`
}

// ScholarScoreHistory records every change of a scholar's overall score.
type ScholarScoreHistory struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ScholarID     uint      `gorm:"index;not null" json:"scholar_id"`
	PreviousScore *float64  `json:"previous_score"`
	NewScore      float64   `gorm:"not null" json:"new_score"`
	ChangedBy     uint      `gorm:"not null" json:"changed_by"`
	Reason        string    `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsValidScholarStatus reports whether status is a known scholar status.
func IsValidScholarStatus(status string) bool {
	switch strings.ToLower(status) {
	case ScholarStatusActive, ScholarStatusPending, ScholarStatusGraduated, ScholarStatusSuspended, ScholarStatusWithdrawn:
		return true
	default:
		return false
	}
}
