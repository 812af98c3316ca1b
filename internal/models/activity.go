package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Activity tracks.
const (
	ActivityTypeEntrepreneuriat = "entrepreneuriat"
	ActivityTypeLeadership      = "leadership"
	ActivityTypeDigital         = "digital"
)

// Activity lifecycle states.
const (
	ActivityStatusPlanned    = "planned"
	ActivityStatusInProgress = "in_progress"
	ActivityStatusCompleted  = "completed"
	ActivityStatusSubmitted  = "submitted"
	ActivityStatusEvaluated  = "evaluated"
	ActivityStatusCancelled  = "cancelled"
)

// GradableActivityStatuses are the states in which an activity accepts an evaluation.
// An evaluated activity stays gradable so a second evaluator can grade it.
var GradableActivityStatuses = []string{ActivityStatusSubmitted, ActivityStatusCompleted, ActivityStatusEvaluated}

var activityTransitions = map[string][]string{
	ActivityStatusPlanned:    {ActivityStatusInProgress, ActivityStatusCancelled},
	ActivityStatusInProgress: {ActivityStatusCompleted, ActivityStatusSubmitted, ActivityStatusCancelled},
	ActivityStatusCompleted:  {ActivityStatusSubmitted, ActivityStatusCancelled},
	ActivityStatusSubmitted:  {ActivityStatusEvaluated, ActivityStatusCancelled},
}

// Activity is an extracurricular action carried out by a scholar in one of the LED tracks.
type Activity struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ScholarID   uint           `gorm:"index;not null" json:"scholar_id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Type        string         `gorm:"size:32;index;not null" json:"type"`
	Status      string         `gorm:"size:32;index;not null" json:"status"`
	StartDate   time.Time      `gorm:"not null" json:"start_date"`
	EndDate     *time.Time     `json:"end_date"`
	Location    string         `gorm:"size:255" json:"location"`
	Hours       float64        `json:"hours"`
	Objectives  datatypes.JSON `gorm:"type:json" json:"objectives"`
	Outcomes    datatypes.JSON `gorm:"type:json" json:"outcomes"`
	Tags        datatypes.JSON `gorm:"type:json" json:"tags"`
	CreatedBy   uint           `gorm:"not null" json:"created_by"`
	SubmittedAt *time.Time     `json:"submitted_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Scholar     *Scholar       `gorm:"foreignKey:ScholarID" json:"scholar,omitempty"`
	Documents   []Document     `gorm:"foreignKey:ActivityID" json:"documents,omitempty"`
	Evaluations []Evaluation   `gorm:"foreignKey:ActivityID" json:"evaluations,omitempty"`
}

// ActivityRevision is an append-only record of the fields changed by one update.
type ActivityRevision struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActivityID uint              `gorm:"index;not null" json:"activity_id"`
	EditorID   uint              `gorm:"not null" json:"editor_id"`
	EditorRole string            `gorm:"size:32" json:"editor_role"`
	Changes    datatypes.JSONMap `gorm:"type:json" json:"changes"`
	CreatedAt  time.Time         `json:"created_at"`
}

// IsValidActivityType reports whether t names one of the LED tracks.
func IsValidActivityType(t string) bool {
	switch strings.ToLower(t) {
	case ActivityTypeEntrepreneuriat, ActivityTypeLeadership, ActivityTypeDigital:
		return true
	default:
		return false
	}
}

// IsValidActivityStatus reports whether status is a known lifecycle state.
func IsValidActivityStatus(status string) bool {
	switch strings.ToLower(status) {
	case ActivityStatusPlanned, ActivityStatusInProgress, ActivityStatusCompleted,
		ActivityStatusSubmitted, ActivityStatusEvaluated, ActivityStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionActivity reports whether an activity may move from one status to another.
func CanTransitionActivity(from, to string) bool {
	for _, next := range activityTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsStudentEditable reports whether the owning student may still change the activity.
func (a Activity) IsStudentEditable() bool {
	return a.Status == ActivityStatusPlanned || a.Status == ActivityStatusInProgress
}

// EncodeStringList stores a list of strings in a JSON column.
func EncodeStringList(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return datatypes.JSON(raw)
}

// DecodeStringList reads a JSON column written by EncodeStringList. Corrupt values decode to an empty list.
func DecodeStringList(raw datatypes.JSON) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return []string{}
	}
	return out
}
