package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/led-platform-api/internal/grading"
	"github.com/noah-isme/led-platform-api/internal/models"
)

// ActivityCreateRequest creates an activity. ScholarID is only honoured for staff.
type ActivityCreateRequest struct {
	ScholarID   *uint      `json:"scholar_id" validate:"omitempty,gt=0"`
	Title       string     `json:"title" validate:"required,min=3,max=255"`
	Description string     `json:"description" validate:"omitempty,max=5000"`
	Type        string     `json:"type" validate:"required,oneof=entrepreneuriat leadership digital"`
	Status      string     `json:"status" validate:"omitempty,oneof=planned in_progress completed"`
	StartDate   time.Time  `json:"start_date" validate:"required"`
	EndDate     *time.Time `json:"end_date" validate:"omitempty,gtefield=StartDate"`
	Location    string     `json:"location" validate:"omitempty,max=255"`
	Hours       float64    `json:"hours" validate:"gte=0,lte=1000"`
	Objectives  []string   `json:"objectives" validate:"omitempty,max=20,dive,max=500"`
	Outcomes    []string   `json:"outcomes" validate:"omitempty,max=20,dive,max=500"`
	Tags        []string   `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}

// Normalize canonicalises enum casing.
func (r *ActivityCreateRequest) Normalize() {
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
	r.Title = strings.TrimSpace(r.Title)
}

// ActivityUpdateRequest is a partial update; nil fields are left untouched.
type ActivityUpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Type        *string    `json:"type" validate:"omitempty,oneof=entrepreneuriat leadership digital"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Location    *string    `json:"location" validate:"omitempty,max=255"`
	Hours       *float64   `json:"hours" validate:"omitempty,gte=0,lte=1000"`
	Objectives  *[]string  `json:"objectives" validate:"omitempty,max=20,dive,max=500"`
	Outcomes    *[]string  `json:"outcomes" validate:"omitempty,max=20,dive,max=500"`
	Tags        *[]string  `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}

// Normalize canonicalises enum casing.
func (r *ActivityUpdateRequest) Normalize() {
	if r.Type != nil {
		t := strings.ToLower(strings.TrimSpace(*r.Type))
		r.Type = &t
	}
}

// ActivityStatusRequest moves an activity through its lifecycle.
type ActivityStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=planned in_progress completed submitted evaluated cancelled"`
}

// ActivityListRequest filters activity listings.
type ActivityListRequest struct {
	PageRequest
	Type      string
	Status    string
	ScholarID *uint
	From      *time.Time
	To        *time.Time
	Search    string
}

// ActivityResponse is the public view of an activity.
type ActivityResponse struct {
	ID           uint                 `json:"id"`
	ScholarID    uint                 `json:"scholar_id"`
	ScholarName  string               `json:"scholar_name,omitempty"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Type         string               `json:"type"`
	Status       string               `json:"status"`
	StartDate    time.Time            `json:"start_date"`
	EndDate      *time.Time           `json:"end_date"`
	Location     string               `json:"location"`
	Hours        float64              `json:"hours"`
	Objectives   []string             `json:"objectives"`
	Outcomes     []string             `json:"outcomes"`
	Tags         []string             `json:"tags"`
	CreatedBy    uint                 `json:"created_by"`
	SubmittedAt  *time.Time           `json:"submitted_at"`
	Documents    []DocumentResponse   `json:"documents,omitempty"`
	Evaluations  []EvaluationResponse `json:"evaluations,omitempty"`
	AverageScore *float64             `json:"average_score,omitempty"`
	LetterGrade  string               `json:"letter_grade,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// RevisionResponse is one entry of an activity's edit trail.
type RevisionResponse struct {
	ID         uint                   `json:"id"`
	EditorID   uint                   `json:"editor_id"`
	EditorRole string                 `json:"editor_role"`
	Changes    map[string]interface{} `json:"changes"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewActivityResponse converts an activity with whatever relations were preloaded.
func NewActivityResponse(a models.Activity) ActivityResponse {
	resp := ActivityResponse{
		ID:          a.ID,
		ScholarID:   a.ScholarID,
		Title:       a.Title,
		Description: a.Description,
		Type:        a.Type,
		Status:      a.Status,
		StartDate:   a.StartDate,
		EndDate:     a.EndDate,
		Location:    a.Location,
		Hours:       a.Hours,
		Objectives:  models.DecodeStringList(a.Objectives),
		Outcomes:    models.DecodeStringList(a.Outcomes),
		Tags:        models.DecodeStringList(a.Tags),
		CreatedBy:   a.CreatedBy,
		SubmittedAt: a.SubmittedAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.Scholar != nil && a.Scholar.User != nil {
		resp.ScholarName = a.Scholar.User.FullName()
	}
	if len(a.Documents) > 0 {
		resp.Documents = NewDocumentResponses(a.Documents)
	}
	if len(a.Evaluations) > 0 {
		resp.Evaluations = NewEvaluationResponses(a.Evaluations)
		scores := make([]float64, 0, len(a.Evaluations))
		for _, e := range a.Evaluations {
			scores = append(scores, e.Score)
		}
		if avg, ok := grading.AverageScore(scores); ok {
			resp.AverageScore = &avg
			resp.LetterGrade = grading.Letter(avg)
		}
	}
	return resp
}

// NewActivityResponses converts a slice of activities.
func NewActivityResponses(items []models.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(items))
	for _, a := range items {
		out = append(out, NewActivityResponse(a))
	}
	return out
}

// NewRevisionResponses converts the revision trail.
func NewRevisionResponses(items []models.ActivityRevision) []RevisionResponse {
	out := make([]RevisionResponse, 0, len(items))
	for _, r := range items {
		out = append(out, RevisionResponse{
			ID:         r.ID,
			EditorID:   r.EditorID,
			EditorRole: r.EditorRole,
			Changes:    map[string]interface{}(r.Changes),
			CreatedAt:  r.CreatedAt,
		})
	}
	return out
}
