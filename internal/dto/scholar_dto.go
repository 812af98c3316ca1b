package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/led-platform-api/internal/grading"
	"github.com/noah-isme/led-platform-api/internal/models"
)

// ScholarCreateRequest registers an existing user as a scholar.
type ScholarCreateRequest struct {
	UserID         uint     `json:"user_id" validate:"required"`
	UniversityID   *uint    `json:"university_id" validate:"omitempty,gt=0"`
	Program        string   `json:"program" validate:"omitempty,max=255"`
	StudentNumber  string   `json:"student_number" validate:"omitempty,max=64"`
	AdmissionYear  int      `json:"admission_year" validate:"omitempty,min=1990,max=2100"`
	GraduationYear *int     `json:"graduation_year" validate:"omitempty,min=1990,max=2100"`
	AdvisorID      *uint    `json:"advisor_id" validate:"omitempty,gt=0"`
	Status         string   `json:"status" validate:"omitempty,oneof=active pending graduated suspended withdrawn"`
	Score          *float64 `json:"score" validate:"omitempty,min=0,max=100"`
	Notes          string   `json:"notes" validate:"omitempty,max=2000"`
}

// Normalize canonicalises the status casing.
func (r *ScholarCreateRequest) Normalize() {
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
	r.Program = strings.TrimSpace(r.Program)
	r.StudentNumber = strings.TrimSpace(r.StudentNumber)
}

// ScholarUpdateRequest is a partial update. Reason documents a score change.
type ScholarUpdateRequest struct {
	UniversityID   *uint    `json:"university_id" validate:"omitempty,gt=0"`
	Program        *string  `json:"program" validate:"omitempty,max=255"`
	StudentNumber  *string  `json:"student_number" validate:"omitempty,max=64"`
	AdmissionYear  *int     `json:"admission_year" validate:"omitempty,min=1990,max=2100"`
	GraduationYear *int     `json:"graduation_year" validate:"omitempty,min=1990,max=2100"`
	AdvisorID      *uint    `json:"advisor_id" validate:"omitempty,gt=0"`
	Status         *string  `json:"status" validate:"omitempty,oneof=active pending graduated suspended withdrawn"`
	Score          *float64 `json:"score" validate:"omitempty,min=0,max=100"`
	Notes          *string  `json:"notes" validate:"omitempty,max=2000"`
	Reason         string   `json:"reason" validate:"omitempty,max=500"`
}

// Normalize canonicalises the status casing.
func (r *ScholarUpdateRequest) Normalize() {
	if r.Status != nil {
		s := strings.ToLower(strings.TrimSpace(*r.Status))
		r.Status = &s
	}
}

// OnlyGrading reports whether the update touches nothing but score and notes.
func (r ScholarUpdateRequest) OnlyGrading() bool {
	return r.UniversityID == nil && r.Program == nil && r.StudentNumber == nil &&
		r.AdmissionYear == nil && r.GraduationYear == nil && r.AdvisorID == nil && r.Status == nil
}

// ScholarListRequest filters scholar listings.
type ScholarListRequest struct {
	PageRequest
	Status       string
	UniversityID *uint
	Program      string
	AdvisorID    *uint
	Search       string
}

// ScholarResponse is the public view of a scholar.
type ScholarResponse struct {
	ID             uint                `json:"id"`
	UserID         uint                `json:"user_id"`
	User           *UserSummary        `json:"user,omitempty"`
	University     *UniversityResponse `json:"university,omitempty"`
	Advisor        *UserSummary        `json:"advisor,omitempty"`
	Program        string              `json:"program"`
	StudentNumber  string              `json:"student_number"`
	AdmissionYear  int                 `json:"admission_year"`
	GraduationYear *int                `json:"graduation_year"`
	Status         string              `json:"status"`
	Score          *float64            `json:"score"`
	LetterGrade    string              `json:"letter_grade,omitempty"`
	GPA            *float64            `json:"gpa,omitempty"`
	Notes          string              `json:"notes,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// ScoreHistoryResponse is one entry of a scholar's score trail.
type ScoreHistoryResponse struct {
	ID            uint      `json:"id"`
	PreviousScore *float64  `json:"previous_score"`
	NewScore      float64   `json:"new_score"`
	LetterGrade   string    `json:"letter_grade"`
	ChangedBy     uint      `json:"changed_by"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewScholarResponse converts a scholar with its preloaded relations.
func NewScholarResponse(s models.Scholar) ScholarResponse {
	resp := ScholarResponse{
		ID:             s.ID,
		UserID:         s.UserID,
		User:           NewUserSummary(s.User),
		Advisor:        NewUserSummary(s.Advisor),
		Program:        s.Program,
		StudentNumber:  s.StudentNumber,
		AdmissionYear:  s.AdmissionYear,
		GraduationYear: s.GraduationYear,
		Status:         s.Status,
		Score:          s.Score,
		Notes:          s.Notes,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if s.University != nil && s.University.ID != 0 {
		u := NewUniversityResponse(*s.University)
		resp.University = &u
	}
	if s.Score != nil {
		result := grading.Convert(*s.Score)
		resp.LetterGrade = result.Letter
		if result.Valid {
			gpa := result.GPA
			resp.GPA = &gpa
		}
	}
	return resp
}

// NewScholarResponses converts a slice of scholars.
func NewScholarResponses(items []models.Scholar) []ScholarResponse {
	out := make([]ScholarResponse, 0, len(items))
	for _, s := range items {
		out = append(out, NewScholarResponse(s))
	}
	return out
}

// NewScoreHistoryResponses converts the score trail.
func NewScoreHistoryResponses(items []models.ScholarScoreHistory) []ScoreHistoryResponse {
	out := make([]ScoreHistoryResponse, 0, len(items))
	for _, h := range items {
		out = append(out, ScoreHistoryResponse{
			ID:            h.ID,
			PreviousScore: h.PreviousScore,
			NewScore:      h.NewScore,
			LetterGrade:   grading.Letter(h.NewScore),
			ChangedBy:     h.ChangedBy,
			Reason:        h.Reason,
			CreatedAt:     h.CreatedAt,
		})
	}
	return out
}
