package dto

import (
	"time"

	"github.com/noah-isme/led-platform-api/internal/grading"
	"github.com/noah-isme/led-platform-api/internal/models"
)

// EvaluationCreateRequest grades a submitted activity.
type EvaluationCreateRequest struct {
	ActivityID uint     `json:"activity_id" validate:"required"`
	Score      *float64 `json:"score" validate:"required,min=0,max=100"`
	Feedback   string   `json:"feedback" validate:"omitempty,max=5000"`
}

// EvaluationUpdateRequest re-grades an evaluation.
type EvaluationUpdateRequest struct {
	Score    *float64 `json:"score" validate:"omitempty,min=0,max=100"`
	Feedback *string  `json:"feedback" validate:"omitempty,max=5000"`
}

// EvaluationListRequest filters evaluation listings.
type EvaluationListRequest struct {
	PageRequest
	ActivityID  *uint
	EvaluatorID *uint
	ScholarID   *uint
}

// EvaluationResponse always carries the letter grade and GPA of its score.
type EvaluationResponse struct {
	ID            uint      `json:"id"`
	ActivityID    uint      `json:"activity_id"`
	ActivityTitle string    `json:"activity_title,omitempty"`
	EvaluatorID   uint      `json:"evaluator_id"`
	EvaluatorName string    `json:"evaluator_name,omitempty"`
	Score         float64   `json:"score"`
	LetterGrade   string    `json:"letter_grade"`
	GPA           float64   `json:"gpa"`
	Feedback      string    `json:"feedback"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewEvaluationResponse converts an evaluation.
func NewEvaluationResponse(e models.Evaluation) EvaluationResponse {
	result := grading.Convert(e.Score)
	resp := EvaluationResponse{
		ID:          e.ID,
		ActivityID:  e.ActivityID,
		EvaluatorID: e.EvaluatorID,
		Score:       e.Score,
		LetterGrade: result.Letter,
		GPA:         result.GPA,
		Feedback:    e.Feedback,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Activity != nil {
		resp.ActivityTitle = e.Activity.Title
	}
	if e.Evaluator != nil {
		resp.EvaluatorName = e.Evaluator.FullName()
	}
	return resp
}

// NewEvaluationResponses converts a slice of evaluations.
func NewEvaluationResponses(items []models.Evaluation) []EvaluationResponse {
	out := make([]EvaluationResponse, 0, len(items))
	for _, e := range items {
		out = append(out, NewEvaluationResponse(e))
	}
	return out
}
