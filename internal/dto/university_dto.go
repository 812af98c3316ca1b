package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/led-platform-api/internal/models"
)

// UniversityRequest creates a university.
type UniversityRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=255"`
	Code    string `json:"code" validate:"required,min=2,max=32"`
	City    string `json:"city" validate:"omitempty,max=128"`
	Country string `json:"country" validate:"omitempty,max=128"`
	Website string `json:"website" validate:"omitempty,url,max=255"`
}

// Normalize uppercases the code.
func (r *UniversityRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
}

// UniversityUpdateRequest is a partial update.
type UniversityUpdateRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=2,max=255"`
	Code    *string `json:"code" validate:"omitempty,min=2,max=32"`
	City    *string `json:"city" validate:"omitempty,max=128"`
	Country *string `json:"country" validate:"omitempty,max=128"`
	Website *string `json:"website" validate:"omitempty,url,max=255"`
}

// UniversityResponse is the public view of a university.
type UniversityResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	Website   string    `json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUniversityResponse converts a university model.
func NewUniversityResponse(u models.University) UniversityResponse {
	return UniversityResponse{
		ID:        u.ID,
		Name:      u.Name,
		Code:      u.Code,
		City:      u.City,
		Country:   u.Country,
		Website:   u.Website,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewUniversityResponses converts a slice of universities.
func NewUniversityResponses(items []models.University) []UniversityResponse {
	out := make([]UniversityResponse, 0, len(items))
	for _, u := range items {
		out = append(out, NewUniversityResponse(u))
	}
	return out
}
