package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/led-platform-api/internal/models"
)

// DocumentUploadRequest carries the form fields sent alongside an uploaded file.
type DocumentUploadRequest struct {
	ActivityID  *uint  `validate:"omitempty,gt=0"`
	ScholarID   *uint  `validate:"omitempty,gt=0"`
	Category    string `validate:"omitempty,oneof=certificate report attestation photo other"`
	Description string `validate:"omitempty,max=1000"`
}

// Normalize canonicalises the category.
func (r *DocumentUploadRequest) Normalize() {
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	if r.Category == "" {
		r.Category = models.DocumentCategoryOther
	}
}

// DocumentVerifyRequest toggles the verified flag. A missing flag means verified.
type DocumentVerifyRequest struct {
	Verified *bool `json:"verified"`
}

// DocumentListRequest filters document listings.
type DocumentListRequest struct {
	PageRequest
	ScholarID  *uint
	ActivityID *uint
	Category   string
	Verified   *bool
	Search     string
}

// DocumentResponse is the public view of an uploaded file.
type DocumentResponse struct {
	ID          uint       `json:"id"`
	OwnerID     uint       `json:"owner_id"`
	ScholarID   *uint      `json:"scholar_id"`
	ActivityID  *uint      `json:"activity_id"`
	FileName    string     `json:"file_name"`
	URL         string     `json:"url"`
	MimeType    string     `json:"mime_type"`
	SizeBytes   int64      `json:"size_bytes"`
	Checksum    string     `json:"checksum"`
	Category    string     `json:"category"`
	Description string     `json:"description,omitempty"`
	Verified    bool       `json:"verified"`
	VerifiedBy  *uint      `json:"verified_by,omitempty"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewDocumentResponse converts a document model.
func NewDocumentResponse(d models.Document) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		ScholarID:   d.ScholarID,
		ActivityID:  d.ActivityID,
		FileName:    d.FileName,
		URL:         d.URL,
		MimeType:    d.MimeType,
		SizeBytes:   d.SizeBytes,
		Checksum:    d.Checksum,
		Category:    d.Category,
		Description: d.Description,
		Verified:    d.Verified,
		VerifiedBy:  d.VerifiedBy,
		VerifiedAt:  d.VerifiedAt,
		CreatedAt:   d.CreatedAt,
	}
}

// NewDocumentResponses converts a slice of documents.
func NewDocumentResponses(items []models.Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(items))
	for _, d := range items {
		out = append(out, NewDocumentResponse(d))
	}
	return out
}
