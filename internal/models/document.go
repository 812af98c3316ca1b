package models

import "time"

// Document categories.
const (
	DocumentCategoryCertificate = "certificate"
	DocumentCategoryReport      = "report"
	DocumentCategoryAttestation = "attestation"
	DocumentCategoryPhoto       = "photo"
	DocumentCategoryOther       = "other"
)

// Document is an uploaded file attached to a scholar or an activity.
type Document struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	OwnerID     uint       `gorm:"index;not null" json:"owner_id"`
	ScholarID   *uint      `gorm:"index" json:"scholar_id"`
	ActivityID  *uint      `gorm:"index" json:"activity_id"`
	FileName    string     `gorm:"size:255;not null" json:"file_name"`
	StoredName  string     `gorm:"size:255;not null" json:"-"`
	StoragePath string     `gorm:"size:512;not null" json:"-"`
	URL         string     `gorm:"size:512" json:"url"`
	Driver      string     `gorm:"size:32;not null" json:"-"`
	MimeType    string     `gorm:"size:128;not null" json:"mime_type"`
	SizeBytes   int64      `gorm:"not null" json:"size_bytes"`
	Checksum    string     `gorm:"size:128" json:"checksum"`
	Category    string     `gorm:"size:32;index" json:"category"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Verified    bool       `gorm:"not null;default:false" json:"verified"`
	VerifiedBy  *uint      `json:"verified_by,omitempty"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
