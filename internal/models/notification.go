package models

import "time"

// Notification types.
const (
	NotificationTypeInfo               = "info"
	NotificationTypeActivitySubmitted  = "activity_submitted"
	NotificationTypeActivityStatus     = "activity_status"
	NotificationTypeEvaluationReceived = "evaluation_received"
	NotificationTypeDocumentVerified   = "document_verified"
	NotificationTypeReminder           = "reminder"
	NotificationTypeSystem             = "system"
)

// Notification is a message addressed to a single user.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Type      string     `gorm:"size:64;not null" json:"type"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Message   string     `gorm:"type:text" json:"message"`
	Link      string     `gorm:"size:512" json:"link,omitempty"`
	Read      bool       `gorm:"not null;default:false;index" json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsExpired reports whether the notification is past its expiry at the given time.
func (n Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && !n.ExpiresAt.After(now)
}
