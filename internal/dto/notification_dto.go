package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/led-platform-api/internal/models"
)

// NotificationResponse is the inbox view of a notification.
type NotificationResponse struct {
	ID        uint       `json:"id"`
	UserID    uint       `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Link      string     `json:"link,omitempty"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NotificationCreateRequest lets staff notify a list of users or every user of a role.
type NotificationCreateRequest struct {
	UserIDs   []uint     `json:"user_ids" validate:"required_without=Role,omitempty,max=1000,dive,gt=0"`
	Role      string     `json:"role" validate:"required_without=UserIDs,omitempty,oneof=student supervisor led_team admin"`
	Type      string     `json:"type" validate:"omitempty,oneof=info activity_submitted activity_status evaluation_received document_verified reminder system"`
	Title     string     `json:"title" validate:"required,min=1,max=255"`
	Message   string     `json:"message" validate:"required,min=1,max=2000"`
	Link      string     `json:"link" validate:"omitempty,max=512"`
	ExpiresAt *time.Time `json:"expires_at"`
	SendEmail bool       `json:"send_email"`
}

// Normalize canonicalises enum casing and defaults the type.
func (r *NotificationCreateRequest) Normalize() {
	r.Role = models.NormalizeRole(r.Role)
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	if r.Type == "" {
		r.Type = models.NotificationTypeInfo
	}
}

// NotificationListRequest filters the caller's inbox.
type NotificationListRequest struct {
	PageRequest
	UnreadOnly bool
}

// UnreadCountResponse reports the number of unread notifications.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// ReadAllResponse reports how many notifications were marked read.
type ReadAllResponse struct {
	Updated int64 `json:"updated"`
}

// BroadcastResponse summarises a staff notification send.
type BroadcastResponse struct {
	Recipients int `json:"recipients"`
}

// NewNotificationResponse converts a notification model.
func NewNotificationResponse(n models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		ExpiresAt: n.ExpiresAt,
		CreatedAt: n.CreatedAt,
	}
}

// NewNotificationResponses converts a slice of notifications.
func NewNotificationResponses(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, NewNotificationResponse(n))
	}
	return out
}
