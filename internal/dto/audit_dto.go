package dto

import (
	"time"

	"github.com/noah-isme/led-platform-api/internal/models"
)

// AuditLogListRequest filters the audit trail.
type AuditLogListRequest struct {
	PageRequest
	UserID     *uint
	EntityType string
	Method     string
}

// AuditLogResponse is one audit trail entry.
type AuditLogResponse struct {
	ID            uint                   `json:"id"`
	UserID        *uint                  `json:"user_id"`
	Role          string                 `json:"role"`
	Method        string                 `json:"method"`
	Path          string                 `json:"path"`
	Action        string                 `json:"action"`
	EntityType    string                 `json:"entity_type"`
	EntityID      *uint                  `json:"entity_id"`
	StatusCode    int                    `json:"status_code"`
	IP            string                 `json:"ip"`
	UserAgent     string                 `json:"user_agent"`
	CorrelationID string                 `json:"correlation_id"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// NewAuditLogResponses converts audit entries.
func NewAuditLogResponses(items []models.AuditLog) []AuditLogResponse {
	out := make([]AuditLogResponse, 0, len(items))
	for _, e := range items {
		out = append(out, AuditLogResponse{
			ID:            e.ID,
			UserID:        e.UserID,
			Role:          e.Role,
			Method:        e.Method,
			Path:          e.Path,
			Action:        e.Action,
			EntityType:    e.EntityType,
			EntityID:      e.EntityID,
			StatusCode:    e.StatusCode,
			IP:            e.IP,
			UserAgent:     e.UserAgent,
			CorrelationID: e.CorrelationID,
			Metadata:      map[string]interface{}(e.Metadata),
			CreatedAt:     e.CreatedAt,
		})
	}
	return out
}
