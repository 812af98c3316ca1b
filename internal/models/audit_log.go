package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog captures a successful mutating request.
type AuditLog struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	UserID        *uint             `gorm:"index" json:"user_id"`
	Role          string            `gorm:"size:32" json:"role"`
	Method        string            `gorm:"size:8;index;not null" json:"method"`
	Path          string            `gorm:"size:512;not null" json:"path"`
	Action        string            `gorm:"size:64;not null" json:"action"`
	EntityType    string            `gorm:"size:64;index" json:"entity_type"`
	EntityID      *uint             `json:"entity_id"`
	StatusCode    int               `json:"status_code"`
	IP            string            `gorm:"size:64" json:"ip"`
	UserAgent     string            `gorm:"size:512" json:"user_agent"`
	CorrelationID string            `gorm:"size:64" json:"correlation_id"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`
}
