package models

import "time"

// University is a partner institution scholars are enrolled in.
type University struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Code      string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	City      string    `gorm:"size:128" json:"city"`
	Country   string    `gorm:"size:128" json:"country"`
	Website   string    `gorm:"size:255" json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
