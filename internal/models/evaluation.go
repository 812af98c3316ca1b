package models

import "time"

// Evaluation is a supervisor's score and feedback for an activity.
type Evaluation struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ActivityID  uint      `gorm:"not null;uniqueIndex:idx_evaluation_activity_evaluator" json:"activity_id"`
	EvaluatorID uint      `gorm:"not null;uniqueIndex:idx_evaluation_activity_evaluator;index" json:"evaluator_id"`
	Score       float64   `gorm:"not null" json:"score"`
	Feedback    string    `gorm:"type:text" json:"feedback"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Activity    *Activity `gorm:"foreignKey:ActivityID" json:"activity,omitempty"`
	Evaluator   *User     `gorm:"foreignKey:EvaluatorID" json:"evaluator,omitempty"`
}
