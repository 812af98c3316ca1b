package dto

import "time"

// ScholarStats groups scholar counts.
type ScholarStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// ActivityStats groups activity counts.
type ActivityStats struct {
	Total    int64            `json:"total"`
	ByType   map[string]int64 `json:"by_type"`
	ByStatus map[string]int64 `json:"by_status"`
}

// EvaluationStats summarises grading across all evaluations.
type EvaluationStats struct {
	Count        int            `json:"count"`
	AverageScore *float64       `json:"average_score"`
	AverageGPA   *float64       `json:"average_gpa"`
	Distribution map[string]int `json:"distribution"`
}

// MonthlyCount is the number of activities started in a month (YYYY-MM).
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// OverviewReport is the dashboard payload.
type OverviewReport struct {
	Scholars    ScholarStats    `json:"scholars"`
	Activities  ActivityStats   `json:"activities"`
	Evaluations EvaluationStats `json:"evaluations"`
	Monthly     []MonthlyCount  `json:"monthly_activities"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// ScholarReport summarises one scholar's track record.
type ScholarReport struct {
	Scholar            ScholarResponse  `json:"scholar"`
	ActivitiesByType   map[string]int64 `json:"activities_by_type"`
	ActivitiesByStatus map[string]int64 `json:"activities_by_status"`
	TotalHours         float64          `json:"total_hours"`
	EvaluationCount    int              `json:"evaluation_count"`
	AverageScore       *float64         `json:"average_score"`
	AverageGPA         *float64         `json:"average_gpa"`
	LetterGrade        string           `json:"letter_grade"`
}

// ExportRequest selects the dataset and file format of an export.
type ExportRequest struct {
	Format  string `validate:"required,oneof=csv xlsx pdf"`
	Dataset string `validate:"required,oneof=scholars activities evaluations"`
}

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	FileName    string
	ContentType string
	Body        []byte
}
