package dto

import "strings"

// Search scopes.
const (
	SearchTypeAll        = "all"
	SearchTypeScholars   = "scholars"
	SearchTypeActivities = "activities"
	SearchTypeUsers      = "users"
	SearchTypeDocuments  = "documents"
)

// SearchRequest is a global search query.
type SearchRequest struct {
	Query string `validate:"required,min=2,max=100"`
	Type  string `validate:"required,oneof=all scholars activities users documents"`
	Limit int    `validate:"gte=0,lte=50"`
}

// Normalize trims the query and defaults scope and limit.
func (r *SearchRequest) Normalize() {
	r.Query = strings.TrimSpace(r.Query)
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	if r.Type == "" {
		r.Type = SearchTypeAll
	}
	if r.Limit <= 0 {
		r.Limit = 10
	}
}

// Includes reports whether the scope covers the given type.
func (r SearchRequest) Includes(scope string) bool {
	return r.Type == SearchTypeAll || r.Type == scope
}

// SearchResponse groups matches per resource type.
type SearchResponse struct {
	Query      string             `json:"query"`
	Backend    string             `json:"backend"`
	Scholars   []ScholarResponse  `json:"scholars,omitempty"`
	Activities []ActivityResponse `json:"activities,omitempty"`
	Users      []UserResponse     `json:"users,omitempty"`
	Documents  []DocumentResponse `json:"documents,omitempty"`
	Total      int                `json:"total"`
}
