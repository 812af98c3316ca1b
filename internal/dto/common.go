package dto

// PageRequest carries the page window of list endpoints.
type PageRequest struct {
	Page  int
	Limit int
}
