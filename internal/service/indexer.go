package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/pkg/search"
)

const indexTimeout = 3 * time.Second

// SearchIndex is the full-text backend. A nil SearchIndex disables indexing and
// makes search fall back to the database.
type SearchIndex interface {
	IndexScholar(ctx context.Context, doc search.ScholarDoc) error
	IndexActivity(ctx context.Context, doc search.ActivityDoc) error
	DeleteActivity(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, indices []string, limit int) ([]search.Hit, error)
}

// ScholarDocument projects a scholar with preloaded relations onto its search document.
func ScholarDocument(s models.Scholar) search.ScholarDoc {
	doc := search.ScholarDoc{
		ID:            s.ID,
		StudentNumber: s.StudentNumber,
		Program:       s.Program,
		Status:        s.Status,
		AdvisorID:     s.AdvisorID,
		UserID:        s.UserID,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.User != nil {
		doc.FullName = s.User.FullName()
		doc.Email = s.User.Email
	}
	if s.University != nil {
		doc.University = s.University.Name
	}
	return doc
}

// ActivityDocument projects an activity onto its search document.
func ActivityDocument(a models.Activity) search.ActivityDoc {
	return search.ActivityDoc{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Type:        a.Type,
		Status:      a.Status,
		Tags:        models.DecodeStringList(a.Tags),
		ScholarID:   a.ScholarID,
		UpdatedAt:   a.UpdatedAt,
	}
}

// indexBestEffort runs fn against the index with a short deadline. Failures are logged only.
func indexBestEffort(ctx context.Context, index SearchIndex, logger zerolog.Logger, what string, fn func(context.Context, SearchIndex) error) {
	if index == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
	defer cancel()
	if err := fn(ctx, index); err != nil {
		logger.Warn().Err(err).Str("document", what).Msg("search indexing failed")
	}
}
