package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/observability"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/pkg/search"
)

// Search backends reported in responses and metrics.
const (
	BackendElasticsearch = "elasticsearch"
	BackendDatabase      = "database"
)

// SearchService runs global searches with the visibility rules of each resource.
type SearchService interface {
	Search(ctx context.Context, actor Actor, req dto.SearchRequest) (dto.SearchResponse, error)
}

// SearchDeps groups the collaborators of the search service. Index may be nil.
type SearchDeps struct {
	Index      SearchIndex
	Scholars   repository.ScholarRepository
	Activities repository.ActivityRepository
	Users      repository.UserRepository
	Documents  repository.DocumentRepository
}

type searchService struct {
	SearchDeps
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSearchService constructs the search service.
func NewSearchService(deps SearchDeps, validate *validator.Validate, logger zerolog.Logger) SearchService {
	return &searchService{
		SearchDeps: deps,
		validator:  validate,
		logger:     logger.With().Str("component", "search_service").Logger(),
	}
}

func (s *searchService) Search(ctx context.Context, actor Actor, req dto.SearchRequest) (dto.SearchResponse, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return dto.SearchResponse{}, err
	}

	ctx, span := observability.Tracer("search_service").Start(ctx, "search.query")
	defer span.End()
	span.SetAttributes(attribute.String("search.type", req.Type), attribute.Int("search.limit", req.Limit))

	resp := dto.SearchResponse{Query: req.Query, Backend: BackendDatabase}

	indexed := false
	if s.Index != nil && (req.Includes(dto.SearchTypeScholars) || req.Includes(dto.SearchTypeActivities)) {
		if err := s.searchIndex(ctx, actor, req, &resp); err != nil {
			s.logger.Warn().Err(err).Msg("search index unavailable, falling back to database")
			span.RecordError(err)
			resp.Scholars, resp.Activities = nil, nil
		} else {
			indexed = true
			resp.Backend = BackendElasticsearch
		}
	}

	if !indexed {
		if err := s.searchDatabase(ctx, actor, req, &resp); err != nil {
			return dto.SearchResponse{}, err
		}
	}

	if req.Includes(dto.SearchTypeUsers) && actor.IsStaff() {
		users, _, err := s.Users.List(ctx, repository.UserFilter{
			Page:   repository.Page{Page: 1, Limit: req.Limit},
			Search: req.Query,
		})
		if err != nil {
			return dto.SearchResponse{}, err
		}
		resp.Users = dto.NewUserResponses(users)
	}

	if req.Includes(dto.SearchTypeDocuments) {
		filter := repository.DocumentFilter{Page: repository.Page{Page: 1, Limit: req.Limit}, Search: req.Query}
		switch {
		case actor.IsStudent():
			filter.OwnerID = uintPtr(actor.ID)
		case actor.IsSupervisor():
			filter.AdvisorID = uintPtr(actor.ID)
		}
		docs, _, err := s.Documents.List(ctx, filter)
		if err != nil {
			return dto.SearchResponse{}, err
		}
		resp.Documents = dto.NewDocumentResponses(docs)
	}

	resp.Total = len(resp.Scholars) + len(resp.Activities) + len(resp.Users) + len(resp.Documents)
	observability.SearchRequests().WithLabelValues(resp.Backend).Inc()
	span.SetAttributes(attribute.String("search.backend", resp.Backend), attribute.Int("search.total", resp.Total))
	return resp, nil
}

// searchIndex resolves index hits back to database rows, dropping anything the actor cannot see.
func (s *searchService) searchIndex(ctx context.Context, actor Actor, req dto.SearchRequest, resp *dto.SearchResponse) error {
	var indices []string
	if req.Includes(dto.SearchTypeScholars) {
		indices = append(indices, search.IndexScholars)
	}
	if req.Includes(dto.SearchTypeActivities) {
		indices = append(indices, search.IndexActivities)
	}

	// Over-fetch since visibility filtering happens after the query.
	hits, err := s.Index.Search(ctx, req.Query, indices, req.Limit*3)
	if err != nil {
		return err
	}

	resp.Scholars = []dto.ScholarResponse{}
	resp.Activities = []dto.ActivityResponse{}
	for _, hit := range hits {
		switch hit.Index {
		case search.IndexScholars:
			if len(resp.Scholars) >= req.Limit {
				continue
			}
			scholar, err := s.Scholars.GetByID(ctx, hit.ID)
			if err != nil || !canViewScholar(actor, scholar) {
				continue
			}
			resp.Scholars = append(resp.Scholars, dto.NewScholarResponse(scholar))
		case search.IndexActivities:
			if len(resp.Activities) >= req.Limit {
				continue
			}
			activity, err := s.Activities.GetByID(ctx, hit.ID)
			if err != nil || activity.Scholar == nil || !canViewScholar(actor, *activity.Scholar) {
				continue
			}
			resp.Activities = append(resp.Activities, dto.NewActivityResponse(activity))
		}
	}
	return nil
}

func (s *searchService) searchDatabase(ctx context.Context, actor Actor, req dto.SearchRequest, resp *dto.SearchResponse) error {
	page := repository.Page{Page: 1, Limit: req.Limit}

	if req.Includes(dto.SearchTypeScholars) {
		filter := repository.ScholarFilter{Page: page, Search: req.Query}
		switch {
		case actor.IsStudent():
			filter.UserID = uintPtr(actor.ID)
		case actor.IsSupervisor():
			filter.AdvisorID = uintPtr(actor.ID)
		}
		scholars, _, err := s.Scholars.List(ctx, filter)
		if err != nil {
			return err
		}
		resp.Scholars = dto.NewScholarResponses(scholars)
	}

	if req.Includes(dto.SearchTypeActivities) {
		filter := repository.ActivityFilter{Page: page, Search: req.Query}
		switch {
		case actor.IsStudent():
			filter.OwnerUserID = uintPtr(actor.ID)
		case actor.IsSupervisor():
			filter.AdvisorID = uintPtr(actor.ID)
		}
		activities, _, err := s.Activities.List(ctx, filter)
		if err != nil {
			return err
		}
		resp.Activities = dto.NewActivityResponses(activities)
	}
	return nil
}
