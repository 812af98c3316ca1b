package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/observability"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/utils"
)

// ScholarService manages scholar records and their score history.
type ScholarService interface {
	List(ctx context.Context, actor Actor, req dto.ScholarListRequest) ([]dto.ScholarResponse, utils.PaginationMeta, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.ScholarResponse, error)
	Mine(ctx context.Context, actor Actor) (dto.ScholarResponse, error)
	Create(ctx context.Context, actor Actor, req dto.ScholarCreateRequest) (dto.ScholarResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.ScholarUpdateRequest) (dto.ScholarResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	ScoreHistory(ctx context.Context, actor Actor, id uint) ([]dto.ScoreHistoryResponse, error)
}

type scholarService struct {
	scholars     repository.ScholarRepository
	users        repository.UserRepository
	universities repository.UniversityRepository
	index        SearchIndex
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// NewScholarService constructs the scholar service. index may be nil.
func NewScholarService(scholars repository.ScholarRepository, users repository.UserRepository, universities repository.UniversityRepository, index SearchIndex, validate *validator.Validate, logger zerolog.Logger) ScholarService {
	return &scholarService{
		scholars:     scholars,
		users:        users,
		universities: universities,
		index:        index,
		validator:    validate,
		logger:       logger.With().Str("component", "scholar_service").Logger(),
		tracer:       observability.Tracer("scholar_service"),
	}
}

func (s *scholarService) List(ctx context.Context, actor Actor, req dto.ScholarListRequest) ([]dto.ScholarResponse, utils.PaginationMeta, error) {
	page, limit := utils.NormalizePage(req.Page, req.Limit)
	filter := repository.ScholarFilter{
		Page:         repository.Page{Page: page, Limit: limit},
		Status:       req.Status,
		UniversityID: req.UniversityID,
		Program:      req.Program,
		AdvisorID:    req.AdvisorID,
		Search:       req.Search,
	}
	switch {
	case actor.IsStudent():
		filter.UserID = uintPtr(actor.ID)
	case actor.IsSupervisor():
		filter.AdvisorID = uintPtr(actor.ID)
	case !actor.IsStaff():
		return nil, utils.PaginationMeta{}, ErrForbidden
	}

	scholars, total, err := s.scholars.List(ctx, filter)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return dto.NewScholarResponses(scholars), utils.NewPaginationMeta(page, limit, total), nil
}

func (s *scholarService) Get(ctx context.Context, actor Actor, id uint) (dto.ScholarResponse, error) {
	scholar, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.ScholarResponse{}, err
	}
	return dto.NewScholarResponse(scholar), nil
}

func (s *scholarService) Mine(ctx context.Context, actor Actor) (dto.ScholarResponse, error) {
	scholar, err := s.scholars.GetByUserID(ctx, actor.ID)
	if err != nil {
		return dto.ScholarResponse{}, mapNotFound(err, ErrScholarNotFound)
	}
	return dto.NewScholarResponse(scholar), nil
}

func (s *scholarService) Create(ctx context.Context, actor Actor, req dto.ScholarCreateRequest) (dto.ScholarResponse, error) {
	if !actor.IsStaff() {
		return dto.ScholarResponse{}, ErrForbidden
	}
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return dto.ScholarResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "scholars.create", trace.WithAttributes(attribute.Int("scholar.user_id", int(req.UserID))))
	defer span.End()

	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		return dto.ScholarResponse{}, mapNotFound(err, ErrUserNotFound)
	}
	exists, err := s.scholars.ExistsForUser(ctx, req.UserID)
	if err != nil {
		return dto.ScholarResponse{}, err
	}
	if exists {
		return dto.ScholarResponse{}, ErrScholarExists
	}
	if err := s.checkReferences(ctx, req.UniversityID, req.AdvisorID); err != nil {
		return dto.ScholarResponse{}, err
	}

	status := req.Status
	if status == "" {
		status = models.ScholarStatusActive
	}
	scholar := models.Scholar{
		UserID:         req.UserID,
		UniversityID:   req.UniversityID,
		Program:        req.Program,
		StudentNumber:  req.StudentNumber,
		AdmissionYear:  req.AdmissionYear,
		GraduationYear: req.GraduationYear,
		AdvisorID:      req.AdvisorID,
		Status:         status,
		Score:          req.Score,
		Notes:          req.Notes,
	}
	if err := s.scholars.Create(ctx, &scholar); err != nil {
		if isUniqueViolation(err) {
			return dto.ScholarResponse{}, ErrScholarExists
		}
		span.RecordError(err)
		return dto.ScholarResponse{}, err
	}

	created, err := s.scholars.GetByID(ctx, scholar.ID)
	if err != nil {
		return dto.ScholarResponse{}, err
	}
	s.reindex(ctx, created)
	s.logger.Info().Uint("scholar_id", created.ID).Uint("actor_id", actor.ID).Msg("scholar created")
	return dto.NewScholarResponse(created), nil
}

func (s *scholarService) Update(ctx context.Context, actor Actor, id uint, req dto.ScholarUpdateRequest) (dto.ScholarResponse, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return dto.ScholarResponse{}, err
	}

	current, err := s.scholars.GetByID(ctx, id)
	if err != nil {
		return dto.ScholarResponse{}, mapNotFound(err, ErrScholarNotFound)
	}
	switch {
	case actor.IsStaff():
	case isAdvisorOf(actor, current) && req.OnlyGrading():
	default:
		return dto.ScholarResponse{}, ErrForbidden
	}

	if err := s.checkReferences(ctx, changedUint(req.UniversityID, current.UniversityID), changedUint(req.AdvisorID, current.AdvisorID)); err != nil {
		return dto.ScholarResponse{}, err
	}

	updates := map[string]interface{}{}
	if req.UniversityID != nil && !equalUintPtr(req.UniversityID, current.UniversityID) {
		updates["university_id"] = *req.UniversityID
	}
	if req.Program != nil && *req.Program != current.Program {
		updates["program"] = *req.Program
	}
	if req.StudentNumber != nil && *req.StudentNumber != current.StudentNumber {
		updates["student_number"] = *req.StudentNumber
	}
	if req.AdmissionYear != nil && *req.AdmissionYear != current.AdmissionYear {
		updates["admission_year"] = *req.AdmissionYear
	}
	if req.GraduationYear != nil && (current.GraduationYear == nil || *req.GraduationYear != *current.GraduationYear) {
		updates["graduation_year"] = *req.GraduationYear
	}
	if req.AdvisorID != nil && !equalUintPtr(req.AdvisorID, current.AdvisorID) {
		updates["advisor_id"] = *req.AdvisorID
	}
	if req.Status != nil && *req.Status != current.Status {
		updates["status"] = *req.Status
	}
	if req.Notes != nil && *req.Notes != current.Notes {
		updates["notes"] = *req.Notes
	}

	var history *models.ScholarScoreHistory
	if req.Score != nil && (current.Score == nil || *req.Score != *current.Score) {
		updates["score"] = *req.Score
		history = &models.ScholarScoreHistory{
			PreviousScore: current.Score,
			NewScore:      *req.Score,
			ChangedBy:     actor.ID,
			Reason:        req.Reason,
		}
	}

	if len(updates) == 0 {
		return dto.NewScholarResponse(current), nil
	}

	updated, err := s.scholars.Update(ctx, id, updates, history)
	if err != nil {
		return dto.ScholarResponse{}, mapNotFound(err, ErrScholarNotFound)
	}
	s.reindex(ctx, updated)
	return dto.NewScholarResponse(updated), nil
}

// Delete withdraws the scholar. The row and its history are kept.
func (s *scholarService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsStaff() {
		return ErrForbidden
	}
	if err := s.scholars.SoftDelete(ctx, id); err != nil {
		return mapNotFound(err, ErrScholarNotFound)
	}
	if scholar, err := s.scholars.GetByID(ctx, id); err == nil {
		s.reindex(ctx, scholar)
	}
	s.logger.Info().Uint("scholar_id", id).Uint("actor_id", actor.ID).Msg("scholar withdrawn")
	return nil
}

func (s *scholarService) ScoreHistory(ctx context.Context, actor Actor, id uint) ([]dto.ScoreHistoryResponse, error) {
	if _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}
	history, err := s.scholars.ScoreHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewScoreHistoryResponses(history), nil
}

func (s *scholarService) load(ctx context.Context, actor Actor, id uint) (models.Scholar, error) {
	scholar, err := s.scholars.GetByID(ctx, id)
	if err != nil {
		return models.Scholar{}, mapNotFound(err, ErrScholarNotFound)
	}
	if !canViewScholar(actor, scholar) {
		return models.Scholar{}, ErrForbidden
	}
	return scholar, nil
}

func (s *scholarService) checkReferences(ctx context.Context, universityID, advisorID *uint) error {
	if universityID != nil {
		if _, err := s.universities.GetByID(ctx, *universityID); err != nil {
			return mapNotFound(err, ErrUniversityNotFound)
		}
	}
	if advisorID != nil {
		advisor, err := s.users.GetByID(ctx, *advisorID)
		if err != nil {
			if isNotFound(err) {
				return ErrInvalidAdvisor
			}
			return err
		}
		if advisor.Role != models.RoleSupervisor || !advisor.IsActive {
			return ErrInvalidAdvisor
		}
	}
	return nil
}

func (s *scholarService) reindex(ctx context.Context, scholar models.Scholar) {
	indexBestEffort(ctx, s.index, s.logger, "scholar", func(ctx context.Context, index SearchIndex) error {
		return index.IndexScholar(ctx, ScholarDocument(scholar))
	})
}

// changedUint returns next only when it differs from current, so unchanged references are not re-validated.
func changedUint(next, current *uint) *uint {
	if next == nil || equalUintPtr(next, current) {
		return nil
	}
	return next
}

func equalUintPtr(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
