package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/grading"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/observability"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/utils"
)

// EvaluationService grades activities.
type EvaluationService interface {
	List(ctx context.Context, actor Actor, req dto.EvaluationListRequest) ([]dto.EvaluationResponse, utils.PaginationMeta, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.EvaluationResponse, error)
	Create(ctx context.Context, actor Actor, req dto.EvaluationCreateRequest) (dto.EvaluationResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.EvaluationUpdateRequest) (dto.EvaluationResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type evaluationService struct {
	evaluations repository.EvaluationRepository
	activities  repository.ActivityRepository
	notifier    Notifier
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewEvaluationService constructs the evaluation service. notifier may be nil.
func NewEvaluationService(evaluations repository.EvaluationRepository, activities repository.ActivityRepository, notifier Notifier, validate *validator.Validate, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		evaluations: evaluations,
		activities:  activities,
		notifier:    notifier,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		tracer:      observability.Tracer("evaluation_service"),
	}
}

func (s *evaluationService) List(ctx context.Context, actor Actor, req dto.EvaluationListRequest) ([]dto.EvaluationResponse, utils.PaginationMeta, error) {
	page, limit := utils.NormalizePage(req.Page, req.Limit)
	filter := repository.EvaluationFilter{
		Page:        repository.Page{Page: page, Limit: limit},
		ActivityID:  req.ActivityID,
		EvaluatorID: req.EvaluatorID,
		ScholarID:   req.ScholarID,
	}
	switch {
	case actor.IsStudent():
		filter.OwnerUserID = uintPtr(actor.ID)
	case actor.IsSupervisor():
		filter.AdvisorID = uintPtr(actor.ID)
	case !actor.IsStaff():
		return nil, utils.PaginationMeta{}, ErrForbidden
	}

	items, total, err := s.evaluations.List(ctx, filter)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return dto.NewEvaluationResponses(items), utils.NewPaginationMeta(page, limit, total), nil
}

func (s *evaluationService) Get(ctx context.Context, actor Actor, id uint) (dto.EvaluationResponse, error) {
	evaluation, err := s.evaluations.GetByID(ctx, id)
	if err != nil {
		return dto.EvaluationResponse{}, mapNotFound(err, ErrEvaluationNotFound)
	}
	if !s.canView(actor, evaluation) {
		return dto.EvaluationResponse{}, ErrForbidden
	}
	return dto.NewEvaluationResponse(evaluation), nil
}

// Create records an evaluation and moves the activity to evaluated atomically.
func (s *evaluationService) Create(ctx context.Context, actor Actor, req dto.EvaluationCreateRequest) (dto.EvaluationResponse, error) {
	if !actor.IsStaff() && !actor.IsSupervisor() {
		return dto.EvaluationResponse{}, ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.EvaluationResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "evaluations.create", trace.WithAttributes(
		attribute.Int("evaluation.activity_id", int(req.ActivityID)),
		attribute.Float64("evaluation.score", *req.Score),
	))
	defer span.End()

	activity, err := s.activities.GetByID(ctx, req.ActivityID)
	if err != nil {
		return dto.EvaluationResponse{}, mapNotFound(err, ErrActivityNotFound)
	}
	if actor.IsSupervisor() && (activity.Scholar == nil || !isAdvisorOf(actor, *activity.Scholar)) {
		return dto.EvaluationResponse{}, ErrForbidden
	}

	exists, err := s.evaluations.Exists(ctx, activity.ID, actor.ID)
	if err != nil {
		return dto.EvaluationResponse{}, err
	}
	if exists {
		return dto.EvaluationResponse{}, ErrEvaluationExists
	}
	if !isGradable(activity.Status) {
		return dto.EvaluationResponse{}, ErrActivityNotGradable
	}

	evaluation := models.Evaluation{
		ActivityID:  activity.ID,
		EvaluatorID: actor.ID,
		Score:       *req.Score,
		Feedback:    strings.TrimSpace(s.sanitizer.Sanitize(req.Feedback)),
	}
	if err := s.evaluations.CreateForActivity(ctx, &evaluation, models.GradableActivityStatuses, models.ActivityStatusEvaluated); err != nil {
		if isUniqueViolation(err) {
			return dto.EvaluationResponse{}, ErrEvaluationExists
		}
		if errors.Is(err, repository.ErrStatusConflict) {
			return dto.EvaluationResponse{}, ErrActivityNotGradable
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist evaluation failed")
		return dto.EvaluationResponse{}, mapNotFound(err, ErrActivityNotFound)
	}

	created, err := s.evaluations.GetByID(ctx, evaluation.ID)
	if err != nil {
		return dto.EvaluationResponse{}, err
	}
	resp := dto.NewEvaluationResponse(created)
	s.notifyScholar(ctx, activity, resp)

	s.logger.Info().
		Uint("evaluation_id", created.ID).
		Uint("activity_id", activity.ID).
		Str("letter_grade", resp.LetterGrade).
		Msg("activity evaluated")
	return resp, nil
}

// Update re-grades an evaluation. Resubmitting the stored score and feedback performs no write.
func (s *evaluationService) Update(ctx context.Context, actor Actor, id uint, req dto.EvaluationUpdateRequest) (dto.EvaluationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EvaluationResponse{}, err
	}

	current, err := s.evaluations.GetByID(ctx, id)
	if err != nil {
		return dto.EvaluationResponse{}, mapNotFound(err, ErrEvaluationNotFound)
	}
	if current.EvaluatorID != actor.ID && !actor.IsAdmin() {
		return dto.EvaluationResponse{}, ErrForbidden
	}

	updates := map[string]interface{}{}
	if req.Score != nil && *req.Score != current.Score {
		updates["score"] = *req.Score
	}
	if req.Feedback != nil {
		feedback := strings.TrimSpace(s.sanitizer.Sanitize(*req.Feedback))
		if feedback != current.Feedback {
			updates["feedback"] = feedback
		}
	}
	if len(updates) == 0 {
		return dto.NewEvaluationResponse(current), nil
	}

	updated, err := s.evaluations.Update(ctx, id, updates)
	if err != nil {
		return dto.EvaluationResponse{}, mapNotFound(err, ErrEvaluationNotFound)
	}
	return dto.NewEvaluationResponse(updated), nil
}

func (s *evaluationService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := s.evaluations.Delete(ctx, id); err != nil {
		return mapNotFound(err, ErrEvaluationNotFound)
	}
	s.logger.Info().Uint("evaluation_id", id).Uint("actor_id", actor.ID).Msg("evaluation deleted")
	return nil
}

func (s *evaluationService) canView(actor Actor, evaluation models.Evaluation) bool {
	if actor.IsStaff() || evaluation.EvaluatorID == actor.ID {
		return true
	}
	if evaluation.Activity == nil || evaluation.Activity.Scholar == nil {
		return false
	}
	return canViewScholar(actor, *evaluation.Activity.Scholar)
}

func (s *evaluationService) notifyScholar(ctx context.Context, activity models.Activity, evaluation dto.EvaluationResponse) {
	if s.notifier == nil || activity.Scholar == nil {
		return
	}
	message := fmt.Sprintf("Votre activité « %s » a été évaluée : %s/100 (%s, GPA %.1f).",
		activity.Title, formatScore(evaluation.Score), evaluation.LetterGrade, evaluation.GPA)
	if err := s.notifier.Notify(ctx, activity.Scholar.UserID, models.NotificationTypeEvaluationReceived,
		"Nouvelle évaluation", message, fmt.Sprintf("/activities/%d", activity.ID)); err != nil {
		s.logger.Warn().Err(err).Uint("activity_id", activity.ID).Msg("failed to notify scholar of evaluation")
	}
}

func isGradable(status string) bool {
	for _, s := range models.GradableActivityStatuses {
		if status == s {
			return true
		}
	}
	return false
}

func formatScore(score float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", grading.Round2(score)), "0"), ".")
}
