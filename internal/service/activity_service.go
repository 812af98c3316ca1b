package service

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/observability"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/utils"
	"github.com/noah-isme/led-platform-api/pkg/storage"
)

// ActivityService manages scholar activities through their lifecycle.
type ActivityService interface {
	List(ctx context.Context, actor Actor, req dto.ActivityListRequest) ([]dto.ActivityResponse, utils.PaginationMeta, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.ActivityResponse, error)
	Create(ctx context.Context, actor Actor, req dto.ActivityCreateRequest) (dto.ActivityResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.ActivityUpdateRequest) (dto.ActivityResponse, error)
	ChangeStatus(ctx context.Context, actor Actor, id uint, req dto.ActivityStatusRequest) (dto.ActivityResponse, error)
	Submit(ctx context.Context, actor Actor, id uint) (dto.ActivityResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	Revisions(ctx context.Context, actor Actor, id uint) ([]dto.RevisionResponse, error)
}

// ActivityDeps groups the collaborators of the activity service. Notifier, Storage and Index may be nil.
type ActivityDeps struct {
	Activities repository.ActivityRepository
	Scholars   repository.ScholarRepository
	Documents  repository.DocumentRepository
	Storage    storage.FileStorage
	Notifier   Notifier
	Index      SearchIndex
}

type activityService struct {
	ActivityDeps
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewActivityService constructs the activity service.
func NewActivityService(deps ActivityDeps, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		ActivityDeps: deps,
		validator:    validate,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "activity_service").Logger(),
		tracer:       observability.Tracer("activity_service"),
		now:          time.Now,
	}
}

func (s *activityService) List(ctx context.Context, actor Actor, req dto.ActivityListRequest) ([]dto.ActivityResponse, utils.PaginationMeta, error) {
	page, limit := utils.NormalizePage(req.Page, req.Limit)
	filter := repository.ActivityFilter{
		Page:      repository.Page{Page: page, Limit: limit},
		Type:      strings.ToLower(req.Type),
		Status:    strings.ToLower(req.Status),
		ScholarID: req.ScholarID,
		From:      req.From,
		To:        req.To,
		Search:    req.Search,
	}
	switch {
	case actor.IsStudent():
		filter.OwnerUserID = uintPtr(actor.ID)
	case actor.IsSupervisor():
		filter.AdvisorID = uintPtr(actor.ID)
	case !actor.IsStaff():
		return nil, utils.PaginationMeta{}, ErrForbidden
	}

	items, total, err := s.Activities.List(ctx, filter)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return dto.NewActivityResponses(items), utils.NewPaginationMeta(page, limit, total), nil
}

func (s *activityService) Get(ctx context.Context, actor Actor, id uint) (dto.ActivityResponse, error) {
	activity, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}
	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) Create(ctx context.Context, actor Actor, req dto.ActivityCreateRequest) (dto.ActivityResponse, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityResponse{}, err
	}

	var scholar models.Scholar
	switch {
	case actor.IsStudent():
		own, err := s.Scholars.GetByUserID(ctx, actor.ID)
		if err != nil {
			return dto.ActivityResponse{}, mapNotFound(err, ErrScholarProfileMissing)
		}
		scholar = own
	case actor.IsStaff():
		if req.ScholarID == nil {
			return dto.ActivityResponse{}, ErrScholarRequired
		}
		target, err := s.Scholars.GetByID(ctx, *req.ScholarID)
		if err != nil {
			return dto.ActivityResponse{}, mapNotFound(err, ErrScholarNotFound)
		}
		scholar = target
	default:
		return dto.ActivityResponse{}, ErrForbidden
	}

	ctx, span := s.tracer.Start(ctx, "activities.create", trace.WithAttributes(
		attribute.Int("activity.scholar_id", int(scholar.ID)),
		attribute.String("activity.type", req.Type),
	))
	defer span.End()

	status := req.Status
	if status == "" {
		status = models.ActivityStatusPlanned
	}
	activity := models.Activity{
		ScholarID:   scholar.ID,
		Title:       s.clean(req.Title),
		Description: s.clean(req.Description),
		Type:        req.Type,
		Status:      status,
		StartDate:   req.StartDate.UTC(),
		EndDate:     utcPtr(req.EndDate),
		Location:    s.clean(req.Location),
		Hours:       req.Hours,
		Objectives:  models.EncodeStringList(s.cleanList(req.Objectives)),
		Outcomes:    models.EncodeStringList(s.cleanList(req.Outcomes)),
		Tags:        models.EncodeStringList(normalizeTags(req.Tags)),
		CreatedBy:   actor.ID,
	}
	if activity.Title == "" {
		return dto.ActivityResponse{}, ErrEmptyContent
	}
	if activity.EndDate != nil && activity.EndDate.Before(activity.StartDate) {
		return dto.ActivityResponse{}, ErrInvalidDateRange
	}

	if err := s.Activities.Create(ctx, &activity); err != nil {
		span.RecordError(err)
		return dto.ActivityResponse{}, err
	}

	created, err := s.Activities.GetByID(ctx, activity.ID)
	if err != nil {
		return dto.ActivityResponse{}, err
	}
	s.reindex(ctx, created)
	s.logger.Info().Uint("activity_id", created.ID).Uint("scholar_id", scholar.ID).Msg("activity created")
	return dto.NewActivityResponse(created), nil
}

// Update applies a partial update. Fields equal to the stored value are ignored; an
// update with no effective change is rejected without touching the database.
func (s *activityService) Update(ctx context.Context, actor Actor, id uint, req dto.ActivityUpdateRequest) (dto.ActivityResponse, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityResponse{}, err
	}

	current, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}
	if err := s.checkEditable(actor, current); err != nil {
		return dto.ActivityResponse{}, err
	}

	changes := newChangeSet()
	if req.Title != nil {
		title := s.clean(*req.Title)
		if title == "" {
			return dto.ActivityResponse{}, ErrEmptyContent
		}
		changes.add("title", current.Title, title)
	}
	if req.Description != nil {
		changes.add("description", current.Description, s.clean(*req.Description))
	}
	if req.Type != nil {
		changes.add("type", current.Type, *req.Type)
	}
	if req.StartDate != nil {
		changes.addTime("start_date", &current.StartDate, utcPtr(req.StartDate))
	}
	if req.EndDate != nil {
		changes.addTime("end_date", current.EndDate, utcPtr(req.EndDate))
	}
	if req.Location != nil {
		changes.add("location", current.Location, s.clean(*req.Location))
	}
	if req.Hours != nil {
		changes.add("hours", current.Hours, *req.Hours)
	}
	if req.Objectives != nil {
		changes.addList("objectives", models.DecodeStringList(current.Objectives), s.cleanList(*req.Objectives))
	}
	if req.Outcomes != nil {
		changes.addList("outcomes", models.DecodeStringList(current.Outcomes), s.cleanList(*req.Outcomes))
	}
	if req.Tags != nil {
		changes.addList("tags", models.DecodeStringList(current.Tags), normalizeTags(*req.Tags))
	}

	if changes.empty() {
		return dto.ActivityResponse{}, ErrNoChanges
	}

	start, end := current.StartDate, current.EndDate
	if v, ok := changes.updates["start_date"].(time.Time); ok {
		start = v
	}
	if v, ok := changes.updates["end_date"].(time.Time); ok {
		end = &v
	}
	if end != nil && end.Before(start) {
		return dto.ActivityResponse{}, ErrInvalidDateRange
	}

	updated, err := s.Activities.Update(ctx, id, changes.updates, s.revision(actor, changes))
	if err != nil {
		return dto.ActivityResponse{}, mapNotFound(err, ErrActivityNotFound)
	}
	s.reindex(ctx, updated)
	return dto.NewActivityResponse(updated), nil
}

func (s *activityService) ChangeStatus(ctx context.Context, actor Actor, id uint, req dto.ActivityStatusRequest) (dto.ActivityResponse, error) {
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityResponse{}, err
	}

	current, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}
	if actor.IsStudent() && current.Scholar.UserID != actor.ID {
		return dto.ActivityResponse{}, ErrForbidden
	}
	return s.transition(ctx, actor, current, req.Status)
}

func (s *activityService) Submit(ctx context.Context, actor Actor, id uint) (dto.ActivityResponse, error) {
	current, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}
	if !actor.IsStaff() && current.Scholar.UserID != actor.ID {
		return dto.ActivityResponse{}, ErrForbidden
	}
	return s.transition(ctx, actor, current, models.ActivityStatusSubmitted)
}

// transition moves the activity along its state machine. The evaluated state is only
// reachable through an evaluation.
func (s *activityService) transition(ctx context.Context, actor Actor, current models.Activity, next string) (dto.ActivityResponse, error) {
	if next == models.ActivityStatusEvaluated || !models.CanTransitionActivity(current.Status, next) {
		return dto.ActivityResponse{}, ErrInvalidTransition
	}

	changes := newChangeSet()
	changes.add("status", current.Status, next)
	if next == models.ActivityStatusSubmitted {
		now := s.now().UTC()
		changes.updates["submitted_at"] = now
	}

	updated, err := s.Activities.Update(ctx, current.ID, changes.updates, s.revision(actor, changes))
	if err != nil {
		return dto.ActivityResponse{}, mapNotFound(err, ErrActivityNotFound)
	}

	s.notifyTransition(ctx, actor, updated)
	s.reindex(ctx, updated)
	s.logger.Info().Uint("activity_id", updated.ID).Str("from", current.Status).Str("to", next).Msg("activity status changed")
	return dto.NewActivityResponse(updated), nil
}

func (s *activityService) notifyTransition(ctx context.Context, actor Actor, activity models.Activity) {
	if s.Notifier == nil || activity.Scholar == nil {
		return
	}
	link := fmt.Sprintf("/activities/%d", activity.ID)

	if activity.Status == models.ActivityStatusSubmitted && activity.Scholar.AdvisorID != nil {
		name := "Un boursier"
		if activity.Scholar.User != nil {
			name = activity.Scholar.User.FullName()
		}
		if err := s.Notifier.Notify(ctx, *activity.Scholar.AdvisorID, models.NotificationTypeActivitySubmitted,
			"Activité soumise",
			fmt.Sprintf("%s a soumis l'activité « %s » pour évaluation.", name, activity.Title),
			link); err != nil {
			s.logger.Warn().Err(err).Uint("activity_id", activity.ID).Msg("failed to notify advisor")
		}
	}

	if activity.Scholar.UserID != actor.ID {
		if err := s.Notifier.Notify(ctx, activity.Scholar.UserID, models.NotificationTypeActivityStatus,
			"Statut d'activité mis à jour",
			fmt.Sprintf("L'activité « %s » est passée au statut %s.", activity.Title, activity.Status),
			link); err != nil {
			s.logger.Warn().Err(err).Uint("activity_id", activity.ID).Msg("failed to notify scholar")
		}
	}
}

// Delete removes an activity. Owners may delete only while planned; admins at any time.
func (s *activityService) Delete(ctx context.Context, actor Actor, id uint) error {
	current, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	ownerPlanned := current.Scholar.UserID == actor.ID && current.Status == models.ActivityStatusPlanned
	if !actor.IsAdmin() && !ownerPlanned {
		return ErrForbidden
	}

	var files []models.Document
	if s.Documents != nil {
		if files, err = s.Documents.ListByActivity(ctx, id); err != nil {
			return err
		}
	}

	if err := s.Activities.Delete(ctx, id); err != nil {
		return mapNotFound(err, ErrActivityNotFound)
	}

	if s.Storage != nil {
		for _, doc := range files {
			if err := s.Storage.Delete(ctx, doc.StoragePath); err != nil {
				s.logger.Warn().Err(err).Uint("document_id", doc.ID).Msg("failed to remove activity file")
			}
		}
	}
	indexBestEffort(ctx, s.Index, s.logger, "activity", func(ctx context.Context, index SearchIndex) error {
		return index.DeleteActivity(ctx, id)
	})

	s.logger.Info().Uint("activity_id", id).Uint("actor_id", actor.ID).Int("files", len(files)).Msg("activity deleted")
	return nil
}

func (s *activityService) Revisions(ctx context.Context, actor Actor, id uint) ([]dto.RevisionResponse, error) {
	if _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}
	revisions, err := s.Activities.Revisions(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewRevisionResponses(revisions), nil
}

func (s *activityService) load(ctx context.Context, actor Actor, id uint) (models.Activity, error) {
	activity, err := s.Activities.GetByID(ctx, id)
	if err != nil {
		return models.Activity{}, mapNotFound(err, ErrActivityNotFound)
	}
	if activity.Scholar == nil || !canViewScholar(actor, *activity.Scholar) {
		return models.Activity{}, ErrForbidden
	}
	return activity, nil
}

func (s *activityService) checkEditable(actor Actor, activity models.Activity) error {
	switch {
	case actor.IsStaff(), isAdvisorOf(actor, *activity.Scholar):
		return nil
	case actor.IsStudent() && activity.Scholar.UserID == actor.ID:
		if !activity.IsStudentEditable() {
			return ErrActivityLocked
		}
		return nil
	default:
		return ErrForbidden
	}
}

func (s *activityService) revision(actor Actor, changes *changeSet) *models.ActivityRevision {
	return &models.ActivityRevision{
		EditorID:   actor.ID,
		EditorRole: actor.Role,
		Changes:    changes.diff,
	}
}

func (s *activityService) reindex(ctx context.Context, activity models.Activity) {
	indexBestEffort(ctx, s.Index, s.logger, "activity", func(ctx context.Context, index SearchIndex) error {
		return index.IndexActivity(ctx, ActivityDocument(activity))
	})
}

func (s *activityService) clean(v string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(v))
}

func (s *activityService) cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if c := s.clean(v); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func normalizeTags(tags []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// changeSet collects column updates alongside the before/after diff stored in the revision.
type changeSet struct {
	updates map[string]interface{}
	diff    map[string]interface{}
}

func newChangeSet() *changeSet {
	return &changeSet{updates: map[string]interface{}{}, diff: map[string]interface{}{}}
}

func (c *changeSet) empty() bool { return len(c.updates) == 0 }

func (c *changeSet) record(field string, from, to interface{}) {
	c.diff[field] = map[string]interface{}{"from": from, "to": to}
}

func (c *changeSet) add(field string, from, to interface{}) {
	if reflect.DeepEqual(from, to) {
		return
	}
	c.updates[field] = to
	c.record(field, from, to)
}

func (c *changeSet) addTime(field string, from, to *time.Time) {
	switch {
	case from == nil && to == nil:
		return
	case from != nil && to != nil && from.Equal(*to):
		return
	}
	if to == nil {
		c.updates[field] = nil
	} else {
		c.updates[field] = *to
	}
	c.record(field, from, to)
}

func (c *changeSet) addList(field string, from, to []string) {
	if reflect.DeepEqual(from, to) {
		return
	}
	c.updates[field] = models.EncodeStringList(to)
	c.record(field, from, to)
}
