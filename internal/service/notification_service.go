package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/jobs"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/observability"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/utils"
)

const (
	notificationBufferSize = 32
	notificationChannel    = "led:notifications"
	notificationSubject    = "led.notifications"
)

// Event kinds delivered to live subscribers.
const (
	EventNotification = "notification"
	EventRead         = "read"
	EventReadAll      = "read_all"
)

// NotificationEvent is pushed to every live connection of a user, locally and across instances.
type NotificationEvent struct {
	Kind         string                    `json:"kind"`
	UserID       uint                      `json:"user_id"`
	Notification *dto.NotificationResponse `json:"notification,omitempty"`
	ID           uint                      `json:"id,omitempty"`
	Updated      int64                     `json:"updated,omitempty"`
}

// Notifier is the narrow interface other services use to notify a user.
type Notifier interface {
	Notify(ctx context.Context, userID uint, kind, title, message, link string) error
}

// EmailDispatcher schedules the e-mail copy of a notification.
type EmailDispatcher interface {
	DispatchNotificationEmail(ctx context.Context, payload jobs.NotificationEmailPayload) error
}

// NotificationService persists notifications and relays them to live connections.
type NotificationService interface {
	Notifier
	Send(ctx context.Context, actor Actor, req dto.NotificationCreateRequest) (dto.BroadcastResponse, error)
	List(ctx context.Context, userID uint, req dto.NotificationListRequest) ([]dto.NotificationResponse, utils.PaginationMeta, error)
	Unread(ctx context.Context, userID uint, limit int) ([]dto.NotificationResponse, int64, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID, id uint) (dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, userID, id uint) error
	Subscribe(userID uint) (<-chan NotificationEvent, func())
	Start(ctx context.Context)
}

// NotificationOptions wires the optional fan-out and e-mail collaborators.
type NotificationOptions struct {
	Redis *redis.Client
	NATS  *nats.Conn
	Email EmailDispatcher
	TTL   time.Duration
}

type notificationService struct {
	repo      repository.NotificationRepository
	users     repository.UserRepository
	redis     *redis.Client
	nats      *nats.Conn
	email     EmailDispatcher
	ttl       time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	sanitizer *bluemonday.Policy
	broker    *notificationBroker
	nodeID    string
	now       func() time.Time
}

type notificationEnvelope struct {
	Source string            `json:"source"`
	Event  NotificationEvent `json:"event"`
	SentAt time.Time         `json:"sent_at"`
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan NotificationEvent]struct{}
}

// NewNotificationService constructs the notification service.
func NewNotificationService(repo repository.NotificationRepository, users repository.UserRepository, opts NotificationOptions, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	return &notificationService{
		repo:      repo,
		users:     users,
		redis:     opts.Redis,
		nats:      opts.NATS,
		email:     opts.Email,
		ttl:       opts.TTL,
		validator: validate,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		tracer:    observability.Tracer("notification_service"),
		sanitizer: bluemonday.StrictPolicy(),
		broker: &notificationBroker{
			subscribers: make(map[uint]map[chan NotificationEvent]struct{}),
		},
		nodeID: uuid.NewString(),
		now:    time.Now,
	}
}

// Start subscribes to the cross-instance transport until ctx is cancelled.
// NATS is preferred when configured; Redis pub/sub is the fallback.
func (s *notificationService) Start(ctx context.Context) {
	switch {
	case s.nats != nil:
		s.consumeNATS(ctx)
	case s.redis != nil:
		go s.consumeRedis(ctx)
	}
}

func (s *notificationService) Notify(ctx context.Context, userID uint, kind, title, message, link string) error {
	n := s.build(userID, kind, title, message, link, nil)
	if n.Title == "" {
		return errors.New("notification title empty after sanitization")
	}

	ctx, span := s.tracer.Start(ctx, "notifications.notify", trace.WithAttributes(
		attribute.Int("notification.user_id", int(userID)),
		attribute.String("notification.type", kind),
	))
	defer span.End()

	if err := s.repo.Create(ctx, &n); err != nil {
		span.RecordError(err)
		return err
	}
	s.deliver(ctx, n)
	return nil
}

func (s *notificationService) Send(ctx context.Context, actor Actor, req dto.NotificationCreateRequest) (dto.BroadcastResponse, error) {
	if !actor.IsStaff() {
		return dto.BroadcastResponse{}, ErrForbidden
	}
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return dto.BroadcastResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "notifications.send")
	defer span.End()

	var (
		recipients []uint
		err        error
	)
	if len(req.UserIDs) > 0 {
		recipients, err = s.users.ExistingIDs(ctx, dedupe(req.UserIDs))
	} else {
		recipients, err = s.users.IDsByRole(ctx, req.Role)
	}
	if err != nil {
		return dto.BroadcastResponse{}, err
	}
	if len(recipients) == 0 {
		return dto.BroadcastResponse{}, ErrNoRecipients
	}
	span.SetAttributes(attribute.Int("notification.recipients", len(recipients)))

	batch := make([]models.Notification, 0, len(recipients))
	for _, id := range recipients {
		batch = append(batch, s.build(id, req.Type, req.Title, req.Message, req.Link, req.ExpiresAt))
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		span.RecordError(err)
		return dto.BroadcastResponse{}, err
	}

	for _, n := range batch {
		s.deliver(ctx, n)
		if req.SendEmail {
			s.dispatchEmail(ctx, n)
		}
	}

	s.logger.Info().Uint("actor_id", actor.ID).Int("recipients", len(batch)).Str("type", req.Type).Msg("notification sent")
	return dto.BroadcastResponse{Recipients: len(batch)}, nil
}

func (s *notificationService) List(ctx context.Context, userID uint, req dto.NotificationListRequest) ([]dto.NotificationResponse, utils.PaginationMeta, error) {
	page, limit := utils.NormalizePage(req.Page, req.Limit)
	items, total, err := s.repo.List(ctx, repository.NotificationFilter{
		Page:       repository.Page{Page: page, Limit: limit},
		UserID:     userID,
		UnreadOnly: req.UnreadOnly,
		Now:        s.now().UTC(),
	})
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return dto.NewNotificationResponses(items), utils.NewPaginationMeta(page, limit, total), nil
}

func (s *notificationService) Unread(ctx context.Context, userID uint, limit int) ([]dto.NotificationResponse, int64, error) {
	now := s.now().UTC()
	items, err := s.repo.Unread(ctx, userID, now, limit)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.repo.CountUnread(ctx, userID, now)
	if err != nil {
		return nil, 0, err
	}
	return dto.NewNotificationResponses(items), count, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID, s.now().UTC())
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uint) (dto.NotificationResponse, error) {
	n, err := s.repo.MarkRead(ctx, id, userID, s.now().UTC())
	if err != nil {
		return dto.NotificationResponse{}, mapNotFound(err, ErrNotificationNotFound)
	}
	s.emit(ctx, NotificationEvent{Kind: EventRead, UserID: userID, ID: id})
	return dto.NewNotificationResponse(n), nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.emit(ctx, NotificationEvent{Kind: EventReadAll, UserID: userID, Updated: updated})
	}
	return updated, nil
}

func (s *notificationService) Delete(ctx context.Context, userID, id uint) error {
	return mapNotFound(s.repo.Delete(ctx, id, userID), ErrNotificationNotFound)
}

func (s *notificationService) Subscribe(userID uint) (<-chan NotificationEvent, func()) {
	ch := make(chan NotificationEvent, notificationBufferSize)
	s.broker.subscribe(userID, ch)
	observability.WSConnections().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(userID, ch)
			observability.WSConnections().Dec()
		})
	}
	return ch, cleanup
}

func (s *notificationService) build(userID uint, kind, title, message, link string, expiresAt *time.Time) models.Notification {
	if kind == "" {
		kind = models.NotificationTypeInfo
	}
	now := s.now().UTC()
	if expiresAt == nil && s.ttl > 0 {
		exp := now.Add(s.ttl)
		expiresAt = &exp
	}
	return models.Notification{
		UserID:    userID,
		Type:      kind,
		Title:     strings.TrimSpace(s.sanitizer.Sanitize(title)),
		Message:   strings.TrimSpace(s.sanitizer.Sanitize(message)),
		Link:      strings.TrimSpace(link),
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
}

// deliver pushes a stored notification to local sockets then to the other instances.
func (s *notificationService) deliver(ctx context.Context, n models.Notification) {
	resp := dto.NewNotificationResponse(n)
	s.emit(ctx, NotificationEvent{Kind: EventNotification, UserID: n.UserID, Notification: &resp})
	observability.NotificationsPublished().WithLabelValues(n.Type).Inc()
}

func (s *notificationService) emit(ctx context.Context, event NotificationEvent) {
	s.broker.broadcast(event)
	if err := s.publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("kind", event.Kind).Msg("failed to publish notification event")
	}
}

func (s *notificationService) dispatchEmail(ctx context.Context, n models.Notification) {
	if s.email == nil {
		return
	}
	err := s.email.DispatchNotificationEmail(ctx, jobs.NotificationEmailPayload{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Title:          n.Title,
		Message:        n.Message,
		Link:           n.Link,
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("notification_id", n.ID).Msg("failed to enqueue notification email")
	}
}

func (s *notificationService) publish(ctx context.Context, event NotificationEvent) error {
	if s.redis == nil && s.nats == nil {
		return nil
	}
	payload, err := json.Marshal(notificationEnvelope{Source: s.nodeID, Event: event, SentAt: s.now().UTC()})
	if err != nil {
		return err
	}

	if s.nats != nil {
		return s.nats.Publish(notificationSubject, payload)
	}
	return s.redis.Publish(ctx, notificationChannel, payload).Err()
}

func (s *notificationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, notificationChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			s.logger.Error().Err(err).Msg("notification redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

// consumeNATS uses a plain subscription so that every instance receives every event.
func (s *notificationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(notificationSubject, func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats notifications subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification nats subscription")
		}
	}()
}

// handleEnvelope relays an event published by another instance.
func (s *notificationService) handleEnvelope(payload []byte) {
	var env notificationEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification event payload")
		return
	}
	if env.Source == s.nodeID || env.Event.UserID == 0 {
		return
	}
	s.broker.broadcast(env.Event)
}

func (b *notificationBroker) subscribe(userID uint, ch chan NotificationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[userID]; !ok {
		b.subscribers[userID] = make(map[chan NotificationEvent]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(userID uint, ch chan NotificationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		if _, present := subscribers[ch]; !present {
			return
		}
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

// broadcast never blocks: a full subscriber queue drops the event.
func (b *notificationBroker) broadcast(event NotificationEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[event.UserID] {
		select {
		case ch <- event:
		default:
			observability.WSDroppedFrames().Inc()
		}
	}
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
