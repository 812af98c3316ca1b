package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/observability"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/utils"
)

const (
	auditBatchSize     = 50
	auditFlushInterval = time.Second
	auditWriteTimeout  = 5 * time.Second
	maskedValue        = "***"
)

var sensitiveAuditKeys = []string{"password", "token", "email"}

// AuditService records the audit trail through a bounded queue. Entries that do not fit are dropped.
type AuditService interface {
	Enqueue(entry models.AuditLog) bool
	Start(ctx context.Context)
	Close(ctx context.Context) error
	List(ctx context.Context, req dto.AuditLogListRequest) ([]dto.AuditLogResponse, utils.PaginationMeta, error)
}

type auditService struct {
	repo   repository.AuditLogRepository
	queue  chan models.AuditLog
	logger zerolog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	stop    chan struct{}
	done    chan struct{}
}

// NewAuditService constructs the audit service with a queue of the given capacity.
func NewAuditService(repo repository.AuditLogRepository, queueSize int, logger zerolog.Logger) AuditService {
	if queueSize <= 0 {
		queueSize = 512
	}
	return &auditService{
		repo:   repo,
		queue:  make(chan models.AuditLog, queueSize),
		logger: logger.With().Str("component", "audit_service").Logger(),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Enqueue never blocks. It reports false when the entry was dropped.
func (s *auditService) Enqueue(entry models.AuditLog) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		observability.AuditEntries().WithLabelValues("dropped").Inc()
		return false
	}

	entry.Metadata = maskMetadata(entry.Metadata)
	select {
	case s.queue <- entry:
		return true
	default:
		observability.AuditEntries().WithLabelValues("dropped").Inc()
		s.logger.Warn().Str("path", entry.Path).Msg("audit queue full, entry dropped")
		return false
	}
}

// Start launches the background writer. It stops when ctx ends or Close is called.
func (s *auditService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.run(ctx)
}

// Close stops accepting entries and flushes whatever is still queued.
func (s *auditService) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	s.mu.Unlock()

	if !started {
		s.flush(s.drain(nil))
		return nil
	}

	close(s.stop)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *auditService) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(auditFlushInterval)
	defer ticker.Stop()

	batch := make([]models.AuditLog, 0, auditBatchSize)
	for {
		select {
		case entry := <-s.queue:
			batch = append(batch, entry)
			if len(batch) >= auditBatchSize {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			s.flush(batch)
			batch = batch[:0]
		case <-s.stop:
			s.flush(s.drain(batch))
			return
		case <-ctx.Done():
			s.flush(s.drain(batch))
			return
		}
	}
}

func (s *auditService) drain(batch []models.AuditLog) []models.AuditLog {
	for {
		select {
		case entry := <-s.queue:
			batch = append(batch, entry)
		default:
			return batch
		}
	}
}

// flush writes a batch. Write errors are logged and counted, never returned.
func (s *auditService) flush(batch []models.AuditLog) {
	for len(batch) > 0 {
		n := len(batch)
		if n > auditBatchSize {
			n = auditBatchSize
		}
		chunk := batch[:n]
		batch = batch[n:]

		ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
		err := s.repo.CreateBatch(ctx, chunk)
		cancel()
		if err != nil {
			observability.AuditEntries().WithLabelValues("failed").Add(float64(len(chunk)))
			s.logger.Error().Err(err).Int("entries", len(chunk)).Msg("failed to write audit entries")
			continue
		}
		observability.AuditEntries().WithLabelValues("written").Add(float64(len(chunk)))
	}
}

func (s *auditService) List(ctx context.Context, req dto.AuditLogListRequest) ([]dto.AuditLogResponse, utils.PaginationMeta, error) {
	page, limit := utils.NormalizePage(req.Page, req.Limit)
	items, total, err := s.repo.List(ctx, repository.AuditLogFilter{
		Page:       repository.Page{Page: page, Limit: limit},
		UserID:     req.UserID,
		EntityType: strings.ToLower(strings.TrimSpace(req.EntityType)),
		Method:     strings.ToUpper(strings.TrimSpace(req.Method)),
	})
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return dto.NewAuditLogResponses(items), utils.NewPaginationMeta(page, limit, total), nil
}

// maskMetadata returns a copy with values of sensitive keys replaced, recursing into nested maps.
func maskMetadata(meta map[string]interface{}) map[string]interface{} {
	if meta == nil {
		return nil
	}
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		if isSensitiveKey(k) {
			out[k] = maskedValue
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			out[k] = maskMetadata(nested)
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range sensitiveAuditKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
