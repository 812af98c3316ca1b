package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/observability"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/utils"
	"github.com/noah-isme/led-platform-api/pkg/storage"
)

var allowedDocumentTypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"image/webp",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/zip",
}

// DocumentContent is a document ready to be served: either a stream or a redirect.
type DocumentContent struct {
	Document    dto.DocumentResponse
	Reader      io.ReadCloser
	RedirectURL string
}

// DocumentService validates, stores and serves uploaded documents.
type DocumentService interface {
	Upload(ctx context.Context, actor Actor, file *multipart.FileHeader, req dto.DocumentUploadRequest) (dto.DocumentResponse, error)
	List(ctx context.Context, actor Actor, req dto.DocumentListRequest) ([]dto.DocumentResponse, utils.PaginationMeta, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.DocumentResponse, error)
	Open(ctx context.Context, actor Actor, id uint) (DocumentContent, error)
	Verify(ctx context.Context, actor Actor, id uint, req dto.DocumentVerifyRequest) (dto.DocumentResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

// DocumentDeps groups the collaborators of the document service. Notifier may be nil.
type DocumentDeps struct {
	Documents  repository.DocumentRepository
	Activities repository.ActivityRepository
	Scholars   repository.ScholarRepository
	Storage    storage.FileStorage
	Notifier   Notifier
	MaxBytes   int64
}

type documentService struct {
	DocumentDeps
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewDocumentService constructs the document service.
func NewDocumentService(deps DocumentDeps, validate *validator.Validate, logger zerolog.Logger) DocumentService {
	if deps.MaxBytes <= 0 {
		deps.MaxBytes = 10 * 1024 * 1024
	}
	return &documentService{
		DocumentDeps: deps,
		validator:    validate,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "document_service").Logger(),
		tracer:       observability.Tracer("document_service"),
		now:          time.Now,
	}
}

// Upload checks size, content type and archive safety before anything reaches storage.
func (s *documentService) Upload(ctx context.Context, actor Actor, file *multipart.FileHeader, req dto.DocumentUploadRequest) (dto.DocumentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "documents.upload")
	defer span.End()
	span.SetAttributes(attribute.Int64("upload.max_bytes", s.MaxBytes))

	if file == nil {
		return dto.DocumentResponse{}, ErrFileRequired
	}
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return dto.DocumentResponse{}, err
	}
	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)

	if file.Size > s.MaxBytes {
		return dto.DocumentResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		return dto.DocumentResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.MaxBytes+1)); err != nil {
		span.RecordError(err)
		return dto.DocumentResponse{}, err
	}
	if int64(buf.Len()) > s.MaxBytes {
		return dto.DocumentResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	detected := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("upload.detected_mime", detected.String()))
	fileType, ok := allowedType(detected)
	if !ok {
		return dto.DocumentResponse{}, s.reject(span, "type", ErrUploadTypeNotAllowed)
	}
	if err := s.scan(buf.Bytes(), fileType); err != nil {
		return dto.DocumentResponse{}, s.reject(span, "scan", err)
	}

	scholarID, activityID, err := s.resolveTarget(ctx, actor, req)
	if err != nil {
		return dto.DocumentResponse{}, err
	}

	dir := fmt.Sprintf("users/%d", actor.ID)
	if activityID != nil {
		dir = fmt.Sprintf("activities/%d", *activityID)
	}

	name := sanitizeFileName(file.Filename, s.now())
	stored, err := s.Storage.Save(ctx, dir, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		s.reject(span, "storage", err)
		return dto.DocumentResponse{}, err
	}

	checksum := sha256.Sum256(buf.Bytes())
	doc := models.Document{
		OwnerID:     actor.ID,
		ScholarID:   scholarID,
		ActivityID:  activityID,
		FileName:    name,
		StoredName:  stored.Name,
		StoragePath: stored.Path,
		URL:         stored.URL,
		Driver:      s.Storage.Driver(),
		MimeType:    fileType,
		SizeBytes:   int64(buf.Len()),
		Checksum:    hex.EncodeToString(checksum[:]),
		Category:    req.Category,
		Description: strings.TrimSpace(s.sanitizer.Sanitize(req.Description)),
	}
	if err := s.Documents.Create(ctx, &doc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		if delErr := s.Storage.Delete(context.WithoutCancel(ctx), stored.Path); delErr != nil {
			s.logger.Warn().Err(delErr).Str("path", stored.Path).Msg("failed to remove orphaned upload")
		}
		return dto.DocumentResponse{}, err
	}

	observability.Uploads().WithLabelValues("stored").Inc()
	span.SetStatus(codes.Ok, "stored")
	s.logger.Info().Uint("document_id", doc.ID).Str("mime", fileType).Int64("size", doc.SizeBytes).Msg("document uploaded")
	return dto.NewDocumentResponse(doc), nil
}

func (s *documentService) List(ctx context.Context, actor Actor, req dto.DocumentListRequest) ([]dto.DocumentResponse, utils.PaginationMeta, error) {
	page, limit := utils.NormalizePage(req.Page, req.Limit)
	filter := repository.DocumentFilter{
		Page:       repository.Page{Page: page, Limit: limit},
		ScholarID:  req.ScholarID,
		ActivityID: req.ActivityID,
		Category:   strings.ToLower(req.Category),
		Verified:   req.Verified,
		Search:     req.Search,
	}
	switch {
	case actor.IsStudent():
		filter.OwnerID = uintPtr(actor.ID)
	case actor.IsSupervisor():
		filter.AdvisorID = uintPtr(actor.ID)
	case !actor.IsStaff():
		return nil, utils.PaginationMeta{}, ErrForbidden
	}

	items, total, err := s.Documents.List(ctx, filter)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return dto.NewDocumentResponses(items), utils.NewPaginationMeta(page, limit, total), nil
}

func (s *documentService) Get(ctx context.Context, actor Actor, id uint) (dto.DocumentResponse, error) {
	doc, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.DocumentResponse{}, err
	}
	return dto.NewDocumentResponse(doc), nil
}

func (s *documentService) Open(ctx context.Context, actor Actor, id uint) (DocumentContent, error) {
	doc, err := s.load(ctx, actor, id)
	if err != nil {
		return DocumentContent{}, err
	}

	content := DocumentContent{Document: dto.NewDocumentResponse(doc)}
	reader, err := s.Storage.Open(ctx, doc.StoragePath)
	switch {
	case errors.Is(err, storage.ErrRemoteOnly):
		content.RedirectURL = doc.URL
	case err != nil:
		return DocumentContent{}, err
	default:
		content.Reader = reader
	}
	return content, nil
}

func (s *documentService) Verify(ctx context.Context, actor Actor, id uint, req dto.DocumentVerifyRequest) (dto.DocumentResponse, error) {
	if !actor.IsStaff() {
		return dto.DocumentResponse{}, ErrForbidden
	}
	current, err := s.Documents.GetByID(ctx, id)
	if err != nil {
		return dto.DocumentResponse{}, mapNotFound(err, ErrDocumentNotFound)
	}

	verified := true
	if req.Verified != nil {
		verified = *req.Verified
	}

	updates := map[string]interface{}{"verified": verified}
	if verified {
		updates["verified_by"] = actor.ID
		updates["verified_at"] = s.now().UTC()
	} else {
		updates["verified_by"] = nil
		updates["verified_at"] = nil
	}

	doc, err := s.Documents.Update(ctx, id, updates)
	if err != nil {
		return dto.DocumentResponse{}, mapNotFound(err, ErrDocumentNotFound)
	}

	if verified && !current.Verified && s.Notifier != nil && doc.OwnerID != actor.ID {
		if err := s.Notifier.Notify(ctx, doc.OwnerID, models.NotificationTypeDocumentVerified,
			"Document vérifié",
			fmt.Sprintf("Votre document « %s » a été vérifié.", doc.FileName),
			fmt.Sprintf("/documents/%d", doc.ID)); err != nil {
			s.logger.Warn().Err(err).Uint("document_id", doc.ID).Msg("failed to notify document owner")
		}
	}
	return dto.NewDocumentResponse(doc), nil
}

// Delete removes the record; a storage failure is logged and does not fail the request.
func (s *documentService) Delete(ctx context.Context, actor Actor, id uint) error {
	doc, err := s.Documents.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err, ErrDocumentNotFound)
	}
	if doc.OwnerID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}

	if err := s.Documents.Delete(ctx, id); err != nil {
		return mapNotFound(err, ErrDocumentNotFound)
	}
	if err := s.Storage.Delete(ctx, doc.StoragePath); err != nil {
		s.logger.Warn().Err(err).Uint("document_id", id).Str("path", doc.StoragePath).Msg("failed to remove stored file")
	}
	return nil
}

func (s *documentService) load(ctx context.Context, actor Actor, id uint) (models.Document, error) {
	doc, err := s.Documents.GetByID(ctx, id)
	if err != nil {
		return models.Document{}, mapNotFound(err, ErrDocumentNotFound)
	}
	if actor.IsStaff() || doc.OwnerID == actor.ID {
		return doc, nil
	}
	if doc.ScholarID != nil {
		scholar, err := s.Scholars.GetByID(ctx, *doc.ScholarID)
		if err == nil && canViewScholar(actor, scholar) {
			return doc, nil
		}
	}
	return models.Document{}, ErrForbidden
}

// resolveTarget checks the actor may attach a file to the requested activity or scholar.
func (s *documentService) resolveTarget(ctx context.Context, actor Actor, req dto.DocumentUploadRequest) (*uint, *uint, error) {
	if req.ActivityID != nil {
		activity, err := s.Activities.GetByID(ctx, *req.ActivityID)
		if err != nil {
			return nil, nil, mapNotFound(err, ErrActivityNotFound)
		}
		if activity.Scholar == nil || !canViewScholar(actor, *activity.Scholar) {
			return nil, nil, ErrForbidden
		}
		return uintPtr(activity.ScholarID), uintPtr(activity.ID), nil
	}

	if req.ScholarID != nil {
		scholar, err := s.Scholars.GetByID(ctx, *req.ScholarID)
		if err != nil {
			return nil, nil, mapNotFound(err, ErrScholarNotFound)
		}
		if !canViewScholar(actor, scholar) {
			return nil, nil, ErrForbidden
		}
		return uintPtr(scholar.ID), nil, nil
	}

	if actor.IsStudent() {
		if own, err := s.Scholars.GetByUserID(ctx, actor.ID); err == nil {
			return uintPtr(own.ID), nil, nil
		}
	}
	return nil, nil, nil
}

func (s *documentService) reject(span trace.Span, reason string, err error) error {
	observability.Uploads().WithLabelValues("rejected_" + reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	return err
}

// scan bounds the expanded size of zip archives.
func (s *documentService) scan(payload []byte, mime string) error {
	if mime != "application/zip" {
		return nil
	}
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return ErrUploadScanFailed
	}
	var total uint64
	for _, f := range reader.File {
		total += f.UncompressedSize64
		if total > uint64(s.MaxBytes*20) {
			return fmt.Errorf("zip archive uncompressed size too large: %w", ErrUploadScanFailed)
		}
	}
	return nil
}

func allowedType(detected *mimetype.MIME) (string, bool) {
	for _, allowed := range allowedDocumentTypes {
		if detected.Is(allowed) {
			return allowed, true
		}
	}
	return "", false
}

func sanitizeFileName(name string, now time.Time) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("document-%d", now.Unix())
	}
	if ext == "" || len(ext) > 10 {
		ext = ".bin"
	}
	return base + ext
}
