package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/testutil"
)

type flakyAuditRepo struct {
	mu      sync.Mutex
	fail    bool
	written []models.AuditLog
}

func (r *flakyAuditRepo) CreateBatch(_ context.Context, entries []models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("database unavailable")
	}
	r.written = append(r.written, entries...)
	return nil
}

func (r *flakyAuditRepo) List(context.Context, repository.AuditLogFilter) ([]models.AuditLog, int64, error) {
	return nil, 0, nil
}

func (r *flakyAuditRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.written)
}

func auditEntry(path string) models.AuditLog {
	return models.AuditLog{Method: "POST", Path: path, Action: "create", StatusCode: 201, CreatedAt: time.Now().UTC()}
}

func TestAuditWorkerFlushesOnClose(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAuditService(repository.NewAuditLogRepository(db), 16, testutil.Logger())
	ctx := context.Background()
	svc.Start(ctx)

	entry := auditEntry("/api/activities")
	entry.EntityType = "activities"
	entry.Metadata = map[string]interface{}{
		"route":         "/api/activities",
		"payload":       map[string]interface{}{"Email": "a@b.c", "title": "Pitch"},
		"refresh_token": "abc",
	}
	require.True(t, svc.Enqueue(entry))
	require.True(t, svc.Enqueue(auditEntry("/api/documents")))

	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Close(closeCtx))
	require.False(t, svc.Enqueue(auditEntry("/api/late")), "closed service drops entries")

	items, meta, err := svc.List(ctx, dto.AuditLogListRequest{EntityType: "Activities"})
	require.NoError(t, err)
	require.Equal(t, int64(1), meta.Total)
	require.Len(t, items, 1)
	require.Equal(t, maskedValue, items[0].Metadata["refresh_token"])
	payload, ok := items[0].Metadata["payload"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, maskedValue, payload["Email"])
	require.Equal(t, "Pitch", payload["title"])
}

func TestAuditQueueDropsWhenFull(t *testing.T) {
	repo := &flakyAuditRepo{}
	svc := NewAuditService(repo, 2, testutil.Logger())

	require.True(t, svc.Enqueue(auditEntry("/a")))
	require.True(t, svc.Enqueue(auditEntry("/b")))
	require.False(t, svc.Enqueue(auditEntry("/c")))

	require.NoError(t, svc.Close(context.Background()))
	require.Equal(t, 2, repo.count(), "close without start still flushes")
}

func TestAuditWriteErrorsAreSwallowed(t *testing.T) {
	repo := &flakyAuditRepo{fail: true}
	svc := NewAuditService(repo, 8, testutil.Logger())
	svc.Start(context.Background())

	require.True(t, svc.Enqueue(auditEntry("/a")))
	require.NoError(t, svc.Close(context.Background()))
	require.Zero(t, repo.count())
}

func TestMaskMetadataLeavesInputUntouched(t *testing.T) {
	in := map[string]interface{}{"password": "secret", "name": "x"}
	out := maskMetadata(in)
	require.Equal(t, "secret", in["password"])
	require.Equal(t, maskedValue, out["password"])
	require.Equal(t, "x", out["name"])
	require.Nil(t, maskMetadata(nil))
}
