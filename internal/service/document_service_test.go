package service

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/testutil"
	"github.com/noah-isme/led-platform-api/pkg/storage"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

type documentFixture struct {
	campus
	root     string
	svc      DocumentService
	notifier *recordingNotifier
}

func newDocumentFixture(t *testing.T, maxBytes int64) documentFixture {
	t.Helper()
	c := newCampus(t)
	root := t.TempDir()
	store, err := storage.NewLocalStorage(root, "/uploads")
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	svc := NewDocumentService(DocumentDeps{
		Documents:  c.documents,
		Activities: c.activities,
		Scholars:   c.scholars,
		Storage:    store,
		Notifier:   notifier,
		MaxBytes:   maxBytes,
	}, newValidator(), testutil.Logger())
	return documentFixture{campus: c, root: root, svc: svc, notifier: notifier}
}

func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	require.NoError(t, filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			n++
		}
		return err
	}))
	return n
}

func TestDocumentUploadStoresUnderActivity(t *testing.T) {
	f := newDocumentFixture(t, 1<<20)
	ctx := context.Background()
	activities := NewActivityService(ActivityDeps{Activities: f.campus.activities, Scholars: f.scholars}, newValidator(), testutil.Logger())
	activity := createActivity(t, activities, actorOf(f.student))

	doc, err := f.svc.Upload(ctx, actorOf(f.student), fileHeader(t, "Photo Atelier.PNG", pngBytes), dto.DocumentUploadRequest{
		ActivityID: &activity.ID,
		Category:   "Photo",
	})
	require.NoError(t, err)
	require.Equal(t, "image/png", doc.MimeType)
	require.Equal(t, "photo-atelier.png", doc.FileName)
	require.Equal(t, models.DocumentCategoryPhoto, doc.Category)
	require.Len(t, doc.Checksum, 64)
	require.NotNil(t, doc.ScholarID)
	require.Equal(t, f.scholar.ID, *doc.ScholarID)

	stored, err := f.documents.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Contains(t, stored.StoragePath, "activities/")

	content, err := f.svc.Open(ctx, actorOf(f.advisor), doc.ID)
	require.NoError(t, err)
	require.NotNil(t, content.Reader)
	data, err := io.ReadAll(content.Reader)
	require.NoError(t, err)
	require.NoError(t, content.Reader.Close())
	require.Equal(t, pngBytes, data)
}

func TestDocumentUploadRejectsBeforeStorage(t *testing.T) {
	f := newDocumentFixture(t, 1024)
	ctx := context.Background()
	student := actorOf(f.student)

	_, err := f.svc.Upload(ctx, student, fileHeader(t, "notes.png", []byte("just some plain text")), dto.DocumentUploadRequest{})
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)

	_, err = f.svc.Upload(ctx, student, fileHeader(t, "big.pdf", append([]byte("%PDF-1.4\n"), make([]byte, 2048)...)), dto.DocumentUploadRequest{})
	require.ErrorIs(t, err, ErrUploadTooLarge)

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	entry, err := zw.Create("zeros.bin")
	require.NoError(t, err)
	_, err = entry.Write(make([]byte, 64*1024))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.Less(t, archive.Len(), 1024)

	_, err = f.svc.Upload(ctx, student, fileHeader(t, "bomb.zip", archive.Bytes()), dto.DocumentUploadRequest{})
	require.ErrorIs(t, err, ErrUploadScanFailed)

	_, err = f.svc.Upload(ctx, student, nil, dto.DocumentUploadRequest{})
	require.ErrorIs(t, err, ErrFileRequired)

	require.Zero(t, countFiles(t, f.root))
}

func TestDocumentUploadChecksTargetAccess(t *testing.T) {
	f := newDocumentFixture(t, 1<<20)

	_, err := f.svc.Upload(context.Background(), actorOf(f.other), fileHeader(t, "a.png", pngBytes), dto.DocumentUploadRequest{ScholarID: &f.scholar.ID})
	require.ErrorIs(t, err, ErrForbidden)
	require.Zero(t, countFiles(t, f.root))
}

func TestDocumentVerifyNotifiesOwner(t *testing.T) {
	f := newDocumentFixture(t, 1<<20)
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, actorOf(f.student), fileHeader(t, "attestation.pdf", []byte("%PDF-1.4\n%%EOF")), dto.DocumentUploadRequest{Category: "attestation"})
	require.NoError(t, err)
	require.Equal(t, "application/pdf", doc.MimeType)

	_, err = f.svc.Verify(ctx, actorOf(f.advisor), doc.ID, dto.DocumentVerifyRequest{})
	require.ErrorIs(t, err, ErrForbidden)

	verified, err := f.svc.Verify(ctx, actorOf(f.team), doc.ID, dto.DocumentVerifyRequest{})
	require.NoError(t, err)
	require.True(t, verified.Verified)
	require.NotNil(t, verified.VerifiedBy)
	require.Equal(t, f.team.ID, *verified.VerifiedBy)

	sent := f.notifier.byKind(models.NotificationTypeDocumentVerified)
	require.Len(t, sent, 1)
	require.Equal(t, f.student.ID, sent[0].UserID)

	off := false
	unverified, err := f.svc.Verify(ctx, actorOf(f.team), doc.ID, dto.DocumentVerifyRequest{Verified: &off})
	require.NoError(t, err)
	require.False(t, unverified.Verified)
	require.Nil(t, unverified.VerifiedAt)
}

func TestDocumentDeleteRules(t *testing.T) {
	f := newDocumentFixture(t, 1<<20)
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, actorOf(f.student), fileHeader(t, "cv.pdf", []byte("%PDF-1.4\n%%EOF")), dto.DocumentUploadRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, countFiles(t, f.root))

	require.ErrorIs(t, f.svc.Delete(ctx, actorOf(f.other), doc.ID), ErrForbidden)
	require.ErrorIs(t, f.svc.Delete(ctx, actorOf(f.team), doc.ID), ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, actorOf(f.student), doc.ID))
	require.Zero(t, countFiles(t, f.root))

	_, err = f.svc.Get(ctx, actorOf(f.student), doc.ID)
	require.ErrorIs(t, err, ErrDocumentNotFound)
}
