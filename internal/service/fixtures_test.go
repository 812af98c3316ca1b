package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/repository"
	"github.com/noah-isme/led-platform-api/internal/testutil"
)

type sentNotification struct {
	UserID uint
	Kind   string
	Title  string
	Body   string
	Link   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, userID uint, kind, title, message, link string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{UserID: userID, Kind: kind, Title: title, Body: message, Link: link})
	return nil
}

func (r *recordingNotifier) byKind(kind string) []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentNotification
	for _, n := range r.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func actorOf(u models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// campus is a small population shared by the activity, evaluation and document tests:
// one scholar advised by one supervisor, plus an unrelated supervisor and staff accounts.
type campus struct {
	db         *gorm.DB
	student    models.User
	other      models.User
	advisor    models.User
	stranger   models.User
	team       models.User
	admin      models.User
	scholar    models.Scholar
	activities repository.ActivityRepository
	scholars   repository.ScholarRepository
	documents  repository.DocumentRepository
}

func newCampus(t *testing.T) campus {
	t.Helper()
	db := testutil.NewDB(t)

	c := campus{
		db:         db,
		student:    testutil.CreateUser(t, db, "amina@example.com", models.RoleStudent),
		other:      testutil.CreateUser(t, db, "youssef@example.com", models.RoleStudent),
		advisor:    testutil.CreateUser(t, db, "advisor@example.com", models.RoleSupervisor),
		stranger:   testutil.CreateUser(t, db, "stranger@example.com", models.RoleSupervisor),
		team:       testutil.CreateUser(t, db, "team@example.com", models.RoleLEDTeam),
		admin:      testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin),
		activities: repository.NewActivityRepository(db),
		scholars:   repository.NewScholarRepository(db),
		documents:  repository.NewDocumentRepository(db),
	}
	c.scholar = testutil.CreateScholar(t, db, c.student.ID, &c.advisor.ID)
	testutil.CreateScholar(t, db, c.other.ID, nil)
	return c
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
