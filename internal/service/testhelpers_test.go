package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"stride/internal/database"
	"stride/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var userSeq atomic.Uint64

// engine bundles a fresh in-memory database with fully wired services.
type engine struct {
	db      *gorm.DB
	reports *ReportService
	actions *ActionService
	appeals *AppealService
	notifs  *NotificationService
	mailer  *mailerStub
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	db, err := database.ConnectTest()
	require.NoError(t, err)

	dispatcher := NewNotificationService(db)
	accounts := NewAccountService()
	mailer := &mailerStub{}

	return &engine{
		db:      db,
		notifs:  dispatcher,
		mailer:  mailer,
		reports: NewReportService(db, dispatcher, nil),
		actions: NewActionService(db, dispatcher, accounts, nil, mailer),
		appeals: NewAppealService(db, dispatcher, accounts, nil, mailer),
	}
}

// mailerStub records outbound emails instead of sending them.
type mailerStub struct {
	sent []sentEmail
	err  error
}

type sentEmail struct {
	To       string
	Template EmailTemplate
	Data     EmailData
}

func (m *mailerStub) Send(_ context.Context, to string, template EmailTemplate, data EmailData) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{To: to, Template: template, Data: data})
	return nil
}

func createUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()
	user := &models.User{
		Username: fmt.Sprintf("%s%d", gofakeit.Username(), userSeq.Add(1)),
		Email:    gofakeit.Email(),
		Password: "not-a-real-hash",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createWorkout(t *testing.T, db *gorm.DB, owner *models.User) *models.Workout {
	t.Helper()
	workout := &models.Workout{
		UserID:     owner.ID,
		Title:      gofakeit.Sentence(3),
		Visibility: models.VisibilityPublic,
	}
	require.NoError(t, db.Create(workout).Error)
	return workout
}

func createComment(t *testing.T, db *gorm.DB, owner *models.User, workoutID *uint) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		UserID:    owner.ID,
		WorkoutID: workoutID,
		Text:      gofakeit.Sentence(5),
	}
	require.NoError(t, db.Create(comment).Error)
	return comment
}

// reportOn opens a report from reporter against the given target locator.
func reportOn(t *testing.T, e *engine, reporter *models.User, objectType, locator string) *models.Report {
	t.Helper()
	report, err := e.reports.CreateReport(context.Background(), CreateReportInput{
		ReporterID: reporter.ID,
		Note:       gofakeit.Sentence(4),
		ObjectType: objectType,
		Locator:    locator,
	})
	require.NoError(t, err)
	return report
}

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func notificationsFor(t *testing.T, db *gorm.DB, userID uint) []models.Notification {
	t.Helper()
	var notifs []models.Notification
	require.NoError(t, db.Where("to_user_id = ?", userID).Order("id ASC").Find(&notifs).Error)
	return notifs
}

func boolPtr(b bool) *bool { return &b }
