// Package seed provides database seeding utilities for development and demos.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"stride/internal/models"
	"stride/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumWorkouts int
	NumReports  int
	ShouldClean bool
}

// Every seeded account shares this password so demo logins are easy.
const demoPassword = "Seeded!passw0rd"

var workoutTitles = []string{
	"Morning run", "Evening run", "Tempo intervals", "Long slow distance",
	"Recovery jog", "Hill repeats", "Track session", "Trail loop",
	"Commute ride", "Weekend century", "Open water swim", "Brick workout",
}

var reportNotes = []string{
	"offensive language in the title",
	"looks like GPS spoofing",
	"spam account, same workout posted repeatedly",
	"harassment in the comments",
	"impersonating another athlete",
}

// Seed populates the database with demo users, workouts, comments and a
// handful of open reports for the moderation queue.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("seeding %d users, %d workouts, %d reports", opts.NumUsers, opts.NumWorkouts, opts.NumReports)

	if opts.ShouldClean {
		if err := ClearAll(db); err != nil {
			log.Println("warning: could not clear all existing data, continuing anyway")
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("create users: %w", err)
	}

	workouts, err := createWorkouts(db, users, opts.NumWorkouts)
	if err != nil {
		return fmt.Errorf("create workouts: %w", err)
	}

	comments, err := createComments(db, users, workouts)
	if err != nil {
		return fmt.Errorf("create comments: %w", err)
	}

	if err := createReports(db, users, workouts, comments, opts.NumReports); err != nil {
		return fmt.Errorf("create reports: %w", err)
	}

	log.Println("seeding complete")
	return nil
}

// ClearAll removes all seeded data, children first.
func ClearAll(db *gorm.DB) error {
	tables := []interface{}{
		&models.Notification{},
		&models.NotificationPreference{},
		&models.Appeal{},
		&models.ModerationAction{},
		&models.ReportComment{},
		&models.Report{},
		&models.Comment{},
		&models.Workout{},
		&models.User{},
	}
	for _, table := range tables {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(db *gorm.DB, count int) ([]models.User, error) {
	if count < 3 {
		count = 3
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		role := models.RoleUser
		// First account is an admin, the next two are moderators.
		switch i {
		case 0:
			role = models.RoleAdmin
		case 1, 2:
			role = models.RoleModerator
		}

		user := models.User{
			Username: fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i),
			Email:    fmt.Sprintf("seed%d@%s", i, gofakeit.DomainName()),
			Password: string(hash),
			Role:     role,
			IsActive: true,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	log.Printf("created %d users (1 admin, 2 moderators), password %q", len(users), demoPassword)
	return users, nil
}

func createWorkouts(db *gorm.DB, users []models.User, count int) ([]models.Workout, error) {
	visibilities := []string{models.VisibilityPublic, models.VisibilityPublic, models.VisibilityFollowers, models.VisibilityPrivate}

	workouts := make([]models.Workout, 0, count)
	for i := 0; i < count; i++ {
		owner := users[rand.Intn(len(users))]
		workout := models.Workout{
			UserID:     owner.ID,
			Title:      workoutTitles[rand.Intn(len(workoutTitles))],
			Visibility: visibilities[rand.Intn(len(visibilities))],
		}
		if err := db.Create(&workout).Error; err != nil {
			return nil, err
		}
		workouts = append(workouts, workout)
	}

	log.Printf("created %d workouts", len(workouts))
	return workouts, nil
}

func createComments(db *gorm.DB, users []models.User, workouts []models.Workout) ([]models.Comment, error) {
	comments := make([]models.Comment, 0, len(workouts))
	for _, workout := range workouts {
		// Roughly half the workouts get a comment.
		if rand.Intn(2) == 0 {
			continue
		}
		workoutID := workout.ID
		comment := models.Comment{
			UserID:    users[rand.Intn(len(users))].ID,
			WorkoutID: &workoutID,
			Text:      gofakeit.Sentence(8),
		}
		if err := db.Create(&comment).Error; err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	log.Printf("created %d comments", len(comments))
	return comments, nil
}

// createReports files reports through the service layer so reported_user_id,
// duplicate handling and moderator notifications behave as in production.
func createReports(db *gorm.DB, users []models.User, workouts []models.Workout, comments []models.Comment, count int) error {
	dispatcher := service.NewNotificationService(db)
	reports := service.NewReportService(db, dispatcher, nil)

	created := 0
	attempts := 0
	for created < count && attempts < count*10 {
		attempts++

		reporter := users[rand.Intn(len(users))]
		in := service.CreateReportInput{
			ReporterID: reporter.ID,
			Note:       reportNotes[rand.Intn(len(reportNotes))],
		}
		if len(comments) > 0 && rand.Intn(3) == 0 {
			comment := comments[rand.Intn(len(comments))]
			in.ObjectType = string(models.ObjectComment)
			in.Locator = comment.ShortID
		} else {
			workout := workouts[rand.Intn(len(workouts))]
			in.ObjectType = string(models.ObjectWorkout)
			in.Locator = workout.ShortID
		}

		// Self-reports and duplicates are rejected by the service; retry.
		if _, err := reports.CreateReport(context.Background(), in); err != nil {
			continue
		}
		created++
	}

	log.Printf("created %d reports", created)
	return nil
}
