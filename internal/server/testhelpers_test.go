package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"stride/internal/config"
	"stride/internal/database"
	"stride/internal/models"
	"stride/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testUserSeq atomic.Uint64

// newTestServer builds a Server backed by an isolated sqlite database with
// routes registered. Redis is absent, which every component tolerates.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db, err := database.ConnectTest()
	require.NoError(t, err)

	cfg := &config.Config{
		JWTSecret: "test-secret-do-not-use",
		Env:       "test",
		Port:      "0",
	}

	s, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

// sentEmail and stubMailer capture outgoing mail for assertions.
type sentEmail struct {
	To       string
	Template service.EmailTemplate
	Data     service.EmailData
}

type stubMailer struct {
	sent []sentEmail
}

func (m *stubMailer) Send(_ context.Context, to string, template service.EmailTemplate, data service.EmailData) error {
	m.sent = append(m.sent, sentEmail{To: to, Template: template, Data: data})
	return nil
}

func createServerUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()
	user := &models.User{
		Username: fmt.Sprintf("%s%d", gofakeit.Username(), testUserSeq.Add(1)),
		Email:    gofakeit.Email(),
		Password: "not-a-real-hash",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createServerWorkout(t *testing.T, db *gorm.DB, owner *models.User) *models.Workout {
	t.Helper()
	workout := &models.Workout{
		UserID:     owner.ID,
		Title:      gofakeit.Sentence(3),
		Visibility: models.VisibilityPublic,
	}
	require.NoError(t, db.Create(workout).Error)
	return workout
}

func tokenFor(t *testing.T, s *Server, user *models.User) string {
	t.Helper()
	token, err := s.generateToken(user.ID, user.Username)
	require.NoError(t, err)
	return token
}

// doRequest performs an HTTP request against the app with an optional bearer
// token and JSON body, and returns the response.
func doRequest(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// reportWorkout files a report against the workout and returns the report ID.
func reportWorkout(t *testing.T, app *fiber.App, token string, workout *models.Workout) uint {
	t.Helper()
	resp := doRequest(t, app, http.MethodPost, "/api/reports", token, fiber.Map{
		"object_type": "workout",
		"object_id":   workout.ShortID,
		"note":        "inappropriate content",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	report := body["report"].(map[string]any)
	return uint(report["id"].(float64))
}
