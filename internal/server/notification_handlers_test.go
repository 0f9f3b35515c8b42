package server

import (
	"fmt"
	"net/http"
	"testing"

	"stride/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationEndpoints(t *testing.T) {
	t.Parallel()

	s, app := newTestServer(t)
	moderator := createServerUser(t, s.db, "moderator")
	user := createServerUser(t, s.db, "user")
	token := tokenFor(t, s, user)

	for _, object := range []uint{1, 2, 3} {
		o := object
		_, err := s.dispatcher.NotifyUser(s.db, models.NotificationReport, &moderator.ID, user.ID, &o)
		require.NoError(t, err)
	}

	t.Run("list", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/notifications?per_page=2", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		notifs := body["notifications"].([]any)
		assert.Len(t, notifs, 2)
		pagination := body["pagination"].(map[string]any)
		assert.Equal(t, float64(3), pagination["total"])
	})

	t.Run("unread count", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/notifications/unread", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, float64(3), body["unread"])
	})

	t.Run("mark one read", func(t *testing.T) {
		list := doRequest(t, app, http.MethodGet, "/api/notifications", token, nil)
		require.Equal(t, http.StatusOK, list.StatusCode)
		first := decodeBody(t, list)["notifications"].([]any)[0].(map[string]any)
		id := uint(first["id"].(float64))

		resp := doRequest(t, app, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", id), token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		notif := body["notification"].(map[string]any)
		assert.Equal(t, true, notif["marked_as_read"])
	})

	t.Run("cannot mark another user's notification", func(t *testing.T) {
		otherObject := uint(9)
		other, err := s.dispatcher.NotifyUser(s.db, models.NotificationReport, &user.ID, moderator.ID, &otherObject)
		require.NoError(t, err)

		resp := doRequest(t, app, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", other.ID), token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("read all", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/notifications/read-all", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		count := doRequest(t, app, http.MethodGet, "/api/notifications/unread", token, nil)
		body := decodeBody(t, count)
		assert.Equal(t, float64(0), body["unread"])
	})
}

func TestUpdateNotificationPreferenceEndpoint(t *testing.T) {
	t.Parallel()

	s, app := newTestServer(t)
	moderator := createServerUser(t, s.db, "moderator")
	user := createServerUser(t, s.db, "user")
	token := tokenFor(t, s, user)

	t.Run("opt out suppresses dispatch", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPut, "/api/notifications/preferences", token, fiber.Map{
			"kind":    string(models.ActionUserWarning),
			"enabled": false,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		pref := body["preference"].(map[string]any)
		assert.Equal(t, false, pref["enabled"])

		object := uint(1)
		notif, err := s.dispatcher.NotifyUser(s.db, string(models.ActionUserWarning), &moderator.ID, user.ID, &object)
		require.NoError(t, err)
		assert.Nil(t, notif)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPut, "/api/notifications/preferences", token, fiber.Map{
			"kind": string(models.ActionUserWarning),
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
