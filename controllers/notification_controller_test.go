package controllers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/testutil"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createNotification(t *testing.T, db *gorm.DB, recipient uint, orderID uint, kind string) *models.Notification {
	t.Helper()

	n := &models.Notification{
		Type:        kind,
		OrderID:     orderID,
		RecipientID: recipient,
		Status:      workflow.NotificationUnread,
		Message:     "Order update",
	}
	require.NoError(t, db.Create(n).Error)
	return n
}

func TestListNotifications(t *testing.T) {
	db := testutil.SetupTestDB(t)
	setupTestBackends(t)

	useConfig(t, &config.Config{NotificationPollInterval: 45 * time.Second})

	admin := testutil.CreateUser(t, db, "admin-0001", workflow.RoleAdmin)
	client := testutil.CreateUser(t, db, "clientA-0001", workflow.RoleUser)
	supervisor := testutil.CreateUser(t, db, "super-0001", workflow.RoleSupervisor)
	order := testutil.CreateOrder(t, db, client.ID, testutil.OrderFixture{})

	createNotification(t, db, client.ID, order.ID, models.NotificationDataRequest)
	createNotification(t, db, client.ID, order.ID, models.NotificationCancellationApproved)
	createNotification(t, db, supervisor.ID, order.ID, models.NotificationNewOrder)

	list := func(user *models.User, query string) []models.Notification {
		router := routeAs(user, http.MethodGet, "/notifications", ListNotifications)
		w := serve(router, http.MethodGet, "/notifications"+query, nil, "")
		require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())

		var data struct {
			Notifications []models.Notification `json:"notifications"`
			PollInterval  int                   `json:"poll_interval_seconds"`
		}
		parseData(t, w, &data)
		assert.Equal(t, 45, data.PollInterval)
		return data.Notifications
	}

	assert.Len(t, list(client, ""), 2)
	assert.Len(t, list(client, "?type="+models.NotificationDataRequest), 1)
	assert.Len(t, list(client, "?status=read"), 0)
	assert.Len(t, list(supervisor, "?all=true"), 1)
	assert.Len(t, list(admin, ""), 0)
	assert.Len(t, list(admin, "?all=true"), 3)

	router := routeAs(client, http.MethodGet, "/notifications", ListNotifications)
	w := serve(router, http.MethodGet, "/notifications?status=archived", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STATUS", errorCode(t, w))
}

func TestUpdateNotification(t *testing.T) {
	db := testutil.SetupTestDB(t)
	setupTestBackends(t)

	client := testutil.CreateUser(t, db, "clientA-0001", workflow.RoleUser)
	other := testutil.CreateUser(t, db, "clientB-0002", workflow.RoleUser)
	order := testutil.CreateOrder(t, db, client.ID, testutil.OrderFixture{})
	note := createNotification(t, db, client.ID, order.ID, models.NotificationDataRequest)
	path := fmt.Sprintf("/notifications/%d", note.ID)

	router := routeAs(client, http.MethodPatch, "/notifications/:id", UpdateNotification)

	tests := []struct {
		name           string
		router         *gin.Engine
		path           string
		body           map[string]string
		expectedStatus int
		expectedCode   string
	}{
		{"Missing status", router, path, map[string]string{}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"Unknown status", router, path, map[string]string{"status": "archived"}, http.StatusBadRequest, "INVALID_STATUS"},
		{"Someone else's notification", routeAs(other, http.MethodPatch, "/notifications/:id", UpdateNotification), path, map[string]string{"status": "read"}, http.StatusForbidden, "FORBIDDEN"},
		{"Unknown notification", router, "/notifications/9999", map[string]string{"status": "read"}, http.StatusNotFound, "NOTIFICATION_NOT_FOUND"},
		{"Mark read", router, path, map[string]string{"status": "read"}, http.StatusOK, ""},
		{"Same status again", router, path, map[string]string{"status": "read"}, http.StatusOK, ""},
		{"Acknowledge", router, path, map[string]string{"status": "acknowledged"}, http.StatusOK, ""},
		{"Cannot reopen", router, path, map[string]string{"status": "unread"}, http.StatusConflict, "INVALID_TRANSITION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveJSON(t, tt.router, http.MethodPatch, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(t, w))
			}
		})
	}

	var reloaded models.Notification
	require.NoError(t, db.First(&reloaded, note.ID).Error)
	assert.Equal(t, workflow.NotificationAcknowledged, reloaded.Status)
}
