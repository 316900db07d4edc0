package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/services"
)

// UpdateNotificationRequest represents the body of PATCH /api/notifications/:id
type UpdateNotificationRequest struct {
	Status string `json:"status" binding:"required"`
}

func notificationService() *services.NotificationService {
	return services.NewNotificationService(config.GetDB())
}

// ListNotifications handles GET /api/notifications
func ListNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	notes, err := notificationService().List(c.Request.Context(), user.Caller(), services.NotificationFilter{
		Status: c.Query("status"),
		Type:   c.Query("type"),
		All:    strings.EqualFold(c.Query("all"), "true"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"notifications":         notes,
		"poll_interval_seconds": int(config.GetConfig().NotificationPollInterval.Seconds()),
	})
}

// UpdateNotification handles PATCH /api/notifications/:id
func UpdateNotification(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	note, err := notificationService().UpdateStatus(c.Request.Context(), user.Caller(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, note)
}
