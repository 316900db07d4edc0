package services

import (
	"context"
	"errors"
	"time"

	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"gorm.io/gorm"
)

// NotificationService lists and updates a user's notifications
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a notification service
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// NotificationFilter narrows a listing. All is honoured for admins only.
type NotificationFilter struct {
	Status string
	Type   string
	All    bool
}

// List returns the caller's notifications, newest first
func (s *NotificationService) List(ctx context.Context, caller workflow.Caller, f NotificationFilter) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if !(f.All && caller.Role == workflow.RoleAdmin) {
		q = q.Where("recipient_id = ?", caller.UserID)
	}
	if f.Status != "" {
		status, err := workflow.ParseNotificationStatus(f.Status)
		if err != nil {
			return nil, err
		}
		q = q.Where("status = ?", status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}

	notes := []models.Notification{}
	if err := q.Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// UpdateStatus moves the caller's notification to status
func (s *NotificationService) UpdateStatus(ctx context.Context, caller workflow.Caller, id uint, status string) (*models.Notification, error) {
	to, err := workflow.ParseNotificationStatus(status)
	if err != nil {
		return nil, err
	}

	var note models.Notification
	if err := s.db.WithContext(ctx).First(&note, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.NotFound("NOTIFICATION_NOT_FOUND", "Notification not found")
		}
		return nil, err
	}
	if note.RecipientID != caller.UserID && caller.Role != workflow.RoleAdmin {
		return nil, workflow.ErrForbidden
	}
	if note.Status == to {
		return &note, nil
	}
	if err := workflow.NotificationTransition(note.Status, to); err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND status = ?", note.ID, note.Status).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, workflow.Conflict("CONFLICT", "The notification was updated by another request")
	}

	note.Status = to
	return &note, nil
}
