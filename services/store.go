package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kendall-kelly/edu-brokerage-api/logger"
	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// loadOrder reads an order for update inside tx
func loadOrder(tx *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := tx.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// loadOrderDetail reads an order with every relation the API returns
func loadOrderDetail(db *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	err := db.
		Preload("Client").
		Preload("AssignedSupervisor").
		Preload("AssignedDelegate").
		Preload("Items").
		Preload("Guardian").
		Preload("Student").
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// saveOrder writes updates only if the row still carries the version that
// was read; otherwise another request won and ErrConcurrentUpdate is returned.
func saveOrder(tx *gorm.DB, order *models.Order, updates map[string]interface{}) error {
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = time.Now()

	res := tx.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return workflow.ErrConcurrentUpdate
	}
	order.Version++
	return nil
}

// stampStatus adds the timestamps that accompany a terminal status
func stampStatus(updates map[string]interface{}, to workflow.Status, by uint, now time.Time) {
	switch to {
	case workflow.StatusCompleted:
		updates["completed_at"] = now
		updates["completed_by"] = by
	case workflow.StatusCancelled:
		updates["cancelled_at"] = now
	}
}

func findActiveStaff(tx *gorm.DB, id uint, role workflow.Role) (*models.User, error) {
	var user models.User
	err := tx.Where("id = ? AND role = ? AND active = ?", id, role, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			code := strings.ToUpper(string(role)) + "_NOT_FOUND"
			return nil, workflow.NotFound(code, "No active "+string(role)+" with that id")
		}
		return nil, err
	}
	return &user, nil
}

func newNotification(kind string, orderID uint, sender *uint, recipient uint, message string) *models.Notification {
	return &models.Notification{
		Type:        kind,
		OrderID:     orderID,
		SenderID:    sender,
		RecipientID: recipient,
		Status:      workflow.NotificationUnread,
		Message:     message,
	}
}

func insertNotifications(tx *gorm.DB, notes []*models.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	return tx.Create(notes).Error
}

// publishAll pushes committed notifications. Failures are logged only.
func publishAll(ctx context.Context, notifier Notifier, notes []*models.Notification) {
	if notifier == nil {
		return
	}
	for _, n := range notes {
		if err := notifier.Publish(ctx, n); err != nil {
			logger.FromContext(ctx).Warn("Failed to publish notification",
				zap.Uint("notification_id", n.ID), zap.Uint("recipient_id", n.RecipientID), zap.Error(err))
		}
	}
}

// IsUniqueViolation reports whether err came from a unique index
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

func uintPtr(v uint) *uint {
	return &v
}
