package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"gorm.io/gorm"
)

// Cancellation responses
const (
	CancellationApprove = "approve"
	CancellationReject  = "reject"
)

// CancellationService handles client cancellation requests and staff responses
type CancellationService struct {
	db       *gorm.DB
	notifier Notifier
}

// NewCancellationService creates a cancellation service
func NewCancellationService(db *gorm.DB, notifier Notifier) *CancellationService {
	return &CancellationService{db: db, notifier: notifier}
}

var pendingStatuses = []workflow.NotificationStatus{workflow.NotificationUnread, workflow.NotificationRead}

// Request files a cancellation request. It goes to the claiming supervisor,
// or to every active admin while the order is unclaimed.
func (s *CancellationService) Request(ctx context.Context, caller workflow.Caller, orderID uint, reason string) ([]models.Notification, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, workflow.Validation("REASON_REQUIRED", "A cancellation reason is required")
	}

	var notes []*models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := workflow.Authorize(caller, order.Ref(), workflow.ActionRequestCancellation); err != nil {
			return err
		}
		if order.Status.Terminal() {
			return workflow.ErrOrderClosed
		}

		var pending int64
		if err := tx.Model(&models.Notification{}).
			Where("order_id = ? AND type = ? AND status IN ?", order.ID, models.NotificationCancellationRequest, pendingStatuses).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return workflow.Conflict("CANCELLATION_PENDING", "A cancellation request is already pending for this order")
		}

		var recipients []uint
		if order.AssignedSupervisorID != nil {
			recipients = []uint{*order.AssignedSupervisorID}
		} else if err := tx.Model(&models.User{}).
			Where("role = ? AND active = ?", workflow.RoleAdmin, true).
			Pluck("id", &recipients).Error; err != nil {
			return err
		}
		if len(recipients) == 0 {
			return workflow.Conflict("NO_RECIPIENT", "No staff member is available to review the request")
		}

		for _, id := range recipients {
			n := newNotification(models.NotificationCancellationRequest, order.ID, uintPtr(caller.UserID), id,
				fmt.Sprintf("The client asked to cancel order #%d", order.ID))
			n.Reason = &reason
			notes = append(notes, n)
		}
		return insertNotifications(tx, notes)
	})
	if err != nil {
		return nil, err
	}

	publishAll(ctx, s.notifier, notes)
	out := make([]models.Notification, len(notes))
	for i, n := range notes {
		out[i] = *n
	}
	return out, nil
}

// CancellationOutcome is the state after a response
type CancellationOutcome struct {
	Action       string               `json:"action"`
	Order        *models.Order        `json:"order"`
	Notification *models.Notification `json:"notification"`
}

// Respond approves or rejects the pending request. Approval cancels the
// order, acknowledges the request and notifies the client in one
// transaction. Rejection needs a reason, dismisses the request and leaves
// the order as it was.
func (s *CancellationService) Respond(ctx context.Context, caller workflow.Caller, orderID uint, action, reason string) (*CancellationOutcome, error) {
	action = strings.ToLower(strings.TrimSpace(action))
	reason = strings.TrimSpace(reason)
	switch action {
	case CancellationApprove:
	case CancellationReject:
		if reason == "" {
			return nil, workflow.Validation("REASON_REQUIRED", "A reason is required to reject a cancellation")
		}
	default:
		return nil, workflow.Validation("INVALID_ACTION", "Action must be approve or reject")
	}

	var reply *models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := workflow.Authorize(caller, order.Ref(), workflow.ActionRespondCancellation); err != nil {
			return err
		}

		var pending int64
		if err := tx.Model(&models.Notification{}).
			Where("order_id = ? AND type = ? AND status IN ?", order.ID, models.NotificationCancellationRequest, pendingStatuses).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending == 0 {
			return workflow.NotFound("CANCELLATION_REQUEST_NOT_FOUND", "No pending cancellation request for this order")
		}

		now := time.Now()
		resolved := workflow.NotificationDismissed
		if action == CancellationApprove {
			if order.Status.Terminal() {
				return workflow.ErrOrderClosed
			}
			if err := workflow.Transition(order.Status, workflow.StatusCancelled); err != nil {
				return err
			}
			updates := map[string]interface{}{"status": workflow.StatusCancelled}
			stampStatus(updates, workflow.StatusCancelled, caller.UserID, now)
			if err := saveOrder(tx, order, updates); err != nil {
				return err
			}
			resolved = workflow.NotificationAcknowledged
			reply = newNotification(models.NotificationCancellationApproved, order.ID, uintPtr(caller.UserID), order.ClientID,
				fmt.Sprintf("Your cancellation request for order #%d was approved", order.ID))
		} else {
			reply = newNotification(models.NotificationCancellationRejected, order.ID, uintPtr(caller.UserID), order.ClientID,
				fmt.Sprintf("Your cancellation request for order #%d was rejected", order.ID))
			reply.Reason = &reason
		}

		if err := tx.Model(&models.Notification{}).
			Where("order_id = ? AND type = ? AND status IN ?", order.ID, models.NotificationCancellationRequest, pendingStatuses).
			Updates(map[string]interface{}{"status": resolved, "updated_at": now}).Error; err != nil {
			return err
		}
		return insertNotifications(tx, []*models.Notification{reply})
	})
	if err != nil {
		return nil, err
	}

	publishAll(ctx, s.notifier, []*models.Notification{reply})
	order, err := loadOrderDetail(s.db.WithContext(ctx), orderID)
	if err != nil {
		return nil, err
	}
	return &CancellationOutcome{Action: action, Order: order, Notification: reply}, nil
}
