package models

import (
	"time"

	"github.com/kendall-kelly/edu-brokerage-api/workflow"
)

// Notification types
const (
	NotificationNewOrder             = "new_order"
	NotificationTaskAssigned         = "task_assigned"
	NotificationDelegateCompletion   = "delegate_completion"
	NotificationDataRequest          = "data_request"
	NotificationDataRequestReply     = "data_request_reply"
	NotificationDataRequestResponse  = "data_request_response"
	NotificationCancellationRequest  = "cancellation_request"
	NotificationCancellationApproved = "cancellation_approved"
	NotificationCancellationRejected = "cancellation_rejected"
)

// Notification is a message addressed to one user about one order
type Notification struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	Type        string                      `gorm:"type:varchar(32);not null;index" json:"type"`
	OrderID     uint                        `gorm:"not null;index" json:"order_id"`
	SenderID    *uint                       `gorm:"index" json:"sender_id"`
	RecipientID uint                        `gorm:"not null;index" json:"recipient_id"`
	Status      workflow.NotificationStatus `gorm:"type:varchar(16);not null;default:'unread';index" json:"status"`
	Message     string                      `gorm:"type:text" json:"message"`
	Reason      *string                     `gorm:"type:text" json:"reason"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
