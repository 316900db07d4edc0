package models

import (
	"time"

	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"gorm.io/gorm"
)

// DataRequest is a supervisor asking the client for more information on an order
type DataRequest struct {
	ID                  uint                       `gorm:"primaryKey" json:"id"`
	OrderID             uint                       `gorm:"not null;index" json:"order_id"`
	Order               Order                      `gorm:"foreignKey:OrderID" json:"-"`
	SupervisorID        uint                       `gorm:"not null;index" json:"supervisor_id"`
	ClientID            uint                       `gorm:"not null;index" json:"client_id"`
	Message             string                     `gorm:"type:text;not null" json:"message"`
	Status              workflow.DataRequestStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	ThreadState         string                     `gorm:"-" json:"thread_state"` // computed, exposes the replied sub-state
	ClientNote          *string                    `gorm:"type:text" json:"client_note"`
	RespondedAt         *time.Time                 `json:"responded_at"`
	SupervisorReply     *string                    `gorm:"type:text" json:"supervisor_reply"`
	SupervisorRepliedAt *time.Time                 `json:"supervisor_replied_at"`
	ClosedAt            *time.Time                 `json:"closed_at"`
	ClosedBy            *uint                      `json:"closed_by"`
	Files               []DataRequestFile          `gorm:"foreignKey:DataRequestID" json:"files"`
	CreatedAt           time.Time                  `json:"created_at"`
	UpdatedAt           time.Time                  `json:"updated_at"`
	DeletedAt           gorm.DeletedAt             `gorm:"index" json:"-"`
}

// TableName specifies the table name for the DataRequest model
func (DataRequest) TableName() string {
	return "data_requests"
}

// AfterFind fills the computed thread state
func (d *DataRequest) AfterFind(tx *gorm.DB) error {
	d.ThreadState = workflow.ThreadState(d.Status, d.SupervisorReply != nil)
	return nil
}

// DataRequestFile is a file the client attached when responding
type DataRequestFile struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	DataRequestID uint      `gorm:"not null;index" json:"data_request_id"`
	FileName      string    `gorm:"not null" json:"file_name"`
	ContentType   string    `json:"content_type"`
	Size          int64     `json:"size"`
	S3Key         string    `gorm:"uniqueIndex;not null" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for the DataRequestFile model
func (DataRequestFile) TableName() string {
	return "data_request_files"
}
