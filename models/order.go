package models

import (
	"encoding/json"
	"time"

	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Order represents one purchase of one or more services by a client
type Order struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	ClientID             uint            `gorm:"not null;index;uniqueIndex:idx_orders_client_idempotency" json:"client_id"`
	Client               User            `gorm:"foreignKey:ClientID" json:"client"`
	Status               workflow.Status `gorm:"type:varchar(32);not null;default:'new';index" json:"status"`
	StatusLabel          string          `gorm:"-" json:"status_label"` // computed, presentation label for status
	TotalPrice           float64         `gorm:"not null" json:"total_price"`
	PaymentMethod        string          `gorm:"not null" json:"payment_method"`
	PaidAt               *time.Time      `json:"paid_at"`
	Metadata             datatypes.JSON  `json:"metadata"` // immutable snapshot of the submitted payload
	Note                 *string         `gorm:"type:text" json:"note"`
	IdempotencyKey       *string         `gorm:"type:varchar(128);uniqueIndex:idx_orders_client_idempotency" json:"-"`
	AssignedSupervisorID *uint           `gorm:"index" json:"assigned_supervisor_id"`
	AssignedSupervisor   *User           `gorm:"foreignKey:AssignedSupervisorID" json:"assigned_supervisor,omitempty"`
	AssignedDelegateID   *uint           `gorm:"index" json:"assigned_delegate_id"`
	AssignedDelegate     *User           `gorm:"foreignKey:AssignedDelegateID" json:"assigned_delegate,omitempty"`
	AssignedAt           *time.Time      `json:"assigned_at"`
	CompletedAt          *time.Time      `json:"completed_at"`
	CompletedBy          *uint           `json:"completed_by"`
	CancelledAt          *time.Time      `json:"cancelled_at"`
	Version              int             `gorm:"not null;default:1" json:"version"` // optimistic concurrency token
	Items                []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Guardian             *Guardian       `gorm:"foreignKey:OrderID" json:"guardian,omitempty"`
	Student              *Student        `gorm:"foreignKey:OrderID" json:"student,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	DeletedAt            gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// AfterFind fills the computed status label
func (o *Order) AfterFind(tx *gorm.DB) error {
	o.StatusLabel = workflow.Label(o.Status)
	return nil
}

// Ref returns the policy view of the order
func (o Order) Ref() workflow.OrderRef {
	return workflow.OrderRef{
		ClientID:     o.ClientID,
		SupervisorID: o.AssignedSupervisorID,
		DelegateID:   o.AssignedDelegateID,
	}
}

// OrderItem is a snapshot of a service at purchase time
type OrderItem struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	OrderID      uint    `gorm:"not null;index" json:"order_id"`
	ServiceID    uint    `gorm:"not null;index" json:"service_id"`
	Title        string  `gorm:"not null" json:"title"`
	Price        float64 `gorm:"not null" json:"price"`
	DurationDays int     `gorm:"not null" json:"duration_days"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// Guardian holds the guardian paperwork submitted with an order
type Guardian struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	OrderID    uint   `gorm:"not null;uniqueIndex" json:"order_id"`
	Name       string `gorm:"not null" json:"name"`
	NationalID string `json:"national_id"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Relation   string `json:"relation"`
}

// TableName specifies the table name for the Guardian model
func (Guardian) TableName() string {
	return "guardians"
}

// Student holds the student paperwork submitted with an order
type Student struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	OrderID    uint   `gorm:"not null;uniqueIndex" json:"order_id"`
	Name       string `gorm:"not null" json:"name"`
	NationalID string `json:"national_id"`
	BirthDate  string `json:"birth_date"`
	Grade      string `json:"grade"`
	School     string `json:"school"`
}

// TableName specifies the table name for the Student model
func (Student) TableName() string {
	return "students"
}

// SubmissionSnapshot is the document stored in orders.metadata. Guardian
// and student payloads keep every submitted value. The stored text is
// re-encoded, so whitespace and escaping may differ from the request body.
type SubmissionSnapshot struct {
	Guardian json.RawMessage   `json:"guardian,omitempty"`
	Student  json.RawMessage   `json:"student,omitempty"`
	Services []ServiceSnapshot `json:"services"`
	Payment  PaymentSnapshot   `json:"payment"`
}

// ServiceSnapshot is the catalogue entry as seen at submission
type ServiceSnapshot struct {
	ID           uint    `json:"id"`
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"duration_days"`
}

// PaymentSnapshot records what the client reported paying
type PaymentSnapshot struct {
	Method         string    `json:"method"`
	SubmittedTotal float64   `json:"submitted_total"`
	PaidAt         time.Time `json:"paid_at"`
}
