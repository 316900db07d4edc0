package models

import (
	"time"

	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"gorm.io/gorm"
)

// User represents any actor: customer, supervisor, delegate or admin
type User struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ExternalID string         `gorm:"uniqueIndex;not null" json:"external_id"` // identity provider user id (token userId / sub claim)
	Name       string         `gorm:"not null" json:"name"`
	Email      string         `gorm:"uniqueIndex;not null" json:"email"`
	Phone      string         `json:"phone"`
	NationalID *string        `json:"national_id,omitempty"` // supervisors and delegates
	Role       workflow.Role  `gorm:"type:varchar(16);not null;default:'user';index" json:"role"`
	Active     bool           `gorm:"not null" json:"active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// Caller returns the policy view of the user
func (u User) Caller() workflow.Caller {
	return workflow.Caller{UserID: u.ID, Role: u.Role}
}
