package models

import (
	"time"

	"gorm.io/gorm"
)

// Review is a client rating on a completed order
type Review struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	OrderID    uint           `gorm:"not null;uniqueIndex" json:"order_id"`
	ClientID   uint           `gorm:"not null;index" json:"client_id"`
	Client     User           `gorm:"foreignKey:ClientID" json:"client"`
	Rating     int            `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment    string         `gorm:"type:text" json:"comment"`
	IsApproved bool           `gorm:"not null;index" json:"is_approved"`
	IsFeatured bool           `gorm:"not null" json:"is_featured"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}
