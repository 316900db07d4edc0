package models

import (
	"time"

	"gorm.io/gorm"
)

// Service is a purchasable offering in the catalogue
type Service struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Price        float64        `gorm:"not null;check:price >= 0" json:"price"`
	DurationDays int            `gorm:"not null;default:0" json:"duration_days"`
	Category     string         `gorm:"index" json:"category"`
	Active       bool           `gorm:"not null;index" json:"active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Service model
func (Service) TableName() string {
	return "services"
}
