package models

import (
	"time"

	"gorm.io/gorm"
)

// Contract kinds. A signed contract is one or two documents.
const (
	ContractPrimary   = "contract1"
	ContractSecondary = "contract2"
)

// Contract is an uploaded signed document belonging to a client and,
// once linked, to an order
type Contract struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OrderID   *uint          `gorm:"index" json:"order_id"` // nullable until the order exists
	ClientID  uint           `gorm:"not null;index" json:"client_id"`
	Kind      string         `gorm:"type:varchar(16);not null" json:"kind"`
	FileName  string         `gorm:"not null" json:"file_name"`
	S3Key     string         `gorm:"uniqueIndex;not null" json:"s3_key"`
	URL       string         `gorm:"-" json:"url,omitempty"` // computed field, signed URL
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Contract model
func (Contract) TableName() string {
	return "contracts"
}
