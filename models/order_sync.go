package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order sync status constants
const (
	OrderSyncStatusSuccess = "success"
	OrderSyncStatusError   = "error"
	OrderSyncStatusSkipped = "skipped"
)

// OrderSync records the outcome of ingesting one external e-commerce order
type OrderSync struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ExternalOrderID string  `gorm:"not null;uniqueIndex" json:"external_order_id"`
	Status          string  `gorm:"not null;index" json:"status"`
	ErrorMessage    *string `gorm:"type:text" json:"error_message,omitempty"`
	ClientID        *string `gorm:"type:uuid" json:"client_id,omitempty"`
	CaseID          *string `gorm:"type:uuid" json:"case_id,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// BeforeCreate hook to generate UUID
func (o *OrderSync) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for OrderSync model
func (OrderSync) TableName() string {
	return "order_syncs"
}
