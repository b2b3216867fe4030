package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceMilestone is one ordered step of a catalog service
type ServiceMilestone struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ServiceID string `gorm:"type:uuid;not null;uniqueIndex:idx_service_milestone_order" json:"service_id"`

	Name        string  `gorm:"not null" json:"name"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	OrderNumber int     `gorm:"not null;uniqueIndex:idx_service_milestone_order" json:"order_number"`

	// Payment template. Percentage of the case total takes precedence over the absolute default.
	IsPaymentRequired    bool     `gorm:"not null;default:false" json:"is_payment_required"`
	DefaultPaymentAmount *float64 `json:"default_payment_amount,omitempty"`
	PaymentPercentage    *float64 `json:"payment_percentage,omitempty"`
}

// BeforeCreate hook to generate UUID
func (m *ServiceMilestone) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for ServiceMilestone model
func (ServiceMilestone) TableName() string {
	return "service_milestones"
}
