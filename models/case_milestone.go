package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CaseMilestone is one instantiated milestone of a case
type CaseMilestone struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index:idx_case_milestone" json:"case_id"`
	// Weak reference: removing the template leaves the instance intact
	ServiceMilestoneID *string `gorm:"type:uuid;index" json:"service_milestone_id,omitempty"`

	// Copied from the template at instantiation
	Name        string  `gorm:"not null" json:"name"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	OrderNumber int     `gorm:"not null;default:0;index:idx_case_milestone" json:"order_number"`

	IsCompleted bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	IsPaymentRequired  bool       `gorm:"not null;default:false" json:"is_payment_required"`
	PaymentAmount      float64    `gorm:"not null;default:0" json:"payment_amount"`
	IsPaymentCollected bool       `gorm:"not null;default:false" json:"is_payment_collected"`
	PaymentCollectedAt *time.Time `json:"payment_collected_at,omitempty"`

	DueDate *time.Time `gorm:"index" json:"due_date,omitempty"`
	Notes   *string    `gorm:"type:text" json:"notes,omitempty"`
}

// BeforeCreate hook to generate UUID
func (m *CaseMilestone) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for CaseMilestone model
func (CaseMilestone) TableName() string {
	return "case_milestones"
}
