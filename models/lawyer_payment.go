package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lawyer payment methods
const (
	PaymentMethodCommission = "commission"
	PaymentMethodHourly     = "hourly"
	PaymentMethodFixed      = "fixed"
)

// LawyerPayment is money paid to a lawyer for a period
type LawyerPayment struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LawyerID string `gorm:"type:uuid;not null;index" json:"lawyer_id"`
	Lawyer   User   `gorm:"foreignKey:LawyerID" json:"lawyer,omitempty"`

	PaymentDate time.Time `gorm:"not null" json:"payment_date"`
	PeriodYear  int       `gorm:"not null;index:idx_lawyer_payment_period" json:"period_year"`
	PeriodMonth int       `gorm:"not null;index:idx_lawyer_payment_period" json:"period_month"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Method      string    `gorm:"not null;default:fixed" json:"method"`
	Notes       *string   `gorm:"type:text" json:"notes,omitempty"`
}

// BeforeCreate hook to generate UUID
func (p *LawyerPayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for LawyerPayment model
func (LawyerPayment) TableName() string {
	return "lawyer_payments"
}

// IsValidPaymentMethod checks if the method is valid
func IsValidPaymentMethod(method string) bool {
	return method == PaymentMethodCommission || method == PaymentMethodHourly || method == PaymentMethodFixed
}
