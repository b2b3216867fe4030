package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MonthlySummary is a materialized accounting rollup for one month.
// It is recomputed on demand and never authoritative.
type MonthlySummary struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Year  int `gorm:"not null;uniqueIndex:idx_monthly_summary_period" json:"year"`
	Month int `gorm:"not null;uniqueIndex:idx_monthly_summary_period" json:"month"`

	TotalIncome     float64 `gorm:"not null;default:0" json:"total_income"`
	LawyerPayments  float64 `gorm:"not null;default:0" json:"lawyer_payments"`
	GeneralExpenses float64 `gorm:"not null;default:0" json:"general_expenses"`
	TotalExpenses   float64 `gorm:"not null;default:0" json:"total_expenses"`
	NetProfit       float64 `gorm:"not null;default:0" json:"net_profit"`
	ProfitMargin    float64 `gorm:"not null;default:0" json:"profit_margin"`
	CompletedCases  int     `gorm:"not null;default:0" json:"completed_cases"`
	NewCases        int     `gorm:"not null;default:0" json:"new_cases"`

	GeneratedAt time.Time `json:"generated_at"`
}

// BeforeCreate hook to generate UUID
func (s *MonthlySummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for MonthlySummary model
func (MonthlySummary) TableName() string {
	return "monthly_summaries"
}
