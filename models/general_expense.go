package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GeneralExpense is an operating cost of the firm (rent, software, fees...)
type GeneralExpense struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Category    string    `gorm:"not null;index" json:"category"`
	Description string    `gorm:"not null" json:"description"`
	Amount      float64   `gorm:"not null" json:"amount"`
	ExpenseDate time.Time `gorm:"not null;index" json:"expense_date"`
}

// BeforeCreate hook to generate UUID
func (e *GeneralExpense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for GeneralExpense model
func (GeneralExpense) TableName() string {
	return "general_expenses"
}
