package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkHours is a time entry logged by a lawyer
type WorkHours struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LawyerID string  `gorm:"type:uuid;not null;index:idx_work_hours_lawyer_date" json:"lawyer_id"`
	CaseID   *string `gorm:"type:uuid;index" json:"case_id,omitempty"`

	Date        time.Time `gorm:"not null;index:idx_work_hours_lawyer_date" json:"date"`
	Hours       float64   `gorm:"not null" json:"hours"`
	IsBillable  bool      `gorm:"not null" json:"is_billable"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
}

// BeforeCreate hook to generate UUID
func (w *WorkHours) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for WorkHours model
func (WorkHours) TableName() string {
	return "work_hours"
}
