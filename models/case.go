package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Case status constants as stored
const (
	CaseStatusOpen       = "Abierto"
	CaseStatusInProgress = "En Progreso"
	CaseStatusCompleted  = "Completado"
	CaseStatusCancelled  = "Cancelado"
)

// Case binds one Client to one Service instance (stored as client_services)
type Case struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClientID  string  `gorm:"type:uuid;not null;index" json:"client_id"`
	Client    Client  `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	ServiceID string  `gorm:"type:uuid;not null;index" json:"service_id"`
	Service   Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`

	AssignedLawyerID *string `gorm:"type:uuid;index" json:"assigned_lawyer_id,omitempty"`
	AssignedLawyer   *User   `gorm:"foreignKey:AssignedLawyerID" json:"assigned_lawyer,omitempty"`

	// Pricing. AmountOwed may go negative on overpayment.
	TotalPrice     float64 `gorm:"not null" json:"total_price"`
	InitialPayment float64 `gorm:"not null;default:0" json:"initial_payment"`
	AmountOwed     float64 `gorm:"not null;default:0" json:"amount_owed"`

	Status    string     `gorm:"not null;default:Abierto;index" json:"status"`
	StartDate time.Time  `gorm:"not null;index" json:"start_date"`
	EndDate   *time.Time `gorm:"index" json:"end_date,omitempty"`
	Notes     *string    `gorm:"type:text" json:"notes,omitempty"`

	Milestones []CaseMilestone `gorm:"foreignKey:CaseID" json:"milestones,omitempty"`
}

// BeforeCreate hook to generate UUID
func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = CaseStatusOpen
	}
	return nil
}

// TableName specifies the table name for Case model
func (Case) TableName() string {
	return "client_services"
}

// IsValidCaseStatus checks if the stored status is valid
func IsValidCaseStatus(status string) bool {
	switch status {
	case CaseStatusOpen, CaseStatusInProgress, CaseStatusCompleted, CaseStatusCancelled:
		return true
	}
	return false
}
