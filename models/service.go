package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service category constants
const (
	ServiceCategoryNacionalidad = "Nacionalidad"
	ServiceCategoryResidencia   = "Residencia"
	ServiceCategoryVisado       = "Visado"
	ServiceCategoryOtros        = "Otros"
)

// Service complexity constants
const (
	ComplexityLow    = "Baja"
	ComplexityMedium = "Media"
	ComplexityHigh   = "Alta"
)

// Service is a reusable catalog offering, e.g. "Residencia por arraigo social"
type Service struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string  `gorm:"not null;index" json:"name"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	Category    string  `gorm:"not null;default:Otros;index" json:"category"`

	BasePrice     float64 `gorm:"not null;default:0" json:"base_price"`
	EstimatedCost float64 `gorm:"not null;default:0" json:"estimated_cost"`
	Complexity    string  `gorm:"not null;default:Media" json:"complexity"`

	RequiredDocuments     datatypes.JSONSlice[string] `json:"required_documents"`
	EstimatedDurationDays *int                        `json:"estimated_duration_days,omitempty"`

	// Soft retirement instead of deletion
	IsActive bool `gorm:"not null;default:true;index" json:"is_active"`

	// Relationships
	Milestones []ServiceMilestone `gorm:"foreignKey:ServiceID" json:"milestones,omitempty"`
}

// BeforeCreate hook to generate UUID
func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Service model
func (Service) TableName() string {
	return "services"
}

// IsValidServiceCategory checks if the category is valid
func IsValidServiceCategory(category string) bool {
	switch category {
	case ServiceCategoryNacionalidad, ServiceCategoryResidencia, ServiceCategoryVisado, ServiceCategoryOtros:
		return true
	}
	return false
}

// IsValidComplexity checks if the complexity is valid
func IsValidComplexity(complexity string) bool {
	switch complexity {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		return true
	}
	return false
}
