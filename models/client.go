package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client status constants
const (
	ClientStatusActive   = "active"
	ClientStatusInactive = "inactive"
	ClientStatusPending  = "pending"
)

// Client is a person retained by the firm
type Client struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Identity
	FirstName      string  `gorm:"not null" json:"first_name"`
	LastName       string  `gorm:"not null" json:"last_name"`
	Email          string  `gorm:"uniqueIndex;not null" json:"email"`
	Phone          *string `json:"phone,omitempty"`
	PassportNumber *string `gorm:"index" json:"passport_number,omitempty"`

	// Immigration attributes
	Nationality     *string `json:"nationality,omitempty"`
	CountryOfOrigin *string `json:"country_of_origin,omitempty"`
	CityOfResidence *string `json:"city_of_residence,omitempty"`

	// Lifecycle
	Status          string `gorm:"not null;default:pending;index" json:"status"`
	ExpedientNumber int    `gorm:"not null;uniqueIndex" json:"expedient_number"`

	Notes *string `gorm:"type:text" json:"notes,omitempty"`

	// Relationships
	Cases []Case `gorm:"foreignKey:ClientID" json:"cases,omitempty"`
}

// BeforeCreate hook to generate UUID
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = ClientStatusPending
	}
	return nil
}

// TableName specifies the table name for Client model
func (Client) TableName() string {
	return "clients"
}

// FullName returns the client's display name
func (c *Client) FullName() string {
	return c.FirstName + " " + c.LastName
}

// IsValidClientStatus checks if the status is valid
func IsValidClientStatus(status string) bool {
	switch status {
	case ClientStatusActive, ClientStatusInactive, ClientStatusPending:
		return true
	}
	return false
}
