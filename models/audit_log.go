package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit resource types
const (
	AuditResourceClient        = "client"
	AuditResourceCase          = "case"
	AuditResourceCaseMilestone = "case_milestone"
)

// AuditLog is an immutable record of a domain event
type AuditLog struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_audit_created_at" json:"created_at"`

	EventType    string  `gorm:"not null;index:idx_audit_event" json:"event_type"`
	ResourceType string  `gorm:"not null;index:idx_audit_resource" json:"resource_type"`
	ResourceID   string  `gorm:"type:uuid;not null;index:idx_audit_resource" json:"resource_id"`
	CaseID       *string `gorm:"type:uuid;index" json:"case_id,omitempty"`
	Description  string  `gorm:"type:text" json:"description,omitempty"`

	Payload    datatypes.JSON `json:"payload"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// BeforeCreate generates UUID
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// BeforeUpdate prevents modification of audit logs
func (a *AuditLog) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrRecordNotFound
}

// BeforeDelete prevents deletion of audit logs
func (a *AuditLog) BeforeDelete(tx *gorm.DB) error {
	return gorm.ErrRecordNotFound
}

// TableName specifies the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}
