package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types
const (
	NotificationTypePaymentDue         = "payment_due"
	NotificationTypeMilestoneDue       = "milestone_due"
	NotificationTypeClientCreated      = "client_created"
	NotificationTypeServiceAssigned    = "service_assigned"
	NotificationTypeMilestoneCompleted = "milestone_completed"
	NotificationTypeDocumentRequired   = "document_required"
	NotificationTypeSystem             = "system"
)

// Notification priorities
const (
	NotificationPriorityLow    = "low"
	NotificationPriorityMedium = "medium"
	NotificationPriorityHigh   = "high"
)

// Related entity types
const (
	RelatedTypeClient        = "client"
	RelatedTypeCase          = "case"
	RelatedTypeCaseMilestone = "case_milestone"
)

type Notification struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID string `gorm:"type:uuid;not null;index:idx_notification_user_read" json:"user_id"`

	Type     string `gorm:"not null;index" json:"type"`
	Priority string `gorm:"not null;default:medium" json:"priority"`
	Title    string `gorm:"not null" json:"title"`
	Message  string `gorm:"type:text" json:"message"`

	IsRead bool       `gorm:"not null;default:false;index:idx_notification_user_read" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	// Entity that triggered the notification
	RelatedID   *string `gorm:"type:uuid;index" json:"related_id,omitempty"`
	RelatedType *string `json:"related_type,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Priority == "" {
		n.Priority = NotificationPriorityMedium
	}
	return nil
}

func (Notification) TableName() string {
	return "notifications"
}

// IsValidNotificationType checks if the type is valid
func IsValidNotificationType(t string) bool {
	switch t {
	case NotificationTypePaymentDue, NotificationTypeMilestoneDue, NotificationTypeClientCreated,
		NotificationTypeServiceAssigned, NotificationTypeMilestoneCompleted,
		NotificationTypeDocumentRequired, NotificationTypeSystem:
		return true
	}
	return false
}

// IsValidNotificationPriority checks if the priority is valid
func IsValidNotificationPriority(p string) bool {
	return p == NotificationPriorityLow || p == NotificationPriorityMedium || p == NotificationPriorityHigh
}
