package services

import (
	"context"
	"encoding/json"
	"fmt"
	"immigration_crm_go/events"
	"immigration_crm_go/models"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultAuditLimit caps audit queries without an explicit limit
const DefaultAuditLimit = 100

// AuditService keeps an append-only trail of the domain events
type AuditService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// AuditFilters narrows an audit query. Empty fields match everything.
type AuditFilters struct {
	ResourceType string
	ResourceID   string
	CaseID       string
	EventType    string
	Limit        int
}

func NewAuditService(db *gorm.DB, log logrus.FieldLogger) *AuditService {
	return &AuditService{db: db, log: log.WithField("service", "audit")}
}

// Attach records every domain event published on bus and returns the detach func
func (s *AuditService) Attach(bus *events.Bus) func() {
	return bus.Listen(events.TopicDomain, func(evt events.Event) {
		if err := s.Record(context.Background(), evt); err != nil {
			s.log.WithError(err).WithField("type", evt.Type).Error("Failed to record audit event")
		}
	})
}

// Record stores one event. Unknown payloads are ignored.
func (s *AuditService) Record(ctx context.Context, evt events.Event) error {
	row, ok := auditRow(evt)
	if !ok {
		return nil
	}
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode audit payload: %w", err)
	}
	row.Payload = datatypes.JSON(payload)
	row.EventType = string(evt.Type)
	row.OccurredAt = evt.OccurredAt

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return persistenceError(s.log, "audit.record", row.ResourceID, err)
	}
	return nil
}

func auditRow(evt events.Event) (models.AuditLog, bool) {
	switch p := evt.Payload.(type) {
	case events.ClientCreated:
		return models.AuditLog{
			ResourceType: models.AuditResourceClient,
			ResourceID:   p.ClientID,
			Description:  fmt.Sprintf("Client %s created with expedient %d", p.FullName, p.ExpedientNumber),
		}, true
	case events.ServiceAssigned:
		return models.AuditLog{
			ResourceType: models.AuditResourceCase,
			ResourceID:   p.CaseID,
			CaseID:       ptrTo(p.CaseID),
			Description:  fmt.Sprintf("%s assigned to %s for %.2f", p.ServiceName, p.ClientName, p.TotalPrice),
		}, true
	case events.MilestoneCompleted:
		return models.AuditLog{
			ResourceType: models.AuditResourceCaseMilestone,
			ResourceID:   p.MilestoneID,
			CaseID:       ptrTo(p.CaseID),
			Description:  fmt.Sprintf("Milestone %s completed", p.Name),
		}, true
	case events.PaymentCollected:
		return models.AuditLog{
			ResourceType: models.AuditResourceCaseMilestone,
			ResourceID:   p.MilestoneID,
			CaseID:       ptrTo(p.CaseID),
			Description:  fmt.Sprintf("Payment of %.2f collected for %s", p.Amount, p.Name),
		}, true
	}
	return models.AuditLog{}, false
}

// List returns the newest audit rows matching filters
func (s *AuditService) List(ctx context.Context, filters AuditFilters) ([]models.AuditLog, error) {
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if filters.ResourceType != "" {
		query = query.Where("resource_type = ?", filters.ResourceType)
	}
	if filters.ResourceID != "" {
		query = query.Where("resource_id = ?", filters.ResourceID)
	}
	if filters.CaseID != "" {
		query = query.Where("case_id = ?", filters.CaseID)
	}
	if filters.EventType != "" {
		query = query.Where("event_type = ?", filters.EventType)
	}
	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultAuditLimit
	}

	var rows []models.AuditLog
	if err := query.Order("occurred_at DESC, created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, persistenceError(s.log, "audit.list", "", err)
	}
	return rows, nil
}
