package services

import (
	"context"
	"errors"
	"immigration_crm_go/domain"
	"immigration_crm_go/events"
	"immigration_crm_go/mappers"
	"immigration_crm_go/metrics"
	"immigration_crm_go/models"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CaseMilestone-related errors
var (
	ErrCaseMilestoneNotFound = errors.New("case milestone not found")
)

// MilestoneUpdate is the edit form of a case milestone. Nil fields are left untouched.
type MilestoneUpdate struct {
	IsCompleted        *bool
	IsPaymentCollected *bool
	PaymentAmount      *float64
	Notes              *string
	DueDate            *time.Time // zero time clears the due date
}

// CaseMilestoneService tracks per-case milestone progress and payments
type CaseMilestoneService struct {
	db  *gorm.DB
	log logrus.FieldLogger
	bus events.Publisher
}

// NewCaseMilestoneService creates a case milestone service
func NewCaseMilestoneService(db *gorm.DB, log logrus.FieldLogger, bus events.Publisher) *CaseMilestoneService {
	return &CaseMilestoneService{db: db, log: log.WithField("service", "case_milestones"), bus: bus}
}

func (s *CaseMilestoneService) find(ctx context.Context, id string) (*models.CaseMilestone, error) {
	var row models.CaseMilestone
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseMilestoneNotFound
		}
		return nil, persistenceError(s.log, "case_milestone.get", id, err)
	}
	return &row, nil
}

func (s *CaseMilestoneService) apply(ctx context.Context, op, id string, updates map[string]interface{}) (*models.CaseMilestone, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.CaseMilestone{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, persistenceError(s.log, op, id, err)
	}
	return s.find(ctx, id)
}

// GetMilestone returns one case milestone
func (s *CaseMilestoneService) GetMilestone(ctx context.Context, id string) (*domain.CaseMilestone, error) {
	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	record := mappers.CaseMilestoneToRecord(*row)
	return &record, nil
}

// ListByCase returns the milestones of a case ordered by orderNumber
func (s *CaseMilestoneService) ListByCase(ctx context.Context, caseID string) ([]domain.CaseMilestone, error) {
	var rows []models.CaseMilestone
	if err := s.db.WithContext(ctx).Where("case_id = ?", caseID).Order("order_number ASC").Find(&rows).Error; err != nil {
		return nil, persistenceError(s.log, "case_milestone.list", caseID, err)
	}
	list := make([]domain.CaseMilestone, 0, len(rows))
	for _, row := range rows {
		list = append(list, mappers.CaseMilestoneToRecord(row))
	}
	return list, nil
}

// Progress returns completion statistics for a case's milestones
func (s *CaseMilestoneService) Progress(ctx context.Context, caseID string) (domain.MilestoneProgress, error) {
	var rows []models.CaseMilestone
	if err := s.db.WithContext(ctx).Select("id", "is_completed").Where("case_id = ?", caseID).Find(&rows).Error; err != nil {
		return domain.MilestoneProgress{}, persistenceError(s.log, "case_milestone.progress", caseID, err)
	}
	return domain.ComputeProgress(rows), nil
}

// CompleteMilestone marks a milestone completed. There is no ordering gate and
// repeating the call re-stamps completedAt. Notes are overwritten when given.
func (s *CaseMilestoneService) CompleteMilestone(ctx context.Context, id string, notes *string) (*domain.CaseMilestone, error) {
	updates := map[string]interface{}{
		"is_completed": true,
		"completed_at": time.Now().UTC(),
	}
	if notes != nil {
		updates["notes"] = sanitizePtr(notes)
	}

	row, err := s.apply(ctx, "case_milestone.complete", id, updates)
	if err != nil {
		return nil, err
	}

	metrics.MilestoneCompleted()
	s.log.WithFields(logrus.Fields{"milestone_id": id, "case_id": row.CaseID}).Info("Milestone completed")
	s.bus.Publish(events.TopicDomain, events.TypeMilestoneCompleted, events.MilestoneCompleted{
		MilestoneID:      row.ID,
		CaseID:           row.CaseID,
		Name:             row.Name,
		AssignedLawyerID: s.assignedLawyer(ctx, row.CaseID),
	})

	record := mappers.CaseMilestoneToRecord(*row)
	return &record, nil
}

// ReopenMilestone clears completion
func (s *CaseMilestoneService) ReopenMilestone(ctx context.Context, id string) (*domain.CaseMilestone, error) {
	row, err := s.apply(ctx, "case_milestone.reopen", id, map[string]interface{}{
		"is_completed": false,
		"completed_at": nil,
	})
	if err != nil {
		return nil, err
	}
	record := mappers.CaseMilestoneToRecord(*row)
	return &record, nil
}

// MarkPaymentAsCollected records the milestone payment as received. The amount
// overwrites paymentAmount when supplied. Completion is not required.
func (s *CaseMilestoneService) MarkPaymentAsCollected(ctx context.Context, id string, amount *float64) (*domain.CaseMilestone, error) {
	updates := map[string]interface{}{
		"is_payment_collected": true,
		"payment_collected_at": time.Now().UTC(),
	}
	if amount != nil {
		if *amount < 0 {
			return nil, invalid("amount", "must not be negative")
		}
		updates["payment_amount"] = *amount
	}

	row, err := s.apply(ctx, "case_milestone.collect", id, updates)
	if err != nil {
		return nil, err
	}

	metrics.PaymentCollected(row.PaymentAmount)
	s.log.WithFields(logrus.Fields{"milestone_id": id, "case_id": row.CaseID, "amount": row.PaymentAmount}).Info("Payment collected")
	s.bus.Publish(events.TopicDomain, events.TypePaymentCollected, events.PaymentCollected{
		MilestoneID: row.ID,
		CaseID:      row.CaseID,
		Name:        row.Name,
		Amount:      row.PaymentAmount,
	})

	record := mappers.CaseMilestoneToRecord(*row)
	return &record, nil
}

// UpdateMilestone sets completion and payment flags independently, stamping or
// clearing their timestamps, plus notes, due date and amount.
func (s *CaseMilestoneService) UpdateMilestone(ctx context.Context, id string, in MilestoneUpdate) (*domain.CaseMilestone, error) {
	before, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{}
	if in.IsCompleted != nil {
		updates["is_completed"] = *in.IsCompleted
		if *in.IsCompleted {
			updates["completed_at"] = now
		} else {
			updates["completed_at"] = nil
		}
	}
	if in.IsPaymentCollected != nil {
		updates["is_payment_collected"] = *in.IsPaymentCollected
		if *in.IsPaymentCollected {
			updates["payment_collected_at"] = now
		} else {
			updates["payment_collected_at"] = nil
		}
	}
	if in.PaymentAmount != nil {
		if *in.PaymentAmount < 0 {
			return nil, invalid("paymentAmount", "must not be negative")
		}
		updates["payment_amount"] = *in.PaymentAmount
	}
	if in.Notes != nil {
		updates["notes"] = sanitizePtr(in.Notes)
	}
	if in.DueDate != nil {
		if in.DueDate.IsZero() {
			updates["due_date"] = nil
		} else {
			updates["due_date"] = in.DueDate.UTC()
		}
	}
	if len(updates) == 0 {
		record := mappers.CaseMilestoneToRecord(*before)
		return &record, nil
	}

	row, err := s.apply(ctx, "case_milestone.update", id, updates)
	if err != nil {
		return nil, err
	}

	if !before.IsCompleted && row.IsCompleted {
		metrics.MilestoneCompleted()
		s.bus.Publish(events.TopicDomain, events.TypeMilestoneCompleted, events.MilestoneCompleted{
			MilestoneID:      row.ID,
			CaseID:           row.CaseID,
			Name:             row.Name,
			AssignedLawyerID: s.assignedLawyer(ctx, row.CaseID),
		})
	}
	if !before.IsPaymentCollected && row.IsPaymentCollected {
		metrics.PaymentCollected(row.PaymentAmount)
		s.bus.Publish(events.TopicDomain, events.TypePaymentCollected, events.PaymentCollected{
			MilestoneID: row.ID,
			CaseID:      row.CaseID,
			Name:        row.Name,
			Amount:      row.PaymentAmount,
		})
	}

	record := mappers.CaseMilestoneToRecord(*row)
	return &record, nil
}

func (s *CaseMilestoneService) assignedLawyer(ctx context.Context, caseID string) *string {
	var row models.Case
	if err := s.db.WithContext(ctx).Select("id", "assigned_lawyer_id").First(&row, "id = ?", caseID).Error; err != nil {
		s.log.WithError(err).WithField("case_id", caseID).Warn("Could not resolve assigned lawyer")
		return nil
	}
	return row.AssignedLawyerID
}
