package services

import (
	"context"
	"errors"
	"immigration_crm_go/domain"
	"immigration_crm_go/events"
	"immigration_crm_go/mappers"
	"immigration_crm_go/metrics"
	"immigration_crm_go/models"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Case-related errors
var (
	ErrCaseNotFound   = errors.New("case not found")
	ErrLawyerNotFound = errors.New("assigned lawyer not found")
)

// CreateCaseInput assigns a catalog service to a client
type CreateCaseInput struct {
	ClientID         string
	ServiceID        string
	AssignedLawyerID *string
	TotalPrice       float64
	InitialPayment   float64
	StartDate        time.Time
	Notes            *string
}

// UpdateCaseInput edits a case. Nil fields are left untouched;
// an empty AssignedLawyerID unassigns the case.
type UpdateCaseInput struct {
	TotalPrice       *float64
	InitialPayment   *float64
	AssignedLawyerID *string
	StartDate        *time.Time
	EndDate          *time.Time
	Notes            *string
}

// CaseFilters holds filter options for listing cases
type CaseFilters struct {
	ClientID  string
	ServiceID string
	LawyerID  string
	Status    string // stored or client-facing value
}

// CaseService runs the case lifecycle
type CaseService struct {
	db  *gorm.DB
	log logrus.FieldLogger
	bus events.Publisher
}

// NewCaseService creates a case service
func NewCaseService(db *gorm.DB, log logrus.FieldLogger, bus events.Publisher) *CaseService {
	return &CaseService{db: db, log: log.WithField("service", "cases"), bus: bus}
}

func (in *CreateCaseInput) validate() error {
	if blank(in.ClientID) {
		return invalid("clientId", "is required")
	}
	if blank(in.ServiceID) {
		return invalid("serviceId", "is required")
	}
	if in.StartDate.IsZero() {
		return invalid("startDate", "is required")
	}
	if in.TotalPrice <= 0 {
		return invalid("totalPrice", "must be greater than zero")
	}
	if in.InitialPayment < 0 {
		return invalid("initialPayment", "must not be negative")
	}
	return nil
}

// CreateCase inserts the case, instantiates one milestone per service template
// and activates the client. Everything commits or rolls back together.
func (s *CaseService) CreateCase(ctx context.Context, in CreateCaseInput) (*domain.Case, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.AssignedLawyerID != nil && blank(*in.AssignedLawyerID) {
		in.AssignedLawyerID = nil
	}

	var (
		row     models.Case
		client  models.Client
		service models.Service
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&client, "id = ?", in.ClientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClientNotFound
			}
			return err
		}
		err := tx.Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_number ASC")
		}).First(&service, "id = ?", in.ServiceID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrServiceNotFound
			}
			return err
		}
		if in.AssignedLawyerID != nil {
			if err := tx.First(&models.User{}, "id = ?", *in.AssignedLawyerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrLawyerNotFound
				}
				return err
			}
		}

		row = models.Case{
			ClientID:         in.ClientID,
			ServiceID:        in.ServiceID,
			AssignedLawyerID: in.AssignedLawyerID,
			TotalPrice:       in.TotalPrice,
			InitialPayment:   in.InitialPayment,
			AmountOwed:       domain.AmountOwed(in.TotalPrice, in.InitialPayment),
			Status:           models.CaseStatusOpen,
			StartDate:        in.StartDate.UTC(),
			Notes:            sanitizePtr(in.Notes),
		}
		if err := tx.Omit("Milestones").Create(&row).Error; err != nil {
			return err
		}

		milestones := InstantiateMilestones(row.ID, row.TotalPrice, row.InitialPayment, service.Milestones)
		if len(milestones) > 0 {
			if err := tx.Create(&milestones).Error; err != nil {
				return err
			}
		}
		row.Milestones = milestones

		return tx.Model(&models.Client{}).Where("id = ?", in.ClientID).
			Update("status", models.ClientStatusActive).Error
	})
	if err != nil {
		if errors.Is(err, ErrClientNotFound) || errors.Is(err, ErrServiceNotFound) || errors.Is(err, ErrLawyerNotFound) {
			return nil, err
		}
		return nil, persistenceError(s.log, "case.create", in.ClientID, err)
	}

	metrics.CaseCreated()
	s.log.WithFields(logrus.Fields{
		"case_id":    row.ID,
		"client_id":  row.ClientID,
		"service_id": row.ServiceID,
		"milestones": len(row.Milestones),
	}).Info("Case created")
	s.bus.Publish(events.TopicDomain, events.TypeServiceAssigned, events.ServiceAssigned{
		CaseID:           row.ID,
		ClientID:         client.ID,
		ClientName:       client.FullName(),
		ServiceName:      service.Name,
		AssignedLawyerID: row.AssignedLawyerID,
		TotalPrice:       row.TotalPrice,
	})

	return s.GetCase(ctx, row.ID)
}

// InstantiateMilestones copies service templates into fresh case milestones.
// Percentages apply to the price left after the initial payment, and the
// amounts together never exceed it.
func InstantiateMilestones(caseID string, totalPrice, initialPayment float64, templates []models.ServiceMilestone) []models.CaseMilestone {
	basis := domain.MilestoneBasis(totalPrice, initialPayment)
	remaining := basis
	milestones := make([]models.CaseMilestone, 0, len(templates))
	for _, t := range templates {
		templateID := t.ID
		amount := math.Min(domain.MilestonePaymentAmount(basis, t.PaymentPercentage, t.DefaultPaymentAmount), remaining)
		remaining -= amount
		milestones = append(milestones, models.CaseMilestone{
			CaseID:             caseID,
			ServiceMilestoneID: &templateID,
			Name:               t.Name,
			Description:        t.Description,
			OrderNumber:        t.OrderNumber,
			IsPaymentRequired:  t.IsPaymentRequired,
			PaymentAmount:      amount,
		})
	}
	return milestones
}

func (s *CaseService) preloaded(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Client").
		Preload("Service").
		Preload("AssignedLawyer").
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_number ASC")
		})
}

// GetCase returns the read model of a case
func (s *CaseService) GetCase(ctx context.Context, id string) (*domain.Case, error) {
	var row models.Case
	if err := s.preloaded(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, persistenceError(s.log, "case.get", id, err)
	}
	record := mappers.CaseToRecord(row)
	return &record, nil
}

// ListCases returns cases newest first
func (s *CaseService) ListCases(ctx context.Context, filters CaseFilters) ([]domain.Case, error) {
	query := s.preloaded(ctx)
	if filters.ClientID != "" {
		query = query.Where("client_id = ?", filters.ClientID)
	}
	if filters.ServiceID != "" {
		query = query.Where("service_id = ?", filters.ServiceID)
	}
	if filters.LawyerID != "" {
		query = query.Where("assigned_lawyer_id = ?", filters.LawyerID)
	}
	if filters.Status != "" {
		stored, ok := domain.ParseCaseStatus(filters.Status)
		if !ok {
			return nil, invalid("status", "unknown case status")
		}
		query = query.Where("status = ?", stored)
	}

	var rows []models.Case
	if err := query.Order("start_date DESC, created_at DESC").Find(&rows).Error; err != nil {
		return nil, persistenceError(s.log, "case.list", "", err)
	}

	cases := make([]domain.Case, 0, len(rows))
	for _, row := range rows {
		cases = append(cases, mappers.CaseToRecord(row))
	}
	return cases, nil
}

// UpdateCase edits price, lawyer, dates and notes. Milestone amounts are not re-derived.
func (s *CaseService) UpdateCase(ctx context.Context, id string, in UpdateCaseInput) (*domain.Case, error) {
	var row models.Case
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, persistenceError(s.log, "case.update", id, err)
	}

	updates := map[string]interface{}{}
	total, initial := row.TotalPrice, row.InitialPayment
	if in.TotalPrice != nil {
		if *in.TotalPrice <= 0 {
			return nil, invalid("totalPrice", "must be greater than zero")
		}
		total = *in.TotalPrice
		updates["total_price"] = total
	}
	if in.InitialPayment != nil {
		if *in.InitialPayment < 0 {
			return nil, invalid("initialPayment", "must not be negative")
		}
		initial = *in.InitialPayment
		updates["initial_payment"] = initial
	}
	if in.TotalPrice != nil || in.InitialPayment != nil {
		updates["amount_owed"] = domain.AmountOwed(total, initial)
	}
	if in.AssignedLawyerID != nil {
		lawyerID := strings.TrimSpace(*in.AssignedLawyerID)
		if lawyerID == "" {
			updates["assigned_lawyer_id"] = nil
		} else {
			if err := s.db.WithContext(ctx).First(&models.User{}, "id = ?", lawyerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, ErrLawyerNotFound
				}
				return nil, persistenceError(s.log, "case.update", id, err)
			}
			updates["assigned_lawyer_id"] = lawyerID
		}
	}
	if in.StartDate != nil {
		if in.StartDate.IsZero() {
			return nil, invalid("startDate", "is required")
		}
		updates["start_date"] = in.StartDate.UTC()
	}
	if in.EndDate != nil {
		if in.EndDate.IsZero() {
			updates["end_date"] = nil
		} else {
			updates["end_date"] = in.EndDate.UTC()
		}
	}
	if in.Notes != nil {
		updates["notes"] = sanitizePtr(in.Notes)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&row).Updates(updates).Error; err != nil {
			return nil, persistenceError(s.log, "case.update", id, err)
		}
	}
	return s.GetCase(ctx, id)
}

// ChangeStatus accepts either the stored or the client-facing status.
// Completing a case stamps its end date when missing.
func (s *CaseService) ChangeStatus(ctx context.Context, id, status string) (*domain.Case, error) {
	stored, ok := domain.ParseCaseStatus(status)
	if !ok {
		return nil, invalid("status", "unknown case status")
	}

	var row models.Case
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, persistenceError(s.log, "case.change_status", id, err)
	}

	updates := map[string]interface{}{"status": stored}
	if stored == models.CaseStatusCompleted && row.EndDate == nil {
		updates["end_date"] = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Model(&row).Updates(updates).Error; err != nil {
		return nil, persistenceError(s.log, "case.change_status", id, err)
	}

	s.log.WithFields(logrus.Fields{"case_id": id, "from": row.Status, "to": stored}).Info("Case status changed")
	return s.GetCase(ctx, id)
}

// DeleteCase removes a case and its milestones
func (s *CaseService) DeleteCase(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("case_id = ?", id).Delete(&models.CaseMilestone{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Case{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCaseNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCaseNotFound) {
			return err
		}
		return persistenceError(s.log, "case.delete", id, err)
	}
	return nil
}
