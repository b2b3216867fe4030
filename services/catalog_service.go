package services

import (
	"context"
	"errors"
	"immigration_crm_go/domain"
	"immigration_crm_go/mappers"
	"immigration_crm_go/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Catalog-related errors
var (
	ErrServiceNotFound   = errors.New("service not found")
	ErrMilestoneNotFound = errors.New("milestone template not found")
	ErrDuplicateOrder    = errors.New("milestone order number already used in this service")
)

// MilestoneTemplateInput describes one milestone template
type MilestoneTemplateInput struct {
	Name                 string
	Description          string
	OrderNumber          int
	IsPaymentRequired    bool
	DefaultPaymentAmount *float64
	PaymentPercentage    *float64
}

// ServiceInput describes a catalog service
type ServiceInput struct {
	Name                  string
	Description           string
	Category              string
	BasePrice             float64
	EstimatedCost         float64
	Complexity            string
	RequiredDocuments     []string
	EstimatedDurationDays *int
	Milestones            []MilestoneTemplateInput // only used on create
}

// CatalogFilters holds filter options for listing services
type CatalogFilters struct {
	ActiveOnly bool
	Category   string
}

// CatalogService manages services and their milestone templates
type CatalogService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewCatalogService creates a catalog service
func NewCatalogService(db *gorm.DB, log logrus.FieldLogger) *CatalogService {
	return &CatalogService{db: db, log: log.WithField("service", "catalog")}
}

func (in *ServiceInput) normalize() {
	in.Name = sanitizeText(in.Name)
	in.Description = sanitizeText(in.Description)
	if in.Category == "" {
		in.Category = models.ServiceCategoryOtros
	}
	if in.Complexity == "" {
		in.Complexity = models.ComplexityMedium
	}
	docs := make([]string, 0, len(in.RequiredDocuments))
	for _, d := range in.RequiredDocuments {
		if clean := sanitizeText(d); clean != "" {
			docs = append(docs, clean)
		}
	}
	in.RequiredDocuments = docs
	for i := range in.Milestones {
		in.Milestones[i].normalize()
	}
}

func (in *ServiceInput) validate() error {
	if blank(in.Name) {
		return invalid("name", "is required")
	}
	if !models.IsValidServiceCategory(in.Category) {
		return invalid("category", "must be one of Nacionalidad, Residencia, Visado, Otros")
	}
	if !models.IsValidComplexity(in.Complexity) {
		return invalid("complexity", "must be one of Baja, Media, Alta")
	}
	if in.BasePrice < 0 {
		return invalid("basePrice", "must not be negative")
	}
	if in.EstimatedCost < 0 {
		return invalid("estimatedCost", "must not be negative")
	}
	if in.EstimatedDurationDays != nil && *in.EstimatedDurationDays < 0 {
		return invalid("estimatedDurationDays", "must not be negative")
	}

	seen := make(map[int]bool, len(in.Milestones))
	for _, m := range in.Milestones {
		if err := m.validate(); err != nil {
			return err
		}
		if seen[m.OrderNumber] {
			return ErrDuplicateOrder
		}
		seen[m.OrderNumber] = true
	}
	return nil
}

func (in *MilestoneTemplateInput) normalize() {
	in.Name = sanitizeText(in.Name)
	in.Description = sanitizeText(in.Description)
}

func (in *MilestoneTemplateInput) validate() error {
	if blank(in.Name) {
		return invalid("milestones.name", "is required")
	}
	if in.OrderNumber < 1 {
		return invalid("milestones.orderNumber", "must be 1 or greater")
	}
	if in.PaymentPercentage != nil && (*in.PaymentPercentage < 0 || *in.PaymentPercentage > 100) {
		return invalid("milestones.paymentPercentage", "must be between 0 and 100")
	}
	if in.DefaultPaymentAmount != nil && *in.DefaultPaymentAmount < 0 {
		return invalid("milestones.defaultPaymentAmount", "must not be negative")
	}
	return nil
}

func (in MilestoneTemplateInput) toRecord(serviceID string) domain.ServiceMilestone {
	return domain.ServiceMilestone{
		ServiceID:            serviceID,
		Name:                 in.Name,
		Description:          in.Description,
		OrderNumber:          in.OrderNumber,
		IsPaymentRequired:    in.IsPaymentRequired,
		DefaultPaymentAmount: in.DefaultPaymentAmount,
		PaymentPercentage:    in.PaymentPercentage,
	}
}

// CreateService inserts a service together with its milestone templates.
// New services are always active.
func (s *CatalogService) CreateService(ctx context.Context, in ServiceInput) (*domain.Service, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	record := domain.Service{
		Name:                  in.Name,
		Description:           in.Description,
		Category:              in.Category,
		BasePrice:             in.BasePrice,
		EstimatedCost:         in.EstimatedCost,
		Complexity:            in.Complexity,
		RequiredDocuments:     in.RequiredDocuments,
		EstimatedDurationDays: in.EstimatedDurationDays,
		IsActive:              true,
	}
	for _, m := range in.Milestones {
		record.Milestones = append(record.Milestones, m.toRecord(""))
	}
	row := mappers.ServiceToRow(record)

	// Associations are inserted by gorm in the same transaction
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, persistenceError(s.log, "service.create", in.Name, err)
	}

	s.log.WithFields(logrus.Fields{"service_id": row.ID, "milestones": len(row.Milestones)}).Info("Service created")
	return s.GetService(ctx, row.ID)
}

func (s *CatalogService) findService(ctx context.Context, id string) (*models.Service, error) {
	var row models.Service
	err := s.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_number ASC")
		}).
		First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, persistenceError(s.log, "service.get", id, err)
	}
	return &row, nil
}

// GetService returns a service with templates ordered by orderNumber
func (s *CatalogService) GetService(ctx context.Context, id string) (*domain.Service, error) {
	row, err := s.findService(ctx, id)
	if err != nil {
		return nil, err
	}
	record := mappers.ServiceToRecord(*row)
	return &record, nil
}

// ListServices returns services by name
func (s *CatalogService) ListServices(ctx context.Context, filters CatalogFilters) ([]domain.Service, error) {
	query := s.db.WithContext(ctx).Preload("Milestones", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_number ASC")
	})
	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filters.Category != "" && models.IsValidServiceCategory(filters.Category) {
		query = query.Where("category = ?", filters.Category)
	}

	var rows []models.Service
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, persistenceError(s.log, "service.list", "", err)
	}

	list := make([]domain.Service, 0, len(rows))
	for _, row := range rows {
		list = append(list, mappers.ServiceToRecord(row))
	}
	return list, nil
}

// UpdateService edits the service fields. Templates are edited individually.
func (s *CatalogService) UpdateService(ctx context.Context, id string, in ServiceInput) (*domain.Service, error) {
	in.Milestones = nil
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	row, err := s.findService(ctx, id)
	if err != nil {
		return nil, err
	}

	record := mappers.ServiceToRecord(*row)
	record.Name = in.Name
	record.Description = in.Description
	record.Category = in.Category
	record.BasePrice = in.BasePrice
	record.EstimatedCost = in.EstimatedCost
	record.Complexity = in.Complexity
	record.RequiredDocuments = in.RequiredDocuments
	record.EstimatedDurationDays = in.EstimatedDurationDays
	updated := mappers.ServiceToRow(record)
	updated.Milestones = nil

	if err := s.db.WithContext(ctx).Save(&updated).Error; err != nil {
		return nil, persistenceError(s.log, "service.update", id, err)
	}
	return s.GetService(ctx, id)
}

// SetActive retires or reactivates a service
func (s *CatalogService) SetActive(ctx context.Context, id string, active bool) error {
	result := s.db.WithContext(ctx).Model(&models.Service{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return persistenceError(s.log, "service.set_active", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (s *CatalogService) orderTaken(ctx context.Context, serviceID string, order int, exceptID string) (bool, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&models.ServiceMilestone{}).
		Where("service_id = ? AND order_number = ?", serviceID, order)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddMilestone appends a template to a service
func (s *CatalogService) AddMilestone(ctx context.Context, serviceID string, in MilestoneTemplateInput) (*domain.ServiceMilestone, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.findService(ctx, serviceID); err != nil {
		return nil, err
	}

	taken, err := s.orderTaken(ctx, serviceID, in.OrderNumber, "")
	if err != nil {
		return nil, persistenceError(s.log, "milestone_template.create", serviceID, err)
	}
	if taken {
		return nil, ErrDuplicateOrder
	}

	row := mappers.ServiceMilestoneToRow(in.toRecord(serviceID))
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, persistenceError(s.log, "milestone_template.create", serviceID, err)
	}

	record := mappers.ServiceMilestoneToRecord(row)
	return &record, nil
}

// UpdateMilestone edits a template. Existing case milestones keep their copies.
func (s *CatalogService) UpdateMilestone(ctx context.Context, serviceID, milestoneID string, in MilestoneTemplateInput) (*domain.ServiceMilestone, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	var row models.ServiceMilestone
	if err := s.db.WithContext(ctx).First(&row, "id = ? AND service_id = ?", milestoneID, serviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMilestoneNotFound
		}
		return nil, persistenceError(s.log, "milestone_template.get", milestoneID, err)
	}

	taken, err := s.orderTaken(ctx, serviceID, in.OrderNumber, milestoneID)
	if err != nil {
		return nil, persistenceError(s.log, "milestone_template.update", milestoneID, err)
	}
	if taken {
		return nil, ErrDuplicateOrder
	}

	updated := mappers.ServiceMilestoneToRow(in.toRecord(serviceID))
	updated.ID = row.ID
	updated.CreatedAt = row.CreatedAt
	if err := s.db.WithContext(ctx).Save(&updated).Error; err != nil {
		return nil, persistenceError(s.log, "milestone_template.update", milestoneID, err)
	}

	record := mappers.ServiceMilestoneToRecord(updated)
	return &record, nil
}

// DeleteMilestone removes a template. Instantiated milestones are not touched.
func (s *CatalogService) DeleteMilestone(ctx context.Context, serviceID, milestoneID string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND service_id = ?", milestoneID, serviceID).Delete(&models.ServiceMilestone{})
	if result.Error != nil {
		return persistenceError(s.log, "milestone_template.delete", milestoneID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMilestoneNotFound
	}
	return nil
}
