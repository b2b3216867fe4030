package services

import (
	"context"
	"errors"
	"fmt"
	"immigration_crm_go/domain"
	"immigration_crm_go/models"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Order ingestion errors
var (
	ErrIngestionDisabled = errors.New("order ingestion is disabled")
	ErrNoServiceMapped   = errors.New("no catalog service mapped for order")
)

// OrderItem is one purchased product of an external order
type OrderItem struct {
	SKU      string  `json:"sku" yaml:"sku"`
	Name     string  `json:"name" yaml:"name"`
	Quantity int     `json:"quantity" yaml:"quantity"`
	Total    float64 `json:"total" yaml:"total"`
}

// Order is an e-commerce order as received from the shop webhook
type Order struct {
	ID        string      `json:"id" validate:"required"`
	Email     string      `json:"email" validate:"required,email"`
	FirstName string      `json:"firstName" validate:"required"`
	LastName  string      `json:"lastName" validate:"required"`
	Phone     string      `json:"phone"`
	Total     float64     `json:"total" validate:"gt=0"`
	Paid      bool        `json:"paid"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"createdAt"`
	Note      string      `json:"note"`
}

// ProductRule maps a shop product to a catalog service
type ProductRule struct {
	ServiceID string `yaml:"service_id"`
	LawyerID  string `yaml:"lawyer_id"`
}

// OrderMapping is the product to service mapping file
type OrderMapping struct {
	DefaultServiceID string                 `yaml:"default_service_id"`
	DefaultLawyerID  string                 `yaml:"default_lawyer_id"`
	Products         map[string]ProductRule `yaml:"products"`
}

// LoadOrderMapping reads the YAML mapping file
func LoadOrderMapping(path string) (*OrderMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read order mapping: %w", err)
	}
	return ParseOrderMapping(data)
}

// ParseOrderMapping parses a YAML mapping document
func ParseOrderMapping(data []byte) (*OrderMapping, error) {
	var mapping OrderMapping
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("failed to parse order mapping: %w", err)
	}
	for sku, rule := range mapping.Products {
		if rule.ServiceID == "" {
			return nil, fmt.Errorf("product %s: service_id is required", sku)
		}
	}
	return &mapping, nil
}

// resolve picks the service and lawyer of an order: the first mapped item wins,
// then the mapping defaults, then the configured fallbacks.
func (m *OrderMapping) resolve(order Order, fallbackService, fallbackLawyer string) (string, string) {
	serviceID, lawyerID := "", ""
	if m != nil {
		for _, item := range order.Items {
			if rule, ok := m.Products[strings.TrimSpace(item.SKU)]; ok {
				serviceID, lawyerID = rule.ServiceID, rule.LawyerID
				break
			}
		}
		if serviceID == "" {
			serviceID = m.DefaultServiceID
		}
		if lawyerID == "" {
			lawyerID = m.DefaultLawyerID
		}
	}
	if serviceID == "" {
		serviceID = fallbackService
	}
	if lawyerID == "" {
		lawyerID = fallbackLawyer
	}
	return serviceID, lawyerID
}

// OrderIngestionConfig configures the ingestion service
type OrderIngestionConfig struct {
	Enabled          bool
	DefaultServiceID string
	DefaultLawyerID  string
	Mapping          *OrderMapping
}

// OrderResult is the outcome of one processed order
type OrderResult struct {
	OrderID  string `json:"orderId"`
	Status   string `json:"status"`
	ClientID string `json:"clientId,omitempty"`
	CaseID   string `json:"caseId,omitempty"`
	Error    string `json:"error,omitempty"`
}

// OrderIngestionService turns shop orders into clients and cases
type OrderIngestionService struct {
	db      *gorm.DB
	log     logrus.FieldLogger
	clients *ClientService
	cases   *CaseService
	cfg     OrderIngestionConfig
}

// NewOrderIngestionService creates the ingestion service
func NewOrderIngestionService(db *gorm.DB, log logrus.FieldLogger, clients *ClientService, cases *CaseService, cfg OrderIngestionConfig) *OrderIngestionService {
	return &OrderIngestionService{
		db:      db,
		log:     log.WithField("service", "orders"),
		clients: clients,
		cases:   cases,
		cfg:     cfg,
	}
}

// Process ingests one order. An order that already synced successfully is skipped.
// Failures after validation are recorded on the order's sync row.
func (s *OrderIngestionService) Process(ctx context.Context, order Order) (*OrderResult, error) {
	if !s.cfg.Enabled {
		return nil, ErrIngestionDisabled
	}
	order.ID = strings.TrimSpace(order.ID)
	if order.ID == "" {
		return nil, invalid("id", "is required")
	}
	if err := validate.Struct(order); err != nil {
		return nil, invalid("order", err.Error())
	}
	log := s.log.WithField("order_id", order.ID)

	var existing models.OrderSync
	err := s.db.WithContext(ctx).Where("external_order_id = ?", order.ID).First(&existing).Error
	switch {
	case err == nil && existing.Status == models.OrderSyncStatusSuccess:
		log.Info("Order already synced, skipping")
		return &OrderResult{
			OrderID:  order.ID,
			Status:   models.OrderSyncStatusSkipped,
			ClientID: deref(existing.ClientID),
			CaseID:   deref(existing.CaseID),
		}, nil
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, persistenceError(s.log, "orders.lookup", order.ID, err)
	}

	result := &OrderResult{OrderID: order.ID}
	c, err := s.ingest(ctx, order, result)
	if err != nil {
		result.Status = models.OrderSyncStatusError
		result.Error = err.Error()
		log.WithError(err).Warn("Order ingestion failed")
		if recErr := s.record(ctx, result); recErr != nil {
			return result, recErr
		}
		return result, err
	}

	result.Status = models.OrderSyncStatusSuccess
	result.CaseID = c.ID
	if err := s.record(ctx, result); err != nil {
		return result, err
	}
	log.WithFields(logrus.Fields{"client_id": result.ClientID, "case_id": result.CaseID}).Info("Order ingested")
	return result, nil
}

func (s *OrderIngestionService) ingest(ctx context.Context, order Order, result *OrderResult) (*domain.Case, error) {
	client, err := s.clients.FindByEmail(ctx, order.Email)
	if errors.Is(err, ErrClientNotFound) {
		client, err = s.clients.Create(ctx, ClientInput{
			FirstName: order.FirstName,
			LastName:  order.LastName,
			Email:     order.Email,
			Phone:     order.Phone,
			Status:    models.ClientStatusPending,
		})
	}
	if err != nil {
		return nil, err
	}
	result.ClientID = client.ID

	serviceID, lawyerID := s.cfg.Mapping.resolve(order, s.cfg.DefaultServiceID, s.cfg.DefaultLawyerID)
	if serviceID == "" {
		return nil, ErrNoServiceMapped
	}

	startDate := order.CreatedAt
	if startDate.IsZero() {
		startDate = time.Now()
	}
	in := CreateCaseInput{
		ClientID:   client.ID,
		ServiceID:  serviceID,
		TotalPrice: order.Total,
		StartDate:  startDate,
		Notes:      optional(fmt.Sprintf("Pedido %s. %s", order.ID, order.Note)),
	}
	if order.Paid {
		in.InitialPayment = order.Total
	}
	if lawyerID != "" {
		in.AssignedLawyerID = &lawyerID
	}
	return s.cases.CreateCase(ctx, in)
}

func (s *OrderIngestionService) record(ctx context.Context, result *OrderResult) error {
	row := models.OrderSync{
		ExternalOrderID: result.OrderID,
		Status:          result.Status,
		ErrorMessage:    optional(result.Error),
		ClientID:        optional(result.ClientID),
		CaseID:          optional(result.CaseID),
		ProcessedAt:     time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "error_message", "client_id", "case_id", "processed_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return persistenceError(s.log, "orders.record", result.OrderID, err)
	}
	return nil
}

// ProcessBatch ingests orders one by one and never stops at a failed order
func (s *OrderIngestionService) ProcessBatch(ctx context.Context, orders []Order) ([]OrderResult, error) {
	if !s.cfg.Enabled {
		return nil, ErrIngestionDisabled
	}
	results := make([]OrderResult, 0, len(orders))
	for _, order := range orders {
		result, err := s.Process(ctx, order)
		if result == nil {
			result = &OrderResult{OrderID: order.ID, Status: models.OrderSyncStatusError}
			if err != nil {
				result.Error = err.Error()
			}
		}
		results = append(results, *result)
	}
	return results, nil
}

// SyncHistory returns the latest sync rows
func (s *OrderIngestionService) SyncHistory(ctx context.Context, limit int) ([]models.OrderSync, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.OrderSync
	if err := s.db.WithContext(ctx).Order("processed_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, persistenceError(s.log, "orders.history", "", err)
	}
	return rows, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
