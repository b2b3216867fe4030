package services

import (
	"context"
	"errors"
	"fmt"
	"immigration_crm_go/domain"
	"immigration_crm_go/events"
	"immigration_crm_go/mappers"
	"immigration_crm_go/models"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Client-related errors
var (
	ErrClientNotFound   = errors.New("client not found")
	ErrClientEmailTaken = errors.New("a client with this email already exists")
	ErrClientHasCases   = errors.New("client has cases and cannot be deleted")
)

// ClientInput carries the editable client fields
type ClientInput struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	PassportNumber  string
	Nationality     string
	CountryOfOrigin string
	CityOfResidence string
	Status          string
	Notes           string
}

// ClientFilters holds filter options for listing clients
type ClientFilters struct {
	Status string
	Search string
}

// ClientService manages the client registry
type ClientService struct {
	db  *gorm.DB
	log logrus.FieldLogger
	bus events.Publisher
}

// NewClientService creates a client service
func NewClientService(db *gorm.DB, log logrus.FieldLogger, bus events.Publisher) *ClientService {
	return &ClientService{db: db, log: log.WithField("service", "clients"), bus: bus}
}

func (in *ClientInput) normalize() {
	in.FirstName = sanitizeText(in.FirstName)
	in.LastName = sanitizeText(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.PassportNumber = strings.ToUpper(strings.TrimSpace(in.PassportNumber))
	in.Nationality = sanitizeText(in.Nationality)
	in.CountryOfOrigin = sanitizeText(in.CountryOfOrigin)
	in.CityOfResidence = sanitizeText(in.CityOfResidence)
	in.Notes = sanitizeText(in.Notes)
}

func (in *ClientInput) validate() error {
	if blank(in.FirstName) {
		return invalid("firstName", "is required")
	}
	if blank(in.LastName) {
		return invalid("lastName", "is required")
	}
	if !validEmail(in.Email) {
		return invalid("email", "must be a valid email address")
	}
	if in.Status != "" && !models.IsValidClientStatus(in.Status) {
		return invalid("status", "must be one of active, inactive, pending")
	}
	return nil
}

func (in *ClientInput) apply(row *models.Client) {
	record := mappers.ClientToRecord(*row)
	record.FirstName = in.FirstName
	record.LastName = in.LastName
	record.Email = in.Email
	record.Phone = in.Phone
	record.PassportNumber = in.PassportNumber
	record.Nationality = in.Nationality
	record.CountryOfOrigin = in.CountryOfOrigin
	record.CityOfResidence = in.CityOfResidence
	record.Notes = in.Notes
	if in.Status != "" {
		record.Status = in.Status
	}
	*row = mappers.ClientToRow(record)
}

// Create registers a client and assigns the next expedient number
func (s *ClientService) Create(ctx context.Context, in ClientInput) (*domain.Client, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	var row models.Client
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.Client{}).Where("email = ?", in.Email).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrClientEmailTaken
		}

		next, err := nextExpedientNumber(tx)
		if err != nil {
			return err
		}

		row = models.Client{Status: models.ClientStatusPending}
		in.apply(&row)
		row.ExpedientNumber = next
		return tx.Create(&row).Error
	})
	if err != nil {
		if errors.Is(err, ErrClientEmailTaken) {
			return nil, err
		}
		return nil, persistenceError(s.log, "client.create", in.Email, err)
	}

	s.log.WithFields(logrus.Fields{"client_id": row.ID, "expedient": row.ExpedientNumber}).Info("Client created")
	s.bus.Publish(events.TopicDomain, events.TypeClientCreated, events.ClientCreated{
		ClientID:        row.ID,
		FullName:        row.FullName(),
		ExpedientNumber: row.ExpedientNumber,
	})

	record := mappers.ClientToRecord(row)
	return &record, nil
}

// nextExpedientNumber must run inside the insert transaction
func nextExpedientNumber(tx *gorm.DB) (int, error) {
	var current int
	if err := tx.Model(&models.Client{}).Select("COALESCE(MAX(expedient_number), 0)").Scan(&current).Error; err != nil {
		return 0, fmt.Errorf("failed to query max expedient number: %w", err)
	}
	return current + 1, nil
}

func (s *ClientService) find(ctx context.Context, id string) (*models.Client, error) {
	var row models.Client
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, persistenceError(s.log, "client.get", id, err)
	}
	return &row, nil
}

// Get returns a client by id
func (s *ClientService) Get(ctx context.Context, id string) (*domain.Client, error) {
	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	record := mappers.ClientToRecord(*row)
	return &record, nil
}

// FindByEmail looks a client up by (case-insensitive) email
func (s *ClientService) FindByEmail(ctx context.Context, email string) (*domain.Client, error) {
	var row models.Client
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, persistenceError(s.log, "client.find_by_email", email, err)
	}
	record := mappers.ClientToRecord(row)
	return &record, nil
}

// List returns clients ordered by expedient number, newest first
func (s *ClientService) List(ctx context.Context, filters ClientFilters) ([]domain.Client, error) {
	query := s.db.WithContext(ctx).Model(&models.Client{})
	if filters.Status != "" && models.IsValidClientStatus(filters.Status) {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Search != "" {
		kw := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where(
			s.db.Where("LOWER(first_name) LIKE ?", kw).
				Or("LOWER(last_name) LIKE ?", kw).
				Or("LOWER(email) LIKE ?", kw).
				Or("LOWER(passport_number) LIKE ?", kw),
		)
	}

	var rows []models.Client
	if err := query.Order("expedient_number DESC").Find(&rows).Error; err != nil {
		return nil, persistenceError(s.log, "client.list", "", err)
	}

	clients := make([]domain.Client, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, mappers.ClientToRecord(row))
	}
	return clients, nil
}

// Update replaces the editable fields. The expedient number never changes.
func (s *ClientService) Update(ctx context.Context, id string, in ClientInput) (*domain.Client, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != row.Email {
		var taken int64
		if err := s.db.WithContext(ctx).Model(&models.Client{}).Where("email = ? AND id <> ?", in.Email, id).Count(&taken).Error; err != nil {
			return nil, persistenceError(s.log, "client.update", id, err)
		}
		if taken > 0 {
			return nil, ErrClientEmailTaken
		}
	}

	in.apply(row)
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, persistenceError(s.log, "client.update", id, err)
	}

	record := mappers.ClientToRecord(*row)
	return &record, nil
}

// SetStatus changes the lifecycle status (deactivation is the normal "delete")
func (s *ClientService) SetStatus(ctx context.Context, id, status string) error {
	if !models.IsValidClientStatus(status) {
		return invalid("status", "must be one of active, inactive, pending")
	}
	result := s.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return persistenceError(s.log, "client.set_status", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrClientNotFound
	}
	return nil
}

// Delete hard-deletes a client without cases
func (s *ClientService) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	var cases int64
	if err := s.db.WithContext(ctx).Model(&models.Case{}).Where("client_id = ?", id).Count(&cases).Error; err != nil {
		return persistenceError(s.log, "client.delete", id, err)
	}
	if cases > 0 {
		return ErrClientHasCases
	}

	if err := s.db.WithContext(ctx).Delete(&models.Client{}, "id = ?", id).Error; err != nil {
		return persistenceError(s.log, "client.delete", id, err)
	}
	return nil
}
