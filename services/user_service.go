package services

import (
	"context"
	"errors"
	"immigration_crm_go/domain"
	"immigration_crm_go/mappers"
	"immigration_crm_go/models"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// User-related errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserEmailTaken     = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// CreateUserInput registers a staff member
type CreateUserInput struct {
	FirstName            string
	LastName             string
	Email                string
	Password             string
	Role                 string
	CommissionPercentage *float64
	HourlyRate           *float64
}

// UpdateUserInput edits a staff member. Nil fields are left untouched.
type UpdateUserInput struct {
	FirstName            *string
	LastName             *string
	Role                 *string
	IsActive             *bool
	CommissionPercentage *float64
	HourlyRate           *float64
}

// UserService manages staff accounts and their sessions
type UserService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewUserService creates a user service
func NewUserService(db *gorm.DB, log logrus.FieldLogger) *UserService {
	return &UserService{db: db, log: log.WithField("service", "users")}
}

func validateRates(commission, hourly *float64) error {
	if commission != nil && (*commission < 0 || *commission > 100) {
		return invalid("commissionPercentage", "must be between 0 and 100")
	}
	if hourly != nil && *hourly < 0 {
		return invalid("hourlyRate", "must not be negative")
	}
	return nil
}

// Create hashes the password and stores the user
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	in.FirstName = sanitizeText(in.FirstName)
	in.LastName = sanitizeText(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = models.RoleStaff
	}

	switch {
	case blank(in.FirstName):
		return nil, invalid("firstName", "is required")
	case blank(in.LastName):
		return nil, invalid("lastName", "is required")
	case !validEmail(in.Email):
		return nil, invalid("email", "must be a valid email address")
	case !models.IsValidRole(in.Role):
		return nil, invalid("role", "must be one of admin, lawyer, staff")
	}
	if err := validateRates(in.CommissionPercentage, in.HourlyRate); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	var taken int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", in.Email).Count(&taken).Error; err != nil {
		return nil, persistenceError(s.log, "user.create", in.Email, err)
	}
	if taken > 0 {
		return nil, ErrUserEmailTaken
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	row := models.User{
		FirstName:            in.FirstName,
		LastName:             in.LastName,
		Email:                in.Email,
		Password:             hash,
		Role:                 in.Role,
		IsActive:             true,
		CommissionPercentage: in.CommissionPercentage,
		HourlyRate:           in.HourlyRate,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, persistenceError(s.log, "user.create", in.Email, err)
	}

	s.log.WithFields(logrus.Fields{"user_id": row.ID, "role": row.Role}).Info("User created")
	record := mappers.UserToRecord(row)
	return &record, nil
}

// Authenticate checks the credentials of an active user and opens a session
func (s *UserService) Authenticate(ctx context.Context, email, password, ipAddress, userAgent string) (*models.Session, *domain.User, error) {
	var row models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, persistenceError(s.log, "user.authenticate", email, err)
	}
	if !row.IsActive || !CheckPassword(password, row.Password) {
		s.log.WithFields(logrus.Fields{"user_id": row.ID, "ip": ipAddress}).Warn("Failed login attempt")
		return nil, nil, ErrInvalidCredentials
	}

	session, err := CreateSession(ctx, s.db, row.ID, ipAddress, userAgent)
	if err != nil {
		return nil, nil, persistenceError(s.log, "user.authenticate", row.ID, err)
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&row).Update("last_login_at", now).Error; err != nil {
		s.log.WithError(err).WithField("user_id", row.ID).Warn("Failed to stamp last login")
	}
	row.LastLoginAt = &now

	record := mappers.UserToRecord(row)
	return session, &record, nil
}

// ValidateSession resolves a token to its active user
func (s *UserService) ValidateSession(ctx context.Context, token string) (*models.Session, *domain.User, error) {
	session, err := ValidateSession(ctx, s.db, token)
	if err != nil {
		return nil, nil, err
	}
	if !session.User.IsActive {
		return nil, nil, ErrSessionNotFound
	}
	record := mappers.UserToRecord(session.User)
	return session, &record, nil
}

// Logout ends a session
func (s *UserService) Logout(ctx context.Context, token string) error {
	return DeleteSession(ctx, s.db, token)
}

// Get returns a user by id
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	var row models.User
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistenceError(s.log, "user.get", id, err)
	}
	record := mappers.UserToRecord(row)
	return &record, nil
}

// List returns users, optionally restricted to a role, by name
func (s *UserService) List(ctx context.Context, role string, activeOnly bool) ([]domain.User, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var rows []models.User
	if err := query.Order("first_name ASC, last_name ASC").Find(&rows).Error; err != nil {
		return nil, persistenceError(s.log, "user.list", role, err)
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, mappers.UserToRecord(row))
	}
	return users, nil
}

// ListLawyers returns active lawyers
func (s *UserService) ListLawyers(ctx context.Context) ([]domain.User, error) {
	return s.List(ctx, models.RoleLawyer, true)
}

// Update edits names, role, rates and the active flag
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error) {
	if err := validateRates(in.CommissionPercentage, in.HourlyRate); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.FirstName != nil {
		if blank(*in.FirstName) {
			return nil, invalid("firstName", "is required")
		}
		updates["first_name"] = sanitizeText(*in.FirstName)
	}
	if in.LastName != nil {
		if blank(*in.LastName) {
			return nil, invalid("lastName", "is required")
		}
		updates["last_name"] = sanitizeText(*in.LastName)
	}
	if in.Role != nil {
		if !models.IsValidRole(*in.Role) {
			return nil, invalid("role", "must be one of admin, lawyer, staff")
		}
		updates["role"] = *in.Role
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.CommissionPercentage != nil {
		updates["commission_percentage"] = *in.CommissionPercentage
	}
	if in.HourlyRate != nil {
		updates["hourly_rate"] = *in.HourlyRate
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, persistenceError(s.log, "user.update", id, err)
		}
	}
	if in.IsActive != nil && !*in.IsActive {
		if err := DeleteAllUserSessions(ctx, s.db, id); err != nil {
			return nil, persistenceError(s.log, "user.update", id, err)
		}
	}
	return s.Get(ctx, id)
}

// Deactivate disables the account and ends its sessions
func (s *UserService) Deactivate(ctx context.Context, id string) error {
	inactive := false
	_, err := s.Update(ctx, id, UpdateUserInput{IsActive: &inactive})
	return err
}
