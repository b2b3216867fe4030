package services

import (
	"context"
	"errors"
	"fmt"
	"immigration_crm_go/domain"
	"immigration_crm_go/events"
	"immigration_crm_go/mappers"
	"immigration_crm_go/metrics"
	"immigration_crm_go/models"
	"immigration_crm_go/services/i18n"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrNotificationNotFound is returned when a notification does not exist for the user
var ErrNotificationNotFound = errors.New("notification not found")

// DefaultNotificationLimit caps ListForUser when no limit is given
const DefaultNotificationLimit = 50

// NotificationInput creates one notification
type NotificationInput struct {
	UserID      string
	Type        string
	Priority    string
	Title       string
	Message     string
	RelatedID   *string
	RelatedType *string
}

// NotificationService stores per-user notifications and turns domain events into them
type NotificationService struct {
	db        *gorm.DB
	log       logrus.FieldLogger
	bus       events.Publisher
	mailer    Mailer
	lookahead time.Duration
}

// NewNotificationService creates the service. mailer may be nil, in which case
// high priority notifications are not emailed.
func NewNotificationService(db *gorm.DB, log logrus.FieldLogger, bus events.Publisher, mailer Mailer, lookaheadDays int) *NotificationService {
	if lookaheadDays < 0 {
		lookaheadDays = 0
	}
	return &NotificationService{
		db:        db,
		log:       log.WithField("service", "notifications"),
		bus:       bus,
		mailer:    mailer,
		lookahead: time.Duration(lookaheadDays) * 24 * time.Hour,
	}
}

// Create validates and stores a notification, pushes it on the user's topic
// and emails it when the priority is high.
func (s *NotificationService) Create(ctx context.Context, in NotificationInput) (*domain.Notification, error) {
	if in.Priority == "" {
		in.Priority = models.NotificationPriorityMedium
	}
	switch {
	case blank(in.UserID):
		return nil, invalid("userId", "is required")
	case !models.IsValidNotificationType(in.Type):
		return nil, invalid("type", "is not a known notification type")
	case !models.IsValidNotificationPriority(in.Priority):
		return nil, invalid("priority", "must be one of low, medium, high")
	case blank(in.Title):
		return nil, invalid("title", "is required")
	}

	row := models.Notification{
		UserID:      in.UserID,
		Type:        in.Type,
		Priority:    in.Priority,
		Title:       sanitizeText(in.Title),
		Message:     sanitizeText(in.Message),
		RelatedID:   in.RelatedID,
		RelatedType: in.RelatedType,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, persistenceError(s.log, "notification.create", in.UserID, err)
	}

	record := mappers.NotificationToRecord(row)
	metrics.NotificationCreated(row.Type)
	s.bus.Publish(events.UserTopic(row.UserID), events.TypeNotificationCreated, record)

	if row.Priority == models.NotificationPriorityHigh {
		s.email(ctx, record)
	}
	return &record, nil
}

func (s *NotificationService) email(ctx context.Context, n domain.Notification) {
	if s.mailer == nil {
		return
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", n.UserID).Error; err != nil {
		s.log.WithError(err).WithField("user_id", n.UserID).Warn("Recipient not found for notification email")
		return
	}
	if err := s.mailer.SendNotification(ctx, mappers.UserToRecord(user), n); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"user_id": n.UserID, "notification_id": n.ID}).Error("Failed to email notification")
	}
}

// ListForUser returns the newest notifications of a user
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var rows []models.Notification
	if err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, persistenceError(s.log, "notification.list", userID, err)
	}
	result := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		result = append(result, mappers.NotificationToRecord(row))
	}
	return result, nil
}

// UnreadCount counts the unread notifications of a user
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, persistenceError(s.log, "notification.count", userID, err)
	}
	return count, nil
}

// MarkAsRead marks one notification of the user as read
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id string) error {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now().UTC()})
	if result.Error != nil {
		return persistenceError(s.log, "notification.read", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllAsRead marks every unread notification of the user as read
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now().UTC()})
	if result.Error != nil {
		return 0, persistenceError(s.log, "notification.read_all", userID, result.Error)
	}
	return result.RowsAffected, nil
}

// Delete removes a notification of the user
func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if result.Error != nil {
		return persistenceError(s.log, "notification.delete", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// Attach registers the domain event fan-out on the bus and returns its cancel func
func (s *NotificationService) Attach(bus *events.Bus) func() {
	return bus.Listen(events.TopicDomain, func(evt events.Event) {
		ctx := context.Background()
		if err := s.handleEvent(ctx, evt); err != nil {
			s.log.WithError(err).WithField("type", evt.Type).Error("Failed to create notifications for event")
		}
	})
}

func (s *NotificationService) handleEvent(ctx context.Context, evt events.Event) error {
	switch p := evt.Payload.(type) {
	case events.ClientCreated:
		admins, err := s.adminIDs(ctx)
		if err != nil {
			return err
		}
		args := map[string]interface{}{"name": p.FullName, "expedient": p.ExpedientNumber}
		return s.fanOut(ctx, admins, NotificationInput{
			Type:        models.NotificationTypeClientCreated,
			Priority:    models.NotificationPriorityLow,
			Title:       i18n.T(ctx, "notifications.client_created.title"),
			Message:     i18n.T(ctx, "notifications.client_created.message", args),
			RelatedID:   ptrTo(p.ClientID),
			RelatedType: ptrTo(models.RelatedTypeClient),
		})

	case events.ServiceAssigned:
		recipients, err := s.lawyerOrAdmins(ctx, p.AssignedLawyerID)
		if err != nil {
			return err
		}
		args := map[string]interface{}{"service": p.ServiceName, "client": p.ClientName}
		return s.fanOut(ctx, recipients, NotificationInput{
			Type:        models.NotificationTypeServiceAssigned,
			Priority:    models.NotificationPriorityMedium,
			Title:       i18n.T(ctx, "notifications.service_assigned.title"),
			Message:     i18n.T(ctx, "notifications.service_assigned.message", args),
			RelatedID:   ptrTo(p.CaseID),
			RelatedType: ptrTo(models.RelatedTypeCase),
		})

	case events.MilestoneCompleted:
		recipients, err := s.lawyerOrAdmins(ctx, p.AssignedLawyerID)
		if err != nil {
			return err
		}
		return s.fanOut(ctx, recipients, NotificationInput{
			Type:        models.NotificationTypeMilestoneCompleted,
			Priority:    models.NotificationPriorityMedium,
			Title:       i18n.T(ctx, "notifications.milestone_completed.title"),
			Message:     i18n.T(ctx, "notifications.milestone_completed.message", map[string]interface{}{"milestone": p.Name}),
			RelatedID:   ptrTo(p.MilestoneID),
			RelatedType: ptrTo(models.RelatedTypeCaseMilestone),
		})

	case events.PaymentCollected:
		admins, err := s.adminIDs(ctx)
		if err != nil {
			return err
		}
		args := map[string]interface{}{"milestone": p.Name, "amount": formatAmount(p.Amount)}
		return s.fanOut(ctx, admins, NotificationInput{
			Type:        models.NotificationTypeSystem,
			Priority:    models.NotificationPriorityLow,
			Title:       i18n.T(ctx, "notifications.payment_collected.title"),
			Message:     i18n.T(ctx, "notifications.payment_collected.message", args),
			RelatedID:   ptrTo(p.MilestoneID),
			RelatedType: ptrTo(models.RelatedTypeCaseMilestone),
		})
	}
	return nil
}

func (s *NotificationService) fanOut(ctx context.Context, userIDs []string, in NotificationInput) error {
	for _, id := range userIDs {
		in.UserID = id
		if _, err := s.Create(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

func (s *NotificationService) adminIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND is_active = ?", models.RoleAdmin, true).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, persistenceError(s.log, "notification.admins", "", err)
	}
	return ids, nil
}

// lawyerOrAdmins returns the assigned lawyer when set and active, otherwise the admins
func (s *NotificationService) lawyerOrAdmins(ctx context.Context, lawyerID *string) ([]string, error) {
	if lawyerID != nil && *lawyerID != "" {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ? AND is_active = ?", *lawyerID, true).
			Count(&count).Error
		if err != nil {
			return nil, persistenceError(s.log, "notification.lawyer", *lawyerID, err)
		}
		if count > 0 {
			return []string{*lawyerID}, nil
		}
	}
	return s.adminIDs(ctx)
}

// GenerateAutomaticNotifications scans open cases for milestones due before
// now plus the lookahead. It returns the number of notifications created.
// A recipient that still has an unread notification of the same type for the
// same milestone is skipped.
func (s *NotificationService) GenerateAutomaticNotifications(ctx context.Context, now time.Time) (int, error) {
	horizon := now.UTC().Add(s.lookahead)

	var cases []models.Case
	err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Where("due_date IS NOT NULL AND due_date <= ?", horizon).Order("order_number ASC")
		}).
		Where("status <> ?", models.CaseStatusCancelled).
		Find(&cases).Error
	if err != nil {
		return 0, persistenceError(s.log, "notification.generate", "", err)
	}

	created := 0
	for _, c := range cases {
		if len(c.Milestones) == 0 {
			continue
		}
		recipients, err := s.lawyerOrAdmins(ctx, c.AssignedLawyerID)
		if err != nil {
			return created, err
		}
		clientName := c.Client.FullName()

		for _, m := range c.Milestones {
			due := m.DueDate.UTC().Format("02/01/2006")
			if m.IsPaymentRequired && !m.IsPaymentCollected {
				n, err := s.createUnlessPending(ctx, recipients, NotificationInput{
					Type:     models.NotificationTypePaymentDue,
					Priority: models.NotificationPriorityHigh,
					Title:    i18n.T(ctx, "notifications.payment_due.title"),
					Message: i18n.T(ctx, "notifications.payment_due.message", map[string]interface{}{
						"milestone": m.Name, "client": clientName, "amount": formatAmount(m.PaymentAmount), "due": due,
					}),
					RelatedID:   ptrTo(m.ID),
					RelatedType: ptrTo(models.RelatedTypeCaseMilestone),
				})
				created += n
				if err != nil {
					return created, err
				}
			}
			if !m.IsCompleted {
				n, err := s.createUnlessPending(ctx, recipients, NotificationInput{
					Type:     models.NotificationTypeMilestoneDue,
					Priority: models.NotificationPriorityMedium,
					Title:    i18n.T(ctx, "notifications.milestone_due.title"),
					Message: i18n.T(ctx, "notifications.milestone_due.message", map[string]interface{}{
						"milestone": m.Name, "client": clientName, "due": due,
					}),
					RelatedID:   ptrTo(m.ID),
					RelatedType: ptrTo(models.RelatedTypeCaseMilestone),
				})
				created += n
				if err != nil {
					return created, err
				}
			}
		}
	}

	s.log.WithFields(logrus.Fields{"created": created, "horizon": horizon}).Info("Automatic notifications generated")
	return created, nil
}

func (s *NotificationService) createUnlessPending(ctx context.Context, userIDs []string, in NotificationInput) (int, error) {
	created := 0
	for _, userID := range userIDs {
		var pending int64
		err := s.db.WithContext(ctx).Model(&models.Notification{}).
			Where("user_id = ? AND type = ? AND related_id = ? AND is_read = ?", userID, in.Type, *in.RelatedID, false).
			Count(&pending).Error
		if err != nil {
			return created, persistenceError(s.log, "notification.dedupe", *in.RelatedID, err)
		}
		if pending > 0 {
			continue
		}
		in.UserID = userID
		if _, err := s.Create(ctx, in); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func ptrTo(s string) *string {
	return &s
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
