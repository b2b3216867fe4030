package services

import (
	"context"
	"immigration_crm_go/db"
	"immigration_crm_go/domain"
	"immigration_crm_go/events"
	"immigration_crm_go/logging"
	"immigration_crm_go/models"
	"immigration_crm_go/services/i18n"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "Extranjeria#2026"

var loadLocales sync.Once

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadLocales.Do(func() {
		if _, err := i18n.Load(); err != nil {
			panic(err)
		}
	})

	gw, err := db.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, gw.Migrate())
	t.Cleanup(func() { gw.Close() })
	return gw.DB
}

// testEnv wires every service on one isolated database
type testEnv struct {
	db            *gorm.DB
	log           logrus.FieldLogger
	bus           *events.Bus
	mailer        *fakeMailer
	clients       *ClientService
	catalog       *CatalogService
	cases         *CaseService
	milestones    *CaseMilestoneService
	users         *UserService
	accounting    *AccountingService
	notifications *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := setupTestDB(t)
	log := logging.Discard()
	bus := events.NewBus(log, 0)
	mailer := &fakeMailer{}

	return &testEnv{
		db:            gdb,
		log:           log,
		bus:           bus,
		mailer:        mailer,
		clients:       NewClientService(gdb, log, bus),
		catalog:       NewCatalogService(gdb, log),
		cases:         NewCaseService(gdb, log, bus),
		milestones:    NewCaseMilestoneService(gdb, log, bus),
		users:         NewUserService(gdb, log),
		accounting:    NewAccountingService(gdb, log),
		notifications: NewNotificationService(gdb, log, bus, mailer, 3),
	}
}

func (e *testEnv) createClient(t *testing.T, email string) *domain.Client {
	t.Helper()
	client, err := e.clients.Create(context.Background(), ClientInput{
		FirstName:   "Amina",
		LastName:    "Benali",
		Email:       email,
		Nationality: "Marruecos",
	})
	require.NoError(t, err)
	return client
}

func (e *testEnv) createService(t *testing.T, name string, templates ...MilestoneTemplateInput) *domain.Service {
	t.Helper()
	service, err := e.catalog.CreateService(context.Background(), ServiceInput{
		Name:       name,
		Category:   models.ServiceCategoryResidencia,
		BasePrice:  1500,
		Milestones: templates,
	})
	require.NoError(t, err)
	return service
}

func (e *testEnv) createUser(t *testing.T, email, role string) *domain.User {
	t.Helper()
	user, err := e.users.Create(context.Background(), CreateUserInput{
		FirstName: "Lucía",
		LastName:  "Martín",
		Email:     email,
		Password:  testPassword,
		Role:      role,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) createCase(t *testing.T, clientID, serviceID string, total, initial float64, start time.Time, lawyerID *string) *domain.Case {
	t.Helper()
	c, err := e.cases.CreateCase(context.Background(), CreateCaseInput{
		ClientID:         clientID,
		ServiceID:        serviceID,
		AssignedLawyerID: lawyerID,
		TotalPrice:       total,
		InitialPayment:   initial,
		StartDate:        start,
	})
	require.NoError(t, err)
	return c
}

type sentNotification struct {
	to domain.User
	n  domain.Notification
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (m *fakeMailer) SendNotification(ctx context.Context, to domain.User, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentNotification{to: to, n: n})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func floatPtr(f float64) *float64 {
	return &f
}

func stringPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}
