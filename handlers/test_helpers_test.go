package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"immigration_crm_go/config"
	"immigration_crm_go/db"
	"immigration_crm_go/domain"
	"immigration_crm_go/events"
	"immigration_crm_go/logging"
	"immigration_crm_go/models"
	"immigration_crm_go/services"
	"immigration_crm_go/services/i18n"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

const (
	testPassword      = "Extranjeria#2026"
	testWebhookSecret = "shop-secret"
)

var loadLocales sync.Once

type fakePDF struct{}

func (fakePDF) Generate(ctx context.Context, html string, options services.PDFOptions) ([]byte, error) {
	return []byte("%PDF-1.4 " + html), nil
}

// testServer wires the whole API on an isolated database
type testServer struct {
	api  *API
	echo *echo.Echo
}

func newTestServer(t *testing.T) *testServer {
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

	cfg := &config.Config{
		Environment:   "test",
		AppURL:        "http://localhost:8080",
		WebhookSecret: testWebhookSecret,
	}
	log := logging.Discard()
	bus := events.NewBus(log, 0)
	storage := services.NewLocalStorage(t.TempDir())

	users := services.NewUserService(gw.DB, log)
	clients := services.NewClientService(gw.DB, log, bus)
	cases := services.NewCaseService(gw.DB, log, bus)
	accounting := services.NewAccountingService(gw.DB, log)
	notifications := services.NewNotificationService(gw.DB, log, bus, nil, 3)
	t.Cleanup(notifications.Attach(bus))
	audit := services.NewAuditService(gw.DB, log)
	t.Cleanup(audit.Attach(bus))

	api := &API{
		Config:        cfg,
		Log:           log,
		DB:            gw,
		Bus:           bus,
		Users:         users,
		Clients:       clients,
		Catalog:       services.NewCatalogService(gw.DB, log),
		Cases:         cases,
		Milestones:    services.NewCaseMilestoneService(gw.DB, log, bus),
		Notifications: notifications,
		Accounting:    accounting,
		Exporter:      services.NewReportExporter(accounting, storage, log),
		Statements:    services.NewStatementService(cases, fakePDF{}, storage, log),
		Orders: services.NewOrderIngestionService(gw.DB, log, clients, cases, services.OrderIngestionConfig{
			Enabled: true,
		}),
		Security: services.NewSecurityMonitor(log),
		Audit:    audit,
	}
	return &testServer{api: api, echo: NewEcho(api)}
}

func (s *testServer) createUser(t *testing.T, email, role string) *domain.User {
	t.Helper()
	user, err := s.api.Users.Create(context.Background(), services.CreateUserInput{
		FirstName: "Lucía",
		LastName:  "Martín",
		Email:     email,
		Password:  testPassword,
		Role:      role,
	})
	require.NoError(t, err)
	return user
}

// login opens a session straight through the service and returns its token
func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	session, _, err := s.api.Users.Authenticate(context.Background(), email, testPassword, "127.0.0.1", "test")
	require.NoError(t, err)
	return session.Token
}

func (s *testServer) admin(t *testing.T) string {
	t.Helper()
	s.createUser(t, "admin@despacho.es", models.RoleAdmin)
	return s.login(t, "admin@despacho.es")
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
}

// seedCase creates a client and a two-milestone service and opens a case through the API
func (s *testServer) seedCase(t *testing.T, token string, lawyerID *string) domain.Case {
	t.Helper()
	ctx := context.Background()
	client, err := s.api.Clients.Create(ctx, services.ClientInput{
		FirstName: "Amina", LastName: "Benali", Email: "amina@correo.es",
	})
	require.NoError(t, err)
	half := 50.0
	fee := 104.0
	svc, err := s.api.Catalog.CreateService(ctx, services.ServiceInput{
		Name:      "Arraigo social",
		Category:  models.ServiceCategoryResidencia,
		BasePrice: 1200,
		Milestones: []services.MilestoneTemplateInput{
			{Name: "Presentación", OrderNumber: 1, IsPaymentRequired: true, PaymentPercentage: &half},
			{Name: "Tasa", OrderNumber: 2, IsPaymentRequired: true, DefaultPaymentAmount: &fee},
		},
	})
	require.NoError(t, err)

	body := map[string]interface{}{
		"clientId":       client.ID,
		"serviceId":      svc.ID,
		"totalPrice":     1200,
		"initialPayment": 200,
		"startDate":      "2026-03-02T09:00:00Z",
	}
	if lawyerID != nil {
		body["assignedLawyerId"] = *lawyerID
	}
	rec := s.do(t, http.MethodPost, "/api/cases", token, body)
	requireStatus(t, rec, http.StatusCreated)
	var created domain.Case
	decode(t, rec, &created)
	return created
}
