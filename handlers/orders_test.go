package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"immigration_crm_go/logging"
	"immigration_crm_go/models"
	"immigration_crm_go/services"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testServer) webhook(t *testing.T, secret string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/integrations/orders", bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if secret != "" {
		req.Header.Set(WebhookSecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func shopOrder(id string, paid bool) services.Order {
	return services.Order{
		ID:        id,
		Email:     "cliente." + id + "@correo.es",
		FirstName: "Nadia",
		LastName:  "Haddad",
		Total:     450,
		Paid:      paid,
		Items:     []services.OrderItem{{SKU: "ARRAIGO", Name: "Arraigo", Quantity: 1, Total: 450}},
	}
}

func TestIngestOrders(t *testing.T) {
	s := newTestServer(t)
	token := s.admin(t)

	svc, err := s.api.Catalog.CreateService(context.Background(), services.ServiceInput{
		Name: "Arraigo social", Category: models.ServiceCategoryResidencia, BasePrice: 450,
	})
	require.NoError(t, err)

	t.Run("BadSecret", func(t *testing.T) {
		requireStatus(t, s.webhook(t, "", shopOrder("1001", true)), http.StatusUnauthorized)
		requireStatus(t, s.webhook(t, "otra", shopOrder("1001", true)), http.StatusUnauthorized)
	})

	t.Run("NoServiceMapped", func(t *testing.T) {
		rec := s.webhook(t, testWebhookSecret, shopOrder("1001", true))
		requireStatus(t, rec, http.StatusUnprocessableEntity)
	})

	s.api.Orders = services.NewOrderIngestionService(s.api.DB.DB, logging.Discard(), s.api.Clients, s.api.Cases, services.OrderIngestionConfig{
		Enabled:          true,
		DefaultServiceID: svc.ID,
	})

	t.Run("SingleOrder", func(t *testing.T) {
		rec := s.webhook(t, testWebhookSecret, shopOrder("1001", true))
		requireStatus(t, rec, http.StatusOK)
		var result services.OrderResult
		decode(t, rec, &result)
		assert.Equal(t, models.OrderSyncStatusSuccess, result.Status)
		assert.NotEmpty(t, result.CaseID)

		c, err := s.api.Cases.GetCase(context.Background(), result.CaseID)
		require.NoError(t, err)
		assert.Equal(t, 450.0, c.InitialPayment)
	})

	t.Run("Batch", func(t *testing.T) {
		rec := s.webhook(t, testWebhookSecret, []services.Order{shopOrder("1001", true), shopOrder("1002", false)})
		requireStatus(t, rec, http.StatusOK)
		var results []services.OrderResult
		decode(t, rec, &results)
		require.Len(t, results, 2)
		assert.Equal(t, models.OrderSyncStatusSkipped, results[0].Status)
		assert.Equal(t, models.OrderSyncStatusSuccess, results[1].Status)
	})

	t.Run("InvalidOrder", func(t *testing.T) {
		order := shopOrder("1003", true)
		order.Email = "sin-arroba"
		requireStatus(t, s.webhook(t, testWebhookSecret, order), http.StatusBadRequest)
	})

	t.Run("History", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/integrations/orders?limit=10", token, nil)
		requireStatus(t, rec, http.StatusOK)
		var rows []models.OrderSync
		decode(t, rec, &rows)
		assert.Len(t, rows, 2)
	})

	t.Run("Disabled", func(t *testing.T) {
		s.api.Orders = services.NewOrderIngestionService(s.api.DB.DB, logging.Discard(), s.api.Clients, s.api.Cases, services.OrderIngestionConfig{})
		requireStatus(t, s.webhook(t, testWebhookSecret, shopOrder("1004", true)), http.StatusServiceUnavailable)
	})
}
