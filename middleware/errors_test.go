package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"immigration_crm_go/logging"
	"immigration_crm_go/services"
	"immigration_crm_go/services/i18n"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &services.ValidationError{Field: "totalPrice", Message: "must be greater than zero"}, http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("load: %w", services.ErrCaseNotFound), http.StatusNotFound},
		{"milestone not found", services.ErrCaseMilestoneNotFound, http.StatusNotFound},
		{"conflict", services.ErrClientEmailTaken, http.StatusConflict},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"no mapping", services.ErrNoServiceMapped, http.StatusUnprocessableEntity},
		{"ingestion off", services.ErrIngestionDisabled, http.StatusServiceUnavailable},
		{"persistence", fmt.Errorf("case.create: %w", services.ErrPersistence), http.StatusInternalServerError},
		{"echo forbidden", echo.NewHTTPError(http.StatusForbidden), http.StatusForbidden},
		{"echo bad request", echo.NewHTTPError(http.StatusBadRequest, "bad json"), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestErrorHandler(t *testing.T) {
	_, err := i18n.Load()
	require.NoError(t, err)
	e := echo.New()
	handler := ErrorHandler(logging.Discard())

	respond := func(lang string, err error) (*httptest.ResponseRecorder, ErrorResponse) {
		req := httptest.NewRequest(http.MethodPost, "/api/cases", nil)
		req = req.WithContext(i18n.WithLocale(req.Context(), lang))
		rec := httptest.NewRecorder()
		handler(err, e.NewContext(req, rec))

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec, body
	}

	t.Run("validation carries the field", func(t *testing.T) {
		rec, body := respond(i18n.LangEN, &services.ValidationError{Field: "totalPrice", Message: "must be greater than zero"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "totalPrice", body.Field)
		assert.Equal(t, "Check the field totalPrice: must be greater than zero", body.Error)
	})

	t.Run("persistence detail is hidden", func(t *testing.T) {
		rec, body := respond(i18n.LangES, fmt.Errorf("case.create: %w: %w", services.ErrPersistence, errors.New("disk I/O error")))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Se ha producido un error inesperado. Inténtelo de nuevo más tarde.", body.Error)
		assert.NotContains(t, rec.Body.String(), "disk")
	})

	t.Run("not found", func(t *testing.T) {
		rec, body := respond(i18n.LangES, services.ErrClientNotFound)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "El recurso solicitado no existe.", body.Error)
	})
}
