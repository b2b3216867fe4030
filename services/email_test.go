package services

import (
	"context"
	"immigration_crm_go/config"
	"immigration_crm_go/domain"
	"immigration_crm_go/logging"
	"immigration_crm_go/services/i18n"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTemplate(t *testing.T) {
	data := NotificationEmailData{UserName: "Lucía", Title: "Pago pendiente", Message: "Vence mañana", AppURL: "https://crm.example.com"}

	t.Run("spanish", func(t *testing.T) {
		html, text, err := loadTemplate("notification", i18n.LangES, data)
		require.NoError(t, err)
		assert.Contains(t, html, "Lucía")
		assert.Contains(t, text, "Hola Lucía")
		assert.Contains(t, text, "https://crm.example.com")
	})

	t.Run("english", func(t *testing.T) {
		html, _, err := loadTemplate("notification", i18n.LangEN, data)
		require.NoError(t, err)
		assert.Contains(t, html, "Hello Lucía")
	})

	t.Run("unknown language falls back to spanish", func(t *testing.T) {
		_, text, err := loadTemplate("notification", "fr", data)
		require.NoError(t, err)
		assert.Contains(t, text, "Hola")
	})

	t.Run("missing template", func(t *testing.T) {
		_, _, err := loadTemplate("does_not_exist", i18n.LangES, data)
		assert.Error(t, err)
	})

	t.Run("html is escaped", func(t *testing.T) {
		html, _, err := loadTemplate("notification", i18n.LangES, NotificationEmailData{UserName: "<b>x</b>"})
		require.NoError(t, err)
		assert.NotContains(t, html, "<b>x</b>")
	})
}

func TestBuildNotificationEmail(t *testing.T) {
	to := domain.User{FullName: "Lucía Martín", Email: "lucia@despacho.es"}
	n := domain.Notification{Title: "Pago pendiente", Message: "El hito vence mañana"}

	email, err := BuildNotificationEmail(to, n, "https://crm.example.com", i18n.LangES)
	require.NoError(t, err)
	assert.Equal(t, []string{"lucia@despacho.es"}, email.To)
	assert.Equal(t, "Pago pendiente", email.Subject)
	assert.Contains(t, email.TextBody, "El hito vence mañana")
}

func TestSendNotificationTestMode(t *testing.T) {
	cfg := &config.Config{EmailTestMode: true, AppURL: "https://crm.example.com"}
	svc := NewEmailService(cfg, logging.Discard())

	err := svc.SendNotification(context.Background(),
		domain.User{FullName: "Lucía Martín", Email: "lucia@despacho.es"},
		domain.Notification{Title: "Aviso", Message: "Mensaje"})
	assert.NoError(t, err)
}

func TestSendWithoutAPIKey(t *testing.T) {
	cfg := &config.Config{EmailTestMode: false}
	svc := NewEmailService(cfg, logging.Discard())

	err := svc.Send(context.Background(), &Email{To: []string{"a@example.com"}, Subject: "x", TextBody: "y"})
	assert.Error(t, err)
}
