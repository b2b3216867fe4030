package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"immigration_crm_go/config"
	"immigration_crm_go/domain"
	"immigration_crm_go/services/i18n"
	"io/fs"
	"strings"
	texttemplate "text/template"

	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

//go:embed emailtemplates/*
var emailTemplates embed.FS

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer sends notification emails
type Mailer interface {
	SendNotification(ctx context.Context, to domain.User, n domain.Notification) error
}

// EmailService delivers mail through Resend, or logs it in test mode
type EmailService struct {
	cfg    *config.Config
	log    logrus.FieldLogger
	client *resend.Client
}

// NewEmailService builds the mail sender. The Resend client is only created
// when a key is configured.
func NewEmailService(cfg *config.Config, log logrus.FieldLogger) *EmailService {
	s := &EmailService{cfg: cfg, log: log}
	if cfg.ResendAPIKey != "" {
		s.client = resend.NewClient(cfg.ResendAPIKey)
	}
	return s
}

// loadTemplate renders emailtemplates/<name>_<lang>.html/.txt, falling back to
// the Spanish base when the localized file is missing.
func loadTemplate(name, lang string, data interface{}) (string, string, error) {
	read := func(ext string) ([]byte, error) {
		content, err := fs.ReadFile(emailTemplates, fmt.Sprintf("emailtemplates/%s_%s%s", name, lang, ext))
		if err == nil {
			return content, nil
		}
		return fs.ReadFile(emailTemplates, fmt.Sprintf("emailtemplates/%s_%s%s", name, i18n.LangES, ext))
	}

	htmlSrc, err := read(".html")
	if err != nil {
		return "", "", fmt.Errorf("failed to read template %s: %w", name, err)
	}
	htmlTmpl, err := template.New(name).Parse(string(htmlSrc))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var htmlBuf bytes.Buffer
	if err := htmlTmpl.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	textSrc, err := read(".txt")
	if err != nil {
		return "", "", fmt.Errorf("failed to read template %s: %w", name, err)
	}
	textTmpl, err := texttemplate.New(name).Parse(string(textSrc))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var textBuf bytes.Buffer
	if err := textTmpl.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return htmlBuf.String(), textBuf.String(), nil
}

// NotificationEmailData feeds the notification template
type NotificationEmailData struct {
	UserName string
	Title    string
	Message  string
	AppURL   string
}

// BuildNotificationEmail renders a high priority notification for its recipient
func BuildNotificationEmail(to domain.User, n domain.Notification, appURL, lang string) (*Email, error) {
	htmlBody, textBody, err := loadTemplate("notification", lang, NotificationEmailData{
		UserName: to.FullName,
		Title:    n.Title,
		Message:  n.Message,
		AppURL:   appURL,
	})
	if err != nil {
		return nil, err
	}
	return &Email{
		To:       []string{to.Email},
		Subject:  n.Title,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}, nil
}

// SendNotification emails a notification to a user
func (s *EmailService) SendNotification(ctx context.Context, to domain.User, n domain.Notification) error {
	email, err := BuildNotificationEmail(to, n, s.cfg.AppURL, i18n.GetLocale(ctx))
	if err != nil {
		return err
	}
	return s.Send(ctx, email)
}

// Send delivers an email. In test mode it is logged instead.
func (s *EmailService) Send(ctx context.Context, email *Email) error {
	if s.cfg.EmailTestMode {
		s.logEmail(email)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}
	if email.HTMLBody == "" && email.TextBody == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.cfg.EmailFromName, s.cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	s.log.WithFields(logrus.Fields{"id": sent.Id, "to": email.To}).Info("Email sent via Resend")
	return nil
}

func (s *EmailService) logEmail(email *Email) {
	s.log.WithFields(logrus.Fields{
		"to":      strings.Join(email.To, ", "),
		"subject": email.Subject,
		"text":    email.TextBody,
	}).Info("Email logged (test mode, not sent)")
}
