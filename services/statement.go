package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"immigration_crm_go/domain"
	"immigration_crm_go/services/i18n"
	"time"

	"github.com/sirupsen/logrus"
)

// PDFRenderer converts a printable HTML document to PDF bytes
type PDFRenderer interface {
	Generate(ctx context.Context, htmlContent string, options PDFOptions) ([]byte, error)
}

var statementTemplate = template.Must(template.New("statement").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f €", v) },
	"date":  formatStatementDate,
}).Parse(`<h1>{{.L.title}}</h1>
<table class="summary">
  <tr><td>{{.L.client}}</td><td>{{.Case.ClientName}}</td></tr>
  <tr><td>{{.L.service}}</td><td>{{.Case.ServiceName}}</td></tr>
  <tr><td>{{.L.status}}</td><td>{{.Case.Status}}</td></tr>
  <tr><td>{{.L.total}}</td><td>{{money .Case.TotalPrice}}</td></tr>
  <tr><td>{{.L.paid}}</td><td>{{money .Case.PricePaid}}</td></tr>
  <tr><td>{{.L.remaining}}</td><td>{{money .Case.PriceRemaining}}</td></tr>
</table>
<table>
  <thead><tr><th>#</th><th>{{.L.milestone}}</th><th class="num">{{.L.amount}}</th><th>{{.L.completed}}</th><th>{{.L.collected}}</th></tr></thead>
  <tbody>
  {{- range .Case.Milestones}}
    <tr>
      <td>{{.OrderNumber}}</td>
      <td>{{.Name}}</td>
      <td class="num">{{money .PaymentAmount}}</td>
      <td>{{if .IsCompleted}}{{$.L.yes}} {{date .CompletedAt}}{{else}}{{$.L.no}}{{end}}</td>
      <td>{{if .IsPaymentCollected}}{{$.L.yes}} {{date .PaymentCollectedAt}}{{else}}{{$.L.no}}{{end}}</td>
    </tr>
  {{- end}}
  </tbody>
</table>`))

func formatStatementDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}

// StatementService produces the account statement of a case
type StatementService struct {
	cases   *CaseService
	pdf     PDFRenderer
	storage StorageProvider
	log     logrus.FieldLogger
}

// NewStatementService creates a statement service. storage may be nil.
func NewStatementService(cases *CaseService, pdf PDFRenderer, storage StorageProvider, log logrus.FieldLogger) *StatementService {
	return &StatementService{cases: cases, pdf: pdf, storage: storage, log: log.WithField("service", "statements")}
}

// RenderStatementHTML renders the statement of a case as a printable HTML document
func RenderStatementHTML(ctx context.Context, c domain.Case) (string, error) {
	labels := map[string]string{}
	for _, key := range []string{"title", "client", "service", "status", "total", "paid", "remaining", "milestone", "amount", "completed", "collected", "yes", "no"} {
		labels[key] = i18n.T(ctx, "statement."+key)
	}

	var buf bytes.Buffer
	if err := statementTemplate.Execute(&buf, struct {
		L    map[string]string
		Case domain.Case
	}{L: labels, Case: c}); err != nil {
		return "", fmt.Errorf("failed to render statement: %w", err)
	}
	return WrapHTMLForPDF(buf.String()), nil
}

// Generate renders the statement of a case to PDF
func (s *StatementService) Generate(ctx context.Context, caseID string) ([]byte, *domain.Case, error) {
	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}
	html, err := RenderStatementHTML(ctx, *c)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.pdf.Generate(ctx, html, DefaultPDFOptions())
	if err != nil {
		s.log.WithError(err).WithField("case_id", caseID).Error("Statement PDF generation failed")
		return nil, nil, err
	}
	return pdf, c, nil
}

// Archive generates the statement and stores it under the case
func (s *StatementService) Archive(ctx context.Context, caseID string) (*StorageResult, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("storage not configured")
	}
	pdf, _, err := s.Generate(ctx, caseID)
	if err != nil {
		return nil, err
	}
	result, err := s.storage.Put(ctx, CaseStatementKey(caseID), bytes.NewReader(pdf), ContentTypePDF, int64(len(pdf)))
	if err != nil {
		return nil, fmt.Errorf("failed to archive statement: %w", err)
	}
	s.log.WithFields(logrus.Fields{"case_id": caseID, "key": result.Key}).Info("Statement archived")
	return result, nil
}
