package services

import (
	"context"
	"fmt"
	"immigration_crm_go/models"
	"strings"

	"github.com/sirupsen/logrus"
)

func pct(v float64) *float64 { return &v }

// DefaultCatalog is the starter set of immigration services with their milestones
func DefaultCatalog() []ServiceInput {
	days := func(d int) *int { return &d }
	return []ServiceInput{
		{
			Name:                  "Nacionalidad española por residencia",
			Description:           "Solicitud de nacionalidad por residencia legal y continuada",
			Category:              models.ServiceCategoryNacionalidad,
			BasePrice:             900,
			EstimatedCost:         104,
			Complexity:            models.ComplexityHigh,
			RequiredDocuments:     []string{"Pasaporte", "Certificado de nacimiento", "Antecedentes penales", "Certificado DELE A2", "Certificado CCSE"},
			EstimatedDurationDays: days(540),
			Milestones: []MilestoneTemplateInput{
				{Name: "Revisión de documentación", OrderNumber: 1, IsPaymentRequired: true, PaymentPercentage: pct(40)},
				{Name: "Presentación telemática", OrderNumber: 2, IsPaymentRequired: true, PaymentPercentage: pct(40)},
				{Name: "Resolución y jura", OrderNumber: 3, IsPaymentRequired: true, PaymentPercentage: pct(20)},
			},
		},
		{
			Name:                  "Residencia por arraigo social",
			Description:           "Autorización de residencia temporal por circunstancias excepcionales",
			Category:              models.ServiceCategoryResidencia,
			BasePrice:             650,
			EstimatedCost:         38.28,
			Complexity:            models.ComplexityMedium,
			RequiredDocuments:     []string{"Pasaporte", "Empadronamiento histórico", "Antecedentes penales", "Contrato de trabajo o informe de inserción"},
			EstimatedDurationDays: days(120),
			Milestones: []MilestoneTemplateInput{
				{Name: "Estudio del caso", OrderNumber: 1, IsPaymentRequired: true, PaymentPercentage: pct(50)},
				{Name: "Presentación de la solicitud", OrderNumber: 2, IsPaymentRequired: true, PaymentPercentage: pct(50)},
				{Name: "Toma de huellas", OrderNumber: 3},
			},
		},
		{
			Name:                  "Reagrupación familiar",
			Category:              models.ServiceCategoryResidencia,
			BasePrice:             750,
			Complexity:            models.ComplexityMedium,
			RequiredDocuments:     []string{"Pasaporte del reagrupante", "Pasaporte del familiar", "Certificado de vínculo", "Informe de vivienda"},
			EstimatedDurationDays: days(150),
			Milestones: []MilestoneTemplateInput{
				{Name: "Informe de vivienda", OrderNumber: 1, IsPaymentRequired: true, DefaultPaymentAmount: pct(250)},
				{Name: "Solicitud de autorización", OrderNumber: 2, IsPaymentRequired: true, DefaultPaymentAmount: pct(500)},
				{Name: "Visado en consulado", OrderNumber: 3},
			},
		},
		{
			Name:                  "Visado de estudios",
			Category:              models.ServiceCategoryVisado,
			BasePrice:             400,
			Complexity:            models.ComplexityLow,
			RequiredDocuments:     []string{"Pasaporte", "Carta de admisión", "Seguro médico", "Medios económicos"},
			EstimatedDurationDays: days(60),
			Milestones: []MilestoneTemplateInput{
				{Name: "Preparación del expediente", OrderNumber: 1, IsPaymentRequired: true, PaymentPercentage: pct(100)},
				{Name: "Cita consular", OrderNumber: 2},
			},
		},
		{
			Name:                  "Renovación de TIE",
			Category:              models.ServiceCategoryOtros,
			BasePrice:             180,
			EstimatedCost:         16.08,
			Complexity:            models.ComplexityLow,
			RequiredDocuments:     []string{"TIE en vigor", "Pasaporte", "Tasa 790-012"},
			EstimatedDurationDays: days(45),
			Milestones: []MilestoneTemplateInput{
				{Name: "Solicitud de renovación", OrderNumber: 1, IsPaymentRequired: true, PaymentPercentage: pct(100)},
			},
		},
	}
}

// SeedCatalog creates the services of the given catalog that do not exist yet,
// matching by name. It returns how many services were created.
func SeedCatalog(ctx context.Context, catalog *CatalogService, entries []ServiceInput, log logrus.FieldLogger) (int, error) {
	existing, err := catalog.ListServices(ctx, CatalogFilters{})
	if err != nil {
		return 0, err
	}
	names := make(map[string]bool, len(existing))
	for _, svc := range existing {
		names[strings.ToLower(svc.Name)] = true
	}

	created := 0
	for _, entry := range entries {
		if names[strings.ToLower(entry.Name)] {
			log.WithField("service", entry.Name).Info("[SEED] Service already exists, skipping")
			continue
		}
		if _, err := catalog.CreateService(ctx, entry); err != nil {
			return created, fmt.Errorf("failed to create service %s: %w", entry.Name, err)
		}
		names[strings.ToLower(entry.Name)] = true
		created++
		log.WithField("service", entry.Name).Info("[SEED] Created service")
	}
	return created, nil
}
