package mappers

import (
	"encoding/json"
	"immigration_crm_go/domain"
	"immigration_crm_go/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sp(s string) *string { return &s }

func fp(f float64) *float64 { return &f }

func tp(t time.Time) *time.Time { return &t }

var (
	created = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	updated = time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC)
)

func TestClientRoundTrip(t *testing.T) {
	row := models.Client{
		ID:              "cli-1",
		CreatedAt:       created,
		UpdatedAt:       updated,
		FirstName:       "Amina",
		LastName:        "El Idrissi",
		Email:           "amina@example.com",
		Phone:           sp("+34 600 000 000"),
		PassportNumber:  sp("X1234567"),
		Nationality:     sp("Marruecos"),
		CountryOfOrigin: sp("Marruecos"),
		CityOfResidence: sp("Madrid"),
		Status:          models.ClientStatusPending,
		ExpedientNumber: 42,
		Notes:           sp("Llamar por la tarde"),
	}

	record := ClientToRecord(row)
	assert.Equal(t, "Amina El Idrissi", record.FullName)
	assert.Equal(t, "X1234567", record.PassportNumber)
	assert.Equal(t, 42, record.ExpedientNumber)
	assert.Equal(t, row, ClientToRow(record))
}

func TestClientToRecordEmptyOptionals(t *testing.T) {
	record := ClientToRecord(models.Client{ID: "c", FirstName: "A", LastName: "B"})
	assert.Empty(t, record.Phone)
	back := ClientToRow(record)
	assert.Nil(t, back.Phone)
	assert.Nil(t, back.Notes)
}

func TestServiceRoundTrip(t *testing.T) {
	days := 90
	row := models.Service{
		ID:                    "svc-1",
		CreatedAt:             created,
		UpdatedAt:             updated,
		Name:                  "Residencia por arraigo social",
		Description:           sp("Autorización de residencia temporal"),
		Category:              models.ServiceCategoryResidencia,
		BasePrice:             1200,
		EstimatedCost:         300,
		Complexity:            models.ComplexityMedium,
		RequiredDocuments:     []string{"Pasaporte", "Empadronamiento"},
		EstimatedDurationDays: &days,
		IsActive:              true,
		Milestones: []models.ServiceMilestone{
			{ID: "sm-1", ServiceID: "svc-1", Name: "Entrevista", OrderNumber: 1, IsPaymentRequired: true, PaymentPercentage: fp(50)},
			{ID: "sm-2", ServiceID: "svc-1", Name: "Presentación", Description: sp("Registro"), OrderNumber: 2, IsPaymentRequired: true, DefaultPaymentAmount: fp(600)},
		},
	}

	record := ServiceToRecord(row)
	require.Len(t, record.Milestones, 2)
	assert.Equal(t, []string{"Pasaporte", "Empadronamiento"}, record.RequiredDocuments)
	assert.Equal(t, row, ServiceToRow(record))
}

func TestServiceToRecordOrdersTemplates(t *testing.T) {
	record := ServiceToRecord(models.Service{
		ID: "svc",
		Milestones: []models.ServiceMilestone{
			{ID: "b", OrderNumber: 2},
			{ID: "a", OrderNumber: 1},
		},
	})
	assert.Equal(t, "a", record.Milestones[0].ID)
	assert.Equal(t, []string{}, record.RequiredDocuments)
}

func TestCaseRoundTrip(t *testing.T) {
	lawyer := "law-1"
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	row := models.Case{
		ID:               "case-1",
		CreatedAt:        created,
		UpdatedAt:        updated,
		ClientID:         "cli-1",
		ServiceID:        "svc-1",
		AssignedLawyerID: &lawyer,
		TotalPrice:       2000,
		InitialPayment:   200,
		AmountOwed:       1800,
		Status:           models.CaseStatusInProgress,
		StartDate:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          &end,
		Notes:            sp("Cliente derivado"),
		Milestones: []models.CaseMilestone{
			{ID: "cm-1", CaseID: "case-1", ServiceMilestoneID: sp("sm-1"), Name: "Entrevista", OrderNumber: 1,
				IsCompleted: true, CompletedAt: tp(updated), IsPaymentRequired: true, PaymentAmount: 1000,
				IsPaymentCollected: true, PaymentCollectedAt: tp(updated), Notes: sp("ok")},
			{ID: "cm-2", CaseID: "case-1", ServiceMilestoneID: sp("sm-2"), Name: "Presentación", Description: sp("Registro"),
				OrderNumber: 2, IsPaymentRequired: true, PaymentAmount: 1000, DueDate: tp(end)},
		},
	}

	record := CaseToRecord(row)
	assert.Equal(t, domain.CaseStatusInProgress, record.Status)
	assert.Equal(t, 1200.0, record.PricePaid)
	assert.Equal(t, 800.0, record.PriceRemaining)
	assert.Equal(t, 1800.0, record.AmountOwed)
	assert.Equal(t, 50, record.Progress.Percent)
	assert.Empty(t, record.ClientName)

	assert.Equal(t, row, CaseToRow(record))
}

func TestCaseToRecordNamesAndOrdering(t *testing.T) {
	row := models.Case{
		ID:             "case-2",
		Client:         models.Client{ID: "cli", FirstName: "Luis", LastName: "Pérez"},
		Service:        models.Service{ID: "svc", Name: "Nacionalidad"},
		AssignedLawyer: &models.User{ID: "u", FirstName: "Marta", LastName: "Ruiz"},
		Status:         "Archivado",
		Milestones: []models.CaseMilestone{
			{ID: "second", OrderNumber: 2},
			{ID: "first", OrderNumber: 1},
		},
	}

	record := CaseToRecord(row)
	assert.Equal(t, "Luis Pérez", record.ClientName)
	assert.Equal(t, "Nacionalidad", record.ServiceName)
	assert.Equal(t, "Marta Ruiz", record.AssignedLawyerName)
	assert.Equal(t, domain.CaseStatusCancelled, record.Status)
	assert.Equal(t, "first", record.Milestones[0].ID)
}

func TestCaseRecordJSONIsCamelCase(t *testing.T) {
	data, err := json.Marshal(CaseToRecord(models.Case{ID: "c", TotalPrice: 10, Status: models.CaseStatusOpen}))
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"totalPrice", "pricePaid", "priceRemaining", "amountOwed", "startDate", "milestones"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, "abierto", raw["status"])
}

func TestNotificationRoundTrip(t *testing.T) {
	row := models.Notification{
		ID:          "n-1",
		CreatedAt:   created,
		UserID:      "u-1",
		Type:        models.NotificationTypePaymentDue,
		Priority:    models.NotificationPriorityHigh,
		Title:       "Pago pendiente",
		Message:     "Cobrar hito",
		IsRead:      true,
		ReadAt:      tp(updated),
		RelatedID:   sp("cm-1"),
		RelatedType: sp(models.RelatedTypeCaseMilestone),
	}
	assert.Equal(t, row, NotificationToRow(NotificationToRecord(row)))
}

func TestUserRoundTripHidesPassword(t *testing.T) {
	row := models.User{
		ID:                   "u-1",
		CreatedAt:            created,
		FirstName:            "Marta",
		LastName:             "Ruiz",
		Email:                "marta@firm.es",
		Password:             "$2a$10$hash",
		Role:                 models.RoleLawyer,
		IsActive:             true,
		CommissionPercentage: fp(10),
		HourlyRate:           fp(45),
		LastLoginAt:          tp(updated),
	}

	record := UserToRecord(row)
	assert.Equal(t, "Marta Ruiz", record.FullName)

	back := UserToRow(record)
	assert.Empty(t, back.Password)
	back.Password = row.Password
	assert.Equal(t, row, back)
}

func TestMonthlySummaryRoundTrip(t *testing.T) {
	row := models.MonthlySummary{
		Year: 2026, Month: 5, TotalIncome: 5000, LawyerPayments: 1000, GeneralExpenses: 500,
		TotalExpenses: 1500, NetProfit: 3500, ProfitMargin: 70, CompletedCases: 2, NewCases: 4, GeneratedAt: updated,
	}
	assert.Equal(t, row, MonthlySummaryToRow(MonthlySummaryToRecord(row)))
}

func TestLawyerPaymentRoundTrip(t *testing.T) {
	row := models.LawyerPayment{
		ID: "lp-1", LawyerID: "u-1", PaymentDate: updated, PeriodYear: 2026, PeriodMonth: 3,
		Amount: 640, Method: models.PaymentMethodCommission, Notes: sp("marzo"),
	}
	assert.Equal(t, row, LawyerPaymentToRow(LawyerPaymentToRecord(row)))
}

func TestGeneralExpenseRoundTrip(t *testing.T) {
	row := models.GeneralExpense{ID: "e-1", Category: "Alquiler", Description: "Oficina", Amount: 900, ExpenseDate: created}
	assert.Equal(t, row, GeneralExpenseToRow(GeneralExpenseToRecord(row)))
}

func TestWorkHoursRoundTrip(t *testing.T) {
	row := models.WorkHours{ID: "w-1", LawyerID: "u-1", CaseID: sp("case-1"), Date: created, Hours: 3.5, IsBillable: true, Description: sp("Recurso")}
	assert.Equal(t, row, WorkHoursToRow(WorkHoursToRecord(row)))
}
