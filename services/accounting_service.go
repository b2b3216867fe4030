package services

import (
	"context"
	"errors"
	"immigration_crm_go/domain"
	"immigration_crm_go/mappers"
	"immigration_crm_go/models"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Accounting errors
var (
	ErrSummaryNotFound = errors.New("monthly summary not found")
	ErrExpenseNotFound = errors.New("expense not found")
)

// UnassignedLawyer groups cases without a lawyer in performance reports
const UnassignedLawyer = "Sin asignar"

// LawyerPaymentInput records money paid to a lawyer
type LawyerPaymentInput struct {
	LawyerID    string       `json:"lawyerId" validate:"required"`
	Period      domain.Month `json:"-"`
	PaymentDate time.Time    `json:"paymentDate"`
	Amount      float64      `json:"amount" validate:"gte=0"`
	Method      string       `json:"method" validate:"required"`
	Notes       *string      `json:"notes"`
}

// ExpenseInput records a general expense
type ExpenseInput struct {
	Category    string    `json:"category" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Amount      float64   `json:"amount" validate:"gte=0"`
	ExpenseDate time.Time `json:"expenseDate" validate:"required"`
}

// WorkHoursInput logs lawyer time
type WorkHoursInput struct {
	LawyerID    string    `json:"lawyerId" validate:"required"`
	CaseID      *string   `json:"caseId"`
	Date        time.Time `json:"date" validate:"required"`
	Hours       float64   `json:"hours" validate:"gt=0"`
	IsBillable  bool      `json:"isBillable"`
	Description *string   `json:"description"`
}

// AccountingService computes income, expenses and lawyer payouts
type AccountingService struct {
	db  *gorm.DB
	log logrus.FieldLogger
	loc *time.Location
}

// NewAccountingService creates an accounting service. Months are cut in UTC
// until InLocation sets the firm's time zone.
func NewAccountingService(db *gorm.DB, log logrus.FieldLogger) *AccountingService {
	return &AccountingService{db: db, log: log.WithField("service", "accounting"), loc: time.UTC}
}

// InLocation makes month boundaries follow the wall clock of loc
func (s *AccountingService) InLocation(loc *time.Location) *AccountingService {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// casesStartedIn loads cases (with milestones) whose start date falls in the month.
// A nil month loads every case.
func (s *AccountingService) casesStartedIn(ctx context.Context, period *domain.Month, preloads ...string) ([]models.Case, error) {
	query := s.db.WithContext(ctx).Preload("Milestones")
	for _, p := range preloads {
		query = query.Preload(p)
	}
	if period != nil {
		start, end := period.RangeIn(s.loc)
		query = query.Where("start_date >= ? AND start_date < ?", start, end)
	}
	var cases []models.Case
	if err := query.Find(&cases).Error; err != nil {
		return nil, err
	}
	return cases, nil
}

// GenerateMonthlySummary recomputes the rollup of a month and upserts it on (year, month)
func (s *AccountingService) GenerateMonthlySummary(ctx context.Context, period domain.Month) (*domain.MonthlySummary, error) {
	if period.Month < time.January || period.Month > time.December {
		return nil, invalid("month", "must be between 1 and 12")
	}
	start, end := period.RangeIn(s.loc)
	op := "accounting.summary"

	cases, err := s.casesStartedIn(ctx, &period)
	if err != nil {
		return nil, persistenceError(s.log, op, period.String(), err)
	}
	var income float64
	for _, c := range cases {
		income += domain.PricePaid(c.InitialPayment, c.Milestones)
	}

	var lawyerPayments, generalExpenses float64
	if err := s.db.WithContext(ctx).Model(&models.LawyerPayment{}).
		Where("period_year = ? AND period_month = ?", period.Year, int(period.Month)).
		Select("COALESCE(SUM(amount), 0)").Scan(&lawyerPayments).Error; err != nil {
		return nil, persistenceError(s.log, op, period.String(), err)
	}
	if err := s.db.WithContext(ctx).Model(&models.GeneralExpense{}).
		Where("expense_date >= ? AND expense_date < ?", start, end).
		Select("COALESCE(SUM(amount), 0)").Scan(&generalExpenses).Error; err != nil {
		return nil, persistenceError(s.log, op, period.String(), err)
	}

	var completed int64
	if err := s.db.WithContext(ctx).Model(&models.Case{}).
		Where("end_date >= ? AND end_date < ?", start, end).
		Count(&completed).Error; err != nil {
		return nil, persistenceError(s.log, op, period.String(), err)
	}

	totalExpenses := lawyerPayments + generalExpenses
	netProfit := income - totalExpenses
	row := models.MonthlySummary{
		Year:            period.Year,
		Month:           int(period.Month),
		TotalIncome:     income,
		LawyerPayments:  lawyerPayments,
		GeneralExpenses: generalExpenses,
		TotalExpenses:   totalExpenses,
		NetProfit:       netProfit,
		ProfitMargin:    domain.ProfitMargin(income, netProfit),
		CompletedCases:  int(completed),
		NewCases:        len(cases),
		GeneratedAt:     time.Now().UTC(),
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "year"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_income", "lawyer_payments", "general_expenses", "total_expenses",
			"net_profit", "profit_margin", "completed_cases", "new_cases", "generated_at", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, persistenceError(s.log, op, period.String(), err)
	}

	s.log.WithFields(logrus.Fields{
		"period":     period.String(),
		"income":     income,
		"expenses":   totalExpenses,
		"net_profit": netProfit,
	}).Info("Monthly summary generated")
	return s.GetMonthlySummary(ctx, period)
}

// GetMonthlySummary returns the cached rollup of a month
func (s *AccountingService) GetMonthlySummary(ctx context.Context, period domain.Month) (*domain.MonthlySummary, error) {
	var row models.MonthlySummary
	err := s.db.WithContext(ctx).Where("year = ? AND month = ?", period.Year, int(period.Month)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSummaryNotFound
		}
		return nil, persistenceError(s.log, "accounting.summary.get", period.String(), err)
	}
	record := mappers.MonthlySummaryToRecord(row)
	return &record, nil
}

// ListMonthlySummaries returns the cached rollups of a year in month order
func (s *AccountingService) ListMonthlySummaries(ctx context.Context, year int) ([]domain.MonthlySummary, error) {
	var rows []models.MonthlySummary
	if err := s.db.WithContext(ctx).Where("year = ?", year).Order("month ASC").Find(&rows).Error; err != nil {
		return nil, persistenceError(s.log, "accounting.summary.list", "", err)
	}
	result := make([]domain.MonthlySummary, 0, len(rows))
	for _, row := range rows {
		result = append(result, mappers.MonthlySummaryToRecord(row))
	}
	return result, nil
}

// GetIncomeByService groups money received by catalog service. A nil period covers every case.
func (s *AccountingService) GetIncomeByService(ctx context.Context, period *domain.Month) ([]domain.ServiceIncome, error) {
	cases, err := s.casesStartedIn(ctx, period, "Service")
	if err != nil {
		return nil, persistenceError(s.log, "accounting.income_by_service", "", err)
	}

	groups := make(map[string]*domain.ServiceIncome)
	for _, c := range cases {
		name := c.Service.Name
		g, ok := groups[name]
		if !ok {
			g = &domain.ServiceIncome{ServiceName: name}
			groups[name] = g
		}
		g.CaseCount++
		g.TotalIncome += domain.PricePaid(c.InitialPayment, c.Milestones)
	}

	result := make([]domain.ServiceIncome, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalIncome != result[j].TotalIncome {
			return result[i].TotalIncome > result[j].TotalIncome
		}
		return result[i].ServiceName < result[j].ServiceName
	})
	return result, nil
}

// GetLawyerPerformance groups cases by assigned lawyer. Cases without a lawyer
// are reported under UnassignedLawyer.
func (s *AccountingService) GetLawyerPerformance(ctx context.Context, period *domain.Month) ([]domain.LawyerPerformance, error) {
	cases, err := s.casesStartedIn(ctx, period, "AssignedLawyer")
	if err != nil {
		return nil, persistenceError(s.log, "accounting.lawyer_performance", "", err)
	}

	groups := make(map[string]*domain.LawyerPerformance)
	for _, c := range cases {
		name := UnassignedLawyer
		if c.AssignedLawyer != nil {
			name = c.AssignedLawyer.FullName()
		}
		g, ok := groups[name]
		if !ok {
			g = &domain.LawyerPerformance{LawyerName: name}
			groups[name] = g
		}
		g.CaseCount++
		g.TotalValue += c.TotalPrice
		g.TotalCollected += domain.PricePaid(c.InitialPayment, c.Milestones)
	}

	result := make([]domain.LawyerPerformance, 0, len(groups))
	for _, g := range groups {
		g.AverageCaseValue = domain.Average(g.TotalValue, g.CaseCount)
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalValue != result[j].TotalValue {
			return result[i].TotalValue > result[j].TotalValue
		}
		return result[i].LawyerName < result[j].LawyerName
	})
	return result, nil
}

func (s *AccountingService) lawyer(ctx context.Context, lawyerID string) (*models.User, error) {
	var row models.User
	if err := s.db.WithContext(ctx).First(&row, "id = ?", lawyerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLawyerNotFound
		}
		return nil, persistenceError(s.log, "accounting.lawyer", lawyerID, err)
	}
	return &row, nil
}

// CalculateCommission is the paid amount of the lawyer's cases completed in the
// month times the lawyer's commission percentage. A missing rate counts as 0.
func (s *AccountingService) CalculateCommission(ctx context.Context, lawyerID string, period domain.Month) (*domain.LawyerPayout, error) {
	lawyer, err := s.lawyer(ctx, lawyerID)
	if err != nil {
		return nil, err
	}

	start, end := period.RangeIn(s.loc)
	var cases []models.Case
	err = s.db.WithContext(ctx).Preload("Milestones").
		Where("assigned_lawyer_id = ? AND status = ? AND end_date >= ? AND end_date < ?",
			lawyerID, models.CaseStatusCompleted, start, end).
		Find(&cases).Error
	if err != nil {
		return nil, persistenceError(s.log, "accounting.commission", lawyerID, err)
	}

	var basis float64
	for _, c := range cases {
		basis += domain.PricePaid(c.InitialPayment, c.Milestones)
	}
	var rate float64
	if lawyer.CommissionPercentage != nil {
		rate = *lawyer.CommissionPercentage
	}

	return &domain.LawyerPayout{
		LawyerID: lawyerID,
		Period:   period.String(),
		Method:   models.PaymentMethodCommission,
		Basis:    basis,
		Rate:     rate,
		Amount:   basis * rate / 100,
	}, nil
}

// CalculateHourlyPayment is the billable hours logged in the month times the
// lawyer's hourly rate. A missing rate counts as 0.
func (s *AccountingService) CalculateHourlyPayment(ctx context.Context, lawyerID string, period domain.Month) (*domain.LawyerPayout, error) {
	lawyer, err := s.lawyer(ctx, lawyerID)
	if err != nil {
		return nil, err
	}

	start, end := period.RangeIn(s.loc)
	var hours float64
	err = s.db.WithContext(ctx).Model(&models.WorkHours{}).
		Where("lawyer_id = ? AND is_billable = ? AND date >= ? AND date < ?", lawyerID, true, start, end).
		Select("COALESCE(SUM(hours), 0)").Scan(&hours).Error
	if err != nil {
		return nil, persistenceError(s.log, "accounting.hourly", lawyerID, err)
	}
	var rate float64
	if lawyer.HourlyRate != nil {
		rate = *lawyer.HourlyRate
	}

	return &domain.LawyerPayout{
		LawyerID: lawyerID,
		Period:   period.String(),
		Method:   models.PaymentMethodHourly,
		Basis:    hours,
		Rate:     rate,
		Amount:   hours * rate,
	}, nil
}

// RecordLawyerPayment persists a payment for a period
func (s *AccountingService) RecordLawyerPayment(ctx context.Context, in LawyerPaymentInput) (*domain.LawyerPayment, error) {
	switch {
	case blank(in.LawyerID):
		return nil, invalid("lawyerId", "is required")
	case in.Amount < 0:
		return nil, invalid("amount", "must not be negative")
	case !models.IsValidPaymentMethod(in.Method):
		return nil, invalid("method", "must be one of commission, hourly, fixed")
	case in.Period.Month < time.January || in.Period.Month > time.December:
		return nil, invalid("period", "is required")
	}
	if _, err := s.lawyer(ctx, in.LawyerID); err != nil {
		return nil, err
	}
	if in.PaymentDate.IsZero() {
		in.PaymentDate = time.Now()
	}

	row := models.LawyerPayment{
		LawyerID:    in.LawyerID,
		PaymentDate: in.PaymentDate.UTC(),
		PeriodYear:  in.Period.Year,
		PeriodMonth: int(in.Period.Month),
		Amount:      in.Amount,
		Method:      in.Method,
		Notes:       sanitizePtr(in.Notes),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, persistenceError(s.log, "accounting.lawyer_payment", in.LawyerID, err)
	}
	s.log.WithFields(logrus.Fields{"lawyer_id": in.LawyerID, "period": in.Period.String(), "amount": in.Amount}).Info("Lawyer payment recorded")
	record := mappers.LawyerPaymentToRecord(row)
	return &record, nil
}

// ListLawyerPayments returns the payments of a period, optionally for one lawyer
func (s *AccountingService) ListLawyerPayments(ctx context.Context, period domain.Month, lawyerID string) ([]domain.LawyerPayment, error) {
	query := s.db.WithContext(ctx).Where("period_year = ? AND period_month = ?", period.Year, int(period.Month))
	if lawyerID != "" {
		query = query.Where("lawyer_id = ?", lawyerID)
	}
	var rows []models.LawyerPayment
	if err := query.Order("payment_date ASC").Find(&rows).Error; err != nil {
		return nil, persistenceError(s.log, "accounting.lawyer_payments", lawyerID, err)
	}
	result := make([]domain.LawyerPayment, 0, len(rows))
	for _, row := range rows {
		result = append(result, mappers.LawyerPaymentToRecord(row))
	}
	return result, nil
}

// CreateExpense records a general expense
func (s *AccountingService) CreateExpense(ctx context.Context, in ExpenseInput) (*domain.GeneralExpense, error) {
	in.Category = sanitizeText(in.Category)
	in.Description = sanitizeText(in.Description)
	switch {
	case blank(in.Category):
		return nil, invalid("category", "is required")
	case blank(in.Description):
		return nil, invalid("description", "is required")
	case in.Amount < 0:
		return nil, invalid("amount", "must not be negative")
	case in.ExpenseDate.IsZero():
		return nil, invalid("expenseDate", "is required")
	}

	row := models.GeneralExpense{
		Category:    strings.TrimSpace(in.Category),
		Description: in.Description,
		Amount:      in.Amount,
		ExpenseDate: in.ExpenseDate.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, persistenceError(s.log, "accounting.expense.create", "", err)
	}
	record := mappers.GeneralExpenseToRecord(row)
	return &record, nil
}

// ListExpenses returns the expenses of a month, or all of them when period is nil
func (s *AccountingService) ListExpenses(ctx context.Context, period *domain.Month) ([]domain.GeneralExpense, error) {
	query := s.db.WithContext(ctx)
	if period != nil {
		start, end := period.RangeIn(s.loc)
		query = query.Where("expense_date >= ? AND expense_date < ?", start, end)
	}
	var rows []models.GeneralExpense
	if err := query.Order("expense_date ASC").Find(&rows).Error; err != nil {
		return nil, persistenceError(s.log, "accounting.expense.list", "", err)
	}
	result := make([]domain.GeneralExpense, 0, len(rows))
	for _, row := range rows {
		result = append(result, mappers.GeneralExpenseToRecord(row))
	}
	return result, nil
}

// DeleteExpense removes an expense
func (s *AccountingService) DeleteExpense(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.GeneralExpense{}, "id = ?", id)
	if result.Error != nil {
		return persistenceError(s.log, "accounting.expense.delete", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// LogWorkHours records a time entry for a lawyer
func (s *AccountingService) LogWorkHours(ctx context.Context, in WorkHoursInput) (*domain.WorkHours, error) {
	switch {
	case blank(in.LawyerID):
		return nil, invalid("lawyerId", "is required")
	case in.Hours <= 0 || in.Hours > 24:
		return nil, invalid("hours", "must be between 0 and 24")
	case in.Date.IsZero():
		return nil, invalid("date", "is required")
	}
	if _, err := s.lawyer(ctx, in.LawyerID); err != nil {
		return nil, err
	}
	if in.CaseID != nil && *in.CaseID == "" {
		in.CaseID = nil
	}

	row := models.WorkHours{
		LawyerID:    in.LawyerID,
		CaseID:      in.CaseID,
		Date:        in.Date.UTC(),
		Hours:       in.Hours,
		IsBillable:  in.IsBillable,
		Description: sanitizePtr(in.Description),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, persistenceError(s.log, "accounting.work_hours", in.LawyerID, err)
	}
	record := mappers.WorkHoursToRecord(row)
	return &record, nil
}

// ListWorkHours returns a lawyer's time entries for a month
func (s *AccountingService) ListWorkHours(ctx context.Context, lawyerID string, period domain.Month) ([]domain.WorkHours, error) {
	start, end := period.RangeIn(s.loc)
	var rows []models.WorkHours
	err := s.db.WithContext(ctx).
		Where("lawyer_id = ? AND date >= ? AND date < ?", lawyerID, start, end).
		Order("date ASC").Find(&rows).Error
	if err != nil {
		return nil, persistenceError(s.log, "accounting.work_hours.list", lawyerID, err)
	}
	result := make([]domain.WorkHours, 0, len(rows))
	for _, row := range rows {
		result = append(result, mappers.WorkHoursToRecord(row))
	}
	return result, nil
}
