package handlers

import (
	"fmt"
	"immigration_crm_go/services"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

type lawyerPaymentRequest struct {
	LawyerID    string    `json:"lawyerId" validate:"required"`
	Period      string    `json:"period" validate:"required"`
	PaymentDate time.Time `json:"paymentDate"`
	Amount      float64   `json:"amount" validate:"gte=0"`
	Method      string    `json:"method" validate:"required,oneof=commission hourly fixed"`
	Notes       *string   `json:"notes"`
}

type expenseRequest struct {
	Category    string    `json:"category" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Amount      float64   `json:"amount" validate:"gte=0"`
	ExpenseDate time.Time `json:"expenseDate" validate:"required"`
}

type workHoursRequest struct {
	LawyerID    string    `json:"lawyerId" validate:"required"`
	CaseID      *string   `json:"caseId"`
	Date        time.Time `json:"date" validate:"required"`
	Hours       float64   `json:"hours" validate:"gt=0"`
	IsBillable  bool      `json:"isBillable"`
	Description *string   `json:"description"`
}

// GenerateSummary recomputes and stores the summary of a month
func (a *API) GenerateSummary(c echo.Context) error {
	period, err := periodParam(c)
	if err != nil {
		return err
	}
	summary, err := a.Accounting.GenerateMonthlySummary(c.Request().Context(), period)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// ListSummaries lists the stored summaries of ?year=, defaulting to the current year
func (a *API) ListSummaries(c echo.Context) error {
	year := time.Now().Year()
	if raw := c.QueryParam("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return &services.ValidationError{Field: "year", Message: "must be a number"}
		}
		year = y
	}
	list, err := a.Accounting.ListMonthlySummaries(c.Request().Context(), year)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// ExportSummary downloads the month report as an xlsx workbook
func (a *API) ExportSummary(c echo.Context) error {
	period, err := periodParam(c)
	if err != nil {
		return err
	}
	buf, _, err := a.Exporter.BuildSummaryWorkbook(c.Request().Context(), period)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, services.SummaryFileName(period)))
	return c.Blob(http.StatusOK, services.ContentTypeXLSX, buf.Bytes())
}

// ArchiveSummary stores the month report in object storage
func (a *API) ArchiveSummary(c echo.Context) error {
	period, err := periodParam(c)
	if err != nil {
		return err
	}
	result, err := a.Exporter.ArchiveSummary(c.Request().Context(), period)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

func (a *API) IncomeByService(c echo.Context) error {
	period, err := optionalPeriod(c)
	if err != nil {
		return err
	}
	rows, err := a.Accounting.GetIncomeByService(c.Request().Context(), period)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

func (a *API) LawyerPerformance(c echo.Context) error {
	period, err := optionalPeriod(c)
	if err != nil {
		return err
	}
	rows, err := a.Accounting.GetLawyerPerformance(c.Request().Context(), period)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

func (a *API) LawyerCommission(c echo.Context) error {
	period, err := requiredPeriod(c)
	if err != nil {
		return err
	}
	payout, err := a.Accounting.CalculateCommission(c.Request().Context(), c.Param("id"), period)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payout)
}

func (a *API) LawyerHourly(c echo.Context) error {
	period, err := requiredPeriod(c)
	if err != nil {
		return err
	}
	payout, err := a.Accounting.CalculateHourlyPayment(c.Request().Context(), c.Param("id"), period)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payout)
}

func (a *API) ListWorkHours(c echo.Context) error {
	period, err := requiredPeriod(c)
	if err != nil {
		return err
	}
	rows, err := a.Accounting.ListWorkHours(c.Request().Context(), c.Param("id"), period)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// ListLawyerPayments lists the payments of ?period=, optionally for ?lawyerId=
func (a *API) ListLawyerPayments(c echo.Context) error {
	period, err := requiredPeriod(c)
	if err != nil {
		return err
	}
	rows, err := a.Accounting.ListLawyerPayments(c.Request().Context(), period, c.QueryParam("lawyerId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

func (a *API) RecordLawyerPayment(c echo.Context) error {
	var req lawyerPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	period, err := parsePeriod(req.Period)
	if err != nil {
		return err
	}
	payment, err := a.Accounting.RecordLawyerPayment(c.Request().Context(), services.LawyerPaymentInput{
		LawyerID:    req.LawyerID,
		Period:      period,
		PaymentDate: req.PaymentDate,
		Amount:      req.Amount,
		Method:      req.Method,
		Notes:       req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, payment)
}

// ListExpenses lists general expenses, restricted to ?period= when given
func (a *API) ListExpenses(c echo.Context) error {
	period, err := optionalPeriod(c)
	if err != nil {
		return err
	}
	rows, err := a.Accounting.ListExpenses(c.Request().Context(), period)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

func (a *API) CreateExpense(c echo.Context) error {
	var req expenseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	expense, err := a.Accounting.CreateExpense(c.Request().Context(), services.ExpenseInput{
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		ExpenseDate: req.ExpenseDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, expense)
}

func (a *API) DeleteExpense(c echo.Context) error {
	if err := a.Accounting.DeleteExpense(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *API) LogWorkHours(c echo.Context) error {
	var req workHoursRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	entry, err := a.Accounting.LogWorkHours(c.Request().Context(), services.WorkHoursInput{
		LawyerID:    req.LawyerID,
		CaseID:      req.CaseID,
		Date:        req.Date,
		Hours:       req.Hours,
		IsBillable:  req.IsBillable,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}
