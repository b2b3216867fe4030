package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"immigration_crm_go/domain"
	"immigration_crm_go/services/i18n"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// ReportExporter renders accounting reports as xlsx workbooks and archives them
type ReportExporter struct {
	accounting *AccountingService
	storage    StorageProvider
	log        logrus.FieldLogger
}

// NewReportExporter creates an exporter. storage may be nil when archiving is not used.
func NewReportExporter(accounting *AccountingService, storage StorageProvider, log logrus.FieldLogger) *ReportExporter {
	return &ReportExporter{accounting: accounting, storage: storage, log: log.WithField("service", "export")}
}

// SummaryFileName is the download name of a month export
func SummaryFileName(period domain.Month) string {
	return fmt.Sprintf("resumen_%s.xlsx", period.String())
}

// BuildSummaryWorkbook writes the monthly summary, income by service and lawyer
// performance of a month into three sheets. The summary is generated when it
// has not been cached yet.
func (e *ReportExporter) BuildSummaryWorkbook(ctx context.Context, period domain.Month) (*bytes.Buffer, *domain.MonthlySummary, error) {
	summary, err := e.accounting.GetMonthlySummary(ctx, period)
	if errors.Is(err, ErrSummaryNotFound) {
		summary, err = e.accounting.GenerateMonthlySummary(ctx, period)
	}
	if err != nil {
		return nil, nil, err
	}
	byService, err := e.accounting.GetIncomeByService(ctx, &period)
	if err != nil {
		return nil, nil, err
	}
	byLawyer, err := e.accounting.GetLawyerPerformance(ctx, &period)
	if err != nil {
		return nil, nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00

	// Summary sheet
	sheetSummary := i18n.T(ctx, "export.sheet_summary")
	f.SetSheetName("Sheet1", sheetSummary)
	f.SetCellValue(sheetSummary, "A1", period.String())
	f.SetCellStyle(sheetSummary, "A1", "A1", headerStyle)
	rows := []struct {
		key   string
		value interface{}
	}{
		{"export.total_income", summary.TotalIncome},
		{"export.lawyer_payments", summary.LawyerPayments},
		{"export.general_expenses", summary.GeneralExpenses},
		{"export.total_expenses", summary.TotalExpenses},
		{"export.net_profit", summary.NetProfit},
		{"export.profit_margin", summary.ProfitMargin},
		{"export.completed_cases", summary.CompletedCases},
		{"export.new_cases", summary.NewCases},
	}
	for i, r := range rows {
		row := i + 3
		f.SetCellValue(sheetSummary, fmt.Sprintf("A%d", row), i18n.T(ctx, r.key))
		f.SetCellValue(sheetSummary, fmt.Sprintf("B%d", row), r.value)
	}
	f.SetCellStyle(sheetSummary, "B3", "B8", moneyStyle)
	f.SetColWidth(sheetSummary, "A", "A", 28)
	f.SetColWidth(sheetSummary, "B", "B", 16)

	// Income by service
	sheetServices := i18n.T(ctx, "export.sheet_services")
	f.NewSheet(sheetServices)
	writeHeader(f, sheetServices, headerStyle, []string{
		i18n.T(ctx, "export.service"),
		i18n.T(ctx, "export.case_count"),
		i18n.T(ctx, "export.income"),
	})
	for i, s := range byService {
		row := i + 2
		f.SetCellValue(sheetServices, fmt.Sprintf("A%d", row), s.ServiceName)
		f.SetCellValue(sheetServices, fmt.Sprintf("B%d", row), s.CaseCount)
		f.SetCellValue(sheetServices, fmt.Sprintf("C%d", row), s.TotalIncome)
	}
	if len(byService) > 0 {
		f.SetCellStyle(sheetServices, "C2", fmt.Sprintf("C%d", len(byService)+1), moneyStyle)
	}
	f.SetColWidth(sheetServices, "A", "A", 32)
	f.SetColWidth(sheetServices, "B", "C", 16)

	// Lawyer performance
	sheetLawyers := i18n.T(ctx, "export.sheet_lawyers")
	f.NewSheet(sheetLawyers)
	writeHeader(f, sheetLawyers, headerStyle, []string{
		i18n.T(ctx, "export.lawyer"),
		i18n.T(ctx, "export.case_count"),
		i18n.T(ctx, "export.total_value"),
		i18n.T(ctx, "export.total_collected"),
		i18n.T(ctx, "export.average_case_value"),
	})
	for i, l := range byLawyer {
		row := i + 2
		f.SetCellValue(sheetLawyers, fmt.Sprintf("A%d", row), l.LawyerName)
		f.SetCellValue(sheetLawyers, fmt.Sprintf("B%d", row), l.CaseCount)
		f.SetCellValue(sheetLawyers, fmt.Sprintf("C%d", row), l.TotalValue)
		f.SetCellValue(sheetLawyers, fmt.Sprintf("D%d", row), l.TotalCollected)
		f.SetCellValue(sheetLawyers, fmt.Sprintf("E%d", row), l.AverageCaseValue)
	}
	if len(byLawyer) > 0 {
		f.SetCellStyle(sheetLawyers, "C2", fmt.Sprintf("E%d", len(byLawyer)+1), moneyStyle)
	}
	f.SetColWidth(sheetLawyers, "A", "A", 28)
	f.SetColWidth(sheetLawyers, "B", "E", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, summary, nil
}

func writeHeader(f *excelize.File, sheet string, style int, headers []string) {
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}

// ArchiveSummary builds the month workbook and stores it
func (e *ReportExporter) ArchiveSummary(ctx context.Context, period domain.Month) (*StorageResult, error) {
	if e.storage == nil {
		return nil, fmt.Errorf("storage not configured")
	}
	buf, summary, err := e.BuildSummaryWorkbook(ctx, period)
	if err != nil {
		return nil, err
	}

	generatedAt := summary.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}
	key := SummaryExportKey(period, generatedAt)
	result, err := e.storage.Put(ctx, key, bytes.NewReader(buf.Bytes()), ContentTypeXLSX, int64(buf.Len()))
	if err != nil {
		return nil, fmt.Errorf("failed to archive export: %w", err)
	}

	e.log.WithFields(logrus.Fields{"period": period.String(), "key": result.Key, "size": result.FileSize}).Info("Monthly export archived")
	return result, nil
}
