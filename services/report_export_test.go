package services

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSummaryFileName(t *testing.T) {
	assert.Equal(t, "resumen_2026-03.xlsx", SummaryFileName(periodMarch))
}

func TestBuildSummaryWorkbook(t *testing.T) {
	f := newAccountingFixture(t)
	ctx := context.Background()
	exporter := NewReportExporter(f.env.accounting, nil, f.env.log)

	buf, summary, err := exporter.BuildSummaryWorkbook(ctx, periodMarch)
	require.NoError(t, err)
	assert.Equal(t, 1250.0, summary.TotalIncome)

	// generated on demand and cached
	_, err = f.env.accounting.GetMonthlySummary(ctx, periodMarch)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{"Resumen", "Ingresos por servicio", "Rendimiento abogados"}, book.GetSheetList())

	raw := excelize.Options{RawCellValue: true}
	title, err := book.GetCellValue("Resumen", "A1")
	require.NoError(t, err)
	assert.Equal(t, "2026-03", title)
	label, err := book.GetCellValue("Resumen", "A3")
	require.NoError(t, err)
	assert.Equal(t, "Ingresos totales", label)
	income, err := book.GetCellValue("Resumen", "B3", raw)
	require.NoError(t, err)
	assert.Equal(t, "1250", income)

	services, err := book.GetRows("Ingresos por servicio", raw)
	require.NoError(t, err)
	require.Len(t, services, 3)
	assert.Equal(t, []string{"Servicio", "Casos", "Ingresos"}, services[0])
	assert.Equal(t, []string{"Residencia", "1", "1250"}, services[1])

	lawyers, err := book.GetRows("Rendimiento abogados", raw)
	require.NoError(t, err)
	require.Len(t, lawyers, 3)
	assert.Equal(t, "Lucía Martín", lawyers[1][0])
	assert.Equal(t, UnassignedLawyer, lawyers[2][0])
}

func TestArchiveSummary(t *testing.T) {
	f := newAccountingFixture(t)
	ctx := context.Background()
	storage := NewLocalStorage(t.TempDir())

	t.Run("without storage", func(t *testing.T) {
		_, err := NewReportExporter(f.env.accounting, nil, f.env.log).ArchiveSummary(ctx, periodMarch)
		assert.Error(t, err)
	})

	result, err := NewReportExporter(f.env.accounting, storage, f.env.log).ArchiveSummary(ctx, periodMarch)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Key, "accounting/2026/2026-03_"))
	assert.Equal(t, ".xlsx", filepath.Ext(result.Key))
	assert.Equal(t, ContentTypeXLSX, result.MimeType)
	assert.Positive(t, result.FileSize)

	reader, contentType, err := storage.Get(ctx, result.Key)
	require.NoError(t, err)
	defer reader.Close()
	assert.Equal(t, ContentTypeXLSX, contentType)

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()
	assert.Len(t, book.GetSheetList(), 3)
}
