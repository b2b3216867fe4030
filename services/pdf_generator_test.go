package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPDFOptions(t *testing.T) {
	opts := DefaultPDFOptions()
	assert.Equal(t, "portrait", opts.PageOrientation)
	assert.Equal(t, "A4", opts.PageSize)
	assert.Equal(t, 57, opts.MarginTop)
}

func TestPaperSize(t *testing.T) {
	w, h := paperSize(PDFOptions{PageSize: "letter"})
	assert.Equal(t, 8.5, w)
	assert.Equal(t, 11.0, h)

	w, h = paperSize(PDFOptions{PageSize: "A4", PageOrientation: "landscape"})
	assert.Equal(t, 11.69, w)
	assert.Equal(t, 8.27, h)
}

func TestWrapHTMLForPDF(t *testing.T) {
	content := "<h1>Expediente</h1>"
	html := WrapHTMLForPDF(content)

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, `<meta charset="UTF-8">`)
	assert.Contains(t, html, content)
}

func TestGeneratePDFSmoke(t *testing.T) {
	chromePath := os.Getenv("CHROME_PATH")
	if chromePath == "" {
		t.Skip("Skipping PDF generation test: CHROME_PATH not set")
	}

	pdf, err := NewPDFGenerator(chromePath).Generate(context.Background(), WrapHTMLForPDF("<h1>Hola</h1>"), DefaultPDFOptions())
	if err != nil {
		t.Skipf("Skipping: Chrome not usable at %s: %v", chromePath, err)
	}

	assert.NotEmpty(t, pdf)
	assert.Contains(t, string(pdf[:5]), "%PDF-")
}
