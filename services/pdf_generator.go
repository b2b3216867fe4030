package services

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// PDFOptions contains options for PDF generation
type PDFOptions struct {
	PageOrientation string // portrait, landscape
	PageSize        string // letter, legal, A4
	MarginTop       int    // points (72 = 1 inch)
	MarginBottom    int
	MarginLeft      int
	MarginRight     int
}

// DefaultPDFOptions returns A4 portrait with 2cm margins
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageOrientation: "portrait",
		PageSize:        "A4",
		MarginTop:       57,
		MarginBottom:    57,
		MarginLeft:      57,
		MarginRight:     57,
	}
}

// PDFGenerator renders HTML to PDF through headless Chrome
type PDFGenerator struct {
	chromePath string
	timeout    time.Duration
}

// NewPDFGenerator builds a generator. An empty chromePath uses chromedp's lookup.
func NewPDFGenerator(chromePath string) *PDFGenerator {
	return &PDFGenerator{chromePath: chromePath, timeout: 30 * time.Second}
}

func paperSize(options PDFOptions) (float64, float64) {
	var width, height float64
	switch options.PageSize {
	case "legal":
		width, height = 8.5, 14.0
	case "letter":
		width, height = 8.5, 11.0
	default: // A4
		width, height = 8.27, 11.69
	}
	if options.PageOrientation == "landscape" {
		width, height = height, width
	}
	return width, height
}

// Generate renders htmlContent with the given options
func (g *PDFGenerator) Generate(ctx context.Context, htmlContent string, options PDFOptions) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	if g.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(g.chromePath))
	}

	ctx, cancelTimeout := context.WithTimeout(ctx, g.timeout)
	defer cancelTimeout()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	width, height := paperSize(options)

	var pdfBuf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.Sleep(100*time.Millisecond),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(width).
				WithPaperHeight(height).
				WithMarginTop(float64(options.MarginTop) / 72.0).
				WithMarginBottom(float64(options.MarginBottom) / 72.0).
				WithMarginLeft(float64(options.MarginLeft) / 72.0).
				WithMarginRight(float64(options.MarginRight) / 72.0).
				WithPrintBackground(true).
				WithDisplayHeaderFooter(false).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return pdfBuf, nil
}

// WrapHTMLForPDF wraps a rendered fragment in a printable document
func WrapHTMLForPDF(content string) string {
	return `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 11pt; color: #111827; }
  h1 { font-size: 18pt; margin-bottom: 4pt; }
  table { width: 100%; border-collapse: collapse; margin-top: 12pt; }
  th, td { border-bottom: 1px solid #d1d5db; padding: 4pt 6pt; text-align: left; }
  td.num, th.num { text-align: right; }
  .summary td { border: none; padding: 2pt 6pt; }
</style>
</head>
<body>
` + content + `
</body>
</html>`
}
