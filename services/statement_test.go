package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePDFRenderer struct {
	html string
	err  error
}

func (r *fakePDFRenderer) Generate(ctx context.Context, htmlContent string, options PDFOptions) ([]byte, error) {
	r.html = htmlContent
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4 statement"), nil
}

func TestRenderStatementHTML(t *testing.T) {
	f := newAccountingFixture(t)
	ctx := context.Background()

	c, err := f.env.cases.GetCase(ctx, f.assigned.ID)
	require.NoError(t, err)

	html, err := RenderStatementHTML(ctx, *c)
	require.NoError(t, err)
	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "Estado de cuenta del expediente")
	assert.Contains(t, html, "Amina Benali")
	assert.Contains(t, html, "Residencia")
	assert.Contains(t, html, "2000.00 €")
	assert.Contains(t, html, "1250.00 €")
	assert.Contains(t, html, "750.00 €")
	assert.Contains(t, html, "Presentación")

	t.Run("escapes user content", func(t *testing.T) {
		c.ClientName = "<script>alert(1)</script>"
		html, err := RenderStatementHTML(ctx, *c)
		require.NoError(t, err)
		assert.NotContains(t, html, "<script>alert(1)</script>")
	})
}

func TestStatementService(t *testing.T) {
	f := newAccountingFixture(t)
	ctx := context.Background()
	renderer := &fakePDFRenderer{}
	storage := NewLocalStorage(t.TempDir())
	statements := NewStatementService(f.env.cases, renderer, storage, f.env.log)

	pdf, c, err := statements.Generate(ctx, f.assigned.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
	assert.Equal(t, f.assigned.ID, c.ID)
	assert.Contains(t, renderer.html, "Presentación")

	result, err := statements.Archive(ctx, f.assigned.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Key, "cases/"+f.assigned.ID+"/statements/"))
	assert.Equal(t, ContentTypePDF, result.MimeType)

	t.Run("unknown case", func(t *testing.T) {
		_, _, err := statements.Generate(ctx, "missing")
		assert.ErrorIs(t, err, ErrCaseNotFound)
	})

	t.Run("renderer failure", func(t *testing.T) {
		renderer.err = errors.New("chrome not found")
		_, _, err := statements.Generate(ctx, f.assigned.ID)
		assert.EqualError(t, err, "chrome not found")
	})

	t.Run("without storage", func(t *testing.T) {
		_, err := NewStatementService(f.env.cases, renderer, nil, f.env.log).Archive(ctx, f.assigned.ID)
		assert.Error(t, err)
	})
}
