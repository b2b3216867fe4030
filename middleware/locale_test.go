package middleware

import (
	"immigration_crm_go/services/i18n"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocale(t *testing.T) {
	e := echo.New()
	run := func(t *testing.T, req *http.Request) (echo.Context, *httptest.ResponseRecorder, string) {
		t.Helper()
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		var fromCtx string
		handler := Locale(false)(func(c echo.Context) error {
			fromCtx = i18n.GetLocale(c.Request().Context())
			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, handler(c))
		return c, rec, fromCtx
	}

	t.Run("PriorityQueryParam", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
		req.AddCookie(&http.Cookie{Name: LocaleCookieName, Value: "es"})
		c, rec, fromCtx := run(t, req)
		assert.Equal(t, "en", GetLocale(c))
		assert.Equal(t, "en", fromCtx)

		found := false
		for _, cookie := range rec.Result().Cookies() {
			if cookie.Name == LocaleCookieName {
				assert.Equal(t, "en", cookie.Value)
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("PriorityCookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: LocaleCookieName, Value: "en"})
		req.Header.Set("Accept-Language", "es-ES,es;q=0.9")
		c, _, _ := run(t, req)
		assert.Equal(t, "en", GetLocale(c))
	})

	t.Run("PriorityHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
		c, _, _ := run(t, req)
		assert.Equal(t, "en", GetLocale(c))
	})

	t.Run("DefaultSpanish", func(t *testing.T) {
		c, _, fromCtx := run(t, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "es", GetLocale(c))
		assert.Equal(t, "es", fromCtx)
	})

	t.Run("UnsupportedFallsBack", func(t *testing.T) {
		c, _, _ := run(t, httptest.NewRequest(http.MethodGet, "/?lang=fr", nil))
		assert.Equal(t, "es", GetLocale(c))
	})
}
