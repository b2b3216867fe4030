package middleware

import (
	"immigration_crm_go/services/i18n"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// LocaleCookieName stores the preferred language
const LocaleCookieName = "lang"

// Locale middleware picks the response language.
// Priority:
// 1. Query param "lang" (sets cookie)
// 2. Cookie "lang"
// 3. Accept-Language header
// 4. Default ("es")
func Locale(secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var lang string
			if q := c.QueryParam("lang"); q != "" {
				lang = i18n.Normalize(q)
				c.SetCookie(&http.Cookie{
					Name:     LocaleCookieName,
					Value:    lang,
					Expires:  time.Now().Add(24 * 365 * time.Hour),
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			} else if cookie, err := c.Cookie(LocaleCookieName); err == nil && cookie.Value != "" {
				lang = i18n.Normalize(cookie.Value)
			} else if accept := c.Request().Header.Get("Accept-Language"); accept != "" {
				lang = i18n.Normalize(accept)
			} else {
				lang = i18n.LangES
			}

			c.Set("locale", lang)
			c.SetRequest(c.Request().WithContext(i18n.WithLocale(c.Request().Context(), lang)))
			return next(c)
		}
	}
}

// GetLocale returns the current locale from context
func GetLocale(c echo.Context) string {
	if lang, ok := c.Get("locale").(string); ok {
		return lang
	}
	return i18n.LangES
}
