package middleware

import (
	"context"
	"immigration_crm_go/domain"
	"immigration_crm_go/models"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "crm_session"
	// ContextKeyUser is the context key for the authenticated user
	ContextKeyUser = "user"
	// ContextKeySession is the context key for the session
	ContextKeySession = "session"
)

// SessionValidator resolves a session token to its user
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*models.Session, *domain.User, error)
}

// SessionToken reads the session token from the Authorization bearer header,
// falling back to the session cookie.
func SessionToken(c echo.Context) string {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth is middleware that requires a valid session
func RequireAuth(sessions SessionValidator, secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := SessionToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized)
			}

			session, user, err := sessions.ValidateSession(c.Request().Context(), token)
			if err != nil {
				ClearSessionCookie(c, secure)
				return echo.NewHTTPError(http.StatusUnauthorized)
			}

			c.Set(ContextKeyUser, user)
			c.Set(ContextKeySession, session)
			return next(c)
		}
	}
}

// RequireRole is middleware that requires one of the given roles
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized)
			}
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden)
		}
	}
}

// GetCurrentUser retrieves the current user from context
func GetCurrentUser(c echo.Context) *domain.User {
	user, ok := c.Get(ContextKeyUser).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// GetCurrentSession retrieves the current session from context
func GetCurrentSession(c echo.Context) *models.Session {
	session, ok := c.Get(ContextKeySession).(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// SetSessionCookie stores the session token in an HTTP-only cookie
func SetSessionCookie(c echo.Context, session *models.Session, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie clears the session cookie
func ClearSessionCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
