package handlers

import (
	"errors"
	"immigration_crm_go/domain"
	"immigration_crm_go/middleware"
	"immigration_crm_go/services"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

// Login opens a session. The token is returned in the body for API clients
// and set as a cookie for browsers.
func (a *API) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, user, err := a.Users.Authenticate(c.Request().Context(), req.Email, req.Password, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) && a.Security != nil {
			a.Security.TrackFailedLogin(c.RealIP())
		}
		return err
	}

	middleware.SetSessionCookie(c, session, a.Config.IsProduction())
	return c.JSON(http.StatusOK, loginResponse{Token: session.Token, ExpiresAt: session.ExpiresAt, User: user})
}

// Logout ends the current session
func (a *API) Logout(c echo.Context) error {
	if err := a.Users.Logout(c.Request().Context(), middleware.SessionToken(c)); err != nil {
		return err
	}
	middleware.ClearSessionCookie(c, a.Config.IsProduction())
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user
func (a *API) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.GetCurrentUser(c))
}

// SecurityAlerts lists the recent failed-login alerts
func (a *API) SecurityAlerts(c echo.Context) error {
	alerts := []services.SecurityAlert{}
	if a.Security != nil {
		alerts = a.Security.RecentAlerts()
	}
	return c.JSON(http.StatusOK, alerts)
}
