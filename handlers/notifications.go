package handlers

import (
	"immigration_crm_go/middleware"
	"immigration_crm_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListNotifications returns the newest notifications of the current user.
// ?unread=true restricts to unread ones and ?limit= caps the page.
func (a *API) ListNotifications(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	list, err := a.Notifications.ListForUser(c.Request().Context(), user.ID, queryBool(c, "unread"), queryInt(c, "limit", services.DefaultNotificationLimit))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (a *API) NotificationCount(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	count, err := a.Notifications.UnreadCount(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"unread": count})
}

func (a *API) MarkNotificationRead(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if err := a.Notifications.MarkAsRead(c.Request().Context(), user.ID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *API) MarkAllNotificationsRead(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	n, err := a.Notifications.MarkAllAsRead(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"updated": n})
}

func (a *API) DeleteNotification(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if err := a.Notifications.Delete(c.Request().Context(), user.ID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
