package handlers

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"immigration_crm_go/services"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// WebhookSecretHeader carries the shared secret of the shop webhook
const WebhookSecretHeader = "X-Webhook-Secret"

// IngestOrders receives shop orders. The body is a single order or an array of orders.
func (a *API) IngestOrders(c echo.Context) error {
	secret := a.Config.WebhookSecret
	given := c.Request().Header.Get(WebhookSecretHeader)
	if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(given)) != 1 {
		a.Log.WithField("ip", c.RealIP()).Warn("Rejected order webhook with a bad secret")
		return echo.NewHTTPError(http.StatusUnauthorized)
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest)
	}
	body = bytes.TrimSpace(body)
	ctx := c.Request().Context()

	if len(body) > 0 && body[0] == '[' {
		var orders []services.Order
		if err := json.Unmarshal(body, &orders); err != nil {
			return &services.ValidationError{Field: "body", Message: "malformed order list"}
		}
		results, err := a.Orders.ProcessBatch(ctx, orders)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, results)
	}

	var order services.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return &services.ValidationError{Field: "body", Message: "malformed order"}
	}
	result, err := a.Orders.Process(ctx, order)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// OrderHistory lists the latest order sync rows
func (a *API) OrderHistory(c echo.Context) error {
	rows, err := a.Orders.SyncHistory(c.Request().Context(), queryInt(c, "limit", 50))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}
