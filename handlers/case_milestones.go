package handlers

import (
	"immigration_crm_go/services"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type completeMilestoneRequest struct {
	Notes *string `json:"notes"`
}

type collectPaymentRequest struct {
	Amount *float64 `json:"amount" validate:"omitempty,gte=0"`
}

type updateMilestoneRequest struct {
	IsCompleted        *bool      `json:"isCompleted"`
	IsPaymentCollected *bool      `json:"isPaymentCollected"`
	PaymentAmount      *float64   `json:"paymentAmount" validate:"omitempty,gte=0"`
	Notes              *string    `json:"notes"`
	DueDate            *time.Time `json:"dueDate"`
}

// CompleteMilestone marks a milestone done. The case status is left to ChangeStatus.
func (a *API) CompleteMilestone(c echo.Context) error {
	var req completeMilestoneRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	m, err := a.Milestones.CompleteMilestone(c.Request().Context(), c.Param("id"), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (a *API) ReopenMilestone(c echo.Context) error {
	m, err := a.Milestones.ReopenMilestone(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// CollectMilestonePayment records the payment of a milestone, optionally overriding its amount
func (a *API) CollectMilestonePayment(c echo.Context) error {
	var req collectPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	m, err := a.Milestones.MarkPaymentAsCollected(c.Request().Context(), c.Param("id"), req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (a *API) UpdateMilestone(c echo.Context) error {
	var req updateMilestoneRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	m, err := a.Milestones.UpdateMilestone(c.Request().Context(), c.Param("id"), services.MilestoneUpdate{
		IsCompleted:        req.IsCompleted,
		IsPaymentCollected: req.IsPaymentCollected,
		PaymentAmount:      req.PaymentAmount,
		Notes:              req.Notes,
		DueDate:            req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}
