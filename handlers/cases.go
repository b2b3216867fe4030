package handlers

import (
	"fmt"
	"immigration_crm_go/services"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type createCaseRequest struct {
	ClientID         string    `json:"clientId" validate:"required"`
	ServiceID        string    `json:"serviceId" validate:"required"`
	AssignedLawyerID *string   `json:"assignedLawyerId"`
	TotalPrice       float64   `json:"totalPrice"`
	InitialPayment   float64   `json:"initialPayment"`
	StartDate        time.Time `json:"startDate"`
	Notes            *string   `json:"notes"`
}

type updateCaseRequest struct {
	TotalPrice       *float64   `json:"totalPrice"`
	InitialPayment   *float64   `json:"initialPayment"`
	AssignedLawyerID *string    `json:"assignedLawyerId"`
	StartDate        *time.Time `json:"startDate"`
	EndDate          *time.Time `json:"endDate"`
	Notes            *string    `json:"notes"`
}

// ListCases lists cases filtered by ?clientId=, ?serviceId=, ?lawyerId= and ?status=
func (a *API) ListCases(c echo.Context) error {
	cases, err := a.Cases.ListCases(c.Request().Context(), services.CaseFilters{
		ClientID:  c.QueryParam("clientId"),
		ServiceID: c.QueryParam("serviceId"),
		LawyerID:  c.QueryParam("lawyerId"),
		Status:    c.QueryParam("status"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cases)
}

// CreateCase opens a case and instantiates the service milestones
func (a *API) CreateCase(c echo.Context) error {
	var req createCaseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	created, err := a.Cases.CreateCase(c.Request().Context(), services.CreateCaseInput{
		ClientID:         req.ClientID,
		ServiceID:        req.ServiceID,
		AssignedLawyerID: req.AssignedLawyerID,
		TotalPrice:       req.TotalPrice,
		InitialPayment:   req.InitialPayment,
		StartDate:        req.StartDate,
		Notes:            req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (a *API) GetCase(c echo.Context) error {
	found, err := a.Cases.GetCase(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, found)
}

// UpdateCase edits a case; an empty assignedLawyerId unassigns it
func (a *API) UpdateCase(c echo.Context) error {
	var req updateCaseRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	updated, err := a.Cases.UpdateCase(c.Request().Context(), c.Param("id"), services.UpdateCaseInput{
		TotalPrice:       req.TotalPrice,
		InitialPayment:   req.InitialPayment,
		AssignedLawyerID: req.AssignedLawyerID,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Notes:            req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// ChangeCaseStatus accepts the stored or the client-facing status value
func (a *API) ChangeCaseStatus(c echo.Context) error {
	var req statusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	updated, err := a.Cases.ChangeStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (a *API) DeleteCase(c echo.Context) error {
	if err := a.Cases.DeleteCase(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// CaseStatement streams the account statement of a case as PDF
func (a *API) CaseStatement(c echo.Context) error {
	pdf, found, err := a.Statements.Generate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`inline; filename="extracto_%s.pdf"`, found.ID))
	return c.Blob(http.StatusOK, services.ContentTypePDF, pdf)
}

// ArchiveCaseStatement stores the statement in object storage
func (a *API) ArchiveCaseStatement(c echo.Context) error {
	result, err := a.Statements.Archive(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}
