package handlers

import (
	"immigration_crm_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

type milestoneTemplateRequest struct {
	Name                 string   `json:"name" validate:"required,max=200"`
	Description          string   `json:"description"`
	OrderNumber          int      `json:"orderNumber" validate:"gte=1"`
	IsPaymentRequired    bool     `json:"isPaymentRequired"`
	DefaultPaymentAmount *float64 `json:"defaultPaymentAmount" validate:"omitempty,gte=0"`
	PaymentPercentage    *float64 `json:"paymentPercentage" validate:"omitempty,gte=0,lte=100"`
}

func (r milestoneTemplateRequest) input() services.MilestoneTemplateInput {
	return services.MilestoneTemplateInput{
		Name:                 r.Name,
		Description:          r.Description,
		OrderNumber:          r.OrderNumber,
		IsPaymentRequired:    r.IsPaymentRequired,
		DefaultPaymentAmount: r.DefaultPaymentAmount,
		PaymentPercentage:    r.PaymentPercentage,
	}
}

type serviceRequest struct {
	Name                  string                     `json:"name" validate:"required,max=200"`
	Description           string                     `json:"description"`
	Category              string                     `json:"category" validate:"required"`
	BasePrice             float64                    `json:"basePrice" validate:"gte=0"`
	EstimatedCost         float64                    `json:"estimatedCost" validate:"gte=0"`
	Complexity            string                     `json:"complexity"`
	RequiredDocuments     []string                   `json:"requiredDocuments"`
	EstimatedDurationDays *int                       `json:"estimatedDurationDays" validate:"omitempty,gte=0"`
	Milestones            []milestoneTemplateRequest `json:"milestones" validate:"dive"`
}

func (r serviceRequest) input() services.ServiceInput {
	in := services.ServiceInput{
		Name:                  r.Name,
		Description:           r.Description,
		Category:              r.Category,
		BasePrice:             r.BasePrice,
		EstimatedCost:         r.EstimatedCost,
		Complexity:            r.Complexity,
		RequiredDocuments:     r.RequiredDocuments,
		EstimatedDurationDays: r.EstimatedDurationDays,
	}
	for _, m := range r.Milestones {
		in.Milestones = append(in.Milestones, m.input())
	}
	return in
}

type activeRequest struct {
	IsActive bool `json:"isActive"`
}

// ListServices lists the catalog, filtered by ?active=true and ?category=
func (a *API) ListServices(c echo.Context) error {
	list, err := a.Catalog.ListServices(c.Request().Context(), services.CatalogFilters{
		ActiveOnly: queryBool(c, "active"),
		Category:   c.QueryParam("category"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// CreateService creates a service together with its milestone templates
func (a *API) CreateService(c echo.Context) error {
	var req serviceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	svc, err := a.Catalog.CreateService(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, svc)
}

func (a *API) GetService(c echo.Context) error {
	svc, err := a.Catalog.GetService(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, svc)
}

// UpdateService edits service fields; milestones are managed through their own routes
func (a *API) UpdateService(c echo.Context) error {
	var req serviceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	svc, err := a.Catalog.UpdateService(c.Request().Context(), c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, svc)
}

func (a *API) SetServiceActive(c echo.Context) error {
	var req activeRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := a.Catalog.SetActive(ctx, c.Param("id"), req.IsActive); err != nil {
		return err
	}
	svc, err := a.Catalog.GetService(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, svc)
}

func (a *API) AddServiceMilestone(c echo.Context) error {
	var req milestoneTemplateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	m, err := a.Catalog.AddMilestone(c.Request().Context(), c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

func (a *API) UpdateServiceMilestone(c echo.Context) error {
	var req milestoneTemplateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	m, err := a.Catalog.UpdateMilestone(c.Request().Context(), c.Param("id"), c.Param("mid"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (a *API) DeleteServiceMilestone(c echo.Context) error {
	if err := a.Catalog.DeleteMilestone(c.Request().Context(), c.Param("id"), c.Param("mid")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
