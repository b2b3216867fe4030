package handlers

import (
	"immigration_crm_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

type clientRequest struct {
	FirstName       string `json:"firstName" validate:"required,max=100"`
	LastName        string `json:"lastName" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"max=50"`
	PassportNumber  string `json:"passportNumber" validate:"max=50"`
	Nationality     string `json:"nationality" validate:"max=100"`
	CountryOfOrigin string `json:"countryOfOrigin" validate:"max=100"`
	CityOfResidence string `json:"cityOfResidence" validate:"max=100"`
	Status          string `json:"status" validate:"omitempty,oneof=active inactive pending"`
	Notes           string `json:"notes"`
}

func (r clientRequest) input() services.ClientInput {
	return services.ClientInput{
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           r.Email,
		Phone:           r.Phone,
		PassportNumber:  r.PassportNumber,
		Nationality:     r.Nationality,
		CountryOfOrigin: r.CountryOfOrigin,
		CityOfResidence: r.CityOfResidence,
		Status:          r.Status,
		Notes:           r.Notes,
	}
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListClients lists clients, filtered by ?status= and ?q=
func (a *API) ListClients(c echo.Context) error {
	clients, err := a.Clients.List(c.Request().Context(), services.ClientFilters{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("q"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clients)
}

// CreateClient registers a client and assigns its expedient number
func (a *API) CreateClient(c echo.Context) error {
	var req clientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	client, err := a.Clients.Create(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, client)
}

func (a *API) GetClient(c echo.Context) error {
	client, err := a.Clients.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

func (a *API) UpdateClient(c echo.Context) error {
	var req clientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	client, err := a.Clients.Update(c.Request().Context(), c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

// SetClientStatus activates or deactivates a client
func (a *API) SetClientStatus(c echo.Context) error {
	var req statusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := a.Clients.SetStatus(ctx, c.Param("id"), req.Status); err != nil {
		return err
	}
	client, err := a.Clients.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

// DeleteClient removes a client without cases
func (a *API) DeleteClient(c echo.Context) error {
	if err := a.Clients.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
