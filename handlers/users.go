package handlers

import (
	"immigration_crm_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

type createUserRequest struct {
	FirstName            string   `json:"firstName" validate:"required,max=100"`
	LastName             string   `json:"lastName" validate:"required,max=100"`
	Email                string   `json:"email" validate:"required,email"`
	Password             string   `json:"password" validate:"required,min=8"`
	Role                 string   `json:"role" validate:"required,oneof=admin lawyer staff"`
	CommissionPercentage *float64 `json:"commissionPercentage" validate:"omitempty,gte=0,lte=100"`
	HourlyRate           *float64 `json:"hourlyRate" validate:"omitempty,gte=0"`
}

type updateUserRequest struct {
	FirstName            *string  `json:"firstName" validate:"omitempty,max=100"`
	LastName             *string  `json:"lastName" validate:"omitempty,max=100"`
	Role                 *string  `json:"role" validate:"omitempty,oneof=admin lawyer staff"`
	IsActive             *bool    `json:"isActive"`
	CommissionPercentage *float64 `json:"commissionPercentage" validate:"omitempty,gte=0,lte=100"`
	HourlyRate           *float64 `json:"hourlyRate" validate:"omitempty,gte=0"`
}

// ListUsers lists staff, filtered by ?role= and ?active=true
func (a *API) ListUsers(c echo.Context) error {
	users, err := a.Users.List(c.Request().Context(), c.QueryParam("role"), queryBool(c, "active"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// ListLawyers lists active lawyers for assignment pickers
func (a *API) ListLawyers(c echo.Context) error {
	lawyers, err := a.Users.ListLawyers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lawyers)
}

func (a *API) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := a.Users.Create(c.Request().Context(), services.CreateUserInput{
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Email:                req.Email,
		Password:             req.Password,
		Role:                 req.Role,
		CommissionPercentage: req.CommissionPercentage,
		HourlyRate:           req.HourlyRate,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

func (a *API) UpdateUser(c echo.Context) error {
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := a.Users.Update(c.Request().Context(), c.Param("id"), services.UpdateUserInput{
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Role:                 req.Role,
		IsActive:             req.IsActive,
		CommissionPercentage: req.CommissionPercentage,
		HourlyRate:           req.HourlyRate,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
