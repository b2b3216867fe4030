package handlers

import (
	"immigration_crm_go/domain"
	"immigration_crm_go/services"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// bindAndValidate decodes the request body into req and runs its validate tags
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

func periodParam(c echo.Context) (domain.Month, error) {
	return parsePeriod(c.Param("period"))
}

func parsePeriod(raw string) (domain.Month, error) {
	m, err := domain.ParseMonth(strings.TrimSpace(raw))
	if err != nil {
		return domain.Month{}, &services.ValidationError{Field: "period", Message: "must be YYYY-MM"}
	}
	return m, nil
}

// optionalPeriod reads ?period=; an absent value means all time
func optionalPeriod(c echo.Context) (*domain.Month, error) {
	raw := c.QueryParam("period")
	if raw == "" {
		return nil, nil
	}
	m, err := parsePeriod(raw)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// requiredPeriod reads ?period=, defaulting to the current month
func requiredPeriod(c echo.Context) (domain.Month, error) {
	raw := c.QueryParam("period")
	if raw == "" {
		return domain.MonthOf(time.Now()), nil
	}
	return parsePeriod(raw)
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func queryBool(c echo.Context, name string) bool {
	b, _ := strconv.ParseBool(c.QueryParam(name))
	return b
}
