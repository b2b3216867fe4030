package handlers

import (
	"immigration_crm_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListAudit returns the audit trail filtered by resourceType, resourceId, caseId and event
func (a *API) ListAudit(c echo.Context) error {
	rows, err := a.Audit.List(c.Request().Context(), services.AuditFilters{
		ResourceType: c.QueryParam("resourceType"),
		ResourceID:   c.QueryParam("resourceId"),
		CaseID:       c.QueryParam("caseId"),
		EventType:    c.QueryParam("event"),
		Limit:        queryInt(c, "limit", services.DefaultAuditLimit),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// CaseAudit returns the audit trail of one case
func (a *API) CaseAudit(c echo.Context) error {
	if _, err := a.Cases.GetCase(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	rows, err := a.Audit.List(c.Request().Context(), services.AuditFilters{
		CaseID: c.Param("id"),
		Limit:  queryInt(c, "limit", services.DefaultAuditLimit),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}
