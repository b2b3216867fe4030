package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainCounters(t *testing.T) {
	t.Run("Payments count and sum", func(t *testing.T) {
		count := testutil.ToFloat64(paymentsCollected)
		amount := testutil.ToFloat64(paymentsCollectedAmount)

		PaymentCollected(250)
		PaymentCollected(0)

		assert.Equal(t, count+2, testutil.ToFloat64(paymentsCollected))
		assert.Equal(t, amount+250, testutil.ToFloat64(paymentsCollectedAmount))
	})

	t.Run("Notifications by type", func(t *testing.T) {
		before := testutil.ToFloat64(notificationsCreated.WithLabelValues("payment_due"))
		NotificationCreated("payment_due")
		assert.Equal(t, before+1, testutil.ToFloat64(notificationsCreated.WithLabelValues("payment_due")))
	})

	t.Run("Job runs", func(t *testing.T) {
		before := testutil.ToFloat64(jobRuns.WithLabelValues("notify", "true"))
		RecordJobRun("notify", 0, true)
		assert.Equal(t, before+1, testutil.ToFloat64(jobRuns.WithLabelValues("notify", "true")))
	})

	t.Run("Cases and milestones", func(t *testing.T) {
		cases := testutil.ToFloat64(casesCreated)
		done := testutil.ToFloat64(milestonesCompleted)
		CaseCreated()
		MilestoneCompleted()
		assert.Equal(t, cases+1, testutil.ToFloat64(casesCreated))
		assert.Equal(t, done+1, testutil.ToFloat64(milestonesCompleted))
	})
}

func TestMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/api/cases/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/api/fail", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad")
	})

	okBefore := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/cases/:id", "200"))
	failBefore := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/fail", "400"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cases/abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fail", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/cases/:id", "200")))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/fail", "400")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	RecordJobRun("summary", 10*time.Millisecond, false)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "immigration_crm_jobs_runs_total"))
	assert.True(t, strings.Contains(body, "immigration_crm_cases_created_total"))
}

func TestCanonicalPath(t *testing.T) {
	assert.Equal(t, "/", canonicalPath("/"))
	assert.Equal(t, "/api/clients", canonicalPath("/api/clients/123/status"))
	assert.Equal(t, "/healthz", canonicalPath("/healthz"))
}
