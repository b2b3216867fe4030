package handlers

import (
	"immigration_crm_go/config"
	"immigration_crm_go/db"
	"immigration_crm_go/events"
	"immigration_crm_go/metrics"
	"immigration_crm_go/middleware"
	"immigration_crm_go/models"
	"immigration_crm_go/services"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// API holds everything the HTTP handlers need.
// It is built once at startup and shared by all routes.
type API struct {
	Config        *config.Config
	Log           logrus.FieldLogger
	DB            *db.Gateway
	Bus           *events.Bus
	Users         *services.UserService
	Clients       *services.ClientService
	Catalog       *services.CatalogService
	Cases         *services.CaseService
	Milestones    *services.CaseMilestoneService
	Notifications *services.NotificationService
	Accounting    *services.AccountingService
	Exporter      *services.ReportExporter
	Statements    *services.StatementService
	Orders        *services.OrderIngestionService
	Security      *services.SecurityMonitor
	Audit         *services.AuditService
}

// NewEcho builds the Echo instance with the middleware chain and every route
func NewEcho(api *API) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = middleware.NewRequestValidator()
	e.HTTPErrorHandler = middleware.ErrorHandler(api.Log)

	secure := api.Config.IsProduction()

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(metrics.Middleware())
	e.Use(middleware.Locale(secure))
	e.Use(middleware.RequestLogger(api.Log))
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))
	e.Use(echomiddleware.BodyLimit("5M"))

	if api.Config.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: float64(api.Config.RateLimitRPS),
			Burst:             api.Config.RateLimitBurst,
		})
		e.Use(limiter.Middleware())
	}

	api.Register(e)
	return e
}

// Register mounts every route on e
func (a *API) Register(e *echo.Echo) {
	secure := a.Config.IsProduction()

	e.GET("/healthz", a.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Public
	e.POST("/api/login", a.Login, middleware.LoginRateLimiter().Middleware())
	e.POST("/api/integrations/orders", a.IngestOrders)

	// Authenticated
	api := e.Group("/api", middleware.RequireAuth(a.Users, secure))
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	api.POST("/logout", a.Logout)
	api.GET("/me", a.Me)

	// Clients
	api.GET("/clients", a.ListClients)
	api.POST("/clients", a.CreateClient)
	api.GET("/clients/:id", a.GetClient)
	api.PUT("/clients/:id", a.UpdateClient)
	api.DELETE("/clients/:id", a.DeleteClient, adminOnly)
	api.PUT("/clients/:id/status", a.SetClientStatus)

	// Service catalog
	api.GET("/services", a.ListServices)
	api.POST("/services", a.CreateService, adminOnly)
	api.GET("/services/:id", a.GetService)
	api.PUT("/services/:id", a.UpdateService, adminOnly)
	api.PUT("/services/:id/active", a.SetServiceActive, adminOnly)
	api.POST("/services/:id/milestones", a.AddServiceMilestone, adminOnly)
	api.PUT("/services/:id/milestones/:mid", a.UpdateServiceMilestone, adminOnly)
	api.DELETE("/services/:id/milestones/:mid", a.DeleteServiceMilestone, adminOnly)

	// Cases
	api.GET("/cases", a.ListCases)
	api.POST("/cases", a.CreateCase)
	api.GET("/cases/:id", a.GetCase)
	api.PUT("/cases/:id", a.UpdateCase)
	api.DELETE("/cases/:id", a.DeleteCase, adminOnly)
	api.PUT("/cases/:id/status", a.ChangeCaseStatus)
	api.GET("/cases/:id/statement.pdf", a.CaseStatement)
	api.GET("/cases/:id/audit", a.CaseAudit, adminOnly)
	api.POST("/cases/:id/statement/archive", a.ArchiveCaseStatement)

	// Case milestones
	api.POST("/case-milestones/:id/complete", a.CompleteMilestone)
	api.POST("/case-milestones/:id/reopen", a.ReopenMilestone)
	api.POST("/case-milestones/:id/collect", a.CollectMilestonePayment)
	api.PUT("/case-milestones/:id", a.UpdateMilestone)

	// Notifications
	api.GET("/notifications", a.ListNotifications)
	api.GET("/notifications/count", a.NotificationCount)
	api.GET("/notifications/stream", a.NotificationStream)
	api.POST("/notifications/read-all", a.MarkAllNotificationsRead)
	api.POST("/notifications/:id/read", a.MarkNotificationRead)
	api.DELETE("/notifications/:id", a.DeleteNotification)

	// Accounting
	acc := api.Group("/accounting", adminOnly)
	acc.GET("/summaries", a.ListSummaries)
	acc.POST("/summaries/:period", a.GenerateSummary)
	acc.GET("/summaries/:period/export", a.ExportSummary)
	acc.POST("/summaries/:period/archive", a.ArchiveSummary)
	acc.GET("/income-by-service", a.IncomeByService)
	acc.GET("/lawyer-performance", a.LawyerPerformance)
	acc.GET("/lawyers/:id/commission", a.LawyerCommission)
	acc.GET("/lawyers/:id/hourly", a.LawyerHourly)
	acc.GET("/lawyers/:id/work-hours", a.ListWorkHours)
	acc.GET("/lawyer-payments", a.ListLawyerPayments)
	acc.POST("/lawyer-payments", a.RecordLawyerPayment)
	acc.GET("/expenses", a.ListExpenses)
	acc.POST("/expenses", a.CreateExpense)
	acc.DELETE("/expenses/:id", a.DeleteExpense)
	acc.POST("/work-hours", a.LogWorkHours)

	// Staff
	api.GET("/users", a.ListUsers, adminOnly)
	api.POST("/users", a.CreateUser, adminOnly)
	api.PUT("/users/:id", a.UpdateUser, adminOnly)
	api.GET("/lawyers", a.ListLawyers)
	api.GET("/security/alerts", a.SecurityAlerts, adminOnly)
	api.GET("/audit", a.ListAudit, adminOnly)

	// Order ingestion history
	api.GET("/integrations/orders", a.OrderHistory, adminOnly)
}

// Health reports whether the database is reachable
func (a *API) Health(c echo.Context) error {
	ctx := c.Request().Context()
	if err := a.DB.Ping(ctx); err != nil {
		a.Log.WithError(err).Warn("Health check failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
