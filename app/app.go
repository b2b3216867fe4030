// Package app assembles the service graph shared by the HTTP server and crmctl.
package app

import (
	"context"
	"fmt"
	"immigration_crm_go/config"
	"immigration_crm_go/db"
	"immigration_crm_go/events"
	"immigration_crm_go/services"
	"immigration_crm_go/services/i18n"
	"immigration_crm_go/services/jobs"

	"github.com/sirupsen/logrus"
)

// App owns the database gateway, the event bus and every service
type App struct {
	Config        *config.Config
	Log           logrus.FieldLogger
	DB            *db.Gateway
	Bus           *events.Bus
	Storage       services.StorageProvider
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
	Jobs          *jobs.Runner
	Security      *services.SecurityMonitor
	Audit         *services.AuditService

	detach func()
}

// New opens the database, runs migrations and wires the services.
// Domain events are fanned out into notifications from the moment it returns.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	if _, err := i18n.Load(); err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	gw, err := db.Open(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := gw.Migrate(); err != nil {
		gw.Close()
		return nil, err
	}

	var mapping *services.OrderMapping
	if cfg.OrderMappingFile != "" {
		mapping, err = services.LoadOrderMapping(cfg.OrderMappingFile)
		if err != nil {
			gw.Close()
			return nil, err
		}
	}

	return Wire(ctx, cfg, log, gw, mapping), nil
}

// Wire builds the services on an open gateway
func Wire(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, gw *db.Gateway, mapping *services.OrderMapping) *App {
	bus := events.NewBus(log, 0)
	storage := services.NewStorage(ctx, cfg, log)
	mailer := services.NewEmailService(cfg, log)

	users := services.NewUserService(gw.DB, log)
	clients := services.NewClientService(gw.DB, log, bus)
	cases := services.NewCaseService(gw.DB, log, bus)
	accounting := services.NewAccountingService(gw.DB, log).InLocation(cfg.Location())
	notifications := services.NewNotificationService(gw.DB, log, bus, mailer, cfg.NotifyLookaheadDays)

	a := &App{
		Config:        cfg,
		Log:           log,
		DB:            gw,
		Bus:           bus,
		Storage:       storage,
		Users:         users,
		Clients:       clients,
		Catalog:       services.NewCatalogService(gw.DB, log),
		Cases:         cases,
		Milestones:    services.NewCaseMilestoneService(gw.DB, log, bus),
		Notifications: notifications,
		Accounting:    accounting,
		Exporter:      services.NewReportExporter(accounting, storage, log),
		Statements:    services.NewStatementService(cases, services.NewPDFGenerator(cfg.ChromePath), storage, log),
		Orders: services.NewOrderIngestionService(gw.DB, log, clients, cases, services.OrderIngestionConfig{
			Enabled:          cfg.OrderSyncEnabled,
			DefaultServiceID: cfg.OrderDefaultServiceID,
			DefaultLawyerID:  cfg.OrderDefaultLawyerID,
			Mapping:          mapping,
		}),
		Jobs:     jobs.NewRunner(notifications, accounting, log),
		Security: services.NewSecurityMonitor(log),
		Audit:    services.NewAuditService(gw.DB, log),
	}
	detachNotifications := notifications.Attach(bus)
	detachAudit := a.Audit.Attach(bus)
	a.detach = func() {
		detachNotifications()
		detachAudit()
	}
	return a
}

// Close detaches the event listeners and closes the database
func (a *App) Close() error {
	if a.detach != nil {
		a.detach()
	}
	return a.DB.Close()
}
