package main

import (
	"context"
	"errors"
	"immigration_crm_go/app"
	"immigration_crm_go/config"
	"immigration_crm_go/handlers"
	"immigration_crm_go/logging"
	"immigration_crm_go/services"
	"immigration_crm_go/services/jobs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logging.New(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database, migrations and services
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize application")
	}
	defer a.Close()

	if err := services.SeedAdminFromEnv(ctx, a.Users, log); err != nil {
		log.WithError(err).Error("Failed to seed admin user")
	}

	// Background jobs
	scheduler, err := jobs.NewScheduler(jobs.Config{
		NotifySchedule:  cfg.NotifySchedule,
		SummarySchedule: cfg.SummarySchedule,
		Location:        cfg.Location(),
	}, a.Jobs, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure scheduler")
	}
	scheduler.Start()

	go a.Security.Run(ctx, time.Hour)

	// Clean up expired sessions every hour
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				n, err := services.CleanupExpiredSessions(ctx, a.DB.DB)
				if err != nil {
					log.WithError(err).Error("Error cleaning up expired sessions")
					continue
				}
				if n > 0 {
					log.WithField("removed", n).Info("Expired sessions cleaned up")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	e := handlers.NewEcho(&handlers.API{
		Config:        cfg,
		Log:           log,
		DB:            a.DB,
		Bus:           a.Bus,
		Users:         a.Users,
		Clients:       a.Clients,
		Catalog:       a.Catalog,
		Cases:         a.Cases,
		Milestones:    a.Milestones,
		Notifications: a.Notifications,
		Accounting:    a.Accounting,
		Exporter:      a.Exporter,
		Statements:    a.Statements,
		Orders:        a.Orders,
		Security:      a.Security,
		Audit:         a.Audit,
	})

	// Start server
	go func() {
		log.WithField("port", cfg.ServerPort).Info("Server starting")
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	scheduler.Stop(shutdownCtx)
}
